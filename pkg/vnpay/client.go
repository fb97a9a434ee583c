// Package vnpay implements the VNPay redirect-gateway protocol: building the
// signed payment URL and verifying signatures on return/IPN callbacks. The
// wire format is a query string whose keys are ASCII-sorted, values
// URL-encoded, HMAC-SHA512-signed with the merchant secret.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/config"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

const (
	version     = "2.1.0"
	commandPay  = "pay"
	currency    = "VND"
	orderType   = "other"
	locale      = "vn"
	timeLayout  = "20060102150405"
	CodeSuccess = "00"
)

var (
	errTmnCodeRequired    = errors.New("vnpay merchant code is required")
	errHashSecretRequired = errors.New("vnpay hash secret is required")
	errReturnURLRequired  = errors.New("vnpay return url is required")
	errLoggerRequired     = errors.New("vnpay logger is required")
)

// VNPay timestamps are always expressed in Indochina time regardless of where
// the service runs.
var gatewayZone = loadGatewayZone()

func loadGatewayZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Ho_Chi_Minh"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// Client signs outbound payment URLs and verifies inbound callbacks.
type Client struct {
	tmnCode      string
	hashSecret   string
	payURL       string
	returnURL    string
	expireWindow time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

// NewClient validates the merchant credentials and returns a gateway client.
func NewClient(cfg config.VNPayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.TmnCode) == "" {
		return nil, errTmnCodeRequired
	}
	if strings.TrimSpace(cfg.HashSecret) == "" {
		return nil, errHashSecretRequired
	}
	if strings.TrimSpace(cfg.ReturnURL) == "" {
		return nil, errReturnURLRequired
	}
	expire := cfg.ExpireWindow
	if expire <= 0 {
		expire = 15 * time.Minute
	}
	return &Client{
		tmnCode:      strings.TrimSpace(cfg.TmnCode),
		hashSecret:   strings.TrimSpace(cfg.HashSecret),
		payURL:       strings.TrimSpace(cfg.PayURL),
		returnURL:    strings.TrimSpace(cfg.ReturnURL),
		expireWindow: expire,
		logger:       logg,
		now:          time.Now,
	}, nil
}

// PaymentRequest describes one outbound gateway redirect.
type PaymentRequest struct {
	// Amount in VND. The wire format multiplies by 100.
	Amount    decimal.Decimal
	TxnRef    string
	OrderInfo string
	ClientIP  string
}

// BuildPaymentURL returns the signed redirect URL for the gateway.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if strings.TrimSpace(req.TxnRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	now := c.now().In(gatewayZone)
	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.tmnCode,
		"vnp_Amount":     req.Amount.Shift(2).Truncate(0).String(),
		"vnp_CurrCode":   currency,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  orderType,
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  c.returnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(timeLayout),
		"vnp_ExpireDate": now.Add(c.expireWindow).Format(timeLayout),
	}

	canonical := canonicalize(params)
	signature := c.sign(canonical)
	return fmt.Sprintf("%s?%s&vnp_SecureHash=%s", c.payURL, canonical, signature), nil
}

// CallbackResult carries the verified fields of a return or IPN callback.
type CallbackResult struct {
	Success       bool
	ResponseCode  string
	TxnRef        string
	TransactionNo string
	BankCode      string
	// Amount in VND, already divided back by 100.
	Amount decimal.Decimal
}

// VerifyCallback checks the signature over every received parameter except
// the hash fields themselves, using the identical canonicalization as the
// outbound leg. Any mismatch is rejected before a single field is trusted.
func (c *Client) VerifyCallback(values url.Values) (*CallbackResult, error) {
	received := values.Get("vnp_SecureHash")
	if received == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway callback missing signature")
	}

	params := make(map[string]string, len(values))
	for key := range values {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		params[key] = values.Get(key)
	}

	expected := c.sign(canonicalize(params))
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gateway signature")
	}

	result := &CallbackResult{
		ResponseCode:  values.Get("vnp_ResponseCode"),
		TxnRef:        values.Get("vnp_TxnRef"),
		TransactionNo: values.Get("vnp_TransactionNo"),
		BankCode:      values.Get("vnp_BankCode"),
	}
	result.Success = result.ResponseCode == CodeSuccess

	if raw := values.Get("vnp_Amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed gateway amount")
		}
		result.Amount = amount.Shift(-2)
	}

	return result, nil
}

// canonicalize renders params as key=value&... with keys in ASCII order and
// values URL-encoded. This exact string is both signed and sent.
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[key]))
	}
	return b.String()
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha512.New, []byte(c.hashSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
