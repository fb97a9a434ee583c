package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/vnpay"
)

// Note stamped on the payment row when the gateway confirms.
const paymentConfirmedNote = "Thanh toán VNPay thành công"

// IPN response codes per the gateway contract.
const (
	ipnCodeOK               = "00"
	ipnCodeInvalidSignature = "97"
	ipnCodeUnknownError     = "99"
)

// ReturnResult is what the return handler reports back to the storefront.
// Exactly one of Order and PendingPaymentID is set on a successful payment:
// either the order was placed, or the money was parked for reconciliation.
type ReturnResult struct {
	Success          bool
	ResponseCode     string
	Order            *models.Order
	PendingPaymentID *uuid.UUID
}

// IPNResult is the acknowledgment body returned to the gateway's server-side
// call.
type IPNResult struct {
	RspCode string
	Message string
}

// Service handles the two inbound gateway legs. The browser return leg is
// authoritative for order creation; the IPN leg only reconciles payment
// status and never creates orders.
type Service interface {
	HandleReturn(ctx context.Context, values url.Values) (*ReturnResult, error)
	HandleIPN(ctx context.Context, values url.Values) *IPNResult
}

type callbackVerifier interface {
	VerifyCallback(values url.Values) (*vnpay.CallbackResult, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input checkout.PlaceOrderInput) (*models.Order, error)
}

type paymentConfirmer interface {
	ConfirmGatewayPayment(ctx context.Context, orderID uuid.UUID, gatewayTransactionID, note string) (*models.Payment, error)
	ConfirmPayment(ctx context.Context, transactionID string) (*models.Payment, error)
}

type pendingRecorder interface {
	Record(ctx context.Context, input pendingpayments.RecordInput) (*models.PendingPayment, error)
}

type sessionStore interface {
	FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.CheckoutSession, error)
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	verifier callbackVerifier
	placer   orderPlacer
	payments paymentConfirmer
	pending  pendingRecorder
	sessions sessionStore
	logger   *logger.Logger
}

// NewService constructs the gateway callback service.
func NewService(
	verifier callbackVerifier,
	placer orderPlacer,
	payments paymentConfirmer,
	pending pendingRecorder,
	sessions sessionStore,
	logg *logger.Logger,
) (Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("gateway verifier required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending payment service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("checkout session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		verifier: verifier,
		placer:   placer,
		payments: payments,
		pending:  pending,
		sessions: sessions,
		logger:   logg,
	}, nil
}

// HandleReturn processes the browser redirect back from the gateway. Once the
// signature verifies and the gateway reports success, the money is real: if
// the order cannot be created for any reason, the payment is parked as a
// pending payment row instead of being dropped.
func (s *service) HandleReturn(ctx context.Context, values url.Values) (*ReturnResult, error) {
	result, err := s.verifier.VerifyCallback(values)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		// The customer cancelled or the charge failed; there is no money to
		// protect and nothing to persist.
		return &ReturnResult{Success: false, ResponseCode: result.ResponseCode}, nil
	}

	session, err := s.sessions.FindByGatewayRef(ctx, result.TxnRef)
	if err != nil {
		s.logger.Error(ctx, "failed to load checkout session for gateway return", err)
	}
	if session == nil {
		// Paid, but the wizard state is gone (expired, cleaned up, or a
		// replay). Park the money with whatever context remains.
		return s.parkPayment(ctx, result, nil)
	}

	if session.GatewayTotal == nil || !session.GatewayTotal.Equal(result.Amount) {
		s.logger.Warn(ctx, "gateway amount does not match checkout session")
		return s.parkPayment(ctx, result, session)
	}
	if session.AddressID == nil || session.ShippingMethod == nil {
		return s.parkPayment(ctx, result, session)
	}

	order, err := s.placer.PlaceOrder(ctx, checkout.PlaceOrderInput{
		CustomerID:     session.CustomerID,
		AddressID:      *session.AddressID,
		PaymentMethod:  "VNPay",
		ShippingMethod: *session.ShippingMethod,
		Note:           session.OrderNote,
		ExpectedTotal:  session.GatewayTotal,
	})
	if err != nil {
		s.logger.Error(ctx, "order placement failed after gateway success", err)
		return s.parkPayment(ctx, result, session)
	}

	if _, err := s.payments.ConfirmGatewayPayment(ctx, order.ID, result.TransactionNo, paymentConfirmedNote); err != nil {
		s.logger.Error(ctx, "failed to confirm gateway payment", err)
	}
	if err := s.sessions.DeleteByCustomer(ctx, session.CustomerID); err != nil {
		s.logger.Warn(ctx, "failed to clear checkout session after gateway return")
	}

	return &ReturnResult{Success: true, ResponseCode: result.ResponseCode, Order: order}, nil
}

// parkPayment records the captured money as a pending payment so the
// reconciliation worker (or an operator) can finish the job.
func (s *service) parkPayment(ctx context.Context, result *vnpay.CallbackResult, session *models.CheckoutSession) (*ReturnResult, error) {
	input := pendingpayments.RecordInput{
		TransactionID:    result.TxnRef,
		GatewayReference: result.TransactionNo,
		Amount:           result.Amount,
	}
	if session != nil {
		customerID := session.CustomerID
		input.CustomerID = &customerID
		input.AddressID = session.AddressID
		input.ShippingMethod = session.ShippingMethod
		input.OrderNote = session.OrderNote
	}

	row, err := s.pending.Record(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "park gateway payment")
	}
	id := row.ID
	return &ReturnResult{Success: true, ResponseCode: result.ResponseCode, PendingPaymentID: &id}, nil
}

// HandleIPN acknowledges the gateway's server-to-server notification. The
// update is best-effort: a payment row that does not exist yet simply means
// the return leg has not run, and the gateway will retry.
func (s *service) HandleIPN(ctx context.Context, values url.Values) *IPNResult {
	result, err := s.verifier.VerifyCallback(values)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
			return &IPNResult{RspCode: ipnCodeInvalidSignature, Message: "Invalid Checksum"}
		}
		return &IPNResult{RspCode: ipnCodeUnknownError, Message: "Unknown Error"}
	}

	if result.Success && result.TransactionNo != "" {
		if _, err := s.payments.ConfirmPayment(ctx, result.TransactionNo); err != nil {
			s.logger.Warn(ctx, "ipn payment confirmation skipped")
		}
	}
	return &IPNResult{RspCode: ipnCodeOK, Message: "Confirm Success"}
}
