package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/internal/address"
	internalauth "github.com/vietcart/vietcart-backend/internal/auth"
	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/catalog"
	checkoutsvc "github.com/vietcart/vietcart-backend/internal/checkout"
	"github.com/vietcart/vietcart-backend/internal/customers"
	"github.com/vietcart/vietcart-backend/internal/gateway"
	"github.com/vietcart/vietcart-backend/internal/paymentmethods"
	"github.com/vietcart/vietcart-backend/internal/pendingpayments"
	pkgAuth "github.com/vietcart/vietcart-backend/pkg/auth"
	"github.com/vietcart/vietcart-backend/pkg/auth/session"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
	"github.com/vietcart/vietcart-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubCustomersService struct{}

func (stubCustomersService) Register(ctx context.Context, input customers.RegisterInput) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomersService) Get(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	return &models.Customer{Email: "shopper@example.com", FullName: "Shopper"}, nil
}

func (stubCustomersService) UpdateProfile(ctx context.Context, customerID uuid.UUID, input customers.ProfileInput) (*models.Customer, error) {
	panic("unimplemented")
}

func (stubCustomersService) VerifyCredentials(ctx context.Context, email, password string) (*models.Customer, error) {
	panic("unimplemented")
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*internalauth.TokenPair, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string, rememberMe bool) (*internalauth.TokenPair, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{}, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) QuantityInStock(ctx context.Context, productID uuid.UUID) (int, error) {
	panic("unimplemented")
}

func (stubCatalogService) EffectivePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	panic("unimplemented")
}

func (stubCatalogService) IncreaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	panic("unimplemented")
}

func (stubCatalogService) SetDiscountPrice(ctx context.Context, productID uuid.UUID, price *decimal.Decimal) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, customerID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, customerID, productID uuid.UUID, qty int) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemSelection(ctx context.Context, customerID, itemID uuid.UUID, selected bool) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) SaveForLater(ctx context.Context, customerID, itemID uuid.UUID) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) MoveToCart(ctx context.Context, customerID, itemID uuid.UUID) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	panic("unimplemented")
}

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Create(ctx context.Context, customerID uuid.UUID, input address.AddressInput) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Update(ctx context.Context, customerID, addressID uuid.UUID, input address.AddressInput) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	panic("unimplemented")
}

func (stubAddressService) SetDefault(ctx context.Context, customerID, addressID uuid.UUID) error {
	panic("unimplemented")
}

type stubPaymentMethodService struct{}

func (stubPaymentMethodService) List(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) Get(ctx context.Context, customerID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) Create(ctx context.Context, customerID uuid.UUID, input paymentmethods.CreateInput) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) SaveCard(ctx context.Context, customerID uuid.UUID, cardNumber string) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) Delete(ctx context.Context, customerID, methodID uuid.UUID) error {
	panic("unimplemented")
}

func (stubPaymentMethodService) SetDefault(ctx context.Context, customerID, methodID uuid.UUID) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Get(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, error) {
	panic("unimplemented")
}

func (stubCheckoutService) SetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CheckoutSession, error) {
	panic("unimplemented")
}

func (stubCheckoutService) SetShippingMethod(ctx context.Context, customerID uuid.UUID, method enums.ShippingMethod) (*models.CheckoutSession, error) {
	panic("unimplemented")
}

func (stubCheckoutService) SetPayment(ctx context.Context, customerID uuid.UUID, selection checkoutsvc.PaymentSelection) (*models.CheckoutSession, error) {
	panic("unimplemented")
}

func (stubCheckoutService) Confirm(ctx context.Context, customerID uuid.UUID, input checkoutsvc.ConfirmInput) (*checkoutsvc.ConfirmResult, error) {
	panic("unimplemented")
}

func (stubCheckoutService) Abandon(ctx context.Context, customerID uuid.UUID) error {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, customerID, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (stubOrdersService) Delete(ctx context.Context, customerID, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (stubOrdersService) ApplyDiscount(ctx context.Context, customerID, orderID uuid.UUID, code string) (*models.Order, error) {
	panic("unimplemented")
}

type stubPaymentsService struct{}

func (stubPaymentsService) ProcessPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) ConfirmGatewayPayment(ctx context.Context, orderID uuid.UUID, gatewayTransactionID, note string) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) ConfirmPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) RefundPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	panic("unimplemented")
}

type stubShipmentsService struct{}

func (stubShipmentsService) CreateShipment(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error) {
	panic("unimplemented")
}

func (stubShipmentsService) UpdateStatus(ctx context.Context, shipmentID uuid.UUID, target enums.ShipmentStatus) (*models.Shipment, error) {
	panic("unimplemented")
}

func (stubShipmentsService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	panic("unimplemented")
}

func (stubShipmentsService) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	panic("unimplemented")
}

type stubPendingPaymentsService struct{}

func (stubPendingPaymentsService) Record(ctx context.Context, input pendingpayments.RecordInput) (*models.PendingPayment, error) {
	panic("unimplemented")
}

func (stubPendingPaymentsService) Get(ctx context.Context, id uuid.UUID) (*models.PendingPayment, error) {
	panic("unimplemented")
}

func (stubPendingPaymentsService) List(ctx context.Context, limit int) ([]models.PendingPayment, error) {
	return nil, nil
}

func (stubPendingPaymentsService) ListPendingOrderCreation(ctx context.Context, limit int) ([]models.PendingPayment, error) {
	panic("unimplemented")
}

func (stubPendingPaymentsService) RecordAttempt(ctx context.Context, id uuid.UUID, attemptErr error) (*models.PendingPayment, error) {
	panic("unimplemented")
}

func (stubPendingPaymentsService) MarkCompleted(ctx context.Context, id, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (stubPendingPaymentsService) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	panic("unimplemented")
}

func (stubPendingPaymentsService) Backlog(ctx context.Context) (int64, error) {
	panic("unimplemented")
}

type stubGatewayService struct{}

func (stubGatewayService) HandleReturn(ctx context.Context, values url.Values) (*gateway.ReturnResult, error) {
	return &gateway.ReturnResult{Success: false, ResponseCode: "97"}, nil
}

func (stubGatewayService) HandleIPN(ctx context.Context, values url.Values) *gateway.IPNResult {
	return &gateway.IPNResult{RspCode: "97", Message: "Invalid signature"}
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", AdminToken: "test-admin-token"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		Services{
			Customers:      stubCustomersService{},
			Auth:           stubAuthService{},
			Catalog:        stubCatalogService{},
			Cart:           stubCartService{},
			Addresses:      stubAddressService{},
			PaymentMethods: stubPaymentMethodService{},
			Checkout:       stubCheckoutService{},
			Orders:         stubOrdersService{},
			Payments:       stubPaymentsService{},
			Shipments:      stubShipmentsService{},
			PendingLedger:  stubPendingPaymentsService{},
			Gateway:        stubGatewayService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		CustomerID: uuid.New(),
		Email:      "shopper@example.com",
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicProductListNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public product list got %d", resp.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed cart fetch got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	missing := httptest.NewRequest(http.MethodGet, "/api/admin/v1/pending-payments", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token got %d", resp.Code)
	}

	wrong := httptest.NewRequest(http.MethodGet, "/api/admin/v1/pending-payments", nil)
	wrong.Header.Set("X-Admin-Token", "not-the-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, wrong)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong admin token got %d", resp.Code)
	}

	right := httptest.NewRequest(http.MethodGet, "/api/admin/v1/pending-payments", nil)
	right.Header.Set("X-Admin-Token", "test-admin-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, right)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin token got %d", resp.Code)
	}
}

func TestAdminGroupDisabledWithoutConfiguredToken(t *testing.T) {
	cfg := testConfig()
	cfg.App.AdminToken = ""
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/pending-payments", nil)
	req.Header.Set("X-Admin-Token", "anything")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin surface disabled got %d", resp.Code)
	}
}

func TestVNPayIPNAnswersWithGatewayShape(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/ipn?vnp_TxnRef=VC1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ipn got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"RspCode":"97"`) || !strings.Contains(body, `"Message":"Invalid signature"`) {
		t.Fatalf("unexpected ipn body %s", body)
	}
}

func TestVNPayReturnNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return?vnp_TxnRef=VC1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for gateway return got %d", resp.Code)
	}
}
