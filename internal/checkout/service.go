package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/paymentmethods"
	"github.com/vietcart/vietcart-backend/pkg/config"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
	"github.com/vietcart/vietcart-backend/pkg/logger"
	"github.com/vietcart/vietcart-backend/pkg/vnpay"
)

// Service walks a customer through the checkout wizard on a durable session
// row: address, shipping, payment, confirm. Every step revalidates the cart
// so a stale tab cannot place a second order.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, error)
	SetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CheckoutSession, error)
	SetShippingMethod(ctx context.Context, customerID uuid.UUID, method enums.ShippingMethod) (*models.CheckoutSession, error)
	SetPayment(ctx context.Context, customerID uuid.UUID, selection PaymentSelection) (*models.CheckoutSession, error)
	Confirm(ctx context.Context, customerID uuid.UUID, input ConfirmInput) (*ConfirmResult, error)
	Abandon(ctx context.Context, customerID uuid.UUID) error
}

// PaymentSelection is the payment step payload. CardNumber is only consulted
// for the credit channel and never persisted raw.
type PaymentSelection struct {
	Channel    enums.PaymentChannel
	CardNumber string
}

// ConfirmInput finalizes the wizard.
type ConfirmInput struct {
	TermsAccepted bool
	Note          string
	ClientIP      string
}

// ConfirmResult is either a placed order or a gateway redirect, never both.
type ConfirmResult struct {
	Order       *models.Order
	RedirectURL string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// addressBook is the slice of the address service checkout depends on.
type addressBook interface {
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

// cardVault saves masked cards, deduplicating repeats.
type cardVault interface {
	SaveCard(ctx context.Context, customerID uuid.UUID, cardNumber string) (*models.PaymentMethod, error)
}

// paymentProcessor settles the pending payment row after placement.
type paymentProcessor interface {
	ProcessPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*models.Payment, error)
}

// gatewayURLBuilder signs the redirect for gateway channels.
type gatewayURLBuilder interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
}

type service struct {
	sessions  *Repository
	cartRepo  *cart.Repository
	placer    *Placer
	addresses addressBook
	cards     cardVault
	payments  paymentProcessor
	gateway   gatewayURLBuilder
	cfg       config.CheckoutConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewService constructs the checkout wizard service.
func NewService(
	sessions *Repository,
	cartRepo *cart.Repository,
	placer *Placer,
	addresses addressBook,
	cards cardVault,
	paymentSvc paymentProcessor,
	gateway gatewayURLBuilder,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("checkout session repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if cards == nil {
		return nil, fmt.Errorf("payment method service required")
	}
	if paymentSvc == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("checkout session TTL must be positive")
	}
	return &service{
		sessions:  sessions,
		cartRepo:  cartRepo,
		placer:    placer,
		addresses: addresses,
		cards:     cards,
		payments:  paymentSvc,
		gateway:   gateway,
		cfg:       cfg,
		logger:    logg,
		now:       time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, error) {
	if _, err := s.checkoutableCart(ctx, customerID); err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, customerID)
}

func (s *service) SetAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CheckoutSession, error) {
	if _, err := s.checkoutableCart(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := s.addresses.Get(ctx, customerID, addressID); err != nil {
		return nil, err
	}

	session, err := s.getOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	session.AddressID = &addressID
	session.Step = enums.CheckoutStepShipping
	return s.save(ctx, session)
}

func (s *service) SetShippingMethod(ctx context.Context, customerID uuid.UUID, method enums.ShippingMethod) (*models.CheckoutSession, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]any{"method": method.String()})
	}
	if _, err := s.checkoutableCart(ctx, customerID); err != nil {
		return nil, err
	}

	session, err := s.getOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if session.AddressID == nil {
		return nil, stepMissing(enums.CheckoutStepAddress)
	}
	session.ShippingMethod = &method
	session.Step = enums.CheckoutStepPayment
	return s.save(ctx, session)
}

func (s *service) SetPayment(ctx context.Context, customerID uuid.UUID, selection PaymentSelection) (*models.CheckoutSession, error) {
	if !selection.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment channel").
			WithDetails(map[string]any{"channel": selection.Channel.String()})
	}
	if _, err := s.checkoutableCart(ctx, customerID); err != nil {
		return nil, err
	}

	session, err := s.getOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if session.AddressID == nil {
		return nil, stepMissing(enums.CheckoutStepAddress)
	}
	if session.ShippingMethod == nil {
		return nil, stepMissing(enums.CheckoutStepShipping)
	}

	session.CardLast4 = ""
	session.CardProvider = ""
	if selection.Channel == enums.PaymentChannelCredit {
		last4 := paymentmethods.CardLast4(selection.CardNumber)
		if last4 == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card number is too short")
		}
		// The raw number stays in memory only; the vault stores the mask and
		// skips cards it has already seen.
		saved, err := s.cards.SaveCard(ctx, customerID, selection.CardNumber)
		if err != nil {
			return nil, err
		}
		session.CardLast4 = last4
		session.CardProvider = saved.Provider
	}

	channel := selection.Channel
	session.PaymentChannel = &channel
	session.Step = enums.CheckoutStepConfirm
	return s.save(ctx, session)
}

func (s *service) Confirm(ctx context.Context, customerID uuid.UUID, input ConfirmInput) (*ConfirmResult, error) {
	activeCart, err := s.checkoutableCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	session, err := s.getOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if session.AddressID == nil {
		return nil, stepMissing(enums.CheckoutStepAddress)
	}
	if session.ShippingMethod == nil {
		return nil, stepMissing(enums.CheckoutStepShipping)
	}
	if session.PaymentChannel == nil {
		return nil, stepMissing(enums.CheckoutStepPayment)
	}
	if !input.TermsAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terms and conditions must be accepted")
	}

	session.TermsAccepted = true
	session.OrderNote = input.Note

	channel := *session.PaymentChannel
	if channel.RequiresGateway() {
		return s.redirectToGateway(ctx, session, activeCart, input.ClientIP)
	}

	order, err := s.placer.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID:     customerID,
		AddressID:      *session.AddressID,
		PaymentMethod:  channel.Label(),
		ShippingMethod: *session.ShippingMethod,
		Note:           input.Note,
	})
	if err != nil {
		return nil, err
	}

	// Cash settles on delivery; every other direct channel settles now.
	if channel != enums.PaymentChannelCOD {
		if _, err := s.payments.ProcessPayment(ctx, order.ID, order.Total); err != nil {
			return nil, err
		}
	}

	if err := s.sessions.DeleteByCustomer(ctx, customerID); err != nil {
		s.logger.Warn(ctx, "failed to clear checkout session after placement")
	}
	return &ConfirmResult{Order: order}, nil
}

func (s *service) Abandon(ctx context.Context, customerID uuid.UUID) error {
	if err := s.sessions.DeleteByCustomer(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checkout session")
	}
	return nil
}

// redirectToGateway stashes everything the return handler needs on the
// session and extends its expiry to cover the round trip.
func (s *service) redirectToGateway(ctx context.Context, session *models.CheckoutSession, activeCart *models.Cart, clientIP string) (*ConfirmResult, error) {
	now := s.now()
	total := cart.SelectedTotal(activeCart.Items).Add(session.ShippingMethod.Fee())
	gatewayRef := fmt.Sprintf("VC%d", now.UnixNano())

	session.GatewayTotal = &total
	session.GatewayRef = gatewayRef
	session.ExpiresAt = now.Add(s.cfg.SessionTTL + s.cfg.GatewayExtension)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stash gateway checkout")
	}

	redirectURL, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		Amount:    total,
		TxnRef:    gatewayRef,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", gatewayRef),
		ClientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{RedirectURL: redirectURL}, nil
}

// checkoutableCart loads the customer's active cart and requires at least one
// selected line. A converted cart means an order was already placed from it;
// the stale session is dropped so the wizard cannot be replayed.
func (s *service) checkoutableCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	activeCart, err := s.cartRepo.FindActiveCart(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if activeCart == nil {
		converted, err := s.cartRepo.FindLatestCartByStatus(ctx, customerID, enums.CartStatusConverted)
		if err == nil && converted != nil {
			if delErr := s.sessions.DeleteByCustomer(ctx, customerID); delErr != nil {
				s.logger.Warn(ctx, "failed to clear stale checkout session")
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no active cart to check out")
	}

	for _, item := range activeCart.Items {
		if item.IsSelected {
			return activeCart, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no items selected for checkout")
}

func (s *service) getOrCreate(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, error) {
	session, err := s.sessions.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}

	now := s.now()
	if session == nil {
		session = &models.CheckoutSession{
			ID:         uuid.New(),
			CustomerID: customerID,
			Step:       enums.CheckoutStepAddress,
			ExpiresAt:  now.Add(s.cfg.SessionTTL),
		}
		if _, err := s.sessions.Create(ctx, session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
		}
		return session, nil
	}

	if session.ExpiresAt.Before(now) {
		resetSession(session)
	}
	return session, nil
}

func (s *service) save(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	session.ExpiresAt = s.now().Add(s.cfg.SessionTTL)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	return session, nil
}

// resetSession wipes an expired session back to the first step, reusing the
// row so the unique customer index stays satisfied.
func resetSession(session *models.CheckoutSession) {
	session.Step = enums.CheckoutStepAddress
	session.AddressID = nil
	session.ShippingMethod = nil
	session.PaymentChannel = nil
	session.CardLast4 = ""
	session.CardProvider = ""
	session.TermsAccepted = false
	session.OrderNote = ""
	session.GatewayTotal = nil
	session.GatewayRef = ""
}

func stepMissing(step enums.CheckoutStep) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s step not completed", step)).
		WithDetails(map[string]any{"missing_step": step.String()})
}
