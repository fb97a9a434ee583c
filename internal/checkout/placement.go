package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/internal/catalog"
	"github.com/vietcart/vietcart-backend/internal/orders"
	"github.com/vietcart/vietcart-backend/internal/payments"
	"github.com/vietcart/vietcart-backend/internal/shipments"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	pkgerrors "github.com/vietcart/vietcart-backend/pkg/errors"
)

// PlaceOrderInput is everything the placement transaction needs beyond the
// cart itself.
type PlaceOrderInput struct {
	CustomerID     uuid.UUID
	AddressID      uuid.UUID
	PaymentMethod  string
	ShippingMethod enums.ShippingMethod
	Note           string
	// ExpectedTotal, when set, must equal the selected cart total plus the
	// shipping fee or placement aborts. Gateway legs set it to the captured
	// amount so a cart mutated after capture cannot become a mispriced order.
	ExpectedTotal *decimal.Decimal
}

const amountMismatchMessage = "cart total does not match captured amount"

// IsAmountMismatch reports whether err is the placement guard refusing a cart
// whose total no longer matches the amount the gateway captured.
func IsAmountMismatch(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil &&
		typed.Code() == pkgerrors.CodeStateConflict &&
		typed.Message() == amountMismatchMessage
}

// Placer runs the order placement transaction: one atomic sweep from the
// selected cart lines to an order with its snapshots, stock decrements,
// timeline entry, pending payment and pending shipment. Any failure rolls the
// whole placement back, stock included.
type Placer struct {
	dbClient     txRunner
	cartRepo     *cart.Repository
	orderRepo    *orders.Repository
	catalogRepo  *catalog.Repository
	paymentRepo  *payments.Repository
	shipmentRepo *shipments.Repository
	now          func() time.Time
}

// NewPlacer constructs the placement transaction runner.
func NewPlacer(
	dbClient txRunner,
	cartRepo *cart.Repository,
	orderRepo *orders.Repository,
	catalogRepo *catalog.Repository,
	paymentRepo *payments.Repository,
	shipmentRepo *shipments.Repository,
) (*Placer, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cartRepo == nil || orderRepo == nil || catalogRepo == nil || paymentRepo == nil || shipmentRepo == nil {
		return nil, fmt.Errorf("all placement repositories required")
	}
	return &Placer{
		dbClient:     dbClient,
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		catalogRepo:  catalogRepo,
		paymentRepo:  paymentRepo,
		shipmentRepo: shipmentRepo,
		now:          time.Now,
	}, nil
}

// PlaceOrder converts the customer's active cart into an order.
func (p *Placer) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	var placed *models.Order
	err := p.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := p.placeInTx(ctx, tx, input)
		if err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return placed, nil
}

func (p *Placer) placeInTx(ctx context.Context, tx *gorm.DB, input PlaceOrderInput) (*models.Order, error) {
	cartRepo := p.cartRepo.WithTx(tx)
	orderRepo := p.orderRepo.WithTx(tx)
	catalogRepo := p.catalogRepo.WithTx(tx)
	paymentRepo := p.paymentRepo.WithTx(tx)
	shipmentRepo := p.shipmentRepo.WithTx(tx)

	activeCart, err := cartRepo.FindActiveCart(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if activeCart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no active cart to place")
	}

	var selected []models.CartItem
	for _, item := range activeCart.Items {
		if item.IsSelected {
			selected = append(selected, item)
		}
	}
	if len(selected) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no items selected for checkout")
	}

	now := p.now()
	method := input.ShippingMethod
	subtotal := cart.SelectedTotal(activeCart.Items)
	fee := method.Fee()
	total := subtotal.Add(fee)

	if input.ExpectedTotal != nil && !total.Equal(*input.ExpectedTotal) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, amountMismatchMessage).
			WithDetails(map[string]any{
				"cart_total": total.String(),
				"captured":   input.ExpectedTotal.String(),
			})
	}

	order := &models.Order{
		ID:                    uuid.New(),
		CustomerID:            input.CustomerID,
		OrderDate:             now,
		Status:                enums.OrderStatusNew,
		AddressID:             input.AddressID,
		PaymentMethod:         input.PaymentMethod,
		ShippingMethod:        method,
		ShippingFee:           fee,
		Subtotal:              subtotal,
		DiscountAmount:        decimal.Zero,
		Total:                 total,
		EstimatedDeliveryDate: now.AddDate(0, 0, method.DeliveryDays()),
		Note:                  input.Note,
	}
	if _, err := orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	for _, item := range selected {
		product, err := catalogRepo.FindProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		detail := &models.OrderDetail{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if err := orderRepo.CreateDetail(ctx, detail); err != nil {
			return nil, err
		}
		if err := catalogRepo.DecreaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := orderRepo.AppendTimelineEvent(ctx, orders.NewTimelineEvent(order.ID, enums.OrderStatusNew)); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Method:        input.PaymentMethod,
		Amount:        order.Total,
		Status:        enums.PaymentStatusPending,
		TransactionID: payments.NewTransactionID(order.ID, now),
	}
	if _, err := paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if _, err := shipmentRepo.Create(ctx, shipments.NewPendingShipment(order.ID, method, now)); err != nil {
		return nil, err
	}

	activeCart.Status = enums.CartStatusConverted
	convertedAt := now
	activeCart.ConvertedAt = &convertedAt
	if err := cartRepo.SaveCart(ctx, activeCart); err != nil {
		return nil, err
	}

	return order, nil
}
