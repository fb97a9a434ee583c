package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// Read models for the JSON surface. The gorm models carry no json tags on
// purpose; everything that leaves the API goes through these views.

type customerView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newCustomerView(c *models.Customer) customerView {
	return customerView{
		ID:        c.ID,
		Email:     c.Email,
		FullName:  c.FullName,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

type addressView struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	Ward      string    `json:"ward,omitempty"`
	District  string    `json:"district,omitempty"`
	City      string    `json:"city"`
	IsDefault bool      `json:"is_default"`
}

func newAddressView(a *models.Address) addressView {
	return addressView{
		ID:        a.ID,
		Recipient: a.Recipient,
		Phone:     a.Phone,
		Line1:     a.Line1,
		Ward:      a.Ward,
		District:  a.District,
		City:      a.City,
		IsDefault: a.IsDefault,
	}
}

func newAddressViews(rows []models.Address) []addressView {
	views := make([]addressView, 0, len(rows))
	for i := range rows {
		views = append(views, newAddressView(&rows[i]))
	}
	return views
}

type paymentMethodView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	IsDefault     bool      `json:"is_default"`
}

func newPaymentMethodView(m *models.PaymentMethod) paymentMethodView {
	return paymentMethodView{
		ID:            m.ID,
		Name:          m.Name,
		Provider:      m.Provider,
		AccountNumber: m.AccountNumber,
		IsDefault:     m.IsDefault,
	}
}

func newPaymentMethodViews(rows []models.PaymentMethod) []paymentMethodView {
	views := make([]paymentMethodView, 0, len(rows))
	for i := range rows {
		views = append(views, newPaymentMethodView(&rows[i]))
	}
	return views
}

type orderLineView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type timelineEventView struct {
	Status      enums.OrderStatus `json:"status"`
	Description string            `json:"description"`
	Icon        string            `json:"icon,omitempty"`
	IconBg      string            `json:"icon_bg,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type orderView struct {
	ID                    uuid.UUID            `json:"id"`
	OrderDate             time.Time            `json:"order_date"`
	Status                enums.OrderStatus    `json:"status"`
	AddressID             uuid.UUID            `json:"address_id"`
	PaymentMethod         string               `json:"payment_method"`
	ShippingMethod        enums.ShippingMethod `json:"shipping_method"`
	ShippingFee           decimal.Decimal      `json:"shipping_fee"`
	Subtotal              decimal.Decimal      `json:"subtotal"`
	DiscountAmount        decimal.Decimal      `json:"discount_amount"`
	Total                 decimal.Decimal      `json:"total"`
	EstimatedDeliveryDate time.Time            `json:"estimated_delivery_date"`
	Note                  string               `json:"note,omitempty"`
	Details               []orderLineView      `json:"details,omitempty"`
	Timeline              []timelineEventView  `json:"timeline,omitempty"`
}

func newOrderView(o *models.Order) orderView {
	view := orderView{
		ID:                    o.ID,
		OrderDate:             o.OrderDate,
		Status:                o.Status,
		AddressID:             o.AddressID,
		PaymentMethod:         o.PaymentMethod,
		ShippingMethod:        o.ShippingMethod,
		ShippingFee:           o.ShippingFee,
		Subtotal:              o.Subtotal,
		DiscountAmount:        o.DiscountAmount,
		Total:                 o.Total,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		Note:                  o.Note,
	}
	for i := range o.Details {
		d := &o.Details[i]
		view.Details = append(view.Details, orderLineView{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
		})
	}
	for i := range o.Timeline {
		e := &o.Timeline[i]
		view.Timeline = append(view.Timeline, timelineEventView{
			Status:      e.Status,
			Description: e.Description,
			Icon:        e.Icon,
			IconBg:      e.IconBg,
			CreatedAt:   e.CreatedAt,
		})
	}
	return view
}

type orderListView struct {
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type paymentView struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Method        string              `json:"method"`
	Amount        decimal.Decimal     `json:"amount"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID string              `json:"transaction_id"`
	Note          string              `json:"note,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newPaymentView(p *models.Payment) paymentView {
	return paymentView{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		Amount:        p.Amount,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt,
	}
}

type shipmentView struct {
	ID                    uuid.UUID            `json:"id"`
	OrderID               uuid.UUID            `json:"order_id"`
	Provider              string               `json:"provider"`
	TrackingNumber        string               `json:"tracking_number"`
	ShippingCost          decimal.Decimal      `json:"shipping_cost"`
	Status                enums.ShipmentStatus `json:"status"`
	EstimatedDeliveryDate time.Time            `json:"estimated_delivery_date"`
	DeliveryDate          *time.Time           `json:"delivery_date,omitempty"`
}

func newShipmentView(s *models.Shipment) shipmentView {
	return shipmentView{
		ID:                    s.ID,
		OrderID:               s.OrderID,
		Provider:              s.Provider,
		TrackingNumber:        s.TrackingNumber,
		ShippingCost:          s.ShippingCost,
		Status:                s.Status,
		EstimatedDeliveryDate: s.EstimatedDeliveryDate,
		DeliveryDate:          s.DeliveryDate,
	}
}

type checkoutSessionView struct {
	Step           enums.CheckoutStep    `json:"step"`
	AddressID      *uuid.UUID            `json:"address_id,omitempty"`
	ShippingMethod *enums.ShippingMethod `json:"shipping_method,omitempty"`
	PaymentChannel *enums.PaymentChannel `json:"payment_channel,omitempty"`
	CardLast4      string                `json:"card_last4,omitempty"`
	CardProvider   string                `json:"card_provider,omitempty"`
	ExpiresAt      time.Time             `json:"expires_at"`
}

func newCheckoutSessionView(s *models.CheckoutSession) checkoutSessionView {
	return checkoutSessionView{
		Step:           s.Step,
		AddressID:      s.AddressID,
		ShippingMethod: s.ShippingMethod,
		PaymentChannel: s.PaymentChannel,
		CardLast4:      s.CardLast4,
		CardProvider:   s.CardProvider,
		ExpiresAt:      s.ExpiresAt,
	}
}

type pendingPaymentView struct {
	ID               uuid.UUID                  `json:"id"`
	TransactionID    string                     `json:"transaction_id"`
	GatewayReference string                     `json:"gateway_reference,omitempty"`
	Amount           decimal.Decimal            `json:"amount"`
	OrderID          *uuid.UUID                 `json:"order_id,omitempty"`
	CustomerID       *uuid.UUID                 `json:"customer_id,omitempty"`
	Status           enums.PendingPaymentStatus `json:"status"`
	Attempts         int                        `json:"attempts"`
	LastError        string                     `json:"last_error,omitempty"`
	PaymentTime      time.Time                  `json:"payment_time"`
}

func newPendingPaymentView(p *models.PendingPayment) pendingPaymentView {
	return pendingPaymentView{
		ID:               p.ID,
		TransactionID:    p.TransactionID,
		GatewayReference: p.GatewayReference,
		Amount:           p.Amount,
		OrderID:          p.OrderID,
		CustomerID:       p.CustomerID,
		Status:           p.Status,
		Attempts:         p.Attempts,
		LastError:        p.LastError,
		PaymentTime:      p.PaymentTime,
	}
}
