package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
)

// CartDTO is the cart read model exposed over the API.
type CartDTO struct {
	ID          uuid.UUID        `json:"id"`
	Status      enums.CartStatus `json:"status"`
	Items       []CartItemDTO    `json:"items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CartItemDTO is one line in the cart read model.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	IsSelected  bool            `json:"is_selected"`
}

// NewCartDTO builds the read model; names maps product id to display name and
// may be sparse.
func NewCartDTO(cart *models.Cart, names map[uuid.UUID]string) *CartDTO {
	dto := &CartDTO{
		ID:          cart.ID,
		Status:      cart.Status,
		Items:       make([]CartItemDTO, 0, len(cart.Items)),
		TotalAmount: cart.TotalAmount,
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: names[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			IsSelected:  item.IsSelected,
		})
	}
	return dto
}

// SelectedTotal sums unit_price x quantity over selected lines only.
func SelectedTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if !item.IsSelected {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
