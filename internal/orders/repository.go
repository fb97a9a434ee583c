package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vietcart/vietcart-backend/internal/repo"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/pagination"
)

// Repository handles order persistence, including the line snapshots and the
// append-only timeline. Checkout rebinds it into the placement transaction
// with WithTx.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Create inserts the order header row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Omit("Details", "Timeline").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateDetail inserts one line snapshot.
func (r *Repository) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	return r.DB(ctx).Create(detail).Error
}

// AppendTimelineEvent records an audit entry for the order.
func (r *Repository) AppendTimelineEvent(ctx context.Context, event *models.OrderTimelineEvent) error {
	return r.DB(ctx).Create(event).Error
}

// Save persists header mutations. Details and timeline rows are append-only
// and never written through Save.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Details", "Timeline").Save(order).Error
}

// FindByID loads an order with its lines and timeline, oldest event first.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Details").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByCustomer returns the customer's orders newest first, cursor paginated.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// Delete removes the order. Details and timeline rows cascade at the DB.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Order{}).Error
}

// DeleteChildren removes line and timeline rows explicitly, for stores
// without cascading foreign keys.
func (r *Repository) DeleteChildren(ctx context.Context, orderID uuid.UUID) error {
	if err := r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.OrderDetail{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.OrderTimelineEvent{}).Error
}

// Exists reports whether an order row exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var order models.Order
	err := r.DB(ctx).Select("id").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
