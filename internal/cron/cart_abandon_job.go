package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vietcart/vietcart-backend/internal/cart"
	"github.com/vietcart/vietcart-backend/pkg/db/models"
	"github.com/vietcart/vietcart-backend/pkg/enums"
	"github.com/vietcart/vietcart-backend/pkg/logger"
)

const (
	cartAbandonJobName = "cart_abandon"
	cartAbandonBatch   = 100
)

// cartSweeper is the slice of the cart repository the job uses.
type cartSweeper interface {
	ListIdleActiveCarts(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

var _ cartSweeper = (*cart.Repository)(nil)

// CartAbandonJob marks active carts untouched past the configured window as
// abandoned. Abandoned carts stay recoverable; adding an item reactivates
// them.
type CartAbandonJob struct {
	carts cartSweeper
	logg  *logger.Logger
	after time.Duration
	now   func() time.Time
}

// NewCartAbandonJob builds the cart sweep job.
func NewCartAbandonJob(carts cartSweeper, logg *logger.Logger, after time.Duration) (*CartAbandonJob, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if after <= 0 {
		return nil, fmt.Errorf("abandon window must be positive")
	}
	return &CartAbandonJob{carts: carts, logg: logg, after: after, now: time.Now}, nil
}

// Name implements Job.
func (j *CartAbandonJob) Name() string { return cartAbandonJobName }

// Run implements Job.
func (j *CartAbandonJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.after)
	swept := 0

	for {
		idle, err := j.carts.ListIdleActiveCarts(ctx, cutoff, cartAbandonBatch)
		if err != nil {
			return fmt.Errorf("list idle carts: %w", err)
		}
		if len(idle) == 0 {
			break
		}
		for i := range idle {
			idle[i].Status = enums.CartStatusAbandoned
			if err := j.carts.SaveCart(ctx, &idle[i]); err != nil {
				return fmt.Errorf("abandon cart %s: %w", idle[i].ID, err)
			}
			swept++
		}
		if len(idle) < cartAbandonBatch {
			break
		}
	}

	j.logg.Info(j.logg.WithField(ctx, "swept", swept), "idle cart sweep complete")
	return nil
}
