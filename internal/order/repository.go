package order

import (
	"context"

	"github.com/stitchworks/uniform-order-service/internal/model"
)

type Repository interface {
	// Create persists the order together with its line items.
	Create(ctx context.Context, order *model.Order) error
	// FindByID loads the order with its line items and recorded receipts.
	FindByID(ctx context.Context, id string) (*model.Order, error)
}
