package payment

import (
	"context"

	"github.com/stitchworks/uniform-order-service/internal/model"
)

type Repository interface {
	// CreateReceipt records a validated receipt, image included.
	CreateReceipt(ctx context.Context, receipt *model.Receipt) error
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// OrderStore is the slice of the order store the reconciler reads from.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
}
