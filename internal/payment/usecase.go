package payment

import (
	"context"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/payment/dto"
)

type UseCase interface {
	// CreateSession binds a new payment-submission session to an order.
	CreateSession(ctx context.Context, input *dto.CreateSessionInput) (string, error)
	GetSession(ctx context.Context, sessionID string) (*Snapshot, error)

	SetORNumber(ctx context.Context, sessionID, orNumber string) error
	SetImage(ctx context.Context, sessionID string, input *dto.ImageInput) error
	ClearImage(ctx context.Context, sessionID string) error
	SetAmount(ctx context.Context, sessionID string, amount float64) error
	SetDatePaid(ctx context.Context, sessionID string, datePaid time.Time) error

	// Submit validates (or re-validates) the receipt and records it.
	Submit(ctx context.Context, sessionID string) (*model.Receipt, error)
}
