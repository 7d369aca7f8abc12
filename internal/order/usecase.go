package order

import (
	"context"

	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/order/dto"
)

type UseCase interface {
	// Draft form session lifecycle.
	CreateDraft(ctx context.Context) (string, error)
	GetDraft(ctx context.Context, draftID string) (*dto.DraftView, error)
	AddItem(ctx context.Context, draftID, level string) error
	RemoveItem(ctx context.Context, draftID string, index int) error
	SetProductType(ctx context.Context, draftID string, index int, productType string) error
	SetSize(ctx context.Context, draftID string, index int, size string) error
	SetQuantity(ctx context.Context, draftID string, index int, quantity string) error

	// SubmitDraft validates the draft and persists it as an order.
	SubmitDraft(ctx context.Context, input *dto.SubmitDraftInput) (*model.Order, error)

	GetOrder(ctx context.Context, id string) (*model.Order, error)
}
