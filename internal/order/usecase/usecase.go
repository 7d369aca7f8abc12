package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/order"
	"github.com/stitchworks/uniform-order-service/internal/order/dto"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

// draftSession is one open order form. Sessions are single-owner; the mutex
// only serializes racing HTTP requests for the same draft.
type draftSession struct {
	mu    sync.Mutex
	draft *order.Draft
}

type orderUseCase struct {
	repo     order.Repository
	resolver order.PriceResolver
	logger   logger.ZapLogger

	mu     sync.RWMutex
	drafts map[string]*draftSession
}

func NewOrderUseCase(repo order.Repository, resolver order.PriceResolver, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:     repo,
		resolver: resolver,
		logger:   log,
		drafts:   make(map[string]*draftSession),
	}
}

func (uc *orderUseCase) CreateDraft(ctx context.Context) (string, error) {
	id := uuid.New().String()

	uc.mu.Lock()
	uc.drafts[id] = &draftSession{draft: order.NewDraft(uc.resolver)}
	uc.mu.Unlock()

	return id, nil
}

func (uc *orderUseCase) session(draftID string) (*draftSession, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	s, ok := uc.drafts[draftID]
	if !ok {
		return nil, order.ErrDraftNotFound
	}
	return s, nil
}

func (uc *orderUseCase) GetDraft(ctx context.Context, draftID string) (*dto.DraftView, error) {
	s, err := uc.session(draftID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return draftView(draftID, s.draft), nil
}

func (uc *orderUseCase) AddItem(ctx context.Context, draftID, level string) error {
	s, err := uc.session(draftID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.AddItem(level)
	return nil
}

func (uc *orderUseCase) RemoveItem(ctx context.Context, draftID string, index int) error {
	s, err := uc.session(draftID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.RemoveItem(index)
}

func (uc *orderUseCase) SetProductType(ctx context.Context, draftID string, index int, productType string) error {
	s, err := uc.session(draftID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.SetProductType(index, productType)
}

func (uc *orderUseCase) SetSize(ctx context.Context, draftID string, index int, size string) error {
	s, err := uc.session(draftID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.SetSize(index, size)
}

func (uc *orderUseCase) SetQuantity(ctx context.Context, draftID string, index int, quantity string) error {
	s, err := uc.session(draftID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.SetQuantity(index, quantity)
}

func (uc *orderUseCase) SubmitDraft(ctx context.Context, input *dto.SubmitDraftInput) (*model.Order, error) {
	s, err := uc.session(input.DraftID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.draft.Validate(); err != nil {
		return nil, err
	}

	// Prices were resolved at selection time; the catalog may have been
	// reloaded since. Re-resolve every row against the current index so a
	// submitted price is never stale.
	for i, item := range s.draft.Items {
		price, ok := uc.resolver.ResolvePrice(item.Level, item.ProductType, item.Size)
		if !ok {
			return nil, fmt.Errorf("line %d (%s/%s/%s): %w",
				i, item.Level, item.ProductType, item.Size, order.ErrCatalogUnresolved)
		}
		s.draft.Items[i].UnitPrice = price
	}

	now := time.Now()
	ord := &model.Order{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerName: input.CustomerName,
		Status:       "Pending Payment",
		Items:        s.draft.ToLineItems(),
	}
	for i := range ord.Items {
		ord.Items[i].ID = uuid.New().String()
		ord.Items[i].OrderID = ord.ID
	}
	if len(ord.Items) > 0 {
		ord.Level = ord.Items[0].Level
	}

	if err := uc.repo.Create(ctx, ord); err != nil {
		return nil, err
	}

	uc.logger.Info("order submitted",
		zap.String("order_id", ord.ID),
		zap.Int("items", len(ord.Items)),
		zap.Float64("order_total", ord.OrderTotal()),
	)

	uc.mu.Lock()
	delete(uc.drafts, input.DraftID)
	uc.mu.Unlock()

	return ord, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return uc.repo.FindByID(ctx, id)
}

func draftView(id string, d *order.Draft) *dto.DraftView {
	view := &dto.DraftView{
		ID:    id,
		Items: make([]dto.DraftItemView, 0, len(d.Items)),
	}
	for i, item := range d.Items {
		view.Items = append(view.Items, dto.DraftItemView{
			Level:       item.Level,
			ProductType: item.ProductType,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   d.LineTotal(i),
		})
	}
	view.OrderTotal = d.OrderTotal()
	return view
}
