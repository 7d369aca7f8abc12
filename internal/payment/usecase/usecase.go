package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/payment"
	"github.com/stitchworks/uniform-order-service/internal/payment/dto"
	"github.com/stitchworks/uniform-order-service/pkg/cache"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

type paymentUseCase struct {
	repo      payment.Repository
	orders    payment.OrderStore
	validator payment.Validator
	cache     *cache.RedisClient
	logger    logger.ZapLogger

	mu       sync.RWMutex
	sessions map[string]*payment.Session
}

func NewPaymentUseCase(repo payment.Repository, orders payment.OrderStore, validator payment.Validator, cache *cache.RedisClient, log logger.ZapLogger) payment.UseCase {
	return &paymentUseCase{
		repo:      repo,
		orders:    orders,
		validator: validator,
		cache:     cache,
		logger:    log,
		sessions:  make(map[string]*payment.Session),
	}
}

func parsePaymentType(raw string) (model.PaymentType, error) {
	switch model.PaymentType(raw) {
	case model.PaymentFull:
		return model.PaymentFull, nil
	case model.PaymentPartial:
		return model.PaymentPartial, nil
	default:
		return "", payment.ErrInvalidPaymentType
	}
}

func sumReceipts(receipts []model.Receipt) float64 {
	var paid float64
	for _, r := range receipts {
		paid += r.Amount
	}
	return paid
}

func (uc *paymentUseCase) CreateSession(ctx context.Context, input *dto.CreateSessionInput) (string, error) {
	payType, err := parsePaymentType(input.Type)
	if err != nil {
		return "", err
	}

	order, err := uc.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", payment.ErrOrderNotFound
	}

	session := payment.NewSession(
		order.ID,
		payType,
		order.OrderTotal(),
		sumReceipts(order.Receipts),
		uc.validator,
		uc.logger,
	)

	id := uuid.New().String()
	uc.mu.Lock()
	uc.sessions[id] = session
	uc.mu.Unlock()

	return id, nil
}

func (uc *paymentUseCase) session(sessionID string) (*payment.Session, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	s, ok := uc.sessions[sessionID]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}

func (uc *paymentUseCase) GetSession(ctx context.Context, sessionID string) (*payment.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := s.Snapshot()
	return &snapshot, nil
}

func (uc *paymentUseCase) SetORNumber(ctx context.Context, sessionID, orNumber string) error {
	s, err := uc.session(sessionID)
	if err != nil {
		return err
	}
	s.SetORNumber(orNumber)
	return nil
}

func (uc *paymentUseCase) SetImage(ctx context.Context, sessionID string, input *dto.ImageInput) error {
	s, err := uc.session(sessionID)
	if err != nil {
		return err
	}
	if len(input.Data) == 0 {
		return payment.ErrImageRequired
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	s.SetImage(&model.ReceiptImage{
		Filename:    input.Filename,
		ContentType: contentType,
		Data:        input.Data,
	})
	return nil
}

func (uc *paymentUseCase) ClearImage(ctx context.Context, sessionID string) error {
	s, err := uc.session(sessionID)
	if err != nil {
		return err
	}
	s.ClearImage()
	return nil
}

func (uc *paymentUseCase) SetAmount(ctx context.Context, sessionID string, amount float64) error {
	s, err := uc.session(sessionID)
	if err != nil {
		return err
	}
	return s.SetAmount(amount)
}

func (uc *paymentUseCase) SetDatePaid(ctx context.Context, sessionID string, datePaid time.Time) error {
	s, err := uc.session(sessionID)
	if err != nil {
		return err
	}
	s.SetDatePaid(datePaid)
	return nil
}

func (uc *paymentUseCase) Submit(ctx context.Context, sessionID string) (*model.Receipt, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := s.Snapshot()

	// One submission at a time per order, so two clerks cannot both record
	// "the" closing payment.
	if uc.cache != nil {
		lockKey := "lock:payment:" + snapshot.OrderID
		lockValue := uuid.New().String()
		acquired := false
		for i := 0; i < 3; i++ {
			ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, 10*time.Second)
			if err != nil {
				uc.logger.Error("failed to acquire submission lock", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if !acquired {
			return nil, payment.ErrSubmissionLocked
		}
		defer uc.cache.ReleaseLock(ctx, lockKey, lockValue)
	}

	// Re-read the order so the balance the amount is pinned against includes
	// receipts recorded since the session was opened.
	order, err := uc.orders.FindByID(ctx, snapshot.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, payment.ErrOrderNotFound
	}
	s.RefreshBalance(order.OrderTotal(), sumReceipts(order.Receipts))

	receipt, err := s.Submit(ctx)
	if err != nil {
		return nil, err
	}

	receipt.ID = uuid.New().String()
	if err := uc.repo.CreateReceipt(ctx, receipt); err != nil {
		return nil, fmt.Errorf("record receipt: %w", err)
	}

	remaining := order.OrderTotal() - sumReceipts(order.Receipts) - receipt.Amount
	if remaining <= 0 {
		if err := uc.repo.UpdateOrderStatus(ctx, order.ID, "Paid"); err != nil {
			uc.logger.Error("failed to mark order paid",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	uc.logger.Info("receipt recorded",
		zap.String("order_id", order.ID),
		zap.String("or_number", receipt.ORNumber),
		zap.Float64("amount", receipt.Amount),
	)

	uc.mu.Lock()
	delete(uc.sessions, sessionID)
	uc.mu.Unlock()

	return receipt, nil
}
