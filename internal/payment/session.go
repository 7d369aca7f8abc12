package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/payment/ocr"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

// State is the receipt-validation state of a session: Idle until both an
// image and an OR number are present, Validating while the OCR round trip is
// in flight, then Valid or Invalid.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Validator checks a receipt image against an expected OR number.
type Validator interface {
	Validate(ctx context.Context, imageDataURI, expectedORNumber string) (*ocr.Verdict, error)
}

// Session drives one payment-submission attempt against one order. It owns
// the form field values and the validation state machine. A session is
// single-owner: it must not be shared across submissions for different
// orders. The mutex exists because validation resolves on its own goroutine.
type Session struct {
	mu sync.Mutex

	orderID string
	payType model.PaymentType

	orNumber string
	datePaid time.Time
	amount   float64
	image    *model.ReceiptImage

	orderTotal float64
	paidTotal  float64

	state      State
	fieldError string // attached to the OR-number input
	banner     string // service failures surface out-of-band

	// token increases on every input mutation. A validation captures the
	// token at launch; a resolution whose token no longer matches is stale
	// and its verdict is discarded.
	token      uint64
	inflight   bool
	validToken uint64

	validator Validator
	logger    logger.ZapLogger
}

func NewSession(orderID string, payType model.PaymentType, orderTotal, paidTotal float64, v Validator, log logger.ZapLogger) *Session {
	s := &Session{
		orderID:    orderID,
		payType:    payType,
		orderTotal: orderTotal,
		paidTotal:  paidTotal,
		datePaid:   time.Now(),
		validator:  v,
		logger:     log,
	}
	if payType == model.PaymentFull {
		s.amount = s.remainingBalanceLocked()
	}
	return s
}

// RemainingBalance is the order total minus the sum of previously recorded
// receipt amounts, floored at zero.
func (s *Session) RemainingBalance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingBalanceLocked()
}

func (s *Session) remainingBalanceLocked() float64 {
	balance := s.orderTotal - s.paidTotal
	if balance < 0 {
		return 0
	}
	return balance
}

// RefreshBalance updates the known order totals, re-pinning the amount for
// full payments.
func (s *Session) RefreshBalance(orderTotal, paidTotal float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderTotal = orderTotal
	s.paidTotal = paidTotal
	if s.payType == model.PaymentFull {
		s.amount = s.remainingBalanceLocked()
	}
}

func (s *Session) SetORNumber(orNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orNumber == orNumber {
		return
	}
	s.orNumber = orNumber
	s.fieldError = ""
	s.token++
	s.maybeStartValidation()
}

func (s *Session) SetImage(image *model.ReceiptImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = image
	s.banner = ""
	s.token++
	s.maybeStartValidation()
}

// ClearImage resets the attempt: the state machine returns to Idle and a new
// upload is required.
func (s *Session) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.state = StateIdle
	s.fieldError = ""
	s.banner = ""
	s.token++
}

// SetAmount records the user-entered amount. For full payments the amount is
// pinned to the remaining balance and user edits are ignored.
func (s *Session) SetAmount(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payType == model.PaymentFull {
		s.amount = s.remainingBalanceLocked()
		return nil
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	s.amount = amount
	return nil
}

func (s *Session) SetDatePaid(datePaid time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datePaid = datePaid
}

// maybeStartValidation launches an asynchronous validation when both inputs
// are present and none is in flight. Callers must hold s.mu.
func (s *Session) maybeStartValidation() {
	if s.inflight || s.image == nil || s.orNumber == "" {
		return
	}
	s.inflight = true
	s.state = StateValidating

	token := s.token
	imageDataURI := s.imageDataURILocked()
	orNumber := s.orNumber
	go s.runValidation(token, imageDataURI, orNumber)
}

func (s *Session) runValidation(token uint64, imageDataURI, orNumber string) {
	// There is no server-side cancellation of an OCR call; staleness is
	// handled at resolution time instead.
	verdict, err := s.validator.Validate(context.Background(), imageDataURI, orNumber)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false

	if token != s.token {
		// Inputs changed while this call was in flight. The verdict
		// belongs to an old (image, orNumber) pair: discard it and
		// re-attempt against what the fields hold now.
		s.logger.Debug("discarding stale validation result",
			zap.Uint64("token", token),
			zap.Uint64("current", s.token),
		)
		s.maybeStartValidation()
		return
	}

	s.applyVerdictLocked(verdict, err)
}

// applyVerdictLocked moves the state machine for a verdict that is known to
// match the current inputs. Callers must hold s.mu.
func (s *Session) applyVerdictLocked(verdict *ocr.Verdict, err error) {
	switch {
	case err != nil:
		var serviceErr *ocr.ServiceError
		if errors.As(err, &serviceErr) {
			// The same image is likely to fail again, so force a
			// re-upload instead of a retry with identical input.
			s.banner = serviceErr.Error()
			s.image = nil
			s.state = StateIdle
			return
		}
		if errors.Is(err, ocr.ErrNoTextExtracted) {
			s.markInvalidLocked("no text could be read from the receipt image")
			return
		}
		s.banner = err.Error()
		s.image = nil
		s.state = StateIdle
	case verdict.IsValid:
		s.state = StateValid
		s.fieldError = ""
		s.banner = ""
		s.validToken = s.token
	default:
		s.markInvalidLocked("receipt does not contain the OR number")
	}
}

func (s *Session) markInvalidLocked(message string) {
	s.state = StateInvalid
	s.fieldError = message
	s.image = nil
}

func (s *Session) imageDataURILocked() string {
	return "data:" + s.image.ContentType + ";base64," + base64.StdEncoding.EncodeToString(s.image.Data)
}

// Submit produces the receipt to hand to the order store. If the current
// (image, orNumber) pair was never validated as Valid — the user submitted
// before the asynchronous validation settled, or edited fields after a prior
// Valid verdict — validation re-runs synchronously here and an Invalid result
// blocks the submission. There is no path that skips validation.
func (s *Session) Submit(ctx context.Context) (*model.Receipt, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return nil, ErrImageRequired
	}
	if s.orNumber == "" {
		s.mu.Unlock()
		return nil, ErrORNumberRequired
	}
	if s.payType == model.PaymentFull {
		s.amount = s.remainingBalanceLocked()
	}
	if s.amount < 0 {
		s.mu.Unlock()
		return nil, ErrNegativeAmount
	}

	needsValidation := s.state != StateValid || s.validToken != s.token
	token := s.token
	imageDataURI := s.imageDataURILocked()
	orNumber := s.orNumber
	s.mu.Unlock()

	if needsValidation {
		verdict, err := s.validator.Validate(ctx, imageDataURI, orNumber)

		s.mu.Lock()
		if token != s.token {
			s.mu.Unlock()
			return nil, ErrStaleSubmission
		}
		s.applyVerdictLocked(verdict, err)
		valid := s.state == StateValid
		s.mu.Unlock()

		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, ErrReceiptMismatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.Receipt{
		OrderID:  s.orderID,
		Type:     s.payType,
		ORNumber: s.orNumber,
		DatePaid: s.datePaid,
		Amount:   s.amount,
		Image:    s.image,
	}, nil
}

// Snapshot is a serializable view of the session for callers and tests.
type Snapshot struct {
	OrderID          string            `json:"order_id"`
	Type             model.PaymentType `json:"type"`
	ORNumber         string            `json:"or_number"`
	DatePaid         time.Time         `json:"date_paid"`
	Amount           float64           `json:"amount"`
	HasImage         bool              `json:"has_image"`
	RemainingBalance float64           `json:"remaining_balance"`
	State            string            `json:"state"`
	FieldError       string            `json:"field_error,omitempty"`
	Banner           string            `json:"banner,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		OrderID:          s.orderID,
		Type:             s.payType,
		ORNumber:         s.orNumber,
		DatePaid:         s.datePaid,
		Amount:           s.amount,
		HasImage:         s.image != nil,
		RemainingBalance: s.remainingBalanceLocked(),
		State:            s.state.String(),
		FieldError:       s.fieldError,
		Banner:           s.banner,
	}
}
