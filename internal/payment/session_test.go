package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/internal/payment/ocr"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
)

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		Level:             "fatal",
		Encoding:          "console",
		DisableCaller:     true,
		DisableStacktrace: true,
	})
}

// funcValidator answers immediately with whatever fn returns.
type funcValidator struct {
	mu    sync.Mutex
	calls int
	fn    func(imageDataURI, orNumber string) (*ocr.Verdict, error)
}

func (v *funcValidator) Validate(ctx context.Context, imageDataURI, orNumber string) (*ocr.Verdict, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	return v.fn(imageDataURI, orNumber)
}

func (v *funcValidator) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func matchingValidator() *funcValidator {
	return &funcValidator{fn: func(imageDataURI, orNumber string) (*ocr.Verdict, error) {
		return &ocr.Verdict{IsValid: true, Confidence: 1, ExtractedText: "Receipt " + orNumber + " Paid"}, nil
	}}
}

func mismatchValidator() *funcValidator {
	return &funcValidator{fn: func(imageDataURI, orNumber string) (*ocr.Verdict, error) {
		return &ocr.Verdict{IsValid: false, Confidence: 1, ExtractedText: "unrelated text"}, nil
	}}
}

// gatedValidator blocks each call until the test feeds a result through
// proceed, and announces each call's image data URI on started.
type gatedResult struct {
	verdict *ocr.Verdict
	err     error
}

type gatedValidator struct {
	started chan string
	proceed chan gatedResult
}

func newGatedValidator() *gatedValidator {
	return &gatedValidator{
		started: make(chan string, 8),
		proceed: make(chan gatedResult),
	}
}

func (v *gatedValidator) Validate(ctx context.Context, imageDataURI, orNumber string) (*ocr.Verdict, error) {
	v.started <- imageDataURI
	res := <-v.proceed
	return res.verdict, res.err
}

func testImage(name string) *model.ReceiptImage {
	return &model.ReceiptImage{
		Filename:    name,
		ContentType: "image/jpeg",
		Data:        []byte(name + "-bytes"),
	}
}

func waitForState(t *testing.T, s *Session, want string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := s.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never reached state %q (currently %q)", want, s.Snapshot().State)
	return Snapshot{}
}

func awaitStart(t *testing.T, v *gatedValidator) string {
	t.Helper()
	select {
	case uri := <-v.started:
		return uri
	case <-time.After(2 * time.Second):
		t.Fatal("validation was never started")
		return ""
	}
}

func TestRemainingBalance(t *testing.T) {
	tests := []struct {
		name       string
		orderTotal float64
		paidTotal  float64
		want       float64
	}{
		{name: "unpaid", orderTotal: 1000, paidTotal: 0, want: 1000},
		{name: "partially paid", orderTotal: 1000, paidTotal: 400, want: 600},
		{name: "fully paid", orderTotal: 1000, paidTotal: 1000, want: 0},
		{name: "overpaid floors at zero", orderTotal: 1000, paidTotal: 1200, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession("order-1", model.PaymentPartial, tc.orderTotal, tc.paidTotal, matchingValidator(), testLogger())
			if got := s.RemainingBalance(); got != tc.want {
				t.Errorf("RemainingBalance() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFullPaymentAmountIsPinned(t *testing.T) {
	s := NewSession("order-1", model.PaymentFull, 1000, 400, matchingValidator(), testLogger())

	if got := s.Snapshot().Amount; got != 600 {
		t.Fatalf("initial amount = %v, want 600", got)
	}

	// User edits never stick for a full payment.
	if err := s.SetAmount(50); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Amount; got != 600 {
		t.Errorf("amount after user edit = %v, want 600", got)
	}

	// A recorded receipt elsewhere changes the balance; the amount follows.
	s.RefreshBalance(1000, 900)
	if got := s.Snapshot().Amount; got != 100 {
		t.Errorf("amount after balance refresh = %v, want 100", got)
	}
}

func TestPartialPaymentAmount(t *testing.T) {
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, matchingValidator(), testLogger())

	if err := s.SetAmount(250); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Amount; got != 250 {
		t.Errorf("amount = %v, want 250", got)
	}

	if err := s.SetAmount(-1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("SetAmount(-1) = %v, want ErrNegativeAmount", err)
	}
}

func TestValidationNeedsBothInputs(t *testing.T) {
	v := matchingValidator()
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	if got := s.Snapshot().State; got != "idle" {
		t.Errorf("state with OR number only = %q, want idle", got)
	}
	if v.callCount() != 0 {
		t.Errorf("validator called %d times before both inputs present", v.callCount())
	}

	s.SetImage(testImage("receipt-a"))
	snap := waitForState(t, s, "valid")
	if snap.FieldError != "" {
		t.Errorf("valid session carries field error %q", snap.FieldError)
	}
}

func TestInvalidVerdictClearsImageAndFlagsField(t *testing.T) {
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, mismatchValidator(), testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))

	snap := waitForState(t, s, "invalid")
	if snap.HasImage {
		t.Error("image survived an invalid verdict; re-upload must be forced")
	}
	if snap.FieldError == "" {
		t.Error("invalid verdict left no field error on the OR number input")
	}
}

func TestReuploadAfterInvalidRevalidates(t *testing.T) {
	v := &funcValidator{}
	valid := false
	var mu sync.Mutex
	v.fn = func(imageDataURI, orNumber string) (*ocr.Verdict, error) {
		mu.Lock()
		defer mu.Unlock()
		return &ocr.Verdict{IsValid: valid, ExtractedText: "x"}, nil
	}

	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())
	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	waitForState(t, s, "invalid")

	mu.Lock()
	valid = true
	mu.Unlock()

	s.SetImage(testImage("receipt-b"))
	snap := waitForState(t, s, "valid")
	if snap.FieldError != "" {
		t.Errorf("field error not cleared on valid verdict: %q", snap.FieldError)
	}
}

func TestServiceFailureClearsImageWithBanner(t *testing.T) {
	v := &funcValidator{fn: func(imageDataURI, orNumber string) (*ocr.Verdict, error) {
		return nil, &ocr.ServiceError{Message: "bad image"}
	}}
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))

	snap := waitForState(t, s, "idle")
	if snap.HasImage {
		t.Error("image survived a service failure")
	}
	if snap.Banner == "" {
		t.Error("service failure surfaced no banner message")
	}
}

func TestNoTextExtractedTreatedAsMismatch(t *testing.T) {
	v := &funcValidator{fn: func(imageDataURI, orNumber string) (*ocr.Verdict, error) {
		return nil, ocr.ErrNoTextExtracted
	}}
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))

	snap := waitForState(t, s, "invalid")
	if snap.HasImage || snap.FieldError == "" {
		t.Errorf("no-text result not treated as mismatch: %+v", snap)
	}
}

func TestClearImageReturnsToIdle(t *testing.T) {
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, matchingValidator(), testLogger())
	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	waitForState(t, s, "valid")

	s.ClearImage()
	snap := s.Snapshot()
	if snap.State != "idle" || snap.HasImage {
		t.Errorf("ClearImage left session in %+v", snap)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	v := newGatedValidator()
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("image-a"))
	uriA := awaitStart(t, v)

	// Image B replaces A while A's validation is still in flight.
	s.SetImage(testImage("image-b"))

	// A's (stale) response arrives claiming validity. It must not mark the
	// session valid for image B.
	v.proceed <- gatedResult{verdict: &ocr.Verdict{IsValid: true, ExtractedText: "Receipt OR-12345 Paid"}}

	// The discard re-triggers validation against the current inputs.
	uriB := awaitStart(t, v)
	if uriA == uriB {
		t.Fatal("re-triggered validation reused the stale image payload")
	}
	if !strings.Contains(uriB, "aW1hZ2UtYi1ieXRlcw==") { // base64("image-b-bytes")
		t.Errorf("second validation did not carry image B: %q", uriB)
	}
	if got := s.Snapshot().State; got != "validating" {
		t.Errorf("state after stale discard = %q, want validating", got)
	}

	v.proceed <- gatedResult{verdict: &ocr.Verdict{IsValid: false, ExtractedText: "unrelated"}}
	waitForState(t, s, "invalid")
}

func TestSubmitWithSettledValidVerdictDoesNotRevalidate(t *testing.T) {
	v := matchingValidator()
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	s.SetAmount(400)
	waitForState(t, s, "valid")
	calls := v.callCount()

	receipt, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if v.callCount() != calls {
		t.Errorf("Submit re-validated a settled pair: %d calls, want %d", v.callCount(), calls)
	}
	if receipt.ORNumber != "OR-12345" || receipt.Amount != 400 || receipt.Image == nil {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestSubmitRequiresBothInputs(t *testing.T) {
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, matchingValidator(), testLogger())

	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrImageRequired) {
		t.Errorf("Submit without image = %v, want ErrImageRequired", err)
	}

	s.image = testImage("receipt-a") // bypass triggers; OR number still missing
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrORNumberRequired) {
		t.Errorf("Submit without OR number = %v, want ErrORNumberRequired", err)
	}
}

func TestSubmitRevalidatesUnsettledPair(t *testing.T) {
	v := newGatedValidator()
	s := NewSession("order-1", model.PaymentPartial, 1000, 0, v, testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	awaitStart(t, v) // async validation in flight, never settles before submit

	type submitResult struct {
		receipt *model.Receipt
		err     error
	}
	done := make(chan submitResult, 1)
	go func() {
		receipt, err := s.Submit(context.Background())
		done <- submitResult{receipt, err}
	}()

	// Submit must run its own synchronous validation rather than trust the
	// unsettled state.
	awaitStart(t, v)

	// Both the async call and Submit's call are blocked; answer both.
	verdict := &ocr.Verdict{IsValid: true, ExtractedText: "Receipt OR-12345 Paid"}
	go func() {
		v.proceed <- gatedResult{verdict: verdict}
		v.proceed <- gatedResult{verdict: verdict}
	}()

	res := <-done
	if res.err != nil {
		t.Fatalf("Submit() error = %v", res.err)
	}
	if res.receipt == nil || res.receipt.ORNumber != "OR-12345" {
		t.Errorf("receipt = %+v", res.receipt)
	}
}

func TestSubmitBlocksOnMismatch(t *testing.T) {
	s := NewSession("order-1", model.PaymentFull, 1000, 250, mismatchValidator(), testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	waitForState(t, s, "invalid")

	// The invalid verdict cleared the image, so submission is blocked on
	// the missing upload.
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrImageRequired) {
		t.Errorf("Submit after invalid = %v, want ErrImageRequired", err)
	}
}

func TestSubmitPinsFullPaymentAmount(t *testing.T) {
	s := NewSession("order-1", model.PaymentFull, 1000, 250, matchingValidator(), testLogger())

	s.SetORNumber("OR-12345")
	s.SetImage(testImage("receipt-a"))
	waitForState(t, s, "valid")

	// Even a direct edit cannot unpin the amount.
	s.SetAmount(1)

	receipt, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.Amount != 750 {
		t.Errorf("full payment amount = %v, want 750", receipt.Amount)
	}
	if receipt.Type != model.PaymentFull {
		t.Errorf("receipt type = %q", receipt.Type)
	}
}
