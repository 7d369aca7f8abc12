package payment

import "errors"

var (
	// ErrReceiptMismatch means the extracted receipt text does not contain
	// the expected OR number; the payer must re-upload or correct the field.
	ErrReceiptMismatch = errors.New("receipt does not match the OR number")

	// ErrImageRequired and ErrORNumberRequired block submission until both
	// halves of the (image, orNumber) pair are present.
	ErrImageRequired    = errors.New("receipt image is required")
	ErrORNumberRequired = errors.New("OR number is required")

	// ErrStaleSubmission means the fields were edited while the submit-time
	// validation was running; the caller must resubmit.
	ErrStaleSubmission = errors.New("receipt fields changed during submission")

	ErrSessionNotFound = errors.New("payment session not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrNegativeAmount = errors.New("amount must not be negative")

	ErrInvalidPaymentType = errors.New("payment type must be Full Payment or Partial Payment")

	// ErrSubmissionLocked means another submission for the same order holds
	// the lock.
	ErrSubmissionLocked = errors.New("another payment submission is in progress")
)
