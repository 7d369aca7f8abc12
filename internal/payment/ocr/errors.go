package ocr

import "errors"

// ServiceError is a hard failure from the text-extraction service: a network
// error, a non-200 response, or a non-success exit code. The message carries
// the service's first reported error when it gave one.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "ocr service: " + e.Message
}

// ErrNoTextExtracted means the service reported success but returned no
// parsed results.
var ErrNoTextExtracted = errors.New("ocr service extracted no text")
