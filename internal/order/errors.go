package order

import (
	"errors"
	"fmt"
)

// ErrCatalogUnresolved marks a selection with no matching catalog entry.
var ErrCatalogUnresolved = errors.New("no matching catalog entry for selection")

// ErrDraftNotFound is returned for unknown draft session IDs.
var ErrDraftNotFound = errors.New("draft not found")

// ErrItemIndex is returned when an operation names a row that does not exist.
var ErrItemIndex = errors.New("line item index out of range")

// ValidationError carries per-row, per-field problems found before
// submission. Row indices match the draft's current item order.
type ValidationError struct {
	Message string                    `json:"message,omitempty"`
	Rows    map[int]map[string]string `json:"rows,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("draft has %d invalid line item(s)", len(e.Rows))
}
