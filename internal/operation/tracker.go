package operation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOperationID is returned for an operation without operationId.
	ErrMissingOperationID = errors.New("missing operationId")
	// ErrDuplicateOperationID is returned when an operationId is reused.
	ErrDuplicateOperationID = errors.New("duplicated operationId")
)

// Tracker records the operationIds seen during one generation run. The
// zero value is ready to use.
type Tracker struct {
	seen map[string]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Add records id, declared at where, and fails if it was already recorded.
func (t *Tracker) Add(id, where string) error {
	if id == "" {
		return fmt.Errorf("%w: %s", ErrMissingOperationID, where)
	}
	if prev, ok := t.seen[id]; ok {
		return fmt.Errorf("%w %q: declared by %s and %s", ErrDuplicateOperationID, id, prev, where)
	}
	if t.seen == nil {
		t.seen = make(map[string]string)
	}
	t.seen[id] = where
	return nil
}

// Len reports how many operationIds have been recorded.
func (t *Tracker) Len() int { return len(t.seen) }
