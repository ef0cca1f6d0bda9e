package agent

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted ends a session that reached its round budget without a
// final answer. The history up to that point is preserved.
var ErrBudgetExhausted = errors.New("round budget exhausted")

// ModelDecisionError reports a malformed or empty model response. The
// controller retries the decision once before surfacing this as a
// session-level failure.
type ModelDecisionError struct {
	Reason string
	Err    error
}

func (e *ModelDecisionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model decision failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("model decision failed: %s", e.Reason)
}

func (e *ModelDecisionError) Unwrap() error { return e.Err }
