package optimizer

import (
	"errors"
	"fmt"
)

// ErrNoViableParameters is returned when every grid combination fails on the
// training slice. Fatal to one fold only; the fold is skipped.
var ErrNoViableParameters = errors.New("no viable parameter combination")

// InsufficientDataError is raised during preparation when the series cannot
// support the requested fold layout. Fatal to the whole run.
type InsufficientDataError struct {
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for cross-validation: need %d observations, have %d", e.Required, e.Actual)
}

// FoldError wraps any error raised inside one fold's optimize/test/metrics
// pipeline. Absorbed by the orchestrator; the fold is skipped.
type FoldError struct {
	Fold int
	Err  error
}

func (e *FoldError) Error() string {
	return fmt.Sprintf("fold %d failed: %v", e.Fold, e.Err)
}

func (e *FoldError) Unwrap() error {
	return e.Err
}
