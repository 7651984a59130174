package extract

import (
	"errors"
	"fmt"
)

// ErrNotApplicable is returned by a strategy that does not handle the input format.
var ErrNotApplicable = errors.New("strategy does not apply to this input")

// StrategyError indicates a strategy recognised the input but could not decode it.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

func newStrategyError(strategy string, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Err: err}
}
