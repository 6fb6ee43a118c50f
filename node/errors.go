package node

import (
	"fmt"

	"github.com/kbukum/nodegraph/errors"
)

// ErrDivisionByZero is returned by the arithmetic operators.
var ErrDivisionByZero = errors.New(errors.ErrCodeUnsupportedOperand, "division by zero")

// CalculationError wraps a failure of a node's own computation together
// with the node and the evaluated inputs it ran with.
type CalculationError struct {
	Node   *Node
	Cause  error
	Inputs map[string]any
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: calculation failed: %v", e.Node, e.Cause)
}

func (e *CalculationError) Unwrap() error { return e.Cause }

// ErrorCode returns CALCULATION_ERROR.
func (e *CalculationError) ErrorCode() errors.ErrorCode { return errors.ErrCodeCalculation }
