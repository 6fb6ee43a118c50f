package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Evaluation errors
const (
	// ErrCodeCalculation indicates a node's computation failed during evaluation.
	ErrCodeCalculation ErrorCode = "CALCULATION_ERROR"
	// ErrCodeInvalidBatchMode indicates an unknown batch combination strategy.
	ErrCodeInvalidBatchMode ErrorCode = "INVALID_BATCH_MODE"
	// ErrCodeUnsupportedOperand indicates an operator was applied to values it cannot handle.
	ErrCodeUnsupportedOperand ErrorCode = "UNSUPPORTED_OPERAND"
)

// Binding errors
const (
	// ErrCodeInputBinding indicates arguments could not be bound to a computation's parameters.
	ErrCodeInputBinding ErrorCode = "INPUT_BINDING_ERROR"
	// ErrCodeInvalidSignature indicates a parameter list is malformed.
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	// ErrCodeScopeMismatch indicates nodes from different scopes were connected.
	ErrCodeScopeMismatch ErrorCode = "SCOPE_MISMATCH"
	// ErrCodeCycle indicates an input update would make a node depend on itself.
	ErrCodeCycle ErrorCode = "CYCLE_DETECTED"
)

// Configuration and lookup errors
const (
	// ErrCodeInvalidOption indicates a configuration option has an invalid value.
	ErrCodeInvalidOption ErrorCode = "INVALID_OPTION"
	// ErrCodeNotFound indicates the requested input, kind, or node was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a kind or node name is already registered.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Usage errors
const (
	// ErrCodeInplaceOperation indicates an attempt to mutate a node in place.
	ErrCodeInplaceOperation ErrorCode = "INPLACE_OPERATION"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var bindingCodes = map[ErrorCode]bool{
	ErrCodeInputBinding:     true,
	ErrCodeInvalidSignature: true,
	ErrCodeScopeMismatch:    true,
	ErrCodeCycle:            true,
}

// IsBindingCode returns true if the code reports a problem with the arguments
// given to a constructor or an input update.
func IsBindingCode(code ErrorCode) bool {
	return bindingCodes[code]
}
