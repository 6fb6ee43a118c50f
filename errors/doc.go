// Package errors provides the structured error types used across nodegraph.
//
// Every failure carries a machine-readable ErrorCode so callers can branch on
// the kind of problem (a computation failed, arguments could not be bound to a
// computation's parameters, an option value is invalid) without matching on
// message text.
//
//	if errors.HasCode(err, errors.ErrCodeInputBinding) {
//	    // fix the arguments
//	}
package errors
