package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Error() != "NOT_FOUND: not found" {
		t.Errorf("unexpected error string %q", err.Error())
	}
}

func TestAppError_WithCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Internal(nil).WithCause(cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := New(ErrCodeInvalidOption, "bad").
		WithDetail("option", "lazy").
		WithDetails(map[string]any{"value": 3})
	if err.Details["option"] != "lazy" {
		t.Errorf("expected option=lazy, got %v", err.Details["option"])
	}
	if err.Details["value"] != 3 {
		t.Errorf("expected value=3, got %v", err.Details["value"])
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
		msg  string
	}{
		{"binding", InputBinding("sum", "too many positional arguments"), ErrCodeInputBinding, "cannot bind inputs of sum"},
		{"signature", InvalidSignature("sum", "duplicate parameter \"a\""), ErrCodeInvalidSignature, "duplicate parameter"},
		{"scope", ScopeMismatch("sum", "a"), ErrCodeScopeMismatch, "different scope"},
		{"cycle", Cycle("sum", "a"), ErrCodeCycle, "depend on itself"},
		{"option", InvalidOption("batch_iter", "spiral", "must be zip or product"), ErrCodeInvalidOption, "batch_iter"},
		{"batch mode", InvalidBatchMode("spiral"), ErrCodeInvalidBatchMode, "spiral"},
		{"operand", UnsupportedOperand("add", 1, "x"), ErrCodeUnsupportedOperand, "int, string"},
		{"not found", NotFound("input", "a"), ErrCodeNotFound, "input \"a\" not found"},
		{"exists", AlreadyExists("kind", "sum"), ErrCodeAlreadyExists, "already exists"},
		{"inplace", InplaceOperation("add"), ErrCodeInplaceOperation, "in-place"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if !strings.Contains(tc.err.Error(), tc.msg) {
				t.Errorf("expected message containing %q, got %q", tc.msg, tc.err.Error())
			}
		})
	}
}

func TestNotFound_EmptyID(t *testing.T) {
	err := NotFound("kind", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestIsBindingCode(t *testing.T) {
	for _, code := range []ErrorCode{ErrCodeInputBinding, ErrCodeInvalidSignature, ErrCodeScopeMismatch, ErrCodeCycle} {
		if !IsBindingCode(code) {
			t.Errorf("expected %s to be a binding code", code)
		}
	}
	if IsBindingCode(ErrCodeCalculation) {
		t.Error("CALCULATION_ERROR should not be a binding code")
	}
}

type codedErr struct{ cause error }

func (e *codedErr) Error() string        { return "coded" }
func (e *codedErr) Unwrap() error        { return e.cause }
func (e *codedErr) ErrorCode() ErrorCode { return ErrCodeCalculation }

func TestHasCode_WalksChain(t *testing.T) {
	inner := InputBinding("sum", "bad")
	err := fmt.Errorf("wrapped: %w", &codedErr{cause: inner})

	if !HasCode(err, ErrCodeCalculation) {
		t.Error("expected CALCULATION_ERROR in chain")
	}
	if !HasCode(err, ErrCodeInputBinding) {
		t.Error("expected INPUT_BINDING_ERROR in chain")
	}
	if HasCode(err, ErrCodeCycle) {
		t.Error("did not expect CYCLE_DETECTED in chain")
	}
	if CodeOf(err) != ErrCodeCalculation {
		t.Errorf("expected outermost code CALCULATION_ERROR, got %s", CodeOf(err))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for plain error")
	}
}

func TestAsAppError(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NotFound("input", "x"))
	appErr, ok := AsAppError(err)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
	if !IsAppError(err) {
		t.Error("expected IsAppError to be true")
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected plain error not to be an AppError")
	}
}
