package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "grammar not found")
		if err.Error() != "[NOT_FOUND] grammar not found" {
			t.Errorf("expected [NOT_FOUND] grammar not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected EOF")
		err := Wrap(original, CodeValidationError, "decode manifest")
		expected := "[VALIDATION_ERROR] decode manifest: unexpected EOF"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("WrapNil", func(t *testing.T) {
		if Wrap(nil, CodeInternal, "nothing") != nil {
			t.Error("expected Wrap(nil) to return nil")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeCycle, "import cycle"))
		if !IsCode(err, CodeCycle) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if CodeOf(err) != CodeCycle {
			t.Errorf("expected CodeOf to return %s, got %s", CodeCycle, CodeOf(err))
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := AddContext(New(CodeNotFound, "missing"), CtxSymbol, "expr")
		err = AddContext(err, CtxGrammar, "Expr")
		expected := "[NOT_FOUND] missing {grammar=Expr, symbol=expr}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextToForeignError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "list_actions")
		if !IsCode(err, CodeInternal) {
			t.Errorf("expected foreign error to be promoted to %s", CodeInternal)
		}
	})
}
