package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInputError(t *testing.T) {
	err := NewInputError("downPaymentPercent", 3.0, "must be at least 5%")
	if !strings.Contains(err.Error(), "downPaymentPercent") || !strings.Contains(err.Error(), "at least 5%") {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("analyze property: %w", err)
	if !IsInputError(wrapped) {
		t.Error("IsInputError should see through wrapping")
	}

	var inputErr *InputError
	if !errors.As(wrapped, &inputErr) || inputErr.Field != "downPaymentPercent" {
		t.Errorf("errors.As did not recover the field, got %+v", inputErr)
	}

	if IsInputError(errors.New("plain")) {
		t.Error("plain errors are not input errors")
	}
}

func TestRequireHelpers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expectErr bool
	}{
		{"Positive ok", RequirePositive("price", 1), false},
		{"Positive zero", RequirePositive("price", 0), true},
		{"Non-negative zero", RequireNonNegative("rent", 0), false},
		{"Non-negative negative", RequireNonNegative("rent", -1), true},
		{"Range inside", RequireRange("vacancy", 5, 0, 100), false},
		{"Range boundary", RequireRange("vacancy", 100, 0, 100), false},
		{"Range outside", RequireRange("vacancy", 101, 0, 100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectErr != (tt.err != nil) {
				t.Errorf("expected error %v, got %v", tt.expectErr, tt.err)
			}
			if tt.err != nil && !IsInputError(tt.err) {
				t.Errorf("expected InputError, got %T", tt.err)
			}
		})
	}
}
