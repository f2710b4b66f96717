package model

import (
	"errors"
	"testing"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleManager, RoleManager, true},
		{RoleManager, RoleCustomer, true},
		{RoleCustomer, RoleManager, false},
		{RoleCustomer, RoleCustomer, true},
		// Unknown roles fail-closed.
		{"unknown", RoleCustomer, false},
		{RoleManager, "unknown", false},
		{"", "", false},
		{"", RoleCustomer, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidatePassword(%q) error %v is not ErrInvalidArgument", tt.password, err)
		}
	}
}

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	var err error = &InsufficientStockError{Available: 3}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("expected InsufficientStockError to match ErrInsufficientStock")
	}

	var ise *InsufficientStockError
	if !errors.As(err, &ise) || ise.Available != 3 {
		t.Errorf("expected available 3, got %+v", ise)
	}
}
