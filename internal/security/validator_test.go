package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_ValidateIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		ident     string
		strict    bool
		wantError bool
	}{
		// Legitimate identifiers (should pass)
		{name: "simple", ident: "orders"},
		{name: "underscore_prefix", ident: "_shadow"},
		{name: "mixed_case", ident: "OrderLines"},
		{name: "digits_and_dollar", ident: "sys$log2"},
		{name: "unicode_letters", ident: "bestellung_größe"},
		{name: "keyword_lenient", ident: "table"},

		// Rejected identifiers
		{name: "empty", ident: "", wantError: true},
		{name: "leading_digit", ident: "1orders", wantError: true},
		{name: "line_comment", ident: "id--", wantError: true},
		{name: "block_comment", ident: "id/*x*/", wantError: true},
		{name: "stacked_statement", ident: "t;DROP", wantError: true},
		{name: "double_quote", ident: `a"b`, wantError: true},
		{name: "backtick", ident: "a`b", wantError: true},
		{name: "space", ident: "order lines", wantError: true},
		{name: "dot", ident: "public.orders", wantError: true},
		{name: "keyword_strict", ident: "Select", strict: true, wantError: true},
		{name: "too_long", ident: strings.Repeat("a", DefaultMaxLength+1), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(WithStrict(tt.strict))
			err := v.ValidateIdentifier(tt.ident)
			if (err != nil) != tt.wantError {
				t.Fatalf("ValidateIdentifier(%q) error = %v, wantError %v", tt.ident, err, tt.wantError)
			}
			if err != nil && !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("error %v does not wrap ErrInvalidIdentifier", err)
			}
		})
	}
}

func TestValidator_WithMaxLength(t *testing.T) {
	v := NewValidator(WithMaxLength(30))
	if err := v.ValidateIdentifier(strings.Repeat("x", 30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateIdentifier(strings.Repeat("x", 31)); err == nil {
		t.Fatal("expected length error")
	}
}

func TestValidator_ValidateIdentifiers(t *testing.T) {
	v := NewValidator()
	if err := v.ValidateIdentifiers("id", "status", "total"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateIdentifiers("id", "bad name", "total"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}
