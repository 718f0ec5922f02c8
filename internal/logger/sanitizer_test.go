package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_MaskArgs_DefaultFields(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		args    []any
		want    []any
	}{
		{
			name:    "Password column",
			columns: []string{"id", "password"},
			args:    []any{1, "secret123"},
			want:    []any{1, "***REDACTED***"},
		},
		{
			name:    "Suffix match",
			columns: []string{"user_id", "session_token"},
			args:    []any{123, "abc-xyz-token"},
			want:    []any{123, "***REDACTED***"},
		},
		{
			name:    "Case insensitive",
			columns: []string{"API_KEY"},
			args:    []any{"sk_test_123456"},
			want:    []any{"***REDACTED***"},
		},
		{
			name:    "Word boundary",
			columns: []string{"passwordless", "author"},
			args:    []any{true, "Alice"},
			want:    []any{true, "Alice"},
		},
		{
			name:    "Surplus args kept",
			columns: []string{"cvv"},
			args:    []any{"123", 7},
			want:    []any{"***REDACTED***", 7},
		},
		{
			name:    "Empty args",
			columns: []string{"password"},
			args:    []any{},
			want:    []any{},
		},
	}

	s := NewSanitizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.MaskArgs(tt.columns, tt.args))
		})
	}
}

func TestSanitizer_MaskArgs_DoesNotModifyInput(t *testing.T) {
	s := NewSanitizer(nil)
	args := []any{"hunter2"}
	_ = s.MaskArgs([]string{"password"}, args)
	assert.Equal(t, "hunter2", args[0])
}

func TestSanitizer_CustomFields(t *testing.T) {
	s := NewSanitizer([]string{"iban"})
	assert.True(t, s.IsSensitive("customer_iban"))
	assert.False(t, s.IsSensitive("password"))
}

func TestSanitizer_FormatParams(t *testing.T) {
	s := NewSanitizer(nil)

	assert.Equal(t, "[]", s.FormatParams(nil))
	assert.Equal(t, "[1, NULL, PAID]", s.FormatParams([]any{1, nil, "PAID"}))

	long := strings.Repeat("x", 150)
	out := s.FormatParams([]any{long})
	assert.True(t, strings.HasSuffix(out, "...]"))
	assert.Len(t, out, 1+100+3+1)
}
