package logger

import (
	"fmt"
	"regexp"
	"strings"
)

// Sanitizer masks bound values of sensitive columns before statements are logged.
type Sanitizer struct {
	sensitiveFields []string
	maskValue       string
	patterns        []*regexp.Regexp
}

// NewSanitizer creates a sanitizer for the given column-name fragments. With no
// fields a default set of common secret column names is used.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = []string{
			"password", "passwd", "pwd",
			"token", "api_key", "apikey", "api_token",
			"secret", "auth", "authorization",
			"credit_card", "card_number", "cvv", "cvc",
			"ssn", "social_security",
			"private_key", "priv_key",
		}
	}

	// Column names are matched as whole words or as "_"-separated parts, so
	// "user_password" is sensitive while "passwordless" is not.
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`(?i)(^|_)`+regexp.QuoteMeta(field)+`($|_)`))
	}

	return &Sanitizer{
		sensitiveFields: sensitiveFields,
		maskValue:       "***REDACTED***",
		patterns:        patterns,
	}
}

// IsSensitive reports whether a column name matches a sensitive field.
func (s *Sanitizer) IsSensitive(column string) bool {
	for _, pattern := range s.patterns {
		if pattern.MatchString(column) {
			return true
		}
	}
	return false
}

// MaskArgs returns a copy of args where every value bound to a sensitive column
// is replaced by the mask. columns[i] names the column of args[i]; surplus
// arguments without a column are kept. The input is not modified.
func (s *Sanitizer) MaskArgs(columns []string, args []any) []any {
	if len(args) == 0 {
		return args
	}

	masked := make([]any, len(args))
	copy(masked, args)
	for i := range masked {
		if i < len(columns) && s.IsSensitive(columns[i]) {
			masked[i] = s.maskValue
		}
	}
	return masked
}

// FormatParams renders args for a log line. Mask them with MaskArgs first.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = s.formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s *Sanitizer) formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	str := fmt.Sprintf("%v", v)

	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
