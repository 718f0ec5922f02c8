// Package security validates identifiers that are emitted into generated SQL
// without quoting.
package security

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidIdentifier is returned for an identifier that cannot be emitted unquoted.
var ErrInvalidIdentifier = errors.New("invalid unquoted identifier")

// DefaultMaxLength is the longest identifier accepted unless configured otherwise.
const DefaultMaxLength = 128

// Validator checks unquoted identifiers against dangerous patterns.
type Validator struct {
	patterns  []*regexp.Regexp
	strict    bool
	maxLength int
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithStrict additionally rejects reserved SQL keywords used as identifiers.
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strict = strict
	}
}

// WithMaxLength overrides the identifier length limit.
func WithMaxLength(n int) ValidatorOption {
	return func(v *Validator) {
		v.maxLength = n
	}
}

// NewValidator creates a validator with the default dangerous patterns.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		patterns:  compilePatterns(dangerousPatterns),
		maxLength: DefaultMaxLength,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.strict {
		v.patterns = append(v.patterns, compilePatterns(strictPatterns)...)
	}

	return v
}

var plainIdentifier = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_$]*$`)

// dangerousPatterns are fragments that would let an unquoted name escape its position.
var dangerousPatterns = []string{
	`--`,       // line comment
	`/\*`,      // block comment
	`;`,        // stacked statement
	`['"\x60]`, // quote characters
	`\s`,       // whitespace
}

// strictPatterns reject keywords that change statement structure when unquoted.
var strictPatterns = []string{
	`(?i)^(SELECT|INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|MERGE|UNION|TABLE|FROM|WHERE|EXEC|EXECUTE|GRANT)$`,
}

// ValidateIdentifier reports whether name can be emitted unquoted.
func (v *Validator) ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if v.maxLength > 0 && len(name) > v.maxLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidIdentifier, name, v.maxLength)
	}

	for _, pattern := range v.patterns {
		if pattern.MatchString(name) {
			return fmt.Errorf("%w: %q contains an unsafe construct", ErrInvalidIdentifier, name)
		}
	}

	if !plainIdentifier.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateIdentifiers validates every name, stopping at the first failure.
func (v *Validator) ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := v.ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
