package types

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeNotSupported is matched by every TypeNotSupportedError.
	ErrTypeNotSupported = errors.New("type not supported")
	// ErrInvalidValue is returned when a value cannot be converted for its type.
	ErrInvalidValue = errors.New("invalid value for type")
)

// TypeNotSupportedError reports a logical or native type without a registered handler.
type TypeNotSupportedError struct {
	Table  string
	Column string
	TypeID string
}

func (e *TypeNotSupportedError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("type %q of column %q in table %s is not supported", e.TypeID, e.Column, e.Table)
	case e.Column != "":
		return fmt.Sprintf("type %q of column %q is not supported", e.TypeID, e.Column)
	default:
		return fmt.Sprintf("type %q is not supported", e.TypeID)
	}
}

// Is matches ErrTypeNotSupported.
func (e *TypeNotSupportedError) Is(target error) bool {
	return target == ErrTypeNotSupported
}

// At returns a copy of the error annotated with the table and column it was hit on.
func (e *TypeNotSupportedError) At(table, column string) *TypeNotSupportedError {
	c := *e
	c.Table = table
	c.Column = column
	return &c
}

func invalidValue(typeID string, v any) error {
	return fmt.Errorf("%w %s: %v (%T)", ErrInvalidValue, typeID, v, v)
}
