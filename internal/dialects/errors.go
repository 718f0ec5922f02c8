package dialects

import (
	"errors"
	"fmt"

	"github.com/coregx/sqlsink/internal/relational"
)

var (
	// ErrConnectivity is matched by every ConnectivityError.
	ErrConnectivity = errors.New("database connectivity error")
	// ErrUnsupportedDialect is matched by every UnsupportedDialectError.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrDetectionFailed is returned when no probe identifies the backend.
	ErrDetectionFailed = errors.New("database product detection failed")

	ErrTableNotFound        = errors.New("table not found")
	ErrTableVanished        = errors.New("table vanished while being read")
	ErrInconsistentMetadata = errors.New("inconsistent table metadata")

	ErrNoKeyColumns      = errors.New("no key columns")
	ErrNoNonKeyColumns   = errors.New("no non-key columns")
	ErrNoColumns         = errors.New("record has no columns to write")
	ErrUnknownColumn     = errors.New("field has no matching table column")
	ErrMissingField      = errors.New("record has no field for key column")
	ErrRequiredNoDefault = errors.New("required column has no default value")
	ErrUnknownTimeZone   = errors.New("unknown database time zone")
)

// ConnectivityError is a transient failure talking to the backend. Callers may
// retry the whole operation.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Is matches ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// SchemaReadError reports a table that could not be turned into a descriptor.
// Callers should re-probe the table.
type SchemaReadError struct {
	Table  relational.TableID
	Column string
	Reason string
	Err    error
}

func (e *SchemaReadError) Error() string {
	msg := "read table " + e.Table.String()
	if e.Column != "" {
		msg += " column " + e.Column
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaReadError) Unwrap() error { return e.Err }

// UnsupportedDialectError is returned when no provider accepts the backend.
type UnsupportedDialectError struct {
	Detected Detected
}

func (e *UnsupportedDialectError) Error() string {
	d := e.Detected
	if d.Product == "" {
		return fmt.Sprintf("no dialect supports unrecognized backend %q (driver %q)", d.Version, d.Driver)
	}
	return fmt.Sprintf("no dialect supports %q %s (driver %q)", d.Product, d.Version, d.Driver)
}

// Is matches ErrUnsupportedDialect.
func (e *UnsupportedDialectError) Is(target error) bool { return target == ErrUnsupportedDialect }

// StatementError reports a record that cannot be rendered against a table.
type StatementError struct {
	Table relational.TableID
	Field string
	Type  string
	Err   error
}

func (e *StatementError) Error() string {
	msg := "table " + e.Table.String()
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Type != "" {
		msg += " (" + e.Type + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *StatementError) Unwrap() error { return e.Err }
