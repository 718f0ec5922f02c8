// Package types provides the type registry that maps logical column types and
// native catalog type names to dialect-aware value handlers.
package types

import (
	"sort"
	"time"
)

// Kind is a portable column type family. Dialects translate a Kind and a Size
// into their own DDL type name.
type Kind int

// Portable column type families.
const (
	Boolean Kind = iota + 1
	SmallInt
	Integer
	BigInt
	Real
	Double
	Decimal
	Varchar
	Text
	Binary
	Date
	Time
	TimeWithTimeZone
	Timestamp
	TimestampWithTimeZone
	UUID
	JSON
)

// Size carries the optional sizing attributes of a column.
type Size struct {
	Length    int
	Precision int
	Scale     int
	// Key reports whether the column takes part in the primary key.
	Key bool
}

// Formatter is the subset of dialect behavior a Handler relies on.
type Formatter interface {
	FormatBoolean(v bool) string
	FormatDateTimeWithNanos(v time.Time) string
	FormatZonedDateTime(v time.Time) string
	FormatDate(v time.Time) string
	FormatTime(v time.Time) string
	FormatString(v string) string
	ByteArrayFormat() string
	MaxTimestampPrecision() int
	MaxVarcharLengthInKey() int
	TypeName(k Kind, s Size) string
	Location() *time.Location
}

// Binding is the placeholder expression and driver argument for one value.
type Binding struct {
	Placeholder string
	Value       any
}

// Handler renders and binds values of one logical type.
type Handler interface {
	// Keys lists the logical type ids and native type names served by the handler.
	Keys() []string
	// TypeName returns the DDL column type.
	TypeName(f Formatter, s Size) string
	// Format renders v as an inline SQL literal.
	Format(f Formatter, v any) (string, error)
	// Bind wraps placeholder as needed and converts v into a driver argument.
	Bind(f Formatter, placeholder string, v any) (Binding, error)
	// MaxLength is the length limit applied to key columns, 0 when none applies.
	MaxLength(f Formatter) int
}

// Registry is a mutable set of handlers used while a dialect is being built.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under each of its keys. A later registration for the same key
// replaces the earlier one.
func (r *Registry) Register(h Handler) {
	for _, key := range h.Keys() {
		r.handlers[key] = h
	}
}

// Resolve returns the handler registered under key.
func (r *Registry) Resolve(key string) (Handler, error) {
	return resolve(r.handlers, key)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{handlers: make(map[string]Handler, len(r.handlers))}
	for k, h := range r.handlers {
		c.handlers[k] = h
	}
	return c
}

// Freeze returns a read-only view over a private copy of the registry.
func (r *Registry) Freeze() Lookup {
	return Lookup{handlers: r.Clone().handlers}
}

// Lookup is an immutable handler table, safe for concurrent use.
type Lookup struct {
	handlers map[string]Handler
}

// Resolve returns the handler registered under key.
func (l Lookup) Resolve(key string) (Handler, error) {
	return resolve(l.handlers, key)
}

// Has reports whether key has a handler.
func (l Lookup) Has(key string) bool {
	_, ok := l.handlers[key]
	return ok
}

// Keys returns every registered key in sorted order.
func (l Lookup) Keys() []string {
	keys := make([]string, 0, len(l.handlers))
	for k := range l.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resolve(handlers map[string]Handler, key string) (Handler, error) {
	if h, ok := handlers[key]; ok {
		return h, nil
	}
	return nil, &TypeNotSupportedError{TypeID: key}
}
