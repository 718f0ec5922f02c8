// Package builder provides a small append-only SQL text builder used by the
// dialects to assemble statements.
package builder

import (
	"fmt"
	"strings"
)

// Func renders one list item.
type Func func(string) string

// FuncE renders one list item and may fail.
type FuncE func(string) (string, error)

// Builder accumulates SQL text. The zero value is ready to use.
type Builder struct {
	sb  strings.Builder
	err error
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// Append writes s.
func (b *Builder) Append(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Appendf writes a formatted string.
func (b *Builder) Appendf(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, format, args...)
	return b
}

// AppendList renders each item with fn and joins them with sep.
func (b *Builder) AppendList(sep string, items []string, fn Func) *Builder {
	for i, item := range items {
		if i > 0 {
			b.sb.WriteString(sep)
		}
		b.sb.WriteString(fn(item))
	}
	return b
}

// AppendLists renders the concatenation of a and b.
func (b *Builder) AppendLists(sep string, first, second []string, fn Func) *Builder {
	return b.AppendList(sep, join(first, second), fn)
}

// AppendListE is AppendList with a fallible renderer. Rendering stops at the
// first error, which is kept for Err. Once an error is kept the call is a no-op.
func (b *Builder) AppendListE(sep string, items []string, fn FuncE) *Builder {
	if b.err != nil {
		return b
	}
	for i, item := range items {
		s, err := fn(item)
		if err != nil {
			b.err = err
			return b
		}
		if i > 0 {
			b.sb.WriteString(sep)
		}
		b.sb.WriteString(s)
	}
	return b
}

// AppendListsE is AppendLists with a fallible renderer.
func (b *Builder) AppendListsE(sep string, first, second []string, fn FuncE) *Builder {
	return b.AppendListE(sep, join(first, second), fn)
}

// Err returns the first render error.
func (b *Builder) Err() error { return b.err }

// Build returns the accumulated text.
func (b *Builder) Build() string { return b.sb.String() }

// Len returns the number of bytes written.
func (b *Builder) Len() int { return b.sb.Len() }

// Reset clears the text and any kept error.
func (b *Builder) Reset() {
	b.sb.Reset()
	b.err = nil
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
