// Package record describes an incoming change record: its fields, which of them
// form the key, and the operation that produced it.
package record

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Operation is the change-event kind.
type Operation string

const (
	Create   Operation = "c"
	Update   Operation = "u"
	Delete   Operation = "d"
	Read     Operation = "r"
	Truncate Operation = "t"
)

// ParseOperation accepts either the short code or the long name.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "create", "insert":
		return Create, nil
	case "u", "update":
		return Update, nil
	case "d", "delete":
		return Delete, nil
	case "r", "read", "snapshot":
		return Read, nil
	case "t", "truncate":
		return Truncate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

var (
	// ErrEmptyFieldName is returned for a field without a name.
	ErrEmptyFieldName = errors.New("field name is required")
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrUnknownOperation is returned for an unrecognized operation.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Field is one value of a change record. Type is a logical type id.
type Field struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Optional  bool   `yaml:"optional"`
	Length    int    `yaml:"length"`
	Precision int    `yaml:"precision"`
	Scale     int    `yaml:"scale"`
	Default   any    `yaml:"default"`
	Value     any    `yaml:"value"`
}

// Descriptor is an immutable change record.
type Descriptor struct {
	topic   string
	op      Operation
	keys    []string
	nonKeys []string
	fields  map[string]Field
	folded  map[string]string
}

func (d *Descriptor) Topic() string        { return d.topic }
func (d *Descriptor) Operation() Operation { return d.op }
func (d *Descriptor) IsDelete() bool       { return d.op == Delete }
func (d *Descriptor) IsTruncate() bool     { return d.op == Truncate }

// KeyFieldNames returns the key fields in record order.
func (d *Descriptor) KeyFieldNames() []string {
	return append([]string(nil), d.keys...)
}

// NonKeyFieldNames returns the value fields in record order.
func (d *Descriptor) NonKeyFieldNames() []string {
	return append([]string(nil), d.nonKeys...)
}

// Field returns the field with exactly the given name.
func (d *Descriptor) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Lookup finds a field, ignoring case unless caseSensitive is set.
func (d *Descriptor) Lookup(name string, caseSensitive bool) (Field, bool) {
	if f, ok := d.fields[name]; ok || caseSensitive {
		return f, ok
	}
	actual, ok := d.folded[cases.Fold().String(name)]
	if !ok {
		return Field{}, false
	}
	return d.fields[actual], true
}

// Builder assembles a Descriptor.
type Builder struct {
	topic  string
	op     Operation
	keys   []Field
	values []Field
}

// NewBuilder returns a builder for a create record.
func NewBuilder() *Builder {
	return &Builder{op: Create}
}

// Topic sets the originating topic.
func (b *Builder) Topic(topic string) *Builder {
	b.topic = topic
	return b
}

// Operation sets the change kind.
func (b *Builder) Operation(op Operation) *Builder {
	b.op = op
	return b
}

// Key appends key fields.
func (b *Builder) Key(fields ...Field) *Builder {
	b.keys = append(b.keys, fields...)
	return b
}

// Field appends value fields.
func (b *Builder) Field(fields ...Field) *Builder {
	b.values = append(b.values, fields...)
	return b
}

// Build validates field names and returns the record.
func (b *Builder) Build() (*Descriptor, error) {
	d := &Descriptor{
		topic:   b.topic,
		op:      b.op,
		keys:    make([]string, 0, len(b.keys)),
		nonKeys: make([]string, 0, len(b.values)),
		fields:  make(map[string]Field, len(b.keys)+len(b.values)),
		folded:  make(map[string]string, len(b.keys)+len(b.values)),
	}

	add := func(f Field, names *[]string) error {
		if f.Name == "" {
			return ErrEmptyFieldName
		}
		if _, dup := d.fields[f.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		d.fields[f.Name] = f
		if k := cases.Fold().String(f.Name); d.folded[k] == "" {
			d.folded[k] = f.Name
		}
		*names = append(*names, f.Name)
		return nil
	}

	for _, f := range b.keys {
		if err := add(f, &d.keys); err != nil {
			return nil, err
		}
	}
	for _, f := range b.values {
		if err := add(f, &d.nonKeys); err != nil {
			return nil, err
		}
	}
	return d, nil
}
