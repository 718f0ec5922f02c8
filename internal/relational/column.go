package relational

import "github.com/coregx/sqlsink/internal/types"

// ColumnDescriptor describes one column of a table. It is immutable once built.
type ColumnDescriptor struct {
	name          string
	typeID        string
	nativeType    string
	nullable      bool
	length        int
	precision     int
	scale         int
	defaultValue  any
	hasDefault    bool
	autoIncrement bool
}

// ColumnOption configures a ColumnDescriptor.
type ColumnOption func(*ColumnDescriptor)

// NewColumn builds a nullable column of the given type. typeID is the key the
// column's handler is resolved by.
func NewColumn(name, typeID string, opts ...ColumnOption) *ColumnDescriptor {
	c := &ColumnDescriptor{name: name, typeID: typeID, nativeType: typeID, nullable: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithNativeType records the catalog spelling of the column type.
func WithNativeType(native string) ColumnOption {
	return func(c *ColumnDescriptor) { c.nativeType = native }
}

// WithNullable sets nullability.
func WithNullable(nullable bool) ColumnOption {
	return func(c *ColumnDescriptor) { c.nullable = nullable }
}

// WithLength sets the character or byte length.
func WithLength(n int) ColumnOption {
	return func(c *ColumnDescriptor) { c.length = n }
}

// WithPrecision sets numeric or fractional-second precision.
func WithPrecision(n int) ColumnOption {
	return func(c *ColumnDescriptor) { c.precision = n }
}

// WithScale sets numeric scale.
func WithScale(n int) ColumnOption {
	return func(c *ColumnDescriptor) { c.scale = n }
}

// WithDefault sets the column default.
func WithDefault(v any) ColumnOption {
	return func(c *ColumnDescriptor) {
		c.defaultValue = v
		c.hasDefault = true
	}
}

// WithAutoIncrement marks a generated column.
func WithAutoIncrement() ColumnOption {
	return func(c *ColumnDescriptor) { c.autoIncrement = true }
}

func (c *ColumnDescriptor) Name() string       { return c.name }
func (c *ColumnDescriptor) TypeID() string     { return c.typeID }
func (c *ColumnDescriptor) NativeType() string { return c.nativeType }
func (c *ColumnDescriptor) Nullable() bool     { return c.nullable }
func (c *ColumnDescriptor) Length() int        { return c.length }
func (c *ColumnDescriptor) Precision() int     { return c.precision }
func (c *ColumnDescriptor) Scale() int         { return c.scale }
func (c *ColumnDescriptor) AutoIncrement() bool {
	return c.autoIncrement
}

// Default returns the default value and whether one is set.
func (c *ColumnDescriptor) Default() (any, bool) { return c.defaultValue, c.hasDefault }

// Size returns the sizing attributes used to render the column type.
func (c *ColumnDescriptor) Size(key bool) types.Size {
	return types.Size{Length: c.length, Precision: c.precision, Scale: c.scale, Key: key}
}
