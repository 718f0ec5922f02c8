package relational

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
)

// Table types reported by catalogs.
const (
	TypeBaseTable = "BASE TABLE"
	TypeView      = "VIEW"
)

var (
	// ErrMissingTableName is returned when a descriptor is built without a table name.
	ErrMissingTableName = errors.New("table name is required")
	// ErrEmptyColumnName is returned for a column without a name.
	ErrEmptyColumnName = errors.New("column name is required")
	// ErrUnknownKeyColumn is returned when a primary key names a missing column.
	ErrUnknownKeyColumn = errors.New("primary key column is not a table column")
	// ErrDuplicateKeyColumn is returned when a primary key names a column twice.
	ErrDuplicateKeyColumn = errors.New("duplicate primary key column")
)

// TableDescriptor is an immutable snapshot of a table definition.
type TableDescriptor struct {
	id         TableID
	tableType  string
	columns    []*ColumnDescriptor
	index      map[string]int
	folded     map[string]int
	primaryKey []string
	keySet     map[string]struct{}
}

func (t *TableDescriptor) ID() TableID        { return t.id }
func (t *TableDescriptor) TableType() string { return t.tableType }

// Columns returns the columns in definition order.
func (t *TableDescriptor) Columns() []*ColumnDescriptor {
	out := make([]*ColumnDescriptor, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnByName returns the column with exactly the given name.
func (t *TableDescriptor) ColumnByName(name string) (*ColumnDescriptor, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// LookupColumn finds a column, ignoring case unless caseSensitive is set. An
// exact match always wins.
func (t *TableDescriptor) LookupColumn(name string, caseSensitive bool) (*ColumnDescriptor, bool) {
	if c, ok := t.ColumnByName(name); ok || caseSensitive {
		return c, ok
	}
	i, ok := t.folded[foldName(name)]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether a column with exactly the given name exists.
func (t *TableDescriptor) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// PrimaryKeyColumnNames returns the primary key in key order.
func (t *TableDescriptor) PrimaryKeyColumnNames() []string {
	out := make([]string, len(t.primaryKey))
	copy(out, t.primaryKey)
	return out
}

// IsPrimaryKey reports whether name is part of the primary key.
func (t *TableDescriptor) IsPrimaryKey(name string) bool {
	_, ok := t.keySet[name]
	return ok
}

// PrimaryKeyColumns returns the key columns in key order.
func (t *TableDescriptor) PrimaryKeyColumns() []*ColumnDescriptor {
	out := make([]*ColumnDescriptor, len(t.primaryKey))
	for i, name := range t.primaryKey {
		out[i] = t.columns[t.index[name]]
	}
	return out
}

// NonKeyColumns returns the columns outside the primary key in definition order.
func (t *TableDescriptor) NonKeyColumns() []*ColumnDescriptor {
	out := make([]*ColumnDescriptor, 0, len(t.columns)-len(t.primaryKey))
	for _, c := range t.columns {
		if !t.IsPrimaryKey(c.name) {
			out = append(out, c)
		}
	}
	return out
}

// Builder assembles a TableDescriptor.
type Builder struct {
	id        TableID
	tableType string
	columns   []*ColumnDescriptor
	index     map[string]int
	keys      []string
}

// NewBuilder returns a builder for a base table.
func NewBuilder() *Builder {
	return &Builder{tableType: TypeBaseTable, index: make(map[string]int)}
}

// ID sets every name part at once.
func (b *Builder) ID(id TableID) *Builder {
	b.id = id
	return b
}

func (b *Builder) CatalogName(name string) *Builder {
	b.id.Catalog = name
	return b
}

func (b *Builder) SchemaName(name string) *Builder {
	b.id.Schema = name
	return b
}

func (b *Builder) TableName(name string) *Builder {
	b.id.Table = name
	return b
}

// Type sets the table type.
func (b *Builder) Type(tableType string) *Builder {
	b.tableType = tableType
	return b
}

// Column adds c. A column with the same name replaces the earlier definition in place.
func (b *Builder) Column(c *ColumnDescriptor) *Builder {
	if i, ok := b.index[c.name]; ok {
		b.columns[i] = c
		return b
	}
	b.index[c.name] = len(b.columns)
	b.columns = append(b.columns, c)
	return b
}

// Columns adds each column in order.
func (b *Builder) Columns(cols ...*ColumnDescriptor) *Builder {
	for _, c := range cols {
		b.Column(c)
	}
	return b
}

// KeyColumn appends names to the primary key.
func (b *Builder) KeyColumn(names ...string) *Builder {
	b.keys = append(b.keys, names...)
	return b
}

// Build validates the definition and returns the descriptor.
func (b *Builder) Build() (*TableDescriptor, error) {
	if b.id.Table == "" {
		return nil, ErrMissingTableName
	}

	t := &TableDescriptor{
		id:         b.id,
		tableType:  b.tableType,
		columns:    make([]*ColumnDescriptor, len(b.columns)),
		index:      make(map[string]int, len(b.columns)),
		folded:     make(map[string]int, len(b.columns)),
		primaryKey: make([]string, 0, len(b.keys)),
		keySet:     make(map[string]struct{}, len(b.keys)),
	}
	copy(t.columns, b.columns)
	for i, c := range t.columns {
		if c.name == "" {
			return nil, fmt.Errorf("%s: %w", b.id, ErrEmptyColumnName)
		}
		t.index[c.name] = i
		if _, ok := t.folded[foldName(c.name)]; !ok {
			t.folded[foldName(c.name)] = i
		}
	}

	for _, k := range b.keys {
		if _, ok := t.index[k]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", b.id, ErrUnknownKeyColumn, k)
		}
		if _, dup := t.keySet[k]; dup {
			return nil, fmt.Errorf("%s: %w: %s", b.id, ErrDuplicateKeyColumn, k)
		}
		t.keySet[k] = struct{}{}
		t.primaryKey = append(t.primaryKey, k)
	}
	return t, nil
}

func foldName(s string) string {
	return cases.Fold().String(s)
}
