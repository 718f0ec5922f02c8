package dialects

import (
	"github.com/coregx/sqlsink/internal/builder"
	"github.com/coregx/sqlsink/internal/record"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/types"
)

// boundColumn is a table column paired with the record field feeding it.
type boundColumn struct {
	name   string
	typeID string
	field  record.Field
}

// typeKey is the handler key of the column: the field's logical type, or the
// column's own type when the field carries none.
func (c boundColumn) typeKey() string {
	if c.field.Type != "" {
		return c.field.Type
	}
	return c.typeID
}

// resolveColumns maps rec onto table. Keys follow the table's primary-key order;
// a table without a primary key uses the record key fields instead. The remaining
// record fields follow in record order. No column appears twice.
func (g *General) resolveColumns(table *relational.TableDescriptor, rec *record.Descriptor, requireKeys bool) (keys, values []boundColumn, err error) {
	id := table.ID()
	exact := g.cfg.QuoteIdentifiers
	seen := make(map[string]struct{})

	if pk := table.PrimaryKeyColumns(); len(pk) > 0 {
		for _, col := range pk {
			f, ok := rec.Lookup(col.Name(), exact)
			if !ok {
				if requireKeys {
					return nil, nil, &StatementError{Table: id, Field: col.Name(), Type: col.TypeID(), Err: ErrMissingField}
				}
				continue
			}
			keys = append(keys, boundColumn{name: col.Name(), typeID: col.TypeID(), field: f})
			seen[col.Name()] = struct{}{}
		}
	} else {
		for _, name := range rec.KeyFieldNames() {
			col, ok := table.LookupColumn(name, exact)
			if !ok {
				return nil, nil, &StatementError{Table: id, Field: name, Err: ErrUnknownColumn}
			}
			f, _ := rec.Field(name)
			keys = append(keys, boundColumn{name: col.Name(), typeID: col.TypeID(), field: f})
			seen[col.Name()] = struct{}{}
		}
	}

	if requireKeys && len(keys) == 0 {
		return nil, nil, &StatementError{Table: id, Err: ErrNoKeyColumns}
	}

	for _, name := range fieldNames(rec) {
		col, ok := table.LookupColumn(name, exact)
		if !ok {
			f, _ := rec.Field(name)
			return nil, nil, &StatementError{Table: id, Field: name, Type: f.Type, Err: ErrUnknownColumn}
		}
		if _, dup := seen[col.Name()]; dup {
			continue
		}
		f, _ := rec.Field(name)
		values = append(values, boundColumn{name: col.Name(), typeID: col.TypeID(), field: f})
		seen[col.Name()] = struct{}{}
	}
	return keys, values, nil
}

func fieldNames(rec *record.Descriptor) []string {
	return append(rec.KeyFieldNames(), rec.NonKeyFieldNames()...)
}

// bindings accumulates placeholders and driver arguments in statement order.
type bindings struct {
	placeholders []string
	args         []any
	columns      []string
}

// bind converts each column value through its handler, numbering placeholders
// from start.
func (g *General) bind(table relational.TableID, cols []boundColumn, start int, into *bindings) error {
	for i, c := range cols {
		h, err := g.resolveHandler(table, c.field.Name, c.typeKey())
		if err != nil {
			return err
		}
		b, err := h.Bind(g, g.Placeholder(start+i), c.field.Value)
		if err != nil {
			return &StatementError{Table: table, Field: c.field.Name, Type: c.typeKey(), Err: err}
		}
		into.placeholders = append(into.placeholders, b.Placeholder)
		into.args = append(into.args, b.Value)
		into.columns = append(into.columns, c.name)
	}
	return nil
}

func (g *General) columnNames(table relational.TableID, cols []boundColumn) ([]string, error) {
	out := make([]string, len(cols))
	for i, c := range cols {
		name, err := g.identifier(table, c.name)
		if err != nil {
			return nil, err
		}
		out[i] = name
	}
	return out, nil
}

// UpsertStatement renders an insert that resolves key conflicts by replacing
// every non-key column, or by doing nothing when there are none.
func (g *General) UpsertStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error) {
	id := table.ID()
	keys, values, err := g.resolveColumns(table, rec, true)
	if err != nil {
		return Statement{}, err
	}

	var bs bindings
	if err := g.bind(id, concat(keys, values), 1, &bs); err != nil {
		return Statement{}, err
	}

	parts := UpsertParts{Values: bs.placeholders}
	if parts.Table, err = g.tableName(id); err != nil {
		return Statement{}, err
	}
	if parts.Keys, err = g.columnNames(id, keys); err != nil {
		return Statement{}, err
	}
	if parts.NonKeys, err = g.columnNames(id, values); err != nil {
		return Statement{}, err
	}

	render := g.vendor.Upsert
	if render == nil {
		render = onConflictUpsert
	}
	return Statement{SQL: render(parts), Args: bs.args, Columns: bs.columns}, nil
}

// InsertStatement renders a plain insert of every record field.
func (g *General) InsertStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error) {
	id := table.ID()
	keys, values, err := g.resolveColumns(table, rec, false)
	if err != nil {
		return Statement{}, err
	}
	cols := concat(keys, values)
	if len(cols) == 0 {
		return Statement{}, &StatementError{Table: id, Err: ErrNoColumns}
	}

	var bs bindings
	if err := g.bind(id, cols, 1, &bs); err != nil {
		return Statement{}, err
	}
	tableName, err := g.tableName(id)
	if err != nil {
		return Statement{}, err
	}
	names, err := g.columnNames(id, cols)
	if err != nil {
		return Statement{}, err
	}

	b := builder.New()
	b.Append("INSERT INTO ").Append(tableName).Append(" (").
		AppendList(",", names, same).
		Append(") VALUES (").AppendList(",", bs.placeholders, same).Append(")")
	return Statement{SQL: b.Build(), Args: bs.args, Columns: bs.columns}, nil
}

// UpdateStatement renders an update of the non-key columns of the row matching
// the record key.
func (g *General) UpdateStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error) {
	id := table.ID()
	keys, values, err := g.resolveColumns(table, rec, true)
	if err != nil {
		return Statement{}, err
	}
	if len(values) == 0 {
		return Statement{}, &StatementError{Table: id, Err: ErrNoNonKeyColumns}
	}

	var bs bindings
	if err := g.bind(id, values, 1, &bs); err != nil {
		return Statement{}, err
	}
	if err := g.bind(id, keys, len(values)+1, &bs); err != nil {
		return Statement{}, err
	}
	tableName, err := g.tableName(id)
	if err != nil {
		return Statement{}, err
	}
	valueNames, err := g.columnNames(id, values)
	if err != nil {
		return Statement{}, err
	}
	keyNames, err := g.columnNames(id, keys)
	if err != nil {
		return Statement{}, err
	}

	b := builder.New()
	b.Append("UPDATE ").Append(tableName).Append(" SET ").
		Append(assignments(valueNames, bs.placeholders[:len(values)], ",")).
		Append(" WHERE ").
		Append(assignments(keyNames, bs.placeholders[len(values):], " AND "))
	return Statement{SQL: b.Build(), Args: bs.args, Columns: bs.columns}, nil
}

// DeleteStatement renders a delete of the row matching the record key.
func (g *General) DeleteStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error) {
	id := table.ID()
	keys, _, err := g.resolveColumns(table, rec, true)
	if err != nil {
		return Statement{}, err
	}

	var bs bindings
	if err := g.bind(id, keys, 1, &bs); err != nil {
		return Statement{}, err
	}
	tableName, err := g.tableName(id)
	if err != nil {
		return Statement{}, err
	}
	keyNames, err := g.columnNames(id, keys)
	if err != nil {
		return Statement{}, err
	}

	b := builder.New()
	b.Append("DELETE FROM ").Append(tableName).Append(" WHERE ").
		Append(assignments(keyNames, bs.placeholders, " AND "))
	return Statement{SQL: b.Build(), Args: bs.args, Columns: bs.columns}, nil
}

// TruncateStatement renders removal of every row.
func (g *General) TruncateStatement(table *relational.TableDescriptor) (Statement, error) {
	tableName, err := g.tableName(table.ID())
	if err != nil {
		return Statement{}, err
	}
	if g.vendor.Truncate != nil {
		return Statement{SQL: g.vendor.Truncate(tableName)}, nil
	}
	return Statement{SQL: "TRUNCATE TABLE " + tableName}, nil
}

// CreateTableStatement renders a table holding every record field, keyed by the
// record key fields.
func (g *General) CreateTableStatement(id relational.TableID, rec *record.Descriptor) (Statement, error) {
	tableName, err := g.tableName(id)
	if err != nil {
		return Statement{}, err
	}

	keys := rec.KeyFieldNames()
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	b := builder.New()
	b.Append("CREATE TABLE ").Append(tableName).Append(" (").
		AppendListE(", ", fieldNames(rec), func(name string) (string, error) {
			f, _ := rec.Field(name)
			return g.columnDefinition(id, f, isKey[name])
		})
	if len(keys) > 0 {
		b.Append(", PRIMARY KEY(").AppendListE(",", keys, func(name string) (string, error) {
			return g.identifier(id, name)
		}).Append(")")
	}
	b.Append(")")
	if err := b.Err(); err != nil {
		return Statement{}, err
	}
	return Statement{SQL: b.Build()}, nil
}

// AlterTableStatement renders the additions needed for table to hold every
// record field. It returns nil when nothing is missing. A missing field that is
// required and has no default cannot be added to a populated table and fails.
func (g *General) AlterTableStatement(table *relational.TableDescriptor, rec *record.Descriptor) ([]Statement, error) {
	id := table.ID()
	var defs []string
	for _, name := range fieldNames(rec) {
		if _, ok := table.LookupColumn(name, g.cfg.QuoteIdentifiers); ok {
			continue
		}
		f, _ := rec.Field(name)
		if !f.Optional && f.Default == nil {
			return nil, &StatementError{Table: id, Field: name, Type: f.Type, Err: ErrRequiredNoDefault}
		}
		def, err := g.columnDefinition(id, f, false)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, nil
	}

	tableName, err := g.tableName(id)
	if err != nil {
		return nil, err
	}
	render := g.vendor.Alter
	if render == nil {
		render = addColumnAlter
	}

	sqls := render(tableName, defs)
	stmts := make([]Statement, len(sqls))
	for i, s := range sqls {
		stmts[i] = Statement{SQL: s}
	}
	return stmts, nil
}

// columnDefinition renders "name type [DEFAULT literal] NULL|NOT NULL".
func (g *General) columnDefinition(id relational.TableID, f record.Field, key bool) (string, error) {
	name, err := g.identifier(id, f.Name)
	if err != nil {
		return "", err
	}
	h, err := g.resolveHandler(id, f.Name, f.Type)
	if err != nil {
		return "", err
	}

	b := builder.New()
	b.Append(name).Append(" ").Append(h.TypeName(g, types.Size{
		Length:    f.Length,
		Precision: f.Precision,
		Scale:     f.Scale,
		Key:       key,
	}))
	if f.Default != nil {
		lit, err := h.Format(g, f.Default)
		if err != nil {
			return "", &StatementError{Table: id, Field: f.Name, Type: f.Type, Err: err}
		}
		b.Append(" DEFAULT ").Append(lit)
	}
	if key || !f.Optional {
		b.Append(" NOT NULL")
	} else {
		b.Append(" NULL")
	}
	return b.Build(), nil
}

func assignments(names, placeholders []string, sep string) string {
	b := builder.New()
	for i, n := range names {
		if i > 0 {
			b.Append(sep)
		}
		b.Append(n).Append("=").Append(placeholders[i])
	}
	return b.Build()
}

func concat(a, b []boundColumn) []boundColumn {
	out := make([]boundColumn, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
