package dialects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/types"
)

// Catalog reads table metadata from a live backend. Identifiers passed in are
// already case-folded.
type Catalog interface {
	// LookupTable reports the table type, or found=false when the table is absent.
	LookupTable(ctx context.Context, q Querier, id relational.TableID) (tableType string, found bool, err error)
	// Columns returns the columns in ordinal order.
	Columns(ctx context.Context, q Querier, id relational.TableID) ([]CatalogColumn, error)
	// PrimaryKey returns the key column names in key order.
	PrimaryKey(ctx context.Context, q Querier, id relational.TableID) ([]string, error)
}

// CatalogColumn is one column as reported by a catalog.
type CatalogColumn struct {
	Name          string
	DataType      string
	Nullable      bool
	Length        int
	Precision     int
	Scale         int
	Default       *string
	AutoIncrement bool
}

// TableExists reports whether the table is present. It fails only when the
// catalog cannot be queried.
func (g *General) TableExists(ctx context.Context, q Querier, id relational.TableID) (bool, error) {
	id = g.fold(id)
	_, found, err := g.catalog.LookupTable(ctx, q, id)
	if err != nil {
		return false, &ConnectivityError{Op: "look up table " + id.String(), Err: err}
	}
	return found, nil
}

// ReadTable reads the live definition of a table. Every column type must have a
// registered handler.
func (g *General) ReadTable(ctx context.Context, q Querier, id relational.TableID) (*relational.TableDescriptor, error) {
	start := time.Now()
	id = g.fold(id)

	tableType, found, err := g.catalog.LookupTable(ctx, q, id)
	if err != nil {
		return nil, &ConnectivityError{Op: "look up table " + id.String(), Err: err}
	}
	if !found {
		return nil, &SchemaReadError{Table: id, Reason: "table does not exist", Err: ErrTableNotFound}
	}

	cols, err := g.catalog.Columns(ctx, q, id)
	if err != nil {
		return nil, g.readError(id, "read columns", err)
	}
	if len(cols) == 0 {
		return nil, &SchemaReadError{Table: id, Reason: "no columns reported", Err: ErrTableVanished}
	}

	pk, err := g.catalog.PrimaryKey(ctx, q, id)
	if err != nil {
		return nil, g.readError(id, "read primary key", err)
	}

	b := relational.NewBuilder().ID(id).Type(tableType)
	for _, c := range cols {
		col, err := g.columnFromCatalog(id, c)
		if err != nil {
			return nil, err
		}
		b.Column(col)
	}
	b.KeyColumn(pk...)

	table, err := b.Build()
	if err != nil {
		return nil, &SchemaReadError{Table: id, Reason: "primary key does not match columns", Err: errors.Join(ErrInconsistentMetadata, err)}
	}

	g.log.Debug("table read",
		"table", id.String(),
		"columns", len(cols),
		"primary_key", pk,
		"duration", time.Since(start))
	return table, nil
}

func (g *General) readError(id relational.TableID, op string, err error) error {
	if g.IsUndefinedTable(err) {
		return &SchemaReadError{Table: id, Reason: "table dropped during read", Err: errors.Join(ErrTableVanished, err)}
	}
	return &ConnectivityError{Op: op + " of " + id.String(), Err: err}
}

func (g *General) columnFromCatalog(id relational.TableID, c CatalogColumn) (*relational.ColumnDescriptor, error) {
	typeID, size := parseNativeType(c.DataType)
	if _, err := g.types.Resolve(typeID); err != nil {
		var tnse *types.TypeNotSupportedError
		if errors.As(err, &tnse) {
			err = tnse.At(id.String(), c.Name)
		}
		return nil, &SchemaReadError{Table: id, Column: c.Name, Reason: "unsupported column type", Err: err}
	}

	opts := []relational.ColumnOption{
		relational.WithNativeType(c.DataType),
		relational.WithNullable(c.Nullable),
		relational.WithLength(firstPositive(c.Length, size.Length)),
		relational.WithPrecision(firstPositive(c.Precision, size.Precision)),
		relational.WithScale(firstPositive(c.Scale, size.Scale)),
	}
	if c.Default != nil {
		opts = append(opts, relational.WithDefault(*c.Default))
	}
	if c.AutoIncrement {
		opts = append(opts, relational.WithAutoIncrement())
	}
	return relational.NewColumn(c.Name, typeID, opts...), nil
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

var (
	typeArgs    = regexp.MustCompile(`\(([^)]*)\)`)
	spaces      = regexp.MustCompile(`\s+`)
	typeDropped = map[string]bool{"unsigned": true, "signed": true, "zerofill": true}
)

// parseNativeType normalizes a catalog type spelling to a handler key and
// extracts any parenthesized sizing: "VARCHAR(32)" is varchar of length 32,
// "NUMERIC(10, 2)" numeric of precision 10 and scale 2, "TIMESTAMP(6) WITH TIME
// ZONE" a timestamp with time zone of precision 6.
func parseNativeType(native string) (string, types.Size) {
	var size types.Size
	name := strings.ToLower(strings.TrimSpace(native))

	if m := typeArgs.FindStringSubmatch(name); m != nil {
		var nums []int
		for _, part := range strings.Split(m[1], ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				nums = append(nums, n)
			}
		}
		switch {
		case len(nums) >= 2:
			size.Precision, size.Scale = nums[0], nums[1]
		case len(nums) == 1 && isLengthType(name):
			size.Length = nums[0]
		case len(nums) == 1:
			size.Precision = nums[0]
		}
		name = typeArgs.ReplaceAllString(name, " ")
	}

	words := strings.Fields(spaces.ReplaceAllString(name, " "))
	kept := words[:0]
	for _, w := range words {
		if !typeDropped[w] {
			kept = append(kept, w)
		}
	}
	name = strings.Join(kept, " ")
	if name == "" {
		// Columns declared without a type have BLOB affinity in SQLite.
		name = "blob"
	}
	return name, size
}

func isLengthType(name string) bool {
	for _, s := range []string{"char", "binary", "bit", "raw", "text", "blob"} {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// informationSchema reads the SQL standard information_schema views.
type informationSchema struct {
	placeholder func(int) string
	// currentSchema is the SQL expression used when the identifier has no schema.
	currentSchema string
	// catalogAsSchema treats the catalog part as the schema (MySQL databases).
	catalogAsSchema bool
	// typeExpr selects the native type name of column c.
	typeExpr string
	// joins extends the columns query.
	joins string
	// autoIncrementExpr yields 1 for generated columns of c.
	autoIncrementExpr string
}

var generalCatalog = informationSchema{
	placeholder:       func(int) string { return "?" },
	currentSchema:     "CURRENT_SCHEMA",
	typeExpr:          "c.data_type",
	autoIncrementExpr: "0",
}

func (c informationSchema) scope(alias string, id relational.TableID) (string, []any) {
	schema := id.Schema
	if schema == "" && c.catalogAsSchema {
		schema = id.Catalog
	}

	var args []any
	var sb strings.Builder
	if schema != "" {
		args = append(args, schema)
		fmt.Fprintf(&sb, "%stable_schema = %s", alias, c.placeholder(len(args)))
	} else {
		fmt.Fprintf(&sb, "%stable_schema = %s", alias, c.currentSchema)
	}
	args = append(args, id.Table)
	fmt.Fprintf(&sb, " AND %stable_name = %s", alias, c.placeholder(len(args)))
	return sb.String(), args
}

func (c informationSchema) LookupTable(ctx context.Context, q Querier, id relational.TableID) (string, bool, error) {
	where, args := c.scope("", id)
	var tableType string
	err := q.QueryRowContext(ctx, "SELECT table_type FROM information_schema.tables WHERE "+where, args...).Scan(&tableType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tableType, true, nil
}

func (c informationSchema) Columns(ctx context.Context, q Querier, id relational.TableID) ([]CatalogColumn, error) {
	where, args := c.scope("c.", id)
	query := "SELECT c.column_name, " + c.typeExpr + ", c.is_nullable, c.character_maximum_length, " +
		"COALESCE(c.numeric_precision, c.datetime_precision), c.numeric_scale, c.column_default, " +
		c.autoIncrementExpr + " FROM information_schema.columns c" + c.joins +
		" WHERE " + where + " ORDER BY c.ordinal_position"
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []CatalogColumn
	for rows.Next() {
		var (
			col                      CatalogColumn
			nullable                 string
			length, precision, scale sql.NullInt64
			def                      sql.NullString
			autoIncrement            int64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &length, &precision, &scale, &def, &autoIncrement); err != nil {
			return nil, err
		}
		col.Nullable = strings.HasPrefix(strings.ToUpper(nullable), "Y")
		col.Length = int(length.Int64)
		col.Precision = int(precision.Int64)
		col.Scale = int(scale.Int64)
		if def.Valid {
			col.Default = &def.String
		}
		col.AutoIncrement = autoIncrement != 0
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (c informationSchema) PrimaryKey(ctx context.Context, q Querier, id relational.TableID) ([]string, error) {
	where, args := c.scope("tc.", id)
	query := "SELECT kcu.column_name FROM information_schema.table_constraints tc " +
		"JOIN information_schema.key_column_usage kcu ON kcu.constraint_name = tc.constraint_name " +
		"AND kcu.table_schema = tc.table_schema AND kcu.table_name = tc.table_name " +
		"WHERE tc.constraint_type = 'PRIMARY KEY' AND " + where + " ORDER BY kcu.ordinal_position"
	return queryStrings(ctx, q, query, args...)
}

func queryStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
