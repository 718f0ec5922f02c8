package dialects

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/types"
)

// SQLite returns the SQLite vendor behavior. Only the main schema is read.
func SQLite() Vendor {
	return Vendor{
		Name:                  "sqlite",
		QuoteIdentifier:       quoteWith(`"`, `"`),
		MaxVarcharLengthInKey: math.MaxInt32,
		// SQLite stores names as declared and compares them case-insensitively.
		UnquotedCase:  CasePreserve,
		TypeName:      sqliteTypeName,
		RegisterTypes: types.RegisterSQLite,
		Catalog:       sqliteCatalog{},
		Upsert:        onConflictUpsert,
		Alter: func(table string, columns []string) []string {
			out := make([]string, len(columns))
			for i, c := range columns {
				out[i] = "ALTER TABLE " + table + " ADD COLUMN " + c
			}
			return out
		},
		Truncate: func(table string) string { return "DELETE FROM " + table },
		IsUndefinedTable: func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "no such table")
		},
	}
}

func sqliteTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Boolean, types.SmallInt, types.Integer, types.BigInt:
		return "integer"
	case types.Real, types.Double:
		return "real"
	case types.Decimal:
		return "numeric"
	case types.Varchar, types.Text, types.UUID, types.JSON:
		return "text"
	case types.Binary:
		return "blob"
	case types.Date, types.Time, types.TimeWithTimeZone, types.Timestamp, types.TimestampWithTimeZone:
		return "text"
	}
	return ""
}

type sqliteCatalog struct{}

func (sqliteCatalog) LookupTable(ctx context.Context, q Querier, id relational.TableID) (string, bool, error) {
	var kind string
	err := q.QueryRowContext(ctx,
		"SELECT type FROM sqlite_master WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE",
		id.Table).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if kind == "view" {
		return relational.TypeView, true, nil
	}
	return relational.TypeBaseTable, true, nil
}

func (sqliteCatalog) Columns(ctx context.Context, q Querier, id relational.TableID) ([]CatalogColumn, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk, `+
			`(SELECT COUNT(*) FROM pragma_table_info(?) WHERE pk > 0) `+
			`FROM pragma_table_info(?) ORDER BY cid`,
		id.Table, id.Table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []CatalogColumn
	for rows.Next() {
		var (
			col          CatalogColumn
			notNull      int64
			def          sql.NullString
			pk, keyCount int64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &def, &pk, &keyCount); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0 && pk == 0
		if def.Valid {
			col.Default = &def.String
		}
		// A lone INTEGER PRIMARY KEY aliases the rowid.
		col.AutoIncrement = pk == 1 && keyCount == 1 && strings.EqualFold(col.DataType, "integer")
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (sqliteCatalog) PrimaryKey(ctx context.Context, q Querier, id relational.TableID) ([]string, error) {
	return queryStrings(ctx, q, "SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk", id.Table)
}
