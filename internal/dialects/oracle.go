package dialects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coregx/sqlsink/internal/builder"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/types"
)

func colonPlaceholder(n int) string { return ":" + strconv.Itoa(n) }

// Oracle returns the Oracle vendor behavior. Oracle has no DDL type for
// booleans before 23c, so they are stored as NUMBER(1).
func Oracle() Vendor {
	return Vendor{
		Name:                  "oracle",
		QuoteIdentifier:       quoteWith(`"`, `"`),
		Placeholder:           colonPlaceholder,
		MaxTimestampPrecision: 9,
		MaxVarcharLengthInKey: 4000,
		ByteArrayFormat:       "HEXTORAW('%s')",
		FormatDateTime: func(v time.Time, precision int) string {
			return fmt.Sprintf("TO_TIMESTAMP('%s', 'YYYY-MM-DD HH24:MI:SS.FF%d')",
				v.Format(oracleLayout(precision)), precision)
		},
		FormatZonedDateTime: func(v time.Time, precision int) string {
			return fmt.Sprintf("TO_TIMESTAMP_TZ('%s', 'YYYY-MM-DD HH24:MI:SS.FF%d TZH:TZM')",
				v.Format(oracleLayout(precision)+" -07:00"), precision)
		},
		FormatDate: func(v time.Time) string {
			return fmt.Sprintf("TO_DATE('%s', 'YYYY-MM-DD')", v.Format(time.DateOnly))
		},
		TimeZoneQuery: "SELECT SESSIONTIMEZONE FROM DUAL",
		UnquotedCase:  CaseUpper,
		TypeName:      oracleTypeName,
		RegisterTypes: types.RegisterOracle,
		Catalog:       oracleCatalog{},
		Upsert:        oracleUpsert,
		Alter: func(table string, columns []string) []string {
			b := builder.New()
			b.Append("ALTER TABLE ").Append(table).Append(" ADD (").AppendList(", ", columns, same).Append(")")
			return []string{b.Build()}
		},
		IsUndefinedTable: func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "ORA-00942")
		},
	}
}

// oracleLayout always renders precision digits so the FFn mask matches.
func oracleLayout(precision int) string {
	layout := "2006-01-02 15:04:05"
	if precision > 0 {
		layout += "." + strings.Repeat("0", precision)
	}
	return layout
}

// oracleUpsert renders a MERGE that selects the incoming row from DUAL.
func oracleUpsert(p UpsertParts) string {
	cols := append(append([]string{}, p.Keys...), p.NonKeys...)
	selected := make([]string, len(cols))
	for i, c := range cols {
		selected[i] = p.Values[i] + " " + c
	}

	b := builder.New()
	b.Append("MERGE INTO ").Append(p.Table).Append(" TARGET USING (SELECT ").
		AppendList(", ", selected, same).
		Append(" FROM dual) INCOMING ON (").Append(matchKeys(p.Keys)).Append(")")
	if len(p.NonKeys) > 0 {
		b.Append(" WHEN MATCHED THEN UPDATE SET ").AppendList(",", p.NonKeys, func(c string) string {
			return "TARGET." + c + "=INCOMING." + c
		})
	}
	b.Append(" WHEN NOT MATCHED THEN INSERT (").AppendList(",", cols, func(c string) string {
		return "TARGET." + c
	}).Append(") VALUES (").AppendList(",", cols, func(c string) string {
		return "INCOMING." + c
	}).Append(")")
	return b.Build()
}

func oracleTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Boolean:
		return "number(1,0)"
	case types.SmallInt:
		return "number(5,0)"
	case types.Integer:
		return "number(10,0)"
	case types.BigInt:
		return "number(19,0)"
	case types.Real:
		return "binary_float"
	case types.Double:
		return "binary_double"
	case types.Decimal:
		return sized("number", s.Precision, s.Scale)
	case types.Varchar:
		if s.Length > 4000 {
			return "clob"
		}
		return fmt.Sprintf("varchar2(%d)", s.Length)
	case types.Text:
		return "clob"
	case types.Binary:
		return "blob"
	case types.Time, types.Timestamp:
		return precise("timestamp", s.Precision, "")
	case types.TimeWithTimeZone, types.TimestampWithTimeZone:
		return precise("timestamp", s.Precision, " with time zone")
	case types.UUID:
		return "varchar2(36)"
	case types.JSON:
		return "clob"
	}
	return ""
}

// oracleCatalog reads the ALL_* dictionary views. A table without a schema is
// looked up in the session's current schema.
type oracleCatalog struct{}

func (oracleCatalog) owner(id relational.TableID, n int) (string, []any) {
	if id.Schema != "" {
		return "owner = " + colonPlaceholder(n), []any{id.Schema}
	}
	return "owner = SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')", nil
}

func (c oracleCatalog) LookupTable(ctx context.Context, q Querier, id relational.TableID) (string, bool, error) {
	owner, args := c.owner(id, 1)
	args = append(args, id.Table)
	query := "SELECT object_type FROM all_objects WHERE " + owner +
		" AND object_name = " + colonPlaceholder(len(args)) + " AND object_type IN ('TABLE', 'VIEW')"

	var objectType string
	err := q.QueryRowContext(ctx, query, args...).Scan(&objectType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if objectType == "VIEW" {
		return relational.TypeView, true, nil
	}
	return relational.TypeBaseTable, true, nil
}

func (c oracleCatalog) Columns(ctx context.Context, q Querier, id relational.TableID) ([]CatalogColumn, error) {
	owner, args := c.owner(id, 1)
	args = append(args, id.Table)
	query := "SELECT column_name, data_type, nullable, char_length, data_precision, data_scale, data_default, " +
		"CASE WHEN identity_column = 'YES' THEN 1 ELSE 0 END FROM all_tab_columns WHERE " + owner +
		" AND table_name = " + colonPlaceholder(len(args)) + " ORDER BY column_id"
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
			identity                 int64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &length, &precision, &scale, &def, &identity); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "Y"
		col.Length = int(length.Int64)
		col.Precision = int(precision.Int64)
		col.Scale = int(scale.Int64)
		if def.Valid {
			trimmed := strings.TrimSpace(def.String)
			col.Default = &trimmed
		}
		col.AutoIncrement = identity != 0
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (c oracleCatalog) PrimaryKey(ctx context.Context, q Querier, id relational.TableID) ([]string, error) {
	owner, args := c.owner(id, 1)
	args = append(args, id.Table)
	query := "SELECT cc.column_name FROM all_constraints ac " +
		"JOIN all_cons_columns cc ON cc.owner = ac.owner AND cc.constraint_name = ac.constraint_name " +
		"WHERE ac.constraint_type = 'P' AND ac." + owner +
		" AND ac.table_name = " + colonPlaceholder(len(args)) + " ORDER BY cc.position"
	return queryStrings(ctx, q, query, args...)
}
