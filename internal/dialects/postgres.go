package dialects

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/coregx/sqlsink/internal/types"
)

// pgUndefinedTable is SQLSTATE undefined_table.
const pgUndefinedTable = "42P01"

// pgMaxVarcharLength is the largest declarable varchar length.
const pgMaxVarcharLength = 10485760

var postgresCatalog = informationSchema{
	placeholder:   dollarPlaceholder,
	currentSchema: "CURRENT_SCHEMA",
	// Enums report USER-DEFINED; other user-defined types report their own name.
	typeExpr: "CASE WHEN c.data_type = 'USER-DEFINED' THEN " +
		"CASE WHEN t.typtype = 'e' THEN 'enum' ELSE c.udt_name END " +
		"WHEN c.data_type = 'ARRAY' THEN c.udt_name ELSE c.data_type END",
	joins: " LEFT JOIN pg_catalog.pg_namespace n ON n.nspname = c.udt_schema" +
		" LEFT JOIN pg_catalog.pg_type t ON t.typnamespace = n.oid AND t.typname = c.udt_name",
	autoIncrementExpr: "CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 1 ELSE 0 END",
}

func dollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// Postgres returns the PostgreSQL vendor behavior.
func Postgres() Vendor {
	return Vendor{
		Name:                  "postgresql",
		QuoteIdentifier:       quoteWith(`"`, `"`),
		Placeholder:           dollarPlaceholder,
		MaxTimestampPrecision: 6,
		// Keys never need a bounded varchar, so string keys map to text.
		MaxVarcharLengthInKey: math.MaxInt32,
		ByteArrayFormat:       `'\x%s'`,
		FormatBoolean: func(v bool) string {
			if v {
				return "TRUE"
			}
			return "FALSE"
		},
		TimeZoneQuery: "SELECT CURRENT_SETTING('TIMEZONE')",
		UnquotedCase:  CaseLower,
		TypeName:      postgresTypeName,
		RegisterTypes: types.RegisterPostgres,
		Catalog:       postgresCatalog,
		Upsert:        onConflictUpsert,
		IsUndefinedTable: func(err error) bool {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return pqErr.Code == pgUndefinedTable
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				return pgErr.Code == pgUndefinedTable
			}
			return false
		},
	}
}

func postgresTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Binary:
		return "bytea"
	case types.Decimal:
		return sized("numeric", s.Precision, s.Scale)
	case types.Varchar:
		if s.Length > pgMaxVarcharLength {
			return "text"
		}
		return fmt.Sprintf("varchar(%d)", s.Length)
	case types.UUID:
		return "uuid"
	case types.JSON:
		return "json"
	}
	return ""
}
