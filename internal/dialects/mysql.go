package dialects

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/coregx/sqlsink/internal/builder"
	"github.com/coregx/sqlsink/internal/types"
)

// mysqlNoSuchTable is ER_NO_SUCH_TABLE.
const mysqlNoSuchTable = 1146

var mysqlCatalog = informationSchema{
	placeholder:       func(int) string { return "?" },
	currentSchema:     "DATABASE()",
	catalogAsSchema:   true,
	typeExpr:          "c.data_type",
	autoIncrementExpr: "CASE WHEN c.extra LIKE '%auto_increment%' THEN 1 ELSE 0 END",
}

var mysqlStringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

// MySQL returns the MySQL and MariaDB vendor behavior.
func MySQL() Vendor {
	return Vendor{
		Name:                  "mysql",
		QuoteIdentifier:       quoteWith("`", "`"),
		MaxTimestampPrecision: 6,
		MaxVarcharLengthInKey: 255,
		FormatDateTime: func(v time.Time, precision int) string {
			return quoteLiteral(v.Format(types.DateTimeLayout(" ", precision)))
		},
		// DATETIME and TIMESTAMP carry no offset; values are written in the
		// session zone they were converted to.
		FormatZonedDateTime: func(v time.Time, precision int) string {
			return quoteLiteral(v.Format(types.DateTimeLayout(" ", precision)))
		},
		FormatString: func(v string) string {
			return quoteLiteral(mysqlStringEscaper.Replace(v))
		},
		TimeZoneQuery: "SELECT @@session.time_zone",
		UnquotedCase:  CaseLower,
		TypeName:      mysqlTypeName,
		RegisterTypes: types.RegisterMySQL,
		Catalog:       mysqlCatalog,
		Upsert:        mysqlUpsert,
		Alter: func(table string, columns []string) []string {
			b := builder.New()
			b.Append("ALTER TABLE ").Append(table).Append(" ").AppendList(", ", columns, func(c string) string {
				return "ADD " + c
			})
			return []string{b.Build()}
		},
		IsUndefinedTable: func(err error) bool {
			var myErr *mysql.MySQLError
			return errors.As(err, &myErr) && myErr.Number == mysqlNoSuchTable
		},
	}
}

// mysqlUpsert renders INSERT ... ON DUPLICATE KEY UPDATE. Without non-key
// columns each key is assigned to itself, which leaves the row unchanged.
func mysqlUpsert(p UpsertParts) string {
	assign := p.NonKeys
	if len(assign) == 0 {
		assign = p.Keys
	}
	b := builder.New()
	b.Append("INSERT INTO ").Append(p.Table).Append(" (").
		AppendLists(",", p.Keys, p.NonKeys, same).
		Append(") VALUES (").AppendList(",", p.Values, same).
		Append(") ON DUPLICATE KEY UPDATE ").AppendList(",", assign, func(c string) string {
		if len(p.NonKeys) == 0 {
			return c + "=" + c
		}
		return c + "=VALUES(" + c + ")"
	})
	return b.Build()
}

func mysqlTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Boolean:
		return "boolean"
	case types.Double:
		return "double"
	case types.Text:
		return "longtext"
	case types.Binary:
		return "longblob"
	case types.Time:
		return precise("time", s.Precision, "")
	case types.TimeWithTimeZone:
		return precise("time", s.Precision, "")
	case types.Timestamp:
		return precise("datetime", s.Precision, "")
	case types.TimestampWithTimeZone:
		return precise("timestamp", s.Precision, "")
	case types.UUID:
		return "char(36)"
	case types.JSON:
		return "json"
	case types.Varchar:
		return fmt.Sprintf("varchar(%d)", s.Length)
	}
	return ""
}
