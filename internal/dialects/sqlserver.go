package dialects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/coregx/sqlsink/internal/builder"
	"github.com/coregx/sqlsink/internal/types"
)

// mssqlInvalidObject is "Invalid object name".
const mssqlInvalidObject = 208

// mssqlMaxVarcharLengthInKey keeps nvarchar keys within the 900-byte index limit.
const mssqlMaxVarcharLengthInKey = 450

var sqlServerCatalog = informationSchema{
	placeholder:   sqlServerPlaceholder,
	currentSchema: "SCHEMA_NAME()",
	typeExpr:      "c.data_type",
	autoIncrementExpr: "COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.table_schema) + '.' + QUOTENAME(c.table_name)), " +
		"c.column_name, 'IsIdentity')",
}

func sqlServerPlaceholder(n int) string { return "@p" + strconv.Itoa(n) }

// SQLServer returns the Microsoft SQL Server vendor behavior.
func SQLServer() Vendor {
	return Vendor{
		Name:                  "sqlserver",
		QuoteIdentifier:       quoteWith("[", "]"),
		Placeholder:           sqlServerPlaceholder,
		MaxTimestampPrecision: 7,
		MaxVarcharLengthInKey: mssqlMaxVarcharLengthInKey,
		ByteArrayFormat:       "0x%s",
		FormatString: func(v string) string {
			return "N" + quoteLiteral(strings.ReplaceAll(v, "'", "''"))
		},
		FormatZonedDateTime: func(v time.Time, precision int) string {
			return quoteLiteral(v.Format(types.DateTimeLayout("T", precision) + "-07:00"))
		},
		UnquotedCase:  CasePreserve,
		TypeName:      sqlServerTypeName,
		RegisterTypes: types.RegisterSQLServer,
		Catalog:       sqlServerCatalog,
		Upsert:        sqlServerUpsert,
		Alter: func(table string, columns []string) []string {
			b := builder.New()
			b.Append("ALTER TABLE ").Append(table).Append(" ADD ").AppendList(", ", columns, same)
			return []string{b.Build()}
		},
		IsUndefinedTable: func(err error) bool {
			var msErr mssql.Error
			return errors.As(err, &msErr) && msErr.Number == mssqlInvalidObject
		},
	}
}

// sqlServerUpsert renders a MERGE keyed on the primary key. HOLDLOCK keeps two
// concurrent merges of the same key from both taking the insert branch.
func sqlServerUpsert(p UpsertParts) string {
	b := builder.New()
	b.Append("MERGE INTO ").Append(p.Table).Append(" WITH (HOLDLOCK) AS TARGET USING (VALUES (").
		AppendList(",", p.Values, same).
		Append(")) AS INCOMING (").AppendLists(",", p.Keys, p.NonKeys, same).
		Append(") ON ").Append(matchKeys(p.Keys))
	if len(p.NonKeys) > 0 {
		b.Append(" WHEN MATCHED THEN UPDATE SET ").AppendList(",", p.NonKeys, func(c string) string {
			return c + "=INCOMING." + c
		})
	}
	b.Append(" WHEN NOT MATCHED THEN INSERT (").AppendLists(",", p.Keys, p.NonKeys, same).
		Append(") VALUES (").AppendLists(",", p.Keys, p.NonKeys, func(c string) string {
		return "INCOMING." + c
	}).Append(");")
	return b.Build()
}

func matchKeys(keys []string) string {
	b := builder.New()
	b.AppendList(" AND ", keys, func(c string) string {
		return "TARGET." + c + "=INCOMING." + c
	})
	return b.Build()
}

func sqlServerTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Boolean:
		return "bit"
	case types.Double:
		return "float"
	case types.Varchar:
		if s.Length > 4000 {
			return "nvarchar(max)"
		}
		return fmt.Sprintf("nvarchar(%d)", s.Length)
	case types.Text:
		return "nvarchar(max)"
	case types.Binary:
		return "varbinary(max)"
	case types.Timestamp:
		return precise("datetime2", s.Precision, "")
	case types.TimestampWithTimeZone:
		return precise("datetimeoffset", s.Precision, "")
	case types.TimeWithTimeZone:
		return precise("time", s.Precision, "")
	case types.UUID:
		return "uniqueidentifier"
	case types.JSON:
		return "nvarchar(max)"
	}
	return ""
}
