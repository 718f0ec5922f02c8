package dialects

import (
	"strings"
	"time"

	"github.com/coregx/sqlsink/internal/builder"
	"github.com/coregx/sqlsink/internal/types"
)

// Case is how a backend stores identifiers that were created unquoted.
type Case int

const (
	// CaseLower folds unquoted identifiers to lower case.
	CaseLower Case = iota
	// CaseUpper folds unquoted identifiers to upper case.
	CaseUpper
	// CasePreserve keeps identifiers as given.
	CasePreserve
)

// UpsertParts are the rendered pieces of an upsert. Values lists placeholders
// for Keys followed by NonKeys.
type UpsertParts struct {
	Table   string
	Keys    []string
	NonKeys []string
	Values  []string
}

// Vendor lists the behaviors in which a backend departs from the general
// dialect. A nil or zero field selects the general behavior.
type Vendor struct {
	Name string

	QuoteIdentifier func(name string) string
	Placeholder     func(n int) string

	MaxTimestampPrecision int
	MaxVarcharLengthInKey int
	ByteArrayFormat       string

	FormatBoolean       func(v bool) string
	FormatDateTime      func(v time.Time, precision int) string
	FormatZonedDateTime func(v time.Time, precision int) string
	FormatDate          func(v time.Time) string
	FormatTime          func(v time.Time, precision int) string
	FormatString        func(v string) string

	// TimeZoneQuery returns the session time zone as a single text value.
	TimeZoneQuery string
	UnquotedCase  Case

	// TypeName maps a portable type family to DDL. An empty result falls back
	// to the general mapping.
	TypeName func(k types.Kind, s types.Size) string
	// RegisterTypes extends the base handler set.
	RegisterTypes func(r *types.Registry)

	Catalog Catalog

	Upsert   func(p UpsertParts) string
	Alter    func(table string, columns []string) []string
	Truncate func(table string) string

	// IsUndefinedTable reports a driver error raised for a missing table.
	IsUndefinedTable func(err error) bool
}

func same(s string) string { return s }

func quoteWith(left, right string) func(string) string {
	return func(name string) string {
		return left + strings.ReplaceAll(name, right, right+right) + right
	}
}

func quoteLiteral(s string) string { return "'" + s + "'" }

// onConflictUpsert renders INSERT ... ON CONFLICT, shared by PostgreSQL and SQLite.
func onConflictUpsert(p UpsertParts) string {
	b := builder.New()
	b.Append("INSERT INTO ").Append(p.Table).Append(" (").
		AppendLists(",", p.Keys, p.NonKeys, same).
		Append(") VALUES (").AppendList(",", p.Values, same).
		Append(") ON CONFLICT (").AppendList(",", p.Keys, same).Append(") ")
	if len(p.NonKeys) == 0 {
		b.Append("DO NOTHING")
	} else {
		b.Append("DO UPDATE SET ").AppendList(",", p.NonKeys, func(c string) string {
			return c + "=EXCLUDED." + c
		})
	}
	return b.Build()
}

// addColumnAlter renders one ALTER TABLE with an ADD COLUMN clause per column.
func addColumnAlter(table string, columns []string) []string {
	b := builder.New()
	b.Append("ALTER TABLE ").Append(table).Append(" ").AppendList(", ", columns, func(c string) string {
		return "ADD COLUMN " + c
	})
	return []string{b.Build()}
}
