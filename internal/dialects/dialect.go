// Package dialects turns table descriptors and change records into SQL for
// PostgreSQL, MySQL/MariaDB, SQLite, SQL Server and Oracle, and reads live table
// metadata from their catalogs.
package dialects

import (
	"context"
	"database/sql"
	"time"

	"github.com/coregx/sqlsink/internal/logger"
	"github.com/coregx/sqlsink/internal/record"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/types"
)

// Querier is the blocking query surface of a live connection. *sql.DB, *sql.Conn
// and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Detected identifies the backend behind a connection.
type Detected struct {
	Driver  string
	Product string
	Version string
}

// Session is the connection context a dialect is instantiated with.
type Session struct {
	Querier  Querier
	Detected Detected
}

// Config holds dialect construction settings.
type Config struct {
	// QuoteIdentifiers emits every identifier quoted and matches catalog names exactly.
	QuoteIdentifiers bool
	// DatabaseTimeZone overrides the probed session time zone.
	DatabaseTimeZone string
	Logger           logger.Logger
}

// Statement is generated SQL with its ordered driver arguments. Columns[i] names
// the column Args[i] is bound to.
type Statement struct {
	SQL     string
	Args    []any
	Columns []string
}

// Dialect generates SQL for one backend. Implementations are safe for concurrent use.
type Dialect interface {
	types.Formatter

	Name() string
	DatabaseTimeZoneQuery() (string, bool)
	QuoteIdentifier(name string) string
	Placeholder(n int) string
	QualifiedTableName(id relational.TableID) string
	ColumnName(name string) string
	Types() types.Lookup
	FormatValue(typeID string, v any) (string, error)

	// CatalogID returns id as the catalog matches it: folded to the case the
	// backend stores unquoted names in, or marked quoted when matched exactly.
	CatalogID(id relational.TableID) relational.TableID
	TableExists(ctx context.Context, q Querier, id relational.TableID) (bool, error)
	ReadTable(ctx context.Context, q Querier, id relational.TableID) (*relational.TableDescriptor, error)
	DatabaseTimeZone(ctx context.Context, q Querier) (*time.Location, error)
	// Location is the session time zone zoned values are rendered in.
	Location() *time.Location
	// IsUndefinedTable reports whether err is the backend's "table does not exist" error.
	IsUndefinedTable(err error) bool

	InsertStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error)
	UpsertStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error)
	UpdateStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error)
	DeleteStatement(table *relational.TableDescriptor, rec *record.Descriptor) (Statement, error)
	TruncateStatement(table *relational.TableDescriptor) (Statement, error)
	CreateTableStatement(id relational.TableID, rec *record.Descriptor) (Statement, error)
	AlterTableStatement(table *relational.TableDescriptor, rec *record.Descriptor) ([]Statement, error)
}
