// Package sqlsink writes change-data-capture records into relational
// databases. It detects the target backend, reads live table metadata from
// its catalog and renders idempotent upserts, deletes and schema changes in
// the backend's SQL dialect. PostgreSQL, MySQL/MariaDB, SQLite, SQL Server
// and Oracle are supported out of the box.
package sqlsink

import (
	"github.com/coregx/sqlsink/internal/core"
	"github.com/coregx/sqlsink/internal/dialects"
	"github.com/coregx/sqlsink/internal/logger"
	"github.com/coregx/sqlsink/internal/record"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/tracer"
	"github.com/coregx/sqlsink/internal/types"
)

type (
	// Sink is a target database with its resolved dialect and table cache.
	Sink = core.Sink
	// Option is a functional option for configuring a Sink.
	Option = core.Option
	// Stats combines pool, health and cache statistics.
	Stats = core.Stats
	// StatementEvent describes one executed statement.
	StatementEvent = core.StatementEvent
	// StatementHook is invoked after each executed statement.
	StatementHook = core.StatementHook

	// Dialect generates SQL for one backend.
	Dialect = dialects.Dialect
	// Statement is generated SQL with its ordered driver arguments.
	Statement = dialects.Statement
	// Detected identifies the backend behind a connection.
	Detected = dialects.Detected
	// Config holds dialect construction settings.
	Config = dialects.Config
	// Session is the connection context a dialect is instantiated with.
	Session = dialects.Session
	// Provider creates the dialect for the backends it supports.
	Provider = dialects.Provider
	// Vendor describes how a backend differs from the general dialect.
	Vendor = dialects.Vendor

	// TableID identifies a table by catalog, schema and name.
	TableID = relational.TableID
	// TableDescriptor is the column layout and primary key of a table.
	TableDescriptor = relational.TableDescriptor
	// ColumnDescriptor describes one table column.
	ColumnDescriptor = relational.ColumnDescriptor

	// Logger receives structured sink logs.
	Logger = logger.Logger
	// Tracer starts spans around sink operations.
	Tracer = tracer.Tracer

	// Record is a change record.
	Record = record.Descriptor
	// Field is one value of a change record.
	Field = record.Field
	// Operation is the change-event kind.
	Operation = record.Operation
)

// Backend products recognized by Detect.
const (
	ProductPostgreSQL = dialects.ProductPostgreSQL
	ProductMySQL      = dialects.ProductMySQL
	ProductMariaDB    = dialects.ProductMariaDB
	ProductSQLite     = dialects.ProductSQLite
	ProductSQLServer  = dialects.ProductSQLServer
	ProductOracle     = dialects.ProductOracle
)

// Change-event kinds.
const (
	Create   = record.Create
	Update   = record.Update
	Delete   = record.Delete
	Read     = record.Read
	Truncate = record.Truncate
)

// Logical field types.
const (
	TypeBoolean        = types.TypeBoolean
	TypeInt16          = types.TypeInt16
	TypeInt32          = types.TypeInt32
	TypeInt64          = types.TypeInt64
	TypeFloat32        = types.TypeFloat32
	TypeFloat64        = types.TypeFloat64
	TypeDecimal        = types.TypeDecimal
	TypeString         = types.TypeString
	TypeBytes          = types.TypeBytes
	TypeDate           = types.TypeDate
	TypeTime           = types.TypeTime
	TypeTimestamp      = types.TypeTimestamp
	TypeZonedTimestamp = types.TypeZonedTimestamp
	TypeUUID           = types.TypeUUID
	TypeJSON           = types.TypeJSON
)

// Re-export core functions.
var (
	Open                 = core.Open
	WrapDB               = core.WrapDB
	WithQuoteIdentifiers = core.WithQuoteIdentifiers
	WithDatabaseTimeZone = core.WithDatabaseTimeZone
	WithLogger           = core.WithLogger
	WithTracer           = core.WithTracer
	WithSensitiveFields  = core.WithSensitiveFields
	WithStatementHook    = core.WithStatementHook
	WithCacheCapacity    = core.WithCacheCapacity
	WithHealthCheck      = core.WithHealthCheck
	WithMaxOpenConns     = core.WithMaxOpenConns
	WithMaxIdleConns     = core.WithMaxIdleConns
	WithConnMaxLifetime  = core.WithConnMaxLifetime
	WithConnMaxIdleTime  = core.WithConnMaxIdleTime
	WithDetected         = core.WithDetected

	// Identifiers and records
	NewTableID      = relational.NewTableID
	ParseTableID    = relational.ParseTableID
	NewRecord       = record.NewBuilder
	ParseOperation  = record.ParseOperation
	NewTableBuilder = relational.NewBuilder
	NewColumn       = relational.NewColumn
	WithNullable    = relational.WithNullable
	WithLength      = relational.WithLength
	WithPrecision   = relational.WithPrecision
	WithScale       = relational.WithScale
	WithDefault     = relational.WithDefault

	// Observability
	NewSlogLogger = logger.NewSlogAdapter
	NewTextLogger = logger.NewTextLogger
	NewOtelTracer = tracer.NewOtelTracer

	// Dialects
	Detect           = dialects.Detect
	Resolve          = dialects.Resolve
	RegisterProvider = dialects.Register
	Providers        = dialects.Providers
)

// Errors reported by the sink and its dialects.
var (
	ErrClosed             = core.ErrClosed
	ErrConnectivity       = dialects.ErrConnectivity
	ErrUnsupportedDialect = dialects.ErrUnsupportedDialect
	ErrDetectionFailed    = dialects.ErrDetectionFailed
	ErrTableNotFound      = dialects.ErrTableNotFound
	ErrTableVanished      = dialects.ErrTableVanished
	ErrUnknownColumn      = dialects.ErrUnknownColumn
	ErrMissingField       = dialects.ErrMissingField
	ErrRequiredNoDefault  = dialects.ErrRequiredNoDefault
	ErrUnknownTimeZone    = dialects.ErrUnknownTimeZone
	ErrNoStatement        = core.ErrNoStatement
	ErrUnknownOperation   = record.ErrUnknownOperation
)
