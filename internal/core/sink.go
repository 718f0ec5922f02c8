// Package core provides the Sink: one target database connection with its
// resolved dialect, a cache of table descriptors read from the live catalog,
// and statement generation and execution for change records.
package core

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/coregx/sqlsink/internal/cache"
	"github.com/coregx/sqlsink/internal/dialects"
	"github.com/coregx/sqlsink/internal/logger"
	"github.com/coregx/sqlsink/internal/tracer"
)

// Sink writes change records into one target database.
type Sink struct {
	sqlDB      *sql.DB
	owned      bool
	driverName string
	detected   dialects.Detected
	dialect    dialects.Dialect
	cfg        dialects.Config

	logger    logger.Logger
	sanitizer *logger.Sanitizer
	tracer    tracer.Tracer
	hook      StatementHook

	tables *cache.TableCache
	reads  singleflight.Group

	healthInterval time.Duration
	health         *healthChecker

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration
	closed          atomic.Bool
}

// Option is a functional option for configuring a Sink.
type Option func(*Sink)

// WithQuoteIdentifiers quotes every emitted identifier and matches catalog
// names exactly instead of case-folding them.
func WithQuoteIdentifiers(quote bool) Option {
	return func(s *Sink) {
		s.cfg.QuoteIdentifiers = quote
	}
}

// WithDatabaseTimeZone overrides the session time zone probed from the database.
func WithDatabaseTimeZone(name string) Option {
	return func(s *Sink) {
		s.cfg.DatabaseTimeZone = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Sink) {
		s.logger = logger.OrNoop(l)
	}
}

// WithSensitiveFields replaces the column-name fragments whose values are
// masked in logs and hook events.
func WithSensitiveFields(fields ...string) Option {
	return func(s *Sink) {
		s.sanitizer = logger.NewSanitizer(fields)
	}
}

// WithTracer sets the tracer. The default records nothing.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Sink) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithStatementHook registers a callback run after each executed statement.
func WithStatementHook(hook StatementHook) Option {
	return func(s *Sink) {
		s.hook = hook
	}
}

// WithCacheCapacity sets how many table descriptors are kept.
func WithCacheCapacity(capacity int) Option {
	return func(s *Sink) {
		s.tables = cache.NewTableCacheWithCapacity(capacity)
	}
}

// WithHealthCheck pings the database every interval. Zero disables it.
func WithHealthCheck(interval time.Duration) Option {
	return func(s *Sink) {
		s.healthInterval = interval
	}
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(s *Sink) {
		s.maxOpenConns = n
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(s *Sink) {
		s.maxIdleConns = n
	}
}

// WithConnMaxLifetime sets the maximum amount of time a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *Sink) {
		s.connMaxLifetime = d
	}
}

// WithConnMaxIdleTime sets the maximum amount of time a connection may be idle.
func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s *Sink) {
		s.connMaxIdleTime = d
	}
}

// WithDetected skips backend detection and resolves the dialect for d.
func WithDetected(d dialects.Detected) Option {
	return func(s *Sink) {
		s.detected = d
	}
}

// Open opens a database, detects the backend and resolves its dialect. The
// sink owns the connection pool and closes it on Close.
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*Sink, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, WrapError(err, "open "+driverName)
	}
	s, err := newSink(ctx, sqlDB, driverName, true, opts)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// WrapDB builds a sink over an existing pool. The caller keeps ownership of
// sqlDB; Close leaves it open.
func WrapDB(ctx context.Context, sqlDB *sql.DB, driverName string, opts ...Option) (*Sink, error) {
	if sqlDB == nil {
		return nil, ErrNilDB
	}
	return newSink(ctx, sqlDB, driverName, false, opts)
}

func newSink(ctx context.Context, sqlDB *sql.DB, driverName string, owned bool, opts []Option) (*Sink, error) {
	s := &Sink{
		sqlDB:      sqlDB,
		owned:      owned,
		driverName: driverName,
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     &tracer.NoopTracer{},
		tables:     cache.NewTableCache(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(s.maxOpenConns)
	}
	if s.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(s.maxIdleConns)
	}
	if s.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(s.connMaxLifetime)
	}
	if s.connMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(s.connMaxIdleTime)
	}

	ctx, span := s.tracer.StartSpan(ctx, "sqlsink.dialect.resolve")
	defer span.End()
	start := time.Now()

	if s.detected.Product == "" {
		d, err := dialects.Detect(ctx, sqlDB, driverName)
		if err != nil {
			tracer.AddAttributes(span, &tracer.Metadata{Operation: "DETECT", Duration: time.Since(start), Error: err})
			return nil, err
		}
		s.detected = d
	}
	if s.detected.Driver == "" {
		s.detected.Driver = driverName
	}

	s.cfg.Logger = s.logger
	d, err := dialects.Resolve(ctx, s.cfg, dialects.Session{Querier: sqlDB, Detected: s.detected})
	tracer.AddAttributes(span, &tracer.Metadata{
		System:    s.detected.Product,
		Operation: "DETECT",
		Duration:  time.Since(start),
		Error:     err,
	})
	if err != nil {
		return nil, err
	}
	s.dialect = d
	s.logger = logger.With(s.logger, "dialect", d.Name())

	if s.healthInterval > 0 {
		s.health = newHealthChecker(sqlDB, s.logger, s.healthInterval)
		s.health.start()
	}

	s.logger.Info("sink ready",
		"driver", driverName,
		"product", s.detected.Product,
		"version", s.detected.Version,
		"time_zone", d.Location().String())
	return s, nil
}

// Close stops health checks and drops cached tables. The pool is closed only
// when the sink opened it.
func (s *Sink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.health != nil {
		s.health.shutdown()
	}
	s.tables.Clear()
	if s.owned {
		return s.sqlDB.Close()
	}
	return nil
}

// DB returns the underlying pool.
func (s *Sink) DB() *sql.DB { return s.sqlDB }

// Dialect returns the resolved dialect.
func (s *Sink) Dialect() dialects.Dialect { return s.dialect }

// Detected returns the identified backend.
func (s *Sink) Detected() dialects.Detected { return s.detected }

// CacheStats returns table cache statistics.
func (s *Sink) CacheStats() cache.Stats { return s.tables.Stats() }

// IsHealthy reports the result of the last health check. A sink without
// health checks is always healthy.
func (s *Sink) IsHealthy() bool {
	if s.health == nil {
		return true
	}
	return s.health.status().Healthy()
}

// Stats combines pool, health and cache statistics.
type Stats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	Healthy            bool
	LastHealthCheck    time.Time
	LastHealthError    error
	HealthFailures     int
	Cache              cache.Stats
}

// Stats returns a snapshot of the sink's statistics.
func (s *Sink) Stats() Stats {
	db := s.sqlDB.Stats()
	st := Stats{
		MaxOpenConnections: db.MaxOpenConnections,
		OpenConnections:    db.OpenConnections,
		InUse:              db.InUse,
		Idle:               db.Idle,
		Healthy:            s.IsHealthy(),
		Cache:              s.tables.Stats(),
	}
	if s.health != nil {
		hs := s.health.status()
		st.LastHealthCheck = hs.Checked
		st.LastHealthError = hs.Err
		st.HealthFailures = hs.Failures
	}
	return st
}

func (s *Sink) checkOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}
