package core

import (
	"context"
	"errors"
	"time"

	"github.com/coregx/sqlsink/internal/dialects"
	"github.com/coregx/sqlsink/internal/record"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/tracer"
)

// TableExists reports whether id names a table in the target database.
func (s *Sink) TableExists(ctx context.Context, id relational.TableID) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if _, ok := s.tables.Get(s.dialect.CatalogID(id)); ok {
		return true, nil
	}

	ctx, span := s.tracer.StartSpan(ctx, "sqlsink.table.exists")
	defer span.End()
	start := time.Now()

	exists, err := s.dialect.TableExists(ctx, s.sqlDB, id)
	tracer.AddAttributes(span, &tracer.Metadata{
		System:    s.dialect.Name(),
		Operation: "EXISTS",
		Table:     id.String(),
		Duration:  time.Since(start),
		Error:     err,
	})
	return exists, err
}

// Describe returns the descriptor of id, reading it from the catalog on the
// first call. Concurrent reads of the same table share one catalog round trip,
// which keeps running when the caller that started it gives up.
func (s *Sink) Describe(ctx context.Context, id relational.TableID) (*relational.TableDescriptor, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	key := s.dialect.CatalogID(id)
	if td, ok := s.tables.Get(key); ok {
		return td, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.reads.DoChan(key.Key(), func() (any, error) {
		if td, ok := s.tables.Get(key); ok {
			return td, nil
		}
		td, err := s.readTable(shared, id)
		if err != nil {
			return nil, err
		}
		s.tables.Set(key, td)
		return td, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*relational.TableDescriptor), nil
	}
}

// Refresh re-reads id from the catalog and replaces the cached descriptor.
// A table that no longer exists is dropped from the cache.
func (s *Sink) Refresh(ctx context.Context, id relational.TableID) (*relational.TableDescriptor, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	td, err := s.readTable(ctx, id)
	if err != nil {
		if errors.Is(err, dialects.ErrTableNotFound) || errors.Is(err, dialects.ErrTableVanished) {
			s.Invalidate(id)
		}
		return nil, err
	}
	s.tables.Set(s.dialect.CatalogID(id), td)
	return td, nil
}

// Invalidate drops the cached descriptor of id.
func (s *Sink) Invalidate(id relational.TableID) bool {
	return s.tables.Invalidate(s.dialect.CatalogID(id))
}

func (s *Sink) readTable(ctx context.Context, id relational.TableID) (*relational.TableDescriptor, error) {
	ctx, span := s.tracer.StartSpan(ctx, "sqlsink.table.describe")
	defer span.End()
	start := time.Now()

	td, err := s.dialect.ReadTable(ctx, s.sqlDB, id)

	meta := &tracer.Metadata{
		System:    s.dialect.Name(),
		Operation: "DESCRIBE",
		Table:     id.String(),
		Duration:  time.Since(start),
		Error:     err,
	}
	if td != nil {
		meta.Columns = len(td.Columns())
	}
	tracer.AddAttributes(span, meta)

	if err != nil {
		s.logger.Warn("table read failed", "table", id.String(), "error", err)
		return nil, err
	}
	s.logger.Debug("table descriptor loaded",
		"table", td.ID().String(),
		"columns", len(td.Columns()),
		"primary_key", td.PrimaryKeyColumnNames(),
		"duration", time.Since(start))
	return td, nil
}

// SchemaChanges returns the DDL that makes id able to hold rec: a CREATE
// TABLE when the table does not exist, ALTER TABLE statements for fields
// without a column, or nothing when the table already fits.
func (s *Sink) SchemaChanges(ctx context.Context, id relational.TableID, rec *record.Descriptor) ([]dialects.Statement, error) {
	exists, err := s.TableExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		stmt, err := s.dialect.CreateTableStatement(id, rec)
		if err != nil {
			return nil, err
		}
		return []dialects.Statement{stmt}, nil
	}

	td, err := s.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dialect.AlterTableStatement(td, rec)
}

// ApplySchemaChanges executes SchemaChanges and refreshes the cached
// descriptor. It returns the executed statements.
func (s *Sink) ApplySchemaChanges(ctx context.Context, id relational.TableID, rec *record.Descriptor) ([]dialects.Statement, error) {
	stmts, err := s.SchemaChanges(ctx, id, rec)
	if err != nil || len(stmts) == 0 {
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := s.Exec(ctx, id, stmt); err != nil {
			s.Invalidate(id)
			return nil, err
		}
	}
	if _, err := s.Refresh(ctx, id); err != nil {
		return stmts, err
	}
	s.logger.Info("schema changed", "table", id.String(), "statements", len(stmts))
	return stmts, nil
}
