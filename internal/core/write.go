package core

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/sqlsink/internal/dialects"
	"github.com/coregx/sqlsink/internal/record"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/tracer"
)

// Upsert generates the insert-or-update of rec into id.
func (s *Sink) Upsert(ctx context.Context, id relational.TableID, rec *record.Descriptor) (dialects.Statement, error) {
	td, err := s.Describe(ctx, id)
	if err != nil {
		return dialects.Statement{}, err
	}
	return s.dialect.UpsertStatement(td, rec)
}

// Insert generates a plain insert of rec into id.
func (s *Sink) Insert(ctx context.Context, id relational.TableID, rec *record.Descriptor) (dialects.Statement, error) {
	td, err := s.Describe(ctx, id)
	if err != nil {
		return dialects.Statement{}, err
	}
	return s.dialect.InsertStatement(td, rec)
}

// Update generates an update of the row of id matching the key of rec.
func (s *Sink) Update(ctx context.Context, id relational.TableID, rec *record.Descriptor) (dialects.Statement, error) {
	td, err := s.Describe(ctx, id)
	if err != nil {
		return dialects.Statement{}, err
	}
	return s.dialect.UpdateStatement(td, rec)
}

// Delete generates a delete of the row of id matching the key of rec.
func (s *Sink) Delete(ctx context.Context, id relational.TableID, rec *record.Descriptor) (dialects.Statement, error) {
	td, err := s.Describe(ctx, id)
	if err != nil {
		return dialects.Statement{}, err
	}
	return s.dialect.DeleteStatement(td, rec)
}

// Truncate generates removal of every row of id.
func (s *Sink) Truncate(ctx context.Context, id relational.TableID) (dialects.Statement, error) {
	td, err := s.Describe(ctx, id)
	if err != nil {
		return dialects.Statement{}, err
	}
	return s.dialect.TruncateStatement(td)
}

// Statement generates the statement applying rec to id according to its
// operation. Creates, updates and snapshot reads become upserts.
func (s *Sink) Statement(ctx context.Context, id relational.TableID, rec *record.Descriptor) (dialects.Statement, error) {
	switch op := rec.Operation(); op {
	case record.Create, record.Update, record.Read, "":
		return s.Upsert(ctx, id, rec)
	case record.Delete:
		return s.Delete(ctx, id, rec)
	case record.Truncate:
		return s.Truncate(ctx, id)
	default:
		return dialects.Statement{}, fmt.Errorf("%w: %q", record.ErrUnknownOperation, op)
	}
}

// Write applies rec to id and returns the number of affected rows.
func (s *Sink) Write(ctx context.Context, id relational.TableID, rec *record.Descriptor) (int64, error) {
	stmt, err := s.Statement(ctx, id, rec)
	if err != nil {
		return 0, err
	}
	return s.Exec(ctx, id, stmt)
}

// Exec runs a generated statement against id. A failure reporting that the
// table does not exist drops its cached descriptor.
func (s *Sink) Exec(ctx context.Context, id relational.TableID, stmt dialects.Statement) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if stmt.SQL == "" {
		return 0, ErrNoStatement
	}

	op := tracer.DetectOperation(stmt.SQL)
	ctx, span := s.tracer.StartSpan(ctx, "sqlsink.statement."+op)
	defer span.End()

	start := time.Now()
	result, err := s.sqlDB.ExecContext(ctx, stmt.SQL, stmt.Args...)
	duration := time.Since(start)

	var rows int64
	if err == nil {
		rows, _ = result.RowsAffected()
	}

	tracer.AddAttributes(span, &tracer.Metadata{
		System:    s.dialect.Name(),
		Operation: op,
		Table:     id.String(),
		Statement: stmt.SQL,
		Columns:   len(stmt.Columns),
		Duration:  duration,
		Error:     err,
	})

	masked := s.sanitizer.MaskArgs(stmt.Columns, stmt.Args)
	s.invokeHook(ctx, StatementEvent{
		Table:        id.String(),
		SQL:          stmt.SQL,
		Args:         masked,
		Duration:     duration,
		RowsAffected: rows,
		Error:        err,
		Operation:    op,
	})

	if err != nil {
		if s.dialect.IsUndefinedTable(err) {
			s.Invalidate(id)
		}
		s.logger.Error("statement failed",
			"table", id.String(),
			"sql", stmt.SQL,
			"params", s.sanitizer.FormatParams(masked),
			"duration", duration,
			"error", err)
		return 0, WrapError(err, "exec "+op+" "+id.String())
	}

	s.logger.Debug("statement executed",
		"table", id.String(),
		"sql", stmt.SQL,
		"params", s.sanitizer.FormatParams(masked),
		"rows", rows,
		"duration", duration)
	return rows, nil
}
