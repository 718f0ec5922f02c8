package core

import (
	"context"
	"time"
)

// StatementEvent describes one executed statement. It is passed to a
// StatementHook for logging, metrics or auditing.
type StatementEvent struct {
	// Table is the qualified target table.
	Table string
	// SQL is the executed statement.
	SQL string
	// Args are the bound values with sensitive columns masked.
	Args []any
	// Duration is how long the statement took to execute.
	Duration time.Duration
	// RowsAffected is reported by the driver, 0 when unknown.
	RowsAffected int64
	// Error is the execution error, nil on success.
	Error error
	// Operation is the leading keyword: INSERT, UPDATE, DELETE, MERGE, ...
	Operation string
}

// StatementHook is invoked after each statement the sink executes.
//
// Example:
//
//	s, _ := sqlsink.Open(ctx, "pgx", dsn,
//	    sqlsink.WithStatementHook(func(ctx context.Context, e sqlsink.StatementEvent) {
//	        slog.Info("statement", "table", e.Table, "op", e.Operation, "err", e.Error)
//	    }))
type StatementHook func(ctx context.Context, event StatementEvent)

func (s *Sink) invokeHook(ctx context.Context, event StatementEvent) {
	if s.hook != nil {
		s.hook(ctx, event)
	}
}
