//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coregx/sqlsink"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)
)

// SinkSetup encapsulates a sink and the container behind it.
type SinkSetup struct {
	Sink      *sqlsink.Sink
	Container testcontainers.Container
	Backend   string
}

// Close cleans up database resources.
func (ss *SinkSetup) Close() {
	if ss.Sink != nil {
		ss.Sink.Close() //nolint:errcheck
	}
	if ss.Container != nil {
		ss.Container.Terminate(context.Background()) //nolint:errcheck
	}
}

// Exec runs raw SQL on the sink's pool.
func (ss *SinkSetup) Exec(t *testing.T, query string) {
	t.Helper()
	_, err := ss.Sink.DB().ExecContext(context.Background(), query)
	require.NoError(t, err)
}

// SetupPostgreSQL opens a sink on PostgreSQL.
// Uses testcontainers if available, falls back to env DSN.
func SetupPostgreSQL(t *testing.T, opts ...sqlsink.Option) *SinkSetup {
	ctx := context.Background()

	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		sink, err := sqlsink.Open(ctx, "postgres", dsn, opts...)
		require.NoError(t, err)
		return &SinkSetup{Sink: sink, Backend: "postgres"}
	}

	pgContainer, err := postgres.Run(
		ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for PostgreSQL integration tests: " + err.Error())
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sink, err := sqlsink.Open(ctx, "postgres", dsn, opts...)
	require.NoError(t, err)

	return &SinkSetup{Sink: sink, Container: pgContainer, Backend: "postgres"}
}

// SetupMySQL opens a sink on MySQL.
// Uses testcontainers if available, falls back to env DSN.
func SetupMySQL(t *testing.T, opts ...sqlsink.Option) *SinkSetup {
	ctx := context.Background()

	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		if !strings.Contains(dsn, "parseTime=true") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		sink, err := sqlsink.Open(ctx, "mysql", dsn, opts...)
		require.NoError(t, err)
		return &SinkSetup{Sink: sink, Backend: "mysql"}
	}

	mysqlContainer, err := mysql.Run(
		ctx,
		"mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("user"),
		mysql.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for MySQL integration tests: " + err.Error())
	}

	dsn, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)
	dsn += "?parseTime=true"

	sink, err := sqlsink.Open(ctx, "mysql", dsn, opts...)
	require.NoError(t, err)

	return &SinkSetup{Sink: sink, Container: mysqlContainer, Backend: "mysql"}
}

// SetupSQLite opens a sink on an in-memory SQLite database.
// Always works, no external dependencies.
func SetupSQLite(t *testing.T, opts ...sqlsink.Option) *SinkSetup {
	opts = append([]sqlsink.Option{sqlsink.WithMaxOpenConns(1)}, opts...)
	sink, err := sqlsink.Open(context.Background(), "sqlite", ":memory:", opts...)
	require.NoError(t, err)
	return &SinkSetup{Sink: sink, Backend: "sqlite"}
}

// Backends returns a setup function per backend under test.
func Backends() map[string]func(t *testing.T, opts ...sqlsink.Option) *SinkSetup {
	return map[string]func(t *testing.T, opts ...sqlsink.Option) *SinkSetup{
		"postgres": SetupPostgreSQL,
		"mysql":    SetupMySQL,
		"sqlite":   SetupSQLite,
	}
}

// OrderRecord builds a change record for the orders table.
func OrderRecord(t *testing.T, op sqlsink.Operation, id int64, status string, total string) *sqlsink.Record {
	t.Helper()
	rec, err := sqlsink.NewRecord().
		Topic("cdc.shop.orders").
		Operation(op).
		Key(sqlsink.Field{Name: "id", Type: sqlsink.TypeInt64, Value: id}).
		Field(
			sqlsink.Field{Name: "status", Type: sqlsink.TypeString, Optional: true, Length: 32, Value: status},
			sqlsink.Field{Name: "total", Type: sqlsink.TypeDecimal, Optional: true, Precision: 10, Scale: 2, Value: total},
		).
		Build()
	require.NoError(t, err)
	return rec
}
