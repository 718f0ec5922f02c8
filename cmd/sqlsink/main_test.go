package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqlsink"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sink.yaml", `
driver: pgx
dsn: postgres://localhost/app
time_zone: Europe/Paris
log_level: debug
sensitive_fields: [iban]
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := loadConfig(path, Config{})
		require.NoError(t, err)
		assert.Equal(t, "pgx", cfg.Driver)
		assert.Equal(t, "postgres://localhost/app", cfg.DSN)
		assert.Equal(t, "Europe/Paris", cfg.TimeZone)
		assert.Equal(t, []string{"iban"}, cfg.SensitiveFields)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := loadConfig(path, Config{Driver: "postgres", QuoteIdentifiers: true})
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Driver)
		assert.True(t, cfg.QuoteIdentifiers)
		assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	})

	t.Run("dsn from environment", func(t *testing.T) {
		t.Setenv("SQLSINK_DSN", "file:test.db")
		cfg, err := loadConfig("", Config{Driver: "sqlite3"})
		require.NoError(t, err)
		assert.Equal(t, "file:test.db", cfg.DSN)
	})

	t.Run("missing connection", func(t *testing.T) {
		t.Setenv("SQLSINK_DSN", "")
		_, err := loadConfig("", Config{})
		assert.ErrorIs(t, err, errNoConnection)
	})

	t.Run("bad yaml", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "driver: [")
		_, err := loadConfig(bad, Config{})
		assert.Error(t, err)
	})
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "WARN"},
		{in: "debug", want: "DEBUG"},
		{in: "ERROR", want: "ERROR"},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, err := Config{LogLevel: tt.in}.level()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.String())
		})
	}
}

func TestRecordFile_Build(t *testing.T) {
	rec, err := RecordFile{
		Topic:     "cdc.public.orders",
		Operation: "delete",
		Key:       []sqlsink.Field{{Name: "id", Type: sqlsink.TypeInt64, Value: 7}},
	}.build()
	require.NoError(t, err)
	assert.Equal(t, sqlsink.Delete, rec.Operation())
	assert.Equal(t, []string{"id"}, rec.KeyFieldNames())

	rec, err = RecordFile{Key: []sqlsink.Field{{Name: "id", Type: sqlsink.TypeInt64}}}.build()
	require.NoError(t, err)
	assert.Equal(t, sqlsink.Create, rec.Operation())

	_, err = RecordFile{Operation: "merge"}.build()
	assert.Error(t, err)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCommands_SQLite(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "sink.db")
	conn := []string{"--driver", "sqlite3", "--dsn", dsn}

	recPath := writeFile(t, dir, "order.yaml", `
topic: cdc.public.orders
operation: u
key:
  - {name: id, type: INT64, value: 7}
fields:
  - {name: status, type: STRING, optional: true, value: PAID}
  - {name: total, type: DECIMAL, precision: 10, scale: 2, optional: true, value: "42.50"}
`)

	out := run(t, append([]string{"detect"}, conn...)...)
	assert.Contains(t, out, "product:   SQLite")
	assert.Contains(t, out, "dialect:   sqlite")

	out = run(t, append([]string{"ddl", "orders", "-r", recPath}, conn...)...)
	assert.Contains(t, out, "CREATE TABLE orders (")

	out = run(t, append([]string{"upsert", "orders", "-r", recPath, "--evolve", "--exec"}, conn...)...)
	assert.Contains(t, out, "INSERT INTO orders (id,status,total) VALUES (?,?,?) ON CONFLICT (id)")
	assert.Contains(t, out, "-- 1 row(s) affected")

	out = run(t, append([]string{"ddl", "orders", "-r", recPath}, conn...)...)
	assert.Contains(t, out, "-- orders is up to date")

	out = run(t, append([]string{"describe", "orders"}, conn...)...)
	assert.Contains(t, out, "orders (BASE TABLE)")
	assert.Contains(t, out, "status")
	assert.Contains(t, out, "total")
}
