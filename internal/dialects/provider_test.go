package dialects

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_KnownDriver(t *testing.T) {
	tests := []struct {
		driver  string
		query   string
		version string
		product string
	}{
		{"pgx", `SELECT version\(\)`, "PostgreSQL 16.2 on x86_64-pc-linux-gnu", ProductPostgreSQL},
		{"mysql", `SELECT version\(\)`, "8.0.36", ProductMySQL},
		{"mysql", `SELECT version\(\)`, "10.11.6-MariaDB-1:10.11.6+maria~ubu2204", ProductMariaDB},
		{"sqlite", `SELECT sqlite_version\(\)`, "3.46.0", ProductSQLite},
		{"sqlserver", `SELECT @@VERSION`, "Microsoft SQL Server 2022 (RTM) - 16.0.1000.6", ProductSQLServer},
		{"godror", `SELECT banner FROM v\$version`, "Oracle Database 23ai Free Release 23.0.0.0.0", ProductOracle},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.product, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(tt.query).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(tt.version))

			d, err := Detect(context.Background(), db, tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.product, d.Product)
			assert.Equal(t, tt.version, d.Version)
			assert.Equal(t, tt.driver, d.Driver)
		})
	}
}

func TestDetect_KnownDriverFailures(t *testing.T) {
	t.Run("probe error is a connectivity error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT version\(\)`).WillReturnError(errors.New("dial tcp: connection refused"))

		_, err := Detect(context.Background(), db, "postgres")
		assert.ErrorIs(t, err, ErrConnectivity)
	})

	t.Run("unrecognized answer resolves to unsupported", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("CockroachDB CCL v23.2"))

		d, err := Detect(context.Background(), db, "pgx")
		require.NoError(t, err)
		assert.Empty(t, d.Product)
		assert.Equal(t, "CockroachDB CCL v23.2", d.Version)

		_, err = Resolve(context.Background(), Config{}, Session{Detected: d})
		require.ErrorIs(t, err, ErrUnsupportedDialect)
		var ude *UnsupportedDialectError
		require.ErrorAs(t, err, &ude)
		assert.Contains(t, ude.Error(), "CockroachDB CCL v23.2")
	})
}

func TestDetect_UnknownDriverUnrecognizedBackend(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("CockroachDB CCL v23.1.0"))
	mock.ExpectQuery(`SELECT @@VERSION`).WillReturnError(errors.New("syntax error"))
	mock.ExpectQuery(`SELECT banner`).WillReturnError(errors.New("relation v$version does not exist"))
	mock.ExpectQuery(`SELECT sqlite_version\(\)`).WillReturnError(errors.New("function does not exist"))
	mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("CockroachDB CCL v23.1.0"))

	d, err := Detect(context.Background(), db, "cockroach")
	require.NoError(t, err)
	assert.Empty(t, d.Product)
	assert.Equal(t, "cockroach", d.Driver)

	_, err = Resolve(context.Background(), Config{}, Session{Detected: d})
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestDetect_MySQLVersionMatch(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"8.0.36", ProductMySQL},
		{"5.7.44-log", ProductMySQL},
		{"8.4.0 MySQL Community Server - GPL", ProductMySQL},
		{"11.4.2-MariaDB-ubu2404", ProductMariaDB},
		{"CockroachDB CCL v23.1.0", ""},
		{"PostgreSQL 16.2", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, mysqlProbe.match(tt.version))
		})
	}
}

func TestDetect_UnknownDriverTriesEachProbe(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("10.11.6-MariaDB"))
	mock.ExpectQuery(`SELECT @@VERSION`).WillReturnError(errors.New("unknown variable"))
	mock.ExpectQuery(`SELECT banner`).WillReturnError(errors.New("no such table"))
	mock.ExpectQuery(`SELECT sqlite_version\(\)`).WillReturnError(errors.New("no such function"))
	mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("10.11.6-MariaDB"))

	d, err := Detect(context.Background(), db, "odbc")
	require.NoError(t, err)
	assert.Equal(t, ProductMariaDB, d.Product)
}

func TestDetect_NothingMatches(t *testing.T) {
	db, mock := newMock(t)
	for range 5 {
		mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("syntax error"))
	}

	_, err := Detect(context.Background(), db, "")
	assert.ErrorIs(t, err, ErrDetectionFailed)
}

func TestResolve(t *testing.T) {
	t.Run("postgres probes the session time zone", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT CURRENT_SETTING\('TIMEZONE'\)`).
			WillReturnRows(sqlmock.NewRows([]string{"tz"}).AddRow("+02:00"))

		d, err := Resolve(context.Background(), Config{}, Session{
			Querier:  db,
			Detected: Detected{Driver: "pgx", Product: ProductPostgreSQL, Version: "16.2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "postgresql", d.Name())
		assert.Equal(t, "+02:00", d.Location().String())
	})

	t.Run("failed time zone probe falls back to UTC", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`SELECT @@session\.time_zone`).WillReturnRows(sqlmock.NewRows([]string{"tz"}).AddRow("SYSTEM"))

		d, err := Resolve(context.Background(), Config{}, Session{
			Querier:  db,
			Detected: Detected{Product: ProductMariaDB},
		})
		require.NoError(t, err)
		assert.Equal(t, "mysql", d.Name())
		assert.Equal(t, "UTC", d.Location().String())
	})

	t.Run("sqlserver has no time zone probe", func(t *testing.T) {
		db, _ := newMock(t)
		d, err := Resolve(context.Background(), Config{}, Session{
			Querier:  db,
			Detected: Detected{Product: ProductSQLServer},
		})
		require.NoError(t, err)
		assert.Equal(t, "sqlserver", d.Name())
	})

	t.Run("unsupported backend", func(t *testing.T) {
		_, err := Resolve(context.Background(), Config{}, Session{Detected: Detected{Driver: "db2", Product: "DB2"}})
		require.ErrorIs(t, err, ErrUnsupportedDialect)
		var ude *UnsupportedDialectError
		require.ErrorAs(t, err, &ude)
		assert.Equal(t, "DB2", ude.Detected.Product)
	})
}

func TestRegister_TakesPrecedence(t *testing.T) {
	saved := Providers()
	t.Cleanup(func() {
		providersMu.Lock()
		providers = saved
		providersMu.Unlock()
	})

	Register(Provider{
		Name:     "cockroach",
		Supports: func(d Detected) bool { return d.Product == ProductPostgreSQL && d.Driver == "crdb" },
		Instantiate: func(ctx context.Context, cfg Config, s Session) (Dialect, error) {
			v := Postgres()
			v.Name = "cockroachdb"
			v.TimeZoneQuery = ""
			d, err := New(ctx, v, cfg, s)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
	})

	assert.Equal(t, "cockroach", Providers()[0].Name)
	assert.Len(t, Providers(), len(saved)+1)

	d, err := Resolve(context.Background(), Config{}, Session{Detected: Detected{Driver: "crdb", Product: ProductPostgreSQL}})
	require.NoError(t, err)
	assert.Equal(t, "cockroachdb", d.Name())

	d, err = Resolve(context.Background(), Config{}, Session{Detected: Detected{Driver: "pgx", Product: ProductPostgreSQL}})
	require.NoError(t, err)
	assert.Equal(t, "postgresql", d.Name())
}
