package dialects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Product names reported by Detect.
const (
	ProductPostgreSQL = "PostgreSQL"
	ProductMySQL      = "MySQL"
	ProductMariaDB    = "MariaDB"
	ProductSQLite     = "SQLite"
	ProductSQLServer  = "Microsoft SQL Server"
	ProductOracle     = "Oracle"
)

// Provider creates the dialect for the backends it supports.
type Provider struct {
	Name        string
	Supports    func(d Detected) bool
	Instantiate func(ctx context.Context, cfg Config, s Session) (Dialect, error)
}

func vendorProvider(v func() Vendor, products ...string) Provider {
	return Provider{
		Name: v().Name,
		Supports: func(d Detected) bool {
			for _, p := range products {
				if strings.EqualFold(d.Product, p) {
					return true
				}
			}
			return false
		},
		Instantiate: func(ctx context.Context, cfg Config, s Session) (Dialect, error) {
			d, err := New(ctx, v(), cfg, s)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
	}
}

var (
	providersMu sync.RWMutex
	providers   = []Provider{
		vendorProvider(Postgres, ProductPostgreSQL),
		vendorProvider(MySQL, ProductMySQL, ProductMariaDB),
		vendorProvider(SQLite, ProductSQLite),
		vendorProvider(SQLServer, ProductSQLServer),
		vendorProvider(Oracle, ProductOracle),
	}
)

// Register adds p ahead of the built-in providers so it can claim a backend
// they would otherwise serve.
func Register(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers = append([]Provider{p}, providers...)
}

// Providers returns the registered providers in resolution order.
func Providers() []Provider {
	providersMu.RLock()
	defer providersMu.RUnlock()
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// Resolve instantiates the dialect of the first provider supporting s.Detected.
func Resolve(ctx context.Context, cfg Config, s Session) (Dialect, error) {
	for _, p := range Providers() {
		if p.Supports(s.Detected) {
			return p.Instantiate(ctx, cfg, s)
		}
	}
	return nil, &UnsupportedDialectError{Detected: s.Detected}
}

type probe struct {
	product string
	query   string
	// match reports the product for a version string, "" when it does not match.
	match func(version string) string
}

var (
	postgresProbe = probe{ProductPostgreSQL, "SELECT version()", func(v string) string {
		if strings.HasPrefix(v, "PostgreSQL") {
			return ProductPostgreSQL
		}
		return ""
	}}
	sqlServerProbe = probe{ProductSQLServer, "SELECT @@VERSION", func(v string) string {
		if strings.Contains(v, "Microsoft SQL Server") {
			return ProductSQLServer
		}
		return ""
	}}
	oracleProbe = probe{ProductOracle, "SELECT banner FROM v$version WHERE ROWNUM = 1", func(v string) string {
		if strings.Contains(v, "Oracle") {
			return ProductOracle
		}
		return ""
	}}
	sqliteProbe = probe{ProductSQLite, "SELECT sqlite_version()", func(v string) string {
		if v != "" && v[0] >= '0' && v[0] <= '9' {
			return ProductSQLite
		}
		return ""
	}}
	mysqlProbe = probe{ProductMySQL, "SELECT version()", func(v string) string {
		lower := strings.ToLower(v)
		switch {
		case strings.Contains(lower, "mariadb"):
			return ProductMariaDB
		case strings.Contains(lower, "mysql"), v != "" && v[0] >= '0' && v[0] <= '9':
			return ProductMySQL
		}
		return ""
	}}
)

var driverProbes = map[string]probe{
	"postgres":  postgresProbe,
	"pgx":       postgresProbe,
	"pq":        postgresProbe,
	"mysql":     mysqlProbe,
	"sqlite":    sqliteProbe,
	"sqlite3":   sqliteProbe,
	"sqlserver": sqlServerProbe,
	"mssql":     sqlServerProbe,
	"oracle":    oracleProbe,
	"godror":    oracleProbe,
}

// Detect identifies the backend behind q. A known driver name selects a single
// probe; otherwise each probe is tried in turn. A backend that answers a probe
// with an unrecognized version is returned with an empty Product, which
// Resolve rejects as unsupported.
func Detect(ctx context.Context, q Querier, driver string) (Detected, error) {
	if p, ok := driverProbes[strings.ToLower(driver)]; ok {
		d, err := p.run(ctx, q, driver)
		if err != nil {
			return Detected{}, &ConnectivityError{Op: "detect " + p.product, Err: err}
		}
		return d, nil
	}

	var (
		errs     []error
		unknown  Detected
		answered bool
	)
	for _, p := range []probe{postgresProbe, sqlServerProbe, oracleProbe, sqliteProbe, mysqlProbe} {
		d, err := p.run(ctx, q, driver)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d.Product != "" {
			return d, nil
		}
		if !answered {
			unknown, answered = d, true
		}
	}
	if answered {
		return unknown, nil
	}
	if len(errs) == 0 {
		return Detected{}, fmt.Errorf("%w: driver %q", ErrDetectionFailed, driver)
	}
	return Detected{}, fmt.Errorf("%w: driver %q: %w", ErrDetectionFailed, driver, errors.Join(errs...))
}

func (p probe) run(ctx context.Context, q Querier, driver string) (Detected, error) {
	var version string
	if err := q.QueryRowContext(ctx, p.query).Scan(&version); err != nil {
		return Detected{}, err
	}
	return Detected{Driver: driver, Product: p.match(version), Version: version}, nil
}
