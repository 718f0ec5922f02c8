// Command sqlsink inspects a target database the way the sink sees it: the
// detected backend, table descriptors read from the catalog, and the SQL a
// change record turns into.
package main

import (
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
