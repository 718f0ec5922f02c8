package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coregx/sqlsink"
	"github.com/coregx/sqlsink/internal/logger"
)

type rootOptions struct {
	configPath string
	flags      Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sqlsink",
		Short: "Inspect how change records are written into a relational database",
		Long: `sqlsink connects to a target database, detects its backend and shows what the
sink does with it: table descriptors read from the live catalog, and the upsert,
delete or DDL statements a change record produces.

Supported backends: PostgreSQL, MySQL/MariaDB, SQLite, SQL Server, Oracle.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&opts.flags.Driver, "driver", "", "database/sql driver name (pgx, postgres, mysql, sqlite3, sqlserver)")
	pf.StringVar(&opts.flags.DSN, "dsn", "", "data source name, defaults to $SQLSINK_DSN")
	pf.BoolVar(&opts.flags.QuoteIdentifiers, "quote-identifiers", false, "quote identifiers and match catalog names exactly")
	pf.StringVar(&opts.flags.TimeZone, "time-zone", "", "override the database session time zone")
	pf.StringVar(&opts.flags.LogLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newDetectCmd(opts),
		newDescribeCmd(opts),
		newUpsertCmd(opts),
		newDDLCmd(opts),
	)
	return root
}

func (o *rootOptions) open(ctx context.Context, stderr io.Writer) (*sqlsink.Sink, error) {
	cfg, err := loadConfig(o.configPath, o.flags)
	if err != nil {
		return nil, err
	}
	level, err := cfg.level()
	if err != nil {
		return nil, err
	}

	sinkOpts := []sqlsink.Option{
		sqlsink.WithLogger(logger.NewTextLogger(stderr, level)),
		sqlsink.WithQuoteIdentifiers(cfg.QuoteIdentifiers),
		sqlsink.WithMaxOpenConns(1),
	}
	if cfg.TimeZone != "" {
		sinkOpts = append(sinkOpts, sqlsink.WithDatabaseTimeZone(cfg.TimeZone))
	}
	if len(cfg.SensitiveFields) > 0 {
		sinkOpts = append(sinkOpts, sqlsink.WithSensitiveFields(cfg.SensitiveFields...))
	}
	return sqlsink.Open(ctx, cfg.Driver, cfg.DSN, sinkOpts...)
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Identify the backend and its dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sink, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sink.Close()

			d := sink.Detected()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "product:   %s\n", d.Product)
			fmt.Fprintf(out, "version:   %s\n", d.Version)
			fmt.Fprintf(out, "dialect:   %s\n", sink.Dialect().Name())
			fmt.Fprintf(out, "time zone: %s\n", sink.Dialect().Location())
			return nil
		},
	}
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Read a table descriptor from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sqlsink.ParseTableID(args[0])
			if err != nil {
				return err
			}
			sink, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sink.Close()

			td, err := sink.Describe(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), td)
		},
	}
}

func printTable(w io.Writer, td *sqlsink.TableDescriptor) error {
	fmt.Fprintf(w, "%s (%s)\n", td.ID(), td.TableType())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNATIVE\tNULL\tKEY\tDEFAULT")
	for _, c := range td.Columns() {
		def := ""
		if v, ok := c.Default(); ok {
			def = fmt.Sprint(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name(), c.TypeID(), c.NativeType(),
			yesNo(c.Nullable()), yesNo(td.IsPrimaryKey(c.Name())), def)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type recordOptions struct {
	recordPath string
	exec       bool
	evolve     bool
}

func newUpsertCmd(opts *rootOptions) *cobra.Command {
	ro := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "upsert <table>",
		Short: "Render the statement a change record produces",
		Long: `Render the statement a change record produces against the live table.
Creates, updates and snapshot reads become upserts, deletes become deletes by key.
With --exec the statement is executed; --evolve first creates or widens the table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, rec, err := ro.load(args[0])
			if err != nil {
				return err
			}
			sink, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sink.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if ro.evolve {
				ddl, err := sink.ApplySchemaChanges(ctx, id, rec)
				if err != nil {
					return err
				}
				printStatements(out, ddl)
			}

			stmt, err := sink.Statement(ctx, id, rec)
			if err != nil {
				return err
			}
			printStatements(out, []sqlsink.Statement{stmt})

			if ro.exec {
				rows, err := sink.Exec(ctx, id, stmt)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "-- %d row(s) affected\n", rows)
			}
			return nil
		},
	}
	ro.bind(cmd)
	cmd.Flags().BoolVar(&ro.evolve, "evolve", false, "create or alter the table before writing")
	return cmd
}

func newDDLCmd(opts *rootOptions) *cobra.Command {
	ro := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "ddl <table>",
		Short: "Render the schema changes needed to hold a change record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, rec, err := ro.load(args[0])
			if err != nil {
				return err
			}
			sink, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sink.Close()

			var stmts []sqlsink.Statement
			if ro.exec {
				stmts, err = sink.ApplySchemaChanges(cmd.Context(), id, rec)
			} else {
				stmts, err = sink.SchemaChanges(cmd.Context(), id, rec)
			}
			if err != nil {
				return err
			}
			if len(stmts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "-- %s is up to date\n", id)
				return nil
			}
			printStatements(cmd.OutOrStdout(), stmts)
			return nil
		},
	}
	ro.bind(cmd)
	return cmd
}

func (ro *recordOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ro.recordPath, "record", "r", "", "YAML change record file")
	cmd.Flags().BoolVar(&ro.exec, "exec", false, "execute the statements")
	_ = cmd.MarkFlagRequired("record")
}

func (ro *recordOptions) load(table string) (sqlsink.TableID, *sqlsink.Record, error) {
	id, err := sqlsink.ParseTableID(table)
	if err != nil {
		return sqlsink.TableID{}, nil, err
	}
	rec, err := loadRecord(ro.recordPath)
	if err != nil {
		return sqlsink.TableID{}, nil, err
	}
	return id, rec, nil
}

func printStatements(w io.Writer, stmts []sqlsink.Statement) {
	for _, s := range stmts {
		fmt.Fprintf(w, "%s;\n", strings.TrimSuffix(s.SQL, ";"))
		if len(s.Args) > 0 {
			fmt.Fprintf(w, "-- args: %s\n", formatArgs(s.Args))
		}
	}
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%v", a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
