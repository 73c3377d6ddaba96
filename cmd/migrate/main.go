package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/redmonkez12/teamtasks/internal/database"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type migrateOptions struct {
	dbURL   string
	dialect string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &migrateOptions{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the TeamTasks database schema",
		Long:          "Apply, roll back and inspect the embedded schema migrations.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&opts.dbURL, "db-url", os.Getenv("DB_URL"), "Database URL (defaults to $DB_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.dialect, "dialect", "postgres", "Database dialect (postgres, sqlite3)")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider) error {
				results, err := p.Up(ctx)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					printNote(cmd.OutOrStdout(), "no pending migrations")
				}
				for _, r := range results {
					printApplied(cmd.OutOrStdout(), filepath.Base(r.Source.Path), r.Duration.String())
				}
				return nil
			})
		},
	}

	var yes bool
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider) error {
				if !yes {
					v, err := p.GetDBVersion(ctx)
					if err != nil {
						return err
					}
					ok, err := confirmRollback(fmt.Sprintf("version %d", v))
					if err != nil {
						return err
					}
					if !ok {
						printNote(cmd.OutOrStdout(), "aborted")
						return nil
					}
				}

				r, err := p.Down(ctx)
				if err != nil {
					return err
				}
				printRolledBack(cmd.OutOrStdout(), filepath.Base(r.Source.Path), r.Duration.String())
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider) error {
				statuses, err := p.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					appliedAt := "-"
					if s.State == goose.StateApplied {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-20s %s\n", s.State, appliedAt, filepath.Base(s.Source.Path))
				}
				return nil
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider) error {
				v, err := p.GetDBVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return nil
			})
		},
	}

	downCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd, versionCmd)
	return rootCmd
}

func withProvider(ctx context.Context, opts *migrateOptions, fn func(context.Context, *goose.Provider) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.dbURL == "" {
		return fmt.Errorf("database URL is required (set DB_URL or --db-url)")
	}

	driver, dialect, err := resolveDialect(opts.dialect)
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open(driver, opts.dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	provider, err := database.NewMigrator(sqlDB, dialect)
	if err != nil {
		return err
	}

	return fn(ctx, provider)
}

func resolveDialect(name string) (driver string, dialect goose.Dialect, err error) {
	switch name {
	case "postgres":
		return "postgres", goose.DialectPostgres, nil
	case "sqlite3", "sqlite":
		return "sqlite", goose.DialectSQLite3, nil
	default:
		return "", "", fmt.Errorf("unsupported dialect %q", name)
	}
}
