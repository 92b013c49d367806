package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/contaspagar/backend/internal/infrastructure/config"
	"github.com/contaspagar/backend/internal/infrastructure/logger"
	"github.com/contaspagar/backend/internal/infrastructure/migration"
	"github.com/contaspagar/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type options struct {
	path     string
	logLevel string
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migration tool for the contas a pagar schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		migratorCommand(opts, "up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		migratorCommand(opts, "down", "Roll back all migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		migratorCommand(opts, "step <n>", "Apply n migrations, or roll back when n is negative", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		migratorCommand(opts, "goto <version>", "Migrate up or down to a specific version", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(version))
		}),
		migratorCommand(opts, "version", "Show the current migration version", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Println("no migrations applied")
				return nil
			}
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		}),
		migratorCommand(opts, "force <version>", "Set the version without running migrations (fixes a dirty state)", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(version)
		}),
		dropCommand(opts),
		createCommand(opts),
		listCommand(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// migratorCommand builds a subcommand that needs a database connection
func migratorCommand(
	opts *options,
	use, short string,
	args cobra.PositionalArgs,
	run func(m *migration.Migrator, args []string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, cmd.Name(), func(m *migration.Migrator) error {
				return run(m, args)
			})
		},
	}
}

func dropCommand(opts *options) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("drop cancelled, pass --confirm to drop every database object")
			}
			return withMigrator(opts, cmd.Name(), func(m *migration.Migrator) error {
				return m.Drop()
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping every database object")
	return cmd
}

func createCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			log := newLogger(opts)
			defer func() {
				_ = log.Sync()
			}()

			dir := opts.path
			if dir == "" {
				dir = defaultMigrationsPath
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}

			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func listCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(source(opts))
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Println("  -", name)
			}
			return nil
		},
	}
}

func source(opts *options) fs.FS {
	if opts.path != "" {
		return os.DirFS(opts.path)
	}
	return migrations.FS
}

func newLogger(opts *options) *zap.Logger {
	return logger.New(config.LogConfig{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stdout",
	})
}

// withMigrator opens the configured database, runs fn and closes both
func withMigrator(opts *options, command string, fn func(m *migration.Migrator) error) error {
	log := newLogger(opts)
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewFromFS(db, source(opts), log)
	if err != nil {
		_ = db.Close()
		return err
	}
	// closing the migrator closes db as well
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()

	log.Info("Migration command started", zap.String("command", command))
	if err := fn(m); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}
