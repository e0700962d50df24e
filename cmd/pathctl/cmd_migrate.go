package main

import (
	"context"
	"errors"
	"fmt"

	"pathways-server/internal/config"
	"pathways-server/internal/database"
	"pathways-server/pkg/migration"

	"github.com/spf13/cobra"
)

// schemaMigrator - то, чем пользуются команды migrate; *migration.Migrator.
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	ForceVersion(version int) error
	Version() (uint, bool, error)
}

// migratorOpener открывает мигратор Postgres или, с local, локальной SQLite.
type migratorOpener func(ctx context.Context, opts *rootOptions, local bool) (schemaMigrator, func(), error)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema (configured from the environment)",
		Long: `Manages the PostgreSQL schema. With --sqlite the local save file
(SQLITE_PATH) is migrated instead.`,
	}
	cmd.PersistentFlags().BoolVar(&local, "sqlite", false, "migrate the local SQLite store instead of PostgreSQL")

	withMigrator := func(run func(*cobra.Command, schemaMigrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := opts.openMigrator(cmd.Context(), opts, local)
			if err != nil {
				return err
			}
			defer closeFn()
			return run(cmd, m)
		}
	}

	var steps int
	stepsCmd := &cobra.Command{
		Use:     "steps --n N",
		Short:   "Apply N migrations (negative N rolls back)",
		Example: "  pathctl migrate steps --n -1",
		Args:    cobra.NoArgs,
		RunE: withMigrator(func(_ *cobra.Command, m schemaMigrator) error {
			if steps == 0 {
				return errors.New("steps: --n must be non-zero")
			}
			return m.Steps(steps)
		}),
	}
	stepsCmd.Flags().IntVar(&steps, "n", 0, "number of migrations, negative rolls back")
	_ = stepsCmd.MarkFlagRequired("n")

	var forced int
	forceCmd := &cobra.Command{
		Use:   "force --version N",
		Short: "Set the schema version without running migrations and clear the dirty flag",
		Long: `Records N as the current version. Use it after fixing a migration that
failed halfway; -1 means no version.`,
		Args: cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m schemaMigrator) error {
			if forced < -1 {
				return fmt.Errorf("force: bad version %d", forced)
			}
			if err := m.ForceVersion(forced); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", forced)
			return nil
		}),
	}
	forceCmd.Flags().IntVar(&forced, "version", 0, "version to record")
	_ = forceCmd.MarkFlagRequired("version")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(_ *cobra.Command, m schemaMigrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(_ *cobra.Command, m schemaMigrator) error { return m.Down() }),
		},
		stepsCmd,
		forceCmd,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m schemaMigrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
				return nil
			}),
		},
	)
	return cmd
}

func openMigrator(ctx context.Context, opts *rootOptions, local bool) (schemaMigrator, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if local {
		db, err := database.ConnectSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		m := migration.NewSQLiteMigrator(migration.Config{
			MigrationsFS:   database.MigrationsFS(),
			MigrationsPath: database.SQLiteMigrationsPath,
		}, db, opts.log)
		return m, func() { _ = db.Close() }, nil
	}

	pool, err := database.NewPool(ctx, database.Config{DSN: cfg.GetDSN(), MaxConns: 2}, opts.log)
	if err != nil {
		return nil, nil, err
	}
	m := migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS(),
		MigrationsPath: database.PostgresMigrationsPath,
	}, pool, opts.log)
	return m, pool.Close, nil
}
