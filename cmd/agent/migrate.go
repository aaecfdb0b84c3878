package main

import (
	"fmt"
	"io/fs"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/core"
	agentmigrations "github.com/omnirevenue/agent/migrations"
)

func migrateCmd() *cobra.Command {
	var (
		status bool
		driver string
		dbDSN  string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status {
				return printMigrationStatus(cmd)
			}

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, core.Config{
				Database: core.DatabaseConfig{Driver: driver, DSN: dbDSN},
			})
			if err != nil {
				return err
			}

			_, logger := glog.Resolve(cfg.ServiceName, nil, nil)
			logger = glog.Ensure(logger)

			client, err := newPersistenceClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(ctx); err != nil {
				return fmt.Errorf("agent: migrate: %w", err)
			}
			logger.Info("migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list registered migration files instead of applying them")
	cmd.Flags().StringVar(&driver, "db-driver", "", "database driver (sqlite3 or postgres)")
	cmd.Flags().StringVar(&dbDSN, "db-dsn", "", "database DSN")

	return cmd
}

func printMigrationStatus(cmd *cobra.Command) error {
	filesystems, err := agentmigrations.Filesystems()
	if err != nil {
		return err
	}
	for _, spec := range filesystems {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", spec.Dialect, spec.Path)
		entries, globErr := fs.Glob(spec.FS, "*.sql")
		if globErr != nil {
			return fmt.Errorf("agent: list %s migrations: %w", spec.Dialect, globErr)
		}
		for _, entry := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", entry)
		}
	}
	return nil
}
