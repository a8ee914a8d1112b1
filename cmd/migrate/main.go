package main

// Run database migrations:
//   go run ./cmd/migrate up

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recommendation-backend/internal/shared/config"
	"recommendation-backend/internal/shared/storage/db"
	"recommendation-backend/internal/shared/telemetry"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or inspect database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	root.AddCommand(
		migrationCmd("up", "Apply all pending migrations", db.RunMigrations),
		migrationCmd("down", "Roll back the most recent migration", db.RollbackMigration),
		migrationCmd("status", "Print migration status", db.MigrationStatus),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrationCmd(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := []string{}
			if cfgFile != "" {
				paths = append(paths, cfgFile)
			}
			cfg, err := config.Load(paths...)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.DatabaseURL) == "" {
				return errors.New("DATABASE_URL is required")
			}
			logger, err := telemetry.New(telemetry.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			opts := db.OptionsFromEnv(db.DefaultMigrateOptions(), logger)
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts, logger)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			if err := run(ctx, sqlDB); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			logger.Info("migration command finished", zap.String("command", use))
			return nil
		},
	}
}
