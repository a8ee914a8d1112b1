package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recommendation-backend/internal/shared/config"
	"recommendation-backend/internal/shared/telemetry"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           "recommendation-api",
		Short:         "Resume parsing and recommendation letter service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: CONFIG_FILE, config.yaml or .env)")
	rootCmd.AddCommand(serveCmd)
	// bare invocation serves
	rootCmd.RunE = serveCmd.RunE
}

func loadConfig() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := telemetry.New(telemetry.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
