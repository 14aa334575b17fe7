package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"smsrelay/internal/config"
	"smsrelay/internal/store"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:           "smsrelay",
		Short:         "smsrelay: SMS group messaging",
		Long:          "smsrelay manages channels of phone numbers that exchange text through a pluggable SMS transport.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.smsrelay/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(createCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(listCmd())
	root.AddCommand(enterCmd())
	root.AddCommand(processCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(importCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if configPath != "" {
				cfgPath = configPath
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "db", cfg.Store.DBPath)
			return nil
		},
	}
}

// loadConfig reads the configured or default config file. A missing
// default file is not an error; built-in defaults apply.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Defaults(), nil
		}
	}
	return config.Load(path)
}

func setupLogger(cfg *config.Config) error {
	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return nil
}

// openStore loads the config and opens the channel repository.
func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupLogger(cfg); err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.Store.DBPath, logger)
}
