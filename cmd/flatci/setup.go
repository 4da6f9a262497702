package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatsurf/flatci/internal/config"
	"github.com/flatsurf/flatci/internal/observability"
	"github.com/flatsurf/flatci/internal/workspace"
)

// app bundles what every command needs after reading the persistent flags.
type app struct {
	root   string
	cfg    *config.Config
	logger *zap.Logger
}

func setup(cmd *cobra.Command) (*app, error) {
	root, _ := cmd.Flags().GetString("root")
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(configPath, root)
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Logging.Level = level
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return &app{root: root, cfg: cfg, logger: logger}, nil
}

func (a *app) workspace() (*workspace.Context, error) {
	return workspace.Load(a.root, a.cfg.StateDir)
}
