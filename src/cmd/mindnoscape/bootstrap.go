package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mindnoscape/web-app/src/pkg/config"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "mindnoscape",
		Short:        "Mind map server and terminal editor",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.json, .yaml or .toml); defaults to $"+config.EnvConfigPath+" or ./data/config.json")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug entries to the info log")

	root.AddCommand(
		newServeCmd(opts),
		newEditCmd(opts),
		newLogsCmd(opts),
	)
	return root
}

// loadConfig reads the configuration named by --config, or the default location.
func loadConfig(opts *rootOptions) (*model.Config, error) {
	var err error
	if opts.configPath != "" {
		err = config.ConfigLoadFrom(opts.configPath)
	} else {
		err = config.ConfigLoad()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.ConfigGet(), nil
}

// bootstrap loads the configuration and opens the file logger. The returned
// cleanup closes the logger.
func bootstrap(opts *rootOptions, infoEnabled bool) (*model.Config, *log.Logger, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.debug {
		cfg.DebugLog = true
	}

	logger, err := log.NewLogger(cfg, infoEnabled)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cleanup := func() {
		if err := logger.Close(); err != nil {
			fmt.Printf("Failed to close logger: %v\n", err)
		}
	}
	logger.Info(context.Background(), "Configuration loaded", log.Fields{"database": cfg.DatabaseType, "addr": cfg.ServerAddr})
	return cfg, logger, cleanup, nil
}
