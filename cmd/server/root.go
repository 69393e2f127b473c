package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketwire/internal/config"
	"github.com/vovakirdan/marketwire/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "marketd",
		Short:         "Marketplace listings and buyer-seller messaging server",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveOptions{})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (default: $MARKET_CONFIG_DEFAULT_PATH/config.yaml or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newChatCmd(opts))
	return cmd
}

// loadConfig resolves configuration and builds the logger it asks for.
func loadConfig(opts *rootOptions) (config.Config, string, *zerolog.Logger, error) {
	bootstrap := log.New("info", log.FormatConsole)
	cfg, path, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		return cfg, path, bootstrap, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	return cfg, path, log.New(cfg.LogLevel, cfg.LogFormat), nil
}
