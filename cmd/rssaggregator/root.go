package main

import (
	"fmt"
	"os/signal"
	"rssaggregator/internal/app"
	"rssaggregator/internal/config"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "rssaggregator",
		Short:        "RSS feed aggregator",
		Long:         "rssaggregator periodically fetches several RSS/Atom feeds, merges them into one RSS 2.0 channel and serves it over HTTP.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.json", "path to config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logger.level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newRenderCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the periodic refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Refresh all feeds once and write the merged document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if output == "" || output == "-" {
				if cfg.Logger.File == "" {
					cfg.Logger.File = "stderr"
				}
				return app.RenderOnce(ctx, cfg, cmd.OutOrStdout())
			}
			return app.RenderToFile(ctx, cfg, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write the feed to, - for stdout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rssaggregator %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("could not init app: %w", err)
	}
	return application.Run()
}

// loadConfig читает и проверяет конфигурацию с учетом флагов командной строки.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logger.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
