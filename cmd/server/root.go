package main

import (
	"github.com/spf13/cobra"

	"github.com/cesargomez89/openkaraoke/internal/config"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// loadConfig reads the environment and applies the command line overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "server",
		Short:         "Open Karaoke Studio server",
		Long:          "Runs the karaoke library API, the stem separation worker and the realtime performance controls.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "override LOG_FORMAT (text, json)")

	root.AddCommand(
		newServeCmd(opts),
		newEnhanceCmd(opts),
		newJobsCmd(opts),
		newLibraryCmd(opts),
	)
	return root
}
