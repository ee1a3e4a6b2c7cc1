// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command hlsrelay serves the HLS relay and offers one-shot rewrite and
// resolve helpers.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/hlsrelay/internal/config"
	hlslog "github.com/ManuGH/hlsrelay/internal/log"
	"github.com/ManuGH/hlsrelay/internal/version"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hlsrelay",
		Short:         "HLS playlist rewriting relay",
		Long:          "hlsrelay fetches HLS playlists, rewrites every URI to point back at itself and streams segments and keys through.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(version.String() + "\n")

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before environment overrides")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(opts),
		newRewriteCmd(opts),
		newResolveCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig resolves configuration and configures the global logger. Logs
// always go to stderr so one-shot output on stdout stays clean.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.AppConfig, error) {
	// The loader logs while it runs.
	hlslog.Configure(hlslog.Config{
		Level:   opts.logLevel,
		Output:  cmd.ErrOrStderr(),
		Version: version.Version,
	})

	cfg, err := config.NewLoader(opts.configPath, opts.envFile, version.Version).Load()
	if err != nil {
		return cfg, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	hlslog.Reconfigure(hlslog.Config{
		Level:   cfg.Log.Level,
		Output:  cmd.ErrOrStderr(),
		Service: cfg.Log.Service,
		Version: version.Version,
	})
	return cfg, nil
}
