// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/ManuGH/hlsrelay/internal/daemon"
	hlslog "github.com/ManuGH/hlsrelay/internal/log"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := hlslog.WithComponent("main")

	ctx, stop := daemon.WaitForShutdown(cmd.Context())
	defer stop()

	if err := daemon.Run(ctx, cfg); err != nil {
		logger.Error().Err(err).Str(hlslog.FieldEvent, "daemon.exit").Msg("relay exited with error")
		return err
	}
	logger.Info().Str(hlslog.FieldEvent, "daemon.exit").Msg("relay stopped")
	return nil
}
