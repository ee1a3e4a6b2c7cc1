// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strings"

	"github.com/ManuGH/hlsrelay/internal/daemon"
	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/spf13/cobra"
)

func newRewriteCmd(opts *rootOptions) *cobra.Command {
	var rawHeaders []string
	var noResolve bool

	cmd := &cobra.Command{
		Use:   "rewrite <url>",
		Short: "Fetch a playlist and print it rewritten against PUBLIC_URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, err := parseHeaderFlags(rawHeaders)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			res, playlists, err := daemon.NewPlaylistTools(cfg)
			if err != nil {
				return err
			}

			target := args[0]
			if !noResolve {
				if target, err = res.Resolve(cmd.Context(), target); err != nil {
					return err
				}
			}
			resp, err := playlists.Rewrite(cmd.Context(), target, headers)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(resp.Body, '\n'))
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&rawHeaders, "header", "H", nil, "upstream header as 'Name: value' (repeatable)")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "skip live-page resolution")
	return cmd
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Print the manifest URL behind a live page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			res, _, err := daemon.NewPlaylistTools(cfg)
			if err != nil {
				return err
			}
			manifest, err := res.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), manifest)
			return nil
		},
	}
}

// parseHeaderFlags turns repeated "Name: value" flags into the forwarded
// header map. Later flags win.
func parseHeaderFlags(raw []string) (hls.Headers, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(hls.Headers, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: want 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
