// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/hlsrelay/internal/hls"
	"github.com/ManuGH/hlsrelay/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestParseHeaderFlags(t *testing.T) {
	headers, err := parseHeaderFlags([]string{"Referer: https://example.com/", "X-Token:abc", "X-Token: def"})
	require.NoError(t, err)
	assert.Equal(t, hls.Headers{"Referer": "https://example.com/", "X-Token": "def"}, headers)

	_, err = parseHeaderFlags([]string{"no-colon"})
	assert.Error(t, err)

	headers, err = parseHeaderFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, headers)
}

func TestRewriteCommand(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://relay.example")

	var gotReferer string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		_, _ = io.WriteString(w, "#EXTM3U\n#EXTINF:6,\nchunk-1.ts\n#EXT-X-ENDLIST\n")
	}))
	defer origin.Close()

	out, err := execute(t, "rewrite", "--env-file", "", "-H", "Referer: https://player.example/", origin.URL+"/vod/index.m3u8")
	require.NoError(t, err)

	assert.Equal(t, "https://player.example/", gotReferer)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "https://relay.example/seg?url="), lines[2])
	assert.Contains(t, lines[2], "&headers=")
	assert.Equal(t, "#EXT-X-ENDLIST", lines[3])
}

func TestRewriteCommand_RequiresURL(t *testing.T) {
	_, err := execute(t, "rewrite")
	assert.Error(t, err)
}

func TestResolveCommand_PassesThroughManifestURL(t *testing.T) {
	out, err := execute(t, "resolve", "--env-file", "", "https://cdn.example/live/index.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/live/index.m3u8\n", out)
}
