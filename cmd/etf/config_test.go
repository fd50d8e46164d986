package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diodechain/goetf"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.Equal(t, etf.DefaultMaxDepth, config.MaxDepth)
	assert.Len(t, config.Options(), 3)

	config, err = LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
max_depth: 32
max_inflated_size: 1024
compression: 6
format: cbor
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{MaxDepth: 32, MaxInflatedSize: 1024, Compression: 6, Format: "cbor"}, config)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = LoadConfig(writeConfig(t, "format: xml\n"))
	assert.ErrorContains(t, err, "unknown format")

	_, err = LoadConfig(writeConfig(t, "compression: 11\n"))
	assert.ErrorContains(t, err, "compression")

	_, err = LoadConfig(writeConfig(t, "max_depth: 0\n"))
	assert.ErrorContains(t, err, "max_depth")

	_, err = LoadConfig(writeConfig(t, "colour: blue\n"))
	assert.ErrorContains(t, err, "parse config")
}
