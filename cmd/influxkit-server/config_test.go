package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTemplateCreatesFileAndParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "influxkit.toml")
	require.NoError(t, writeTemplate(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(content))
}

func TestWriteTemplateReportsFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	err := writeTemplate(filepath.Join(blocker, "influxkit.toml"))
	assert.Error(t, err)
}

func TestConfigTemplateDecodes(t *testing.T) {
	var conf ServerConfig
	_, err := toml.Decode(configTemplate, &conf)
	require.NoError(t, err)
	assert.Equal(t, 9696, conf.Port)
	assert.True(t, conf.EnableGzip)
	assert.Equal(t, "info", conf.LogLevel)
	assert.True(t, conf.Cors.AllowAllOrigins)
	assert.False(t, conf.Debug)
}
