package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3000", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1","request_timeout":"3s"}`), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://json:1", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)

	cfg, err = Load([]string{"-c", path, "-a", "http://flag:2"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoad_IgnoresUnknownFlags(t *testing.T) {
	cfg, err := Load([]string{"-x", "1", "-t", "5s"})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = Load([]string{"-c", bad})
	assert.Error(t, err)

	_, err = Load([]string{"-t", "soon"})
	assert.Error(t, err)
}
