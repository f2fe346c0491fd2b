package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	args := []string{
		"-a", "127.0.0.1:9090", "-g", ":9091", "-d", "db", "-r", "redis://r:6379",
		"-s", "secret", "-t", "15m", "-l", "warn", "-w", "3",
		"-o", "http://x.test, http://y.test",
		"-users", "postgres", "-challenges", "redis", "-revocations", "redis",
		"-unknown", "ignored",
	}
	require.NoError(t, parseFlags(cfg, args))

	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, ":9091", cfg.GRPCAddr)
	assert.Equal(t, "db", cfg.DatabaseDSN)
	assert.Equal(t, "redis://r:6379", cfg.RedisURL)
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.HashWorkers)
	assert.Equal(t, []string{"http://x.test", "http://y.test"}, cfg.AllowedOrigins)
	assert.Equal(t, BackendPostgres, cfg.UserStore)
	assert.Equal(t, BackendRedis, cfg.ChallengeStore)
	assert.Equal(t, BackendRedis, cfg.RevocationStore)
}

func TestParseFlags_KeepsValuesWhenAbsent(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AllowedOrigins = []string{"http://keep.test"}

	require.NoError(t, parseFlags(cfg, nil))

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://keep.test"}, cfg.AllowedOrigins)
}

func TestParseFlags_BadDuration(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, parseFlags(cfg, []string{"-t", "ten"}))
}
