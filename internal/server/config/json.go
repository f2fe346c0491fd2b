package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "10m" strings and integer nanoseconds. Absent keys keep the current value.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	GRPCAddr        string         `json:"grpc_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	RedisURL        string         `json:"redis_url"`
	SecretKey       string         `json:"secret_key"`
	TokenTTL        timex.Duration `json:"token_ttl"`
	ChallengeTTL    timex.Duration `json:"challenge_ttl"`
	UserStore       string         `json:"user_store"`
	ChallengeStore  string         `json:"challenge_store"`
	RevocationStore string         `json:"revocation_store"`
	HashWorkers     *int           `json:"hash_workers"`
	HashMemory      uint32         `json:"hash_memory_kib"`
	HashIterations  uint32         `json:"hash_iterations"`
	LogLevel        string         `json:"log_level"`
	AllowedOrigins  []string       `json:"allowed_origins"`
	ReadTimeout     timex.Duration `json:"read_timeout"`
	WriteTimeout    timex.Duration `json:"write_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	SweepInterval   timex.Duration `json:"sweep_interval"`
}

// parseJson loads the file given with -c or -config, if any.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.UserStore, c.UserStore)
	setString(&config.ChallengeStore, c.ChallengeStore)
	setString(&config.RevocationStore, c.RevocationStore)
	setString(&config.LogLevel, c.LogLevel)

	if c.TokenTTL.Duration != 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.ChallengeTTL.Duration != 0 {
		config.ChallengeTTL = c.ChallengeTTL.Duration
	}
	if c.ReadTimeout.Duration != 0 {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.WriteTimeout.Duration != 0 {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.HashWorkers != nil {
		config.HashWorkers = *c.HashWorkers
	}
	if c.HashMemory != 0 {
		config.HashMemory = c.HashMemory
	}
	if c.HashIterations != 0 {
		config.HashIterations = c.HashIterations
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
