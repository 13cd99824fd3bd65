// Package config loads classxref settings from a .env file and the
// environment. Command-line flags override what Load returns.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvURLPrefix = "CLASSXREF_URL_PREFIX"
	EnvDB        = "CLASSXREF_DB"
	EnvWorkers   = "CLASSXREF_WORKERS"
	EnvCacheSize = "CLASSXREF_CACHE_SIZE"
	EnvVerbosity = "CLASSXREF_VERBOSITY"

	DefaultURLPrefix = "/source/s?"
	DefaultDB        = "classxref.db"
	DefaultCacheSize = 1024
)

type Config struct {
	// URLPrefix is prepended to every link in rendered text.
	URLPrefix string
	DB        string
	Workers   int
	CacheSize int
	Verbosity int
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		URLPrefix: DefaultURLPrefix,
		DB:        DefaultDB,
		Workers:   runtime.NumCPU(),
		CacheSize: DefaultCacheSize,
	}
}

// Load reads .env from the working directory when present, then the
// environment. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to Default for unset
// variables.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvURLPrefix)); v != "" {
		cfg.URLPrefix = v
	}
	if v := strings.TrimSpace(getenv(EnvDB)); v != "" {
		cfg.DB = v
	}

	var err error
	if cfg.Workers, err = positiveInt(getenv, EnvWorkers, cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = positiveInt(getenv, EnvCacheSize, cfg.CacheSize); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(getenv(EnvVerbosity)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvVerbosity, err)
		}
		cfg.Verbosity = n
	}
	return cfg, nil
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
