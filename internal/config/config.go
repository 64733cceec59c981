package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds process-wide settings, populated from environment variables.
// The core packages hold no global mutable state; everything here is passed
// in explicitly at call time.
type Config struct {
	// DataRoot is the base directory for store URLs given as relative
	// paths.
	DataRoot string

	LogLevel  string
	LogFormat string

	// MetricsAddr is the listen address for the /metrics endpoint during
	// long runs. Empty disables the listener.
	MetricsAddr string

	// Workers bounds engine parallelism over grid cells. 0 means
	// GOMAXPROCS.
	Workers int

	// Seed feeds the wet-day jitter's random source so runs are
	// reproducible.
	Seed int64
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		DataRoot:    envOrDefault("DODOLA_DATA_ROOT", "."),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr: os.Getenv("DODOLA_METRICS_ADDR"),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid LOG_LEVEL: want debug, info, warn, or error")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, errors.New("invalid LOG_FORMAT: want json or text")
	}

	if s := os.Getenv("DODOLA_WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, errors.New("invalid DODOLA_WORKERS: want a non-negative integer")
		}
		cfg.Workers = n
	}
	if s := os.Getenv("DODOLA_SEED"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.New("invalid DODOLA_SEED: want an integer")
		}
		cfg.Seed = n
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
