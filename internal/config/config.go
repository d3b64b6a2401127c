// Package config provides runtime configuration values for the POS server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the knobs for storage, HTTP and caching.
type Config struct {
	HTTPAddr        string
	DBPath          string
	RedisAddr       string // empty disables the catalog/report cache
	DefaultRate     string
	StorageTimeout  time.Duration
	CacheTTL        time.Duration
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("POS_HTTP_ADDR", ":8080"),
		DBPath:          getenv("POS_DB_PATH", "./data/pos.db"),
		RedisAddr:       getenv("POS_REDIS_ADDR", ""),
		DefaultRate:     getenv("POS_DEFAULT_RATE", "36.00"),
		StorageTimeout:  durenvms("POS_STORAGE_TIMEOUT_MS", 5000),
		CacheTTL:        durenvms("POS_CACHE_TTL_MS", 2000),
		ShutdownTimeout: durenvms("POS_SHUTDOWN_TIMEOUT_MS", 15000),
	}
}
