package config

import (
	"fmt"
	"os"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds the runtime settings, all sourced from environment
// variables with sensible defaults.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	Store       string
	SQLitePath  string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getenvDefault("SERVICE_NAME", "canteen"),
		Env:         getenvDefault("ENV", "dev"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		Store:       getenvDefault("STORE", StoreMemory),
		SQLitePath:  getenvDefault("SQLITE_PATH", "canteen.db"),
	}

	switch cfg.Store {
	case StoreMemory, StoreSQLite:
	default:
		return nil, fmt.Errorf("config: unknown STORE %q", cfg.Store)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
