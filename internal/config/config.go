package config

import (
	"log/slog"
	"os"
	"strings"
)

const (
	defaultEnv         = "dev"
	defaultDBPath      = "./dev.db"
	defaultPort        = "8080"
	defaultCatalogPath = "./configs/world.yaml"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	SessionSecret string
	DBPath        string
	Port          string
	CatalogPath   string
	LogLevel      slog.Level
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		Env:           strings.ToLower(os.Getenv("APP_ENV")),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = defaultCatalogPath
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			slog.Warn("ignoring invalid LOG_LEVEL", "value", raw)
		}
	}

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
