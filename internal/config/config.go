// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel slog.Level
	// EstablishmentID pre-fills the new-run form.
	EstablishmentID string
}

// Addr is the listen address for http.ListenAndServe.
func (c Config) Addr() string { return ":" + c.Port }

// Load reads .env (when present) and then the process environment.
// Environment variables win over .env values.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "payroll.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ESTABLISHMENT_ID", "")
	v.AutomaticEnv()

	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		DBPath:          strings.TrimSpace(v.GetString("DB_PATH")),
		EstablishmentID: strings.ToUpper(strings.TrimSpace(v.GetString("ESTABLISHMENT_ID"))),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("config: PORT is empty")
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("config: DB_PATH is empty")
	}
	return cfg, nil
}
