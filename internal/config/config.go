// Package config loads the process configuration from an optional YAML file
// with environment overrides. The resolved Config is passed explicitly to
// every component; nothing reads configuration from globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	BotToken         string        `yaml:"bot-token"`         // Telegram bot API token.
	AdminID          int64         `yaml:"admin-id"`          // Telegram user id of the administrator.
	DatabaseDSN      string        `yaml:"database-dsn"`      // sqlite path or postgres DSN.
	ListenAddr       string        `yaml:"listen-addr"`       // Status API listen address.
	APIToken         string        `yaml:"api-token"`         // Optional bearer token for the status API.
	ReminderInterval time.Duration `yaml:"reminder-interval"` // Reminder sweep interval, default 1h.
	ApprovalInterval time.Duration `yaml:"approval-interval"` // Free-queue sweep interval, default 10s.
	LogFile          string        `yaml:"log-file"`          // Optional rotating log file path.
	Debug            bool          `yaml:"debug"`             // Enable debug logging.
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		DatabaseDSN: "./database.sqlite",
		ListenAddr:  ":8080",
	}
}

// Load reads the YAML file at path (when it exists), then applies .env and
// environment overrides, then validates.
func Load(path string) (Config, error) {
	// Overrides from a .env file land in the environment first, matching how
	// the bot token and admin id are usually supplied.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		case os.IsNotExist(errRead):
			// Missing file is fine; env vars may carry everything.
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	applyEnv(&cfg)

	if cfg.BotToken == "" {
		return Config{}, errors.New("config: bot token is required (BOT_TOKEN or bot-token)")
	}
	if cfg.AdminID == 0 {
		return Config{}, errors.New("config: admin id is required (ADMIN_ID or admin-id)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("ADMIN_ID"); v != "" {
		if id, errParse := strconv.ParseInt(v, 10, 64); errParse == nil {
			cfg.AdminID = id
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	// DATABASE_PATH is the legacy name for a sqlite file path.
	if v := os.Getenv("DATABASE_PATH"); v != "" && os.Getenv("DATABASE_DSN") == "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		if debug, errParse := strconv.ParseBool(v); errParse == nil {
			cfg.Debug = debug
		}
	}
}
