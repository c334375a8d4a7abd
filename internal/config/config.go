package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"teaboard/internal/connections/database"
	"teaboard/internal/connections/rabbitmq"
)

type Shop struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	TotalTables int    `yaml:"total_tables"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Storage struct {
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`
	PollMS int    `yaml:"poll_ms"`
}

type Sync struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

type Reminder struct {
	Enabled       bool `yaml:"enabled"`
	StaleAfterMin int  `yaml:"stale_after_minutes"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Shop     Shop            `yaml:"shop"`
	Server   Server          `yaml:"server"`
	Storage  Storage         `yaml:"storage"`
	Database database.Config `yaml:"database"`
	Rabbit   rabbitmq.Config `yaml:"rabbitmq"`
	Sync     Sync            `yaml:"sync"`
	Reminder Reminder        `yaml:"reminder"`
	Log      Log             `yaml:"log"`
	Metrics  Metrics         `yaml:"metrics"`
}

// Load reads the YAML config and applies defaults. Secrets can be kept
// out of the file: TEABOARD_DB_PASSWORD and TEABOARD_RABBIT_PASSWORD
// override the corresponding fields when set.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Shop.ID == "" {
		cfg.Shop.ID = "teashop-main"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "teaboard.db"
	}
	if cfg.Sync.DebounceMS <= 0 {
		cfg.Sync.DebounceMS = 250
	}
	if cfg.Reminder.StaleAfterMin <= 0 {
		cfg.Reminder.StaleAfterMin = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if v := os.Getenv("TEABOARD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TEABOARD_RABBIT_PASSWORD"); v != "" {
		cfg.Rabbit.Password = v
	}

	if cfg.Sync.Enabled {
		if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
			return Config{}, fmt.Errorf("sync enabled but database config incomplete")
		}
		if cfg.Rabbit.Host == "" || cfg.Rabbit.User == "" {
			return Config{}, fmt.Errorf("sync enabled but rabbitmq config incomplete")
		}
	}
	return cfg, nil
}
