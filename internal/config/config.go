package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched, in
// priority order. The first one found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/predictive/config.yaml",
	"/etc/predictive/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DatabaseConfig selects and configures the Repository backend.
type DatabaseConfig struct {
	Type                     string `koanf:"type"`
	DSN                      string `koanf:"dsn"`
	TableInventoryMovements  string `koanf:"table_inventory_movements"`
	TableClients             string `koanf:"table_clients"`
	TableProducts            string `koanf:"table_products"`
	ExcludedClients          []string `koanf:"excluded_clients"`
}

// ModelConfig configures the artifact store.
type ModelConfig struct {
	ArtifactPath string `koanf:"artifact_path"`
}

// SchedulerConfig configures the daily retrain job.
type SchedulerConfig struct {
	Timezone string `koanf:"timezone"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the zerolog global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the fully layered application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Model     ModelConfig     `koanf:"model"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:                    "sqlite",
			DSN:                     "./data/catalog.db",
			TableInventoryMovements: "inventory_movements",
			TableClients:            "clients",
			TableProducts:           "products",
			ExcludedClients:         nil,
		},
		Model: ModelConfig{
			ArtifactPath: "./data/hyperparameters.json",
		},
		Scheduler: SchedulerConfig{
			Timezone: "America/Mexico_City",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the Config in three layers, highest priority last:
//  1. Defaults: defaultConfig() above.
//  2. Config file: optional YAML file located by findConfigFile.
//  3. Environment variables: DB_TYPE, DB_DSN, TABLE_*, EXCLUDED_CLIENTS,
//     ARTIFACT_PATH, SCHEDULER_TIMEZONE, HTTP_ADDR, LOG_LEVEL, LOG_FORMAT.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	// EXCLUDED_CLIENTS is comma-separated; koanf's env provider loads it as
	// one opaque string under database.excluded_clients, so it is split here.
	if raw := os.Getenv("EXCLUDED_CLIENTS"); raw != "" {
		cfg.Database.ExcludedClients = getSliceEnv("EXCLUDED_CLIENTS", cfg.Database.ExcludedClients)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envKeyToPath maps the flat legacy environment variable names to this
// config's dotted koanf paths (DB_TYPE -> database.type).
var envKeyToPath = map[string]string{
	"DB_TYPE":                   "database.type",
	"DB_DSN":                    "database.dsn",
	"TABLE_INVENTORY_MOVEMENTS": "database.table_inventory_movements",
	"TABLE_CLIENTS":             "database.table_clients",
	"TABLE_PRODUCTS":            "database.table_products",
	"EXCLUDED_CLIENTS":          "database.excluded_clients",
	"ARTIFACT_PATH":             "model.artifact_path",
	"SCHEDULER_TIMEZONE":        "scheduler.timezone",
	"HTTP_ADDR":                 "server.addr",
	"LOG_LEVEL":                 "log.level",
	"LOG_FORMAT":                "log.format",
}

// envTransformFunc adapts the flat legacy environment variable names to
// koanf's dotted path convention; unrecognized variables are ignored.
func envTransformFunc(s string) string {
	if path, ok := envKeyToPath[s]; ok {
		return path
	}
	return strings.ToLower(s)
}

// findConfigFile searches DefaultConfigPaths, honoring ConfigPathEnvVar.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks invariants that must hold before the server can start.
func (c *Config) Validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type must not be empty")
	}
	if c.Model.ArtifactPath == "" {
		return fmt.Errorf("model.artifact_path must not be empty")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q invalid: %w", c.Scheduler.Timezone, err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
