// Package config provides unified configuration loading for nvote.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/logging"
)

// FileName is the name of the config file inside the data directory.
const FileName = "config.yaml"

// Config contains all nvote configuration settings.
type Config struct {
	Database   DatabaseConfig   `json:"database" yaml:"database"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Redis      RedisConfig      `json:"redis" yaml:"redis"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
}

// DatabaseConfig locates the SQLite experiment database.
type DatabaseConfig struct {
	// Path of the database file. Empty means ~/.nvote/experiment.db.
	Path string `json:"path" yaml:"path"`
}

// GenerationConfig holds defaults for new modules and generation runs.
type GenerationConfig struct {
	RoundTo    int     `json:"round_to" yaml:"round_to"`
	MinOutVal  float64 `json:"min_out_val" yaml:"min_out_val"`
	MaxOutVal  float64 `json:"max_out_val" yaml:"max_out_val"`
	Iterations int     `json:"iterations" yaml:"iterations"`

	// Seed makes generation reproducible. Zero seeds from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the vote trace in votes.jsonl.
	Level string `json:"level" yaml:"level"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// RedisConfig configures the accuracy leaderboard.
type RedisConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`

	// Password supports ${VAR} syntax for env vars.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
}

// RedactedPassword returns "(set)" for a non-empty password and "" otherwise.
func (c RedisConfig) RedactedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "(set)"
}

// String implements fmt.Stringer to keep the password out of logs.
func (c RedisConfig) String() string {
	return fmt.Sprintf("RedisConfig{Enabled:%t, Addr:%s, Password:%s, DB:%d}",
		c.Enabled, c.Addr, c.RedactedPassword(), c.DB)
}

// ArchiveConfig configures the MongoDB experiment archive.
type ArchiveConfig struct {
	// MongoURI supports ${VAR} syntax for env vars.
	MongoURI string `json:"mongo_uri" yaml:"mongo_uri"`
	Database string `json:"database" yaml:"database"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			RoundTo:    constants.DefaultRoundTo,
			MinOutVal:  constants.DefaultMinOutVal,
			MaxOutVal:  constants.DefaultMaxOutVal,
			Iterations: constants.DefaultIterations,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Archive: ArchiveConfig{
			MongoURI: "mongodb://localhost:27017",
			Database: "nvote",
		},
	}
}

// DefaultPath returns ~/.nvote/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nvote", FileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.nvote/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Redis.Password = expandEnvVars(config.Redis.Password)
	config.Archive.MongoURI = expandEnvVars(config.Archive.MongoURI)

	return config, nil
}

// Save writes the configuration as YAML to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	g := c.Generation
	if g.RoundTo < 0 {
		return fmt.Errorf("round_to must be non-negative, got %d", g.RoundTo)
	}
	if math.IsNaN(g.MinOutVal) || math.IsNaN(g.MaxOutVal) || g.MinOutVal > g.MaxOutVal {
		return fmt.Errorf("min_out_val %v must not exceed max_out_val %v", g.MinOutVal, g.MaxOutVal)
	}
	if g.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", g.Iterations)
	}
	if g.Iterations > constants.MaxIterations {
		return fmt.Errorf("iterations must be at most %d, got %d", constants.MaxIterations, g.Iterations)
	}
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be non-negative, got %d", c.Redis.DB)
	}
	return nil
}

// Keys lists every dot-notation key understood by Get and Set.
func Keys() []string {
	return []string{
		"database.path",
		"generation.round_to",
		"generation.min_out_val",
		"generation.max_out_val",
		"generation.iterations",
		"generation.seed",
		"logging.level",
		"server.addr",
		"redis.enabled",
		"redis.addr",
		"redis.password",
		"redis.db",
		"archive.mongo_uri",
		"archive.database",
	}
}

// Get retrieves a configuration value by dot-notation key. The Redis
// password is redacted.
func (c *Config) Get(key string) (any, bool) {
	switch key {
	case "database.path":
		return c.Database.Path, true
	case "generation.round_to":
		return c.Generation.RoundTo, true
	case "generation.min_out_val":
		return c.Generation.MinOutVal, true
	case "generation.max_out_val":
		return c.Generation.MaxOutVal, true
	case "generation.iterations":
		return c.Generation.Iterations, true
	case "generation.seed":
		return c.Generation.Seed, true
	case "logging.level":
		return c.Logging.Level, true
	case "server.addr":
		return c.Server.Addr, true
	case "redis.enabled":
		return c.Redis.Enabled, true
	case "redis.addr":
		return c.Redis.Addr, true
	case "redis.password":
		return c.Redis.RedactedPassword(), true
	case "redis.db":
		return c.Redis.DB, true
	case "archive.mongo_uri":
		return c.Archive.MongoURI, true
	case "archive.database":
		return c.Archive.Database, true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "database.path":
		c.Database.Path = value
	case "generation.round_to":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid round_to: %s (must be a non-negative integer)", value)
		}
		c.Generation.RoundTo = n
	case "generation.min_out_val":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid min_out_val: %s", value)
		}
		c.Generation.MinOutVal = f
	case "generation.max_out_val":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid max_out_val: %s", value)
		}
		c.Generation.MaxOutVal = f
	case "generation.iterations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid iterations: %s (must be a non-negative integer)", value)
		}
		c.Generation.Iterations = n
	case "generation.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		c.Generation.Seed = n
	case "logging.level":
		if !logging.ValidLevel(value) {
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", value)
		}
		c.Logging.Level = value
	case "server.addr":
		c.Server.Addr = value
	case "redis.enabled":
		c.Redis.Enabled = value == "true" || value == "1"
	case "redis.addr":
		c.Redis.Addr = value
	case "redis.password":
		c.Redis.Password = value
	case "redis.db":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid redis db: %s", value)
		}
		c.Redis.DB = n
	case "archive.mongo_uri":
		c.Archive.MongoURI = value
	case "archive.database":
		c.Archive.Database = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("NVOTE_DB"); v != "" {
		config.Database.Path = v
	}

	if v := os.Getenv("NVOTE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("NVOTE_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Generation.Seed = n
		}
	}

	if v := os.Getenv("NVOTE_SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("NVOTE_REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
		config.Redis.Enabled = true
	}

	if v := os.Getenv("NVOTE_MONGO_URI"); v != "" {
		config.Archive.MongoURI = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
