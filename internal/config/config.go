// Package config handles application configuration: environment variables,
// optional .env loading, and an optional YAML config file acting as defaults.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	DataDir    string // checkpoint directory (default "data")
	LogLevel   string // debug, info, warn, error (default "info")

	Workers   int // query worker count (default 4)
	QueueSize int // pending query queue capacity (default 64)

	// Checkpointing. A cron expression; empty disables scheduled checkpoints.
	CheckpointSpec string

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default ["*"])
}

// fileConfig mirrors Config for the YAML file layer. Values from the file are
// applied first; environment variables override them.
type fileConfig struct {
	ListenAddr         string   `yaml:"listenAddr"`
	DataDir            string   `yaml:"dataDir"`
	LogLevel           string   `yaml:"logLevel"`
	Workers            int      `yaml:"workers"`
	QueueSize          int      `yaml:"queueSize"`
	CheckpointSpec     string   `yaml:"checkpointSpec"`
	RateLimitRPS       float64  `yaml:"rateLimitRps"`
	RateLimitBurst     int      `yaml:"rateLimitBurst"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds the configuration: YAML file (if filePath or CONFIG_FILE names
// one), then environment variables, then defaults.
func Load(filePath string) (*Config, error) {
	cfg := &Config{CheckpointSpec: "*/5 * * * *"}

	if filePath == "" {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if filePath != "" {
		if err := cfg.applyFile(filePath); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("WORKERS must be a positive integer, got %q", v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("QUEUE_SIZE must be a positive integer, got %q", v)
		}
		cfg.QueueSize = n
	}
	if v, ok := os.LookupEnv("CHECKPOINT_SPEC"); ok {
		cfg.CheckpointSpec = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 64
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.ListenAddr = fc.ListenAddr
	c.DataDir = fc.DataDir
	c.LogLevel = fc.LogLevel
	c.Workers = fc.Workers
	c.QueueSize = fc.QueueSize
	if fc.CheckpointSpec != "" {
		c.CheckpointSpec = fc.CheckpointSpec
	}
	c.RateLimitRPS = fc.RateLimitRPS
	c.RateLimitBurst = fc.RateLimitBurst
	c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	return nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines are KEY=VALUE; comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already set take precedence.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes when both ends
// match.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
