package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"freightops/internal/logging"
)

type Config struct {
	// Database
	DatabaseURL    string
	DBMaxConns     int32
	MigrateOnStart bool

	// HTTP server
	ServerPort       string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Printing is an external service reached by URL only.
	PrintServiceURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "")),
		PrintServiceURL: strings.TrimRight(getEnv("PRINT_SERVICE_URL", ""), "/"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}

	var err error
	if c.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if c.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	maxConns, err := getInt("DB_MAX_CONNS", 0)
	if err != nil {
		return nil, err
	}
	c.DBMaxConns = int32(maxConns)
	if c.MigrateOnStart, err = getBool("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("SERVER_PORT must be numeric, got %q", c.ServerPort)
	}
	if c.DBMaxConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// LoggerConfig returns the logging configuration.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
