package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int           `yaml:"port"`
	DatabaseURL   string        `yaml:"database_url"`
	DatabaseType  string        `yaml:"database_type"`
	SessionSecret string        `yaml:"session_secret"`
	BaseURL       string        `yaml:"base_url"`
	StoreTimeout  time.Duration `yaml:"store_timeout"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`

	ConfigFile string `yaml:"-"`
	EnvFile    string `yaml:"-"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	return Config{
		Port:         3318,
		DatabaseType: "sqlite",
		BaseURL:      "http://localhost:3318",
		StoreTimeout: 5 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// ParseFlags builds the config. Precedence: flags > env (including .env) > YAML file > defaults
func ParseFlags(args []string) (Config, error) {
	var flags Config
	var corsOrigins string

	fs := flag.NewFlagSet("scanvote", flag.ContinueOnError)

	fs.StringVar(&flags.ConfigFile, "c", "", "YAML config file")
	fs.StringVar(&flags.EnvFile, "env", ".env", "dotenv file (ignored if missing)")

	// Network config (can be CLI args or env)
	fs.IntVar(&flags.Port, "p", 0, "Server port")
	fs.StringVar(&flags.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flags.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&flags.BaseURL, "base-url", "", "Public base URL used in poll links")
	fs.DurationVar(&flags.StoreTimeout, "store-timeout", 0, "Per-transaction database timeout")
	fs.StringVar(&corsOrigins, "cors", "", "Comma-separated allowed CORS origins")
	fs.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&flags.LogFormat, "log-format", "", "Log format (text or json)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flags.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(flags.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	cfg.ConfigFile = flags.ConfigFile
	cfg.EnvFile = flags.EnvFile

	if cfg.ConfigFile != "" {
		if err := loadYAML(cfg.ConfigFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	// Only flags given on the command line override
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flags.Port
		case "d":
			cfg.DatabaseURL = flags.DatabaseURL
		case "t":
			cfg.DatabaseType = flags.DatabaseType
		case "base-url":
			cfg.BaseURL = flags.BaseURL
		case "store-timeout":
			cfg.StoreTimeout = flags.StoreTimeout
		case "cors":
			cfg.CORSOrigins = splitList(corsOrigins)
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "session-secret":
			cfg.SessionSecret = flags.SessionSecret
		}
	})

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel returns the configured level. validate guarantees it parses
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.DatabaseType {
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "scanvote.db"
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	default:
		return fmt.Errorf("unsupported database type %q (use sqlite or postgres)", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET required")
	}

	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		return errors.New("base URL required")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q (use text or json)", c.LogFormat)
	}

	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	// godotenv.Load never overrides variables already set in the environment
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Fall back to environment variables
func applyEnv(cfg *Config) error {
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid STORE_TIMEOUT env variable")
		}
		cfg.StoreTimeout = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	for env, dst := range map[string]*string{
		"DATABASE_URL":   &cfg.DatabaseURL,
		"DATABASE_TYPE":  &cfg.DatabaseType,
		"SESSION_SECRET": &cfg.SessionSecret,
		"BASE_URL":       &cfg.BaseURL,
		"LOG_LEVEL":      &cfg.LogLevel,
		"LOG_FORMAT":     &cfg.LogFormat,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
