package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds the process configuration read from the environment
type Config struct {
	JWTSecret    string `env:"JWT_SECRET,required,notEmpty"`
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"postgres"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	GinMode      string `env:"GIN_MODE" envDefault:"release"`

	DB DBConfig
}

// DBConfig holds database connection parameters
type DBConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
}

// DSN returns DATABASE_URL when set, otherwise a keyword DSN built from the DB_* parts
func (c DBConfig) DSN() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	if c.Host == "" || c.User == "" || c.Name == "" {
		return "", errors.New("database environment variables not set (DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name), nil
}

// Load reads an optional .env file and parses the environment into a Config
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, relying on environment variables", "error", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if _, err := cfg.DB.DSN(); err != nil {
			return nil, err
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %q or %q)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	return &cfg, nil
}
