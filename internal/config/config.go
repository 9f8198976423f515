package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Audit    AuditConfig    `toml:"audit"`
	Auth     AuthConfig     `toml:"auth"`
}

type ServerConfig struct {
	Transport string `toml:"transport"` // "stdio" or "http"
	Addr      string `toml:"addr"`
}

type DatabaseConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Database           string `toml:"database"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	ConnMaxLifetimeMin int    `toml:"conn_max_lifetime_min"`
}

type AuditConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type AuthConfig struct {
	Enabled        bool   `toml:"enabled"`
	JWTSecret      string `toml:"jwt_secret"`
	TokenExpiryMin int    `toml:"token_expiry_min"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "stdio",
			Addr:      ":8443",
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               1433,
			MaxOpenConns:       10,
			MaxIdleConns:       10,
			ConnMaxLifetimeMin: 30,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "data/audit.db",
		},
		Auth: AuthConfig{
			Enabled:        false,
			JWTSecret:      "change-me-in-production",
			TokenExpiryMin: 1440, // 24h
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the DB password live outside the config file.
func (c *Config) applyEnv() {
	if pw := os.Getenv("SQLBRIDGE_DB_PASSWORD"); pw != "" {
		c.Database.Password = pw
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port is invalid")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be stdio or http, got %q", c.Server.Transport)
	}
	return nil
}
