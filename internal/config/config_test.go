package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("transport: got %q, want stdio", cfg.Server.Transport)
	}
	if cfg.Database.Port != 1433 {
		t.Errorf("port: got %d, want 1433", cfg.Database.Port)
	}
	if !cfg.Audit.Enabled {
		t.Error("audit should default to enabled")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
transport = "http"
addr = ":9000"

[database]
host = "db.internal"
user = "svc"
database = "Orders"

[auth]
enabled = true
jwt_secret = "s3cret"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Addr != ":9000" {
		t.Errorf("server: got %+v", cfg.Server)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Database != "Orders" {
		t.Errorf("database: got %+v", cfg.Database)
	}
	// unset keys keep defaults
	if cfg.Database.Port != 1433 {
		t.Errorf("port: got %d, want default 1433", cfg.Database.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestPasswordEnvOverride(t *testing.T) {
	t.Setenv("SQLBRIDGE_DB_PASSWORD", "from-env")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("password: got %q", cfg.Database.Password)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) { c.Database.User = "svc" }, true},
		{"missing user", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Database.User = "svc"; c.Database.Port = 0 }, false},
		{"bad transport", func(c *Config) { c.Database.User = "svc"; c.Server.Transport = "quic" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}
