package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfigFile writes a temporary config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, "{}")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4041 {
		t.Errorf("default server.port = %d, want 4041", cfg.Server.Port)
	}
	if cfg.NGSI.Dialect != DialectV2 {
		t.Errorf("default ngsi.dialect = %q, want %q", cfg.NGSI.Dialect, DialectV2)
	}
	if cfg.Database.Path == "" {
		t.Error("default database.path should not be empty")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 7896
ngsi:
  dialect: "v1"
  default_type: "Device"
database:
  path: "/tmp/test-bridge.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7896 {
		t.Errorf("server.port = %d, want 7896", cfg.Server.Port)
	}
	if cfg.NGSI.Dialect != DialectV1 {
		t.Errorf("ngsi.dialect = %q, want v1", cfg.NGSI.Dialect)
	}
	if cfg.NGSI.DefaultType != "Device" {
		t.Errorf("ngsi.default_type = %q, want Device", cfg.NGSI.DefaultType)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 7896
`)

	t.Setenv("NGSIBRIDGE_SERVER_PORT", "9001")
	t.Setenv("NGSIBRIDGE_NGSI_DIALECT", "v1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("server.port = %d, want 9001 (env override)", cfg.Server.Port)
	}
	if cfg.NGSI.Dialect != DialectV1 {
		t.Errorf("ngsi.dialect = %q, want v1 (env override)", cfg.NGSI.Dialect)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			mutate:  func(c *Config) { c.NGSI.Dialect = "v3" },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "tls enabled without cert",
			mutate:  func(c *Config) { c.Server.TLS.Enabled = true },
			wantErr: true,
		},
		{
			name:    "zero device list limit",
			mutate:  func(c *Config) { c.NGSI.DeviceListLimit = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
