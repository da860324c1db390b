package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
}

// Environment overrides must apply even when no config file exists.
func TestLoadEnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("POLYD_LOGGING_LEVEL", "DEBUG")
	t.Setenv("POLYD_SERVER_PORT", "4242")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG (env override)", cfg.Logging.Level)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("Server.Port = %d, want 4242 (env override)", cfg.Server.Port)
	}
	// Untouched fields still pick up defaults.
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
}

func TestMustLoadEnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("POLYD_LOGGING_LEVEL", "WARN")

	cfg, err := MustLoad("")
	if err != nil {
		t.Fatalf("MustLoad() returned error: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Logging.Level = %q, want WARN (env override)", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 4444
  read_timeout: 30s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 4444 {
		t.Errorf("Server.Port = %d, want 4444", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	// Level is normalized to uppercase.
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	// Unspecified fields fall back to defaults.
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("Server.IdleTimeout = %v, want 60s", cfg.Server.IdleTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)
	t.Setenv("POLYD_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Logging.Level = %q, want ERROR (env override)", cfg.Logging.Level)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() succeeded on malformed YAML")
	}
}

func TestMustLoadMissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("MustLoad() succeeded for a missing explicit file")
	}
	if !strings.Contains(err.Error(), "polyd init") {
		t.Errorf("error %q does not suggest polyd init", err)
	}
}

func TestMustLoadNoDefaultFileRunsOnDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := MustLoad("")
	if err != nil {
		t.Fatalf("MustLoad() returned error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.Port = 5555
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of saved config returned error: %v", err)
	}
	if loaded.Server.Port != 5555 {
		t.Errorf("round-tripped Server.Port = %d, want 5555", loaded.Server.Port)
	}
}

func TestInitConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig() returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read generated config: %v", err)
	}
	for _, section := range []string{"# polyd Configuration File", "server:", "logging:", "metrics:", "telemetry:"} {
		if !strings.Contains(string(content), section) {
			t.Errorf("generated config missing %q", section)
		}
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		t.Errorf("generated config is not valid YAML: %v", err)
	}

	// A second init must refuse to overwrite without force.
	if _, err := InitConfig(false); err == nil {
		t.Error("InitConfig() overwrote an existing file without --force")
	}
	if _, err := InitConfig(true); err != nil {
		t.Errorf("InitConfig(force) returned error: %v", err)
	}
}
