package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got %q", cfg.Logging.Output)
	}
	if cfg.Bus.Type != BusSystem {
		t.Errorf("Expected default bus 'system', got %q", cfg.Bus.Type)
	}
	if cfg.Operation.CallTimeout != 300*time.Second {
		t.Errorf("Expected default call timeout 300s, got %v", cfg.Operation.CallTimeout)
	}
	if cfg.Credential.Mode != CredentialModeCache {
		t.Errorf("Expected default credential mode 'ccache', got %q", cfg.Credential.Mode)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, `
logging:
  level: DEBUG
  format: json
  output: "`+yamlSafePath(tmpDir)+`/realmctl.log"
bus:
  type: session
operation:
  call_timeout: 45s
  cancel_after: 2m
credential:
  mode: password
  kinit_command: /usr/local/bin/kinit
  cache_dir: "`+yamlSafePath(tmpDir)+`"
  krb5_conf: /opt/krb5.conf
metrics:
  enabled: true
  textfile: "`+yamlSafePath(tmpDir)+`/realmctl.prom"
`)
	t.Setenv("REALMCTL_KINIT", "")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Bus.Type != BusSession {
		t.Errorf("Expected bus 'session', got %q", cfg.Bus.Type)
	}
	if cfg.Operation.CallTimeout != 45*time.Second {
		t.Errorf("Expected call timeout 45s, got %v", cfg.Operation.CallTimeout)
	}
	if cfg.Operation.CancelAfter != 2*time.Minute {
		t.Errorf("Expected cancel_after 2m, got %v", cfg.Operation.CancelAfter)
	}
	if cfg.Credential.Mode != CredentialModePassword {
		t.Errorf("Expected mode 'password', got %q", cfg.Credential.Mode)
	}
	if cfg.Credential.KinitCommand != "/usr/local/bin/kinit" {
		t.Errorf("Expected kinit command from file, got %q", cfg.Credential.KinitCommand)
	}
	if cfg.Credential.Krb5Conf != "/opt/krb5.conf" {
		t.Errorf("Expected krb5_conf from file, got %q", cfg.Credential.Krb5Conf)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled")
	}
}

func TestLoad_NumericDuration(t *testing.T) {
	configPath := writeConfig(t, `
operation:
  call_timeout: 90
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Operation.CallTimeout != 90*time.Second {
		t.Errorf("Expected bare number as seconds, got %v", cfg.Operation.CallTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
credential:
  mode: ccache
`)
	t.Setenv("REALMCTL_CREDENTIAL_MODE", "password")
	t.Setenv("REALMCTL_OPERATION_CALL_TIMEOUT", "10s")
	t.Setenv("REALMCTL_BUS_ADDRESS", "unix:path=/tmp/bus")
	t.Setenv("REALMCTL_BUS_TYPE", "address")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Credential.Mode != CredentialModePassword {
		t.Errorf("Expected env to override mode, got %q", cfg.Credential.Mode)
	}
	if cfg.Operation.CallTimeout != 10*time.Second {
		t.Errorf("Expected env call timeout 10s, got %v", cfg.Operation.CallTimeout)
	}
	if cfg.Bus.Type != BusAddress || cfg.Bus.Address != "unix:path=/tmp/bus" {
		t.Errorf("Expected address bus from env, got %+v", cfg.Bus)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults without a config file, got: %v", err)
	}
	if cfg.Operation.CallTimeout != DefaultCallTimeout {
		t.Errorf("Expected default call timeout, got %v", cfg.Operation.CallTimeout)
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
credential:
  mode: smartcard
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected validation error for unknown credential mode")
	}
	if !strings.Contains(err.Error(), "Credential.Mode") {
		t.Errorf("Expected error to name the field, got: %v", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "logging: [unterminated\n")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Operation.CancelAfter = 30 * time.Second

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Operation.CancelAfter != 30*time.Second {
		t.Errorf("Expected cancel_after to survive a save, got %v", loaded.Operation.CancelAfter)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "realmctl", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if DefaultConfigExists() {
		t.Error("Expected no config in a fresh directory")
	}

	if err := SaveConfig(GetDefaultConfig(), want); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if !DefaultConfigExists() {
		t.Error("Expected the saved config to be found")
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"call_timeout"`, `"kinit_command"`, `"realmctl Configuration"`, `"ccache"`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected schema to contain %s", want)
		}
	}
}
