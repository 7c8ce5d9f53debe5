package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected default log level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default log output 'stderr', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Bus(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Bus.Type != BusSystem {
		t.Errorf("Expected default bus 'system', got %q", cfg.Bus.Type)
	}

	cfg = &Config{Bus: BusConfig{Address: "unix:path=/tmp/bus"}}
	ApplyDefaults(cfg)
	if cfg.Bus.Type != BusAddress {
		t.Errorf("Expected an address to imply bus 'address', got %q", cfg.Bus.Type)
	}
}

func TestApplyDefaults_Operation(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Operation.CallTimeout != 300*time.Second {
		t.Errorf("Expected default call timeout 300s, got %v", cfg.Operation.CallTimeout)
	}
	if cfg.Operation.CancelAfter != 0 {
		t.Errorf("Expected cancel timer disabled by default, got %v", cfg.Operation.CancelAfter)
	}
}

func TestApplyDefaults_Credential(t *testing.T) {
	t.Setenv("REALMCTL_KINIT", "")
	t.Setenv("KRB5_CONFIG", "")

	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Credential.Mode != CredentialModeCache {
		t.Errorf("Expected default mode 'ccache', got %q", cfg.Credential.Mode)
	}
	if cfg.Credential.KinitCommand != "kinit" {
		t.Errorf("Expected default kinit command, got %q", cfg.Credential.KinitCommand)
	}
	if cfg.Credential.Krb5Conf != "/etc/krb5.conf" {
		t.Errorf("Expected default krb5.conf, got %q", cfg.Credential.Krb5Conf)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	t.Setenv("REALMCTL_KINIT", "")

	cfg := &Config{
		Logging:    LoggingConfig{Level: "debug", Format: "json", Output: "stdout"},
		Operation:  OperationConfig{CallTimeout: time.Minute},
		Credential: CredentialConfig{Mode: "PASSWORD", KinitCommand: "/bin/kinit"},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected explicit output kept, got %q", cfg.Logging.Output)
	}
	if cfg.Operation.CallTimeout != time.Minute {
		t.Errorf("Expected explicit call timeout kept, got %v", cfg.Operation.CallTimeout)
	}
	if cfg.Credential.Mode != CredentialModePassword {
		t.Errorf("Expected mode normalized to 'password', got %q", cfg.Credential.Mode)
	}
	if cfg.Credential.KinitCommand != "/bin/kinit" {
		t.Errorf("Expected explicit kinit kept, got %q", cfg.Credential.KinitCommand)
	}
}

func TestResolveKinitCommand(t *testing.T) {
	t.Setenv("REALMCTL_KINIT", "/opt/heimdal/bin/kinit")

	if got := resolveKinitCommand("/bin/kinit"); got != "/opt/heimdal/bin/kinit" {
		t.Errorf("Expected env override, got %q", got)
	}
}

func TestResolveKrb5ConfPath(t *testing.T) {
	t.Setenv("KRB5_CONFIG", "/etc/krb5.first:/etc/krb5.second")

	if got := resolveKrb5ConfPath(""); got != "/etc/krb5.first" {
		t.Errorf("Expected first KRB5_CONFIG entry, got %q", got)
	}
	if got := resolveKrb5ConfPath("/custom/krb5.conf"); got != "/custom/krb5.conf" {
		t.Errorf("Expected configured path to win, got %q", got)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Enabled {
		t.Error("Expected telemetry disabled by default")
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default endpoint, got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}
