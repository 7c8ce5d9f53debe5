package config

import (
	"os"
	"strings"
	"time"
)

// DefaultCallTimeout matches the timeout realmd clients use for long
// calls.
const DefaultCallTimeout = 300 * time.Second

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBusDefaults(&cfg.Bus)
	applyOperationDefaults(&cfg.Operation)
	applyCredentialDefaults(&cfg.Credential)
	applyTelemetryDefaults(&cfg.Telemetry)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "WARN"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyBusDefaults(cfg *BusConfig) {
	if cfg.Type == "" {
		if cfg.Address != "" {
			cfg.Type = BusAddress
		} else {
			cfg.Type = BusSystem
		}
	}
	cfg.Type = strings.ToLower(cfg.Type)
}

func applyOperationDefaults(cfg *OperationConfig) {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
}

// applyCredentialDefaults sets credential defaults, honoring the
// REALMCTL_KINIT and KRB5_CONFIG overrides.
func applyCredentialDefaults(cfg *CredentialConfig) {
	if cfg.Mode == "" {
		cfg.Mode = CredentialModeCache
	}
	cfg.Mode = strings.ToLower(cfg.Mode)

	cfg.KinitCommand = resolveKinitCommand(cfg.KinitCommand)
	cfg.Krb5Conf = resolveKrb5ConfPath(cfg.Krb5Conf)
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// resolveKinitCommand resolves the kinit program.
//
// Resolution order (highest priority first):
//  1. REALMCTL_KINIT env var
//  2. configured value
//  3. Default: kinit (looked up in PATH)
func resolveKinitCommand(configured string) string {
	if env := os.Getenv("REALMCTL_KINIT"); env != "" {
		return env
	}
	if configured != "" {
		return configured
	}
	return "kinit"
}

// resolveKrb5ConfPath resolves the krb5.conf path.
//
// Resolution order (highest priority first):
//  1. configured value (REALMCTL_CREDENTIAL_KRB5_CONF lands here)
//  2. KRB5_CONFIG env var, first entry
//  3. Default: /etc/krb5.conf
func resolveKrb5ConfPath(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("KRB5_CONFIG"); env != "" {
		return strings.Split(env, ":")[0]
	}
	return "/etc/krb5.conf"
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
