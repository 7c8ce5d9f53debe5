// Package config loads the realmctl configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority, applied by the commands)
//  2. Environment variables (REALMCTL_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// A configuration file is optional: realmctl runs with defaults when none
// exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// REALMCTL_OPERATION_CALL_TIMEOUT=60s.
const EnvPrefix = "REALMCTL"

// Config represents the realmctl configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Bus selects the message bus the realmd service is reached on
	Bus BusConfig `mapstructure:"bus" yaml:"bus" json:"bus"`

	// Operation bounds the calls made to the service
	Operation OperationConfig `mapstructure:"operation" yaml:"operation" json:"operation"`

	// Credential controls how join and leave authenticate
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential" json:"credential"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level" jsonschema:"enum=DEBUG,enum=INFO,enum=WARN,enum=ERROR"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format" jsonschema:"enum=text,enum=json"`

	// Output specifies where logs are written: stderr, stdout, or a file
	// path. Default: stderr (stdout carries command output)
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// Bus types.
const (
	BusSystem  = "system"
	BusSession = "session"
	BusAddress = "address"
)

// BusConfig selects the message bus.
type BusConfig struct {
	// Type is system (default), session, or address
	Type string `mapstructure:"type" validate:"required,oneof=system session address" yaml:"type" json:"type" jsonschema:"enum=system,enum=session,enum=address"`

	// Address is the bus address, required when Type is address.
	// Example: unix:path=/run/dbus/system_bus_socket
	Address string `mapstructure:"address" validate:"required_if=Type address" yaml:"address,omitempty" json:"address,omitempty"`
}

// OperationConfig bounds the calls made to the realmd service.
type OperationConfig struct {
	// CallTimeout is how long a discover, join or leave call may take.
	// Default: 300s
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0" yaml:"call_timeout" json:"call_timeout"`

	// CancelAfter asks the service to cancel the outstanding call once it
	// elapses. Zero disables the timer.
	CancelAfter time.Duration `mapstructure:"cancel_after" validate:"gte=0" yaml:"cancel_after,omitempty" json:"cancel_after,omitempty"`
}

// Credential modes.
const (
	CredentialModeCache    = "ccache"
	CredentialModePassword = "password"
)

// CredentialConfig controls how join and leave authenticate.
//
// Environment variable overrides beyond REALMCTL_CREDENTIAL_*:
//
//	REALMCTL_KINIT overrides KinitCommand
//	KRB5_CONFIG overrides Krb5Conf when neither is set explicitly
type CredentialConfig struct {
	// Mode is ccache (obtain a ticket with kinit and send the credential
	// cache) or password (send the password to the service).
	// Default: ccache
	Mode string `mapstructure:"mode" validate:"required,oneof=ccache password" yaml:"mode" json:"mode" jsonschema:"enum=ccache,enum=password"`

	// KinitCommand is the program run to obtain a ticket.
	// Default: kinit
	KinitCommand string `mapstructure:"kinit_command" validate:"required" yaml:"kinit_command" json:"kinit_command"`

	// CacheDir holds the short-lived credential cache of each run.
	// Default: $XDG_RUNTIME_DIR, /run/user/<uid>, or the temp directory
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`

	// Krb5Conf is the Kerberos configuration checked before kinit runs.
	// Default: /etc/krb5.conf
	Krb5Conf string `mapstructure:"krb5_conf" yaml:"krb5_conf,omitempty" json:"krb5_conf,omitempty"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure" json:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`
}

// MetricsConfig controls Prometheus metrics collection.
// realmctl is short-lived, so metrics are written once at exit in the
// node_exporter textfile format instead of being served.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Textfile is the .prom file written at exit.
	// Example: /var/lib/node_exporter/textfile_collector/realmctl.prom
	Textfile string `mapstructure:"textfile" validate:"required_if=Enabled true" yaml:"textfile,omitempty" json:"textfile,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal even without a file so REALMCTL_* variables apply
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about
	for _, key := range configKeys() {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath("/etc/realmctl")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// configKeys lists the dotted mapstructure keys of Config.
func configKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
			if name == "" {
				continue
			}
			key := prefix + name
			if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
				walk(f.Type, key+".")
				continue
			}
			keys = append(keys, key)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h". Bare numbers are seconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return time.Duration(0), nil
			}
			return time.ParseDuration(v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/realmctl, else ~/.config/realmctl,
// else the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "realmctl")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "realmctl")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
