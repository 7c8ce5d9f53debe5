// Package cmdutil provides shared utilities for realmctl commands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marmos91/realmctl/internal/cli/output"
	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/internal/telemetry"
	"github.com/marmos91/realmctl/pkg/bus"
	"github.com/marmos91/realmctl/pkg/bus/dbusconn"
	"github.com/marmos91/realmctl/pkg/config"
	"github.com/marmos91/realmctl/pkg/metrics"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	NoColor    bool
	Verbose    bool
}

// ExitError ends the process with Code. Err, when set and not Reported,
// is printed by main.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Failure returns an ExitError with status 1 for an error already shown
// to the user.
func Failure(err error) *ExitError {
	return &ExitError{Code: 1, Err: err, Reported: true}
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsVerbose returns whether service diagnostics are shown.
func IsVerbose() bool {
	return Flags.Verbose
}

// Stdout and Stderr receive command results and status lines.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// NewPrinter returns a printer for the --output and --no-color flags.
func NewPrinter() (*output.Printer, error) {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return nil, err
	}
	if Stdout == io.Writer(os.Stdout) && Stderr == io.Writer(os.Stderr) {
		return output.DefaultPrinter(format, Flags.NoColor), nil
	}
	return output.NewPrinter(Stdout, Stderr, format, false), nil
}

// LoadConfig loads the configuration named by --config.
func LoadConfig() (*config.Config, error) {
	return config.Load(Flags.ConfigFile)
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		NoColor: Flags.NoColor,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Session is what a command talking to realmd needs: configuration, a bus
// connection, optional metrics and a printer.
type Session struct {
	Config  *config.Config
	Conn    bus.Conn
	Metrics metrics.RealmMetrics
	Printer *output.Printer

	telemetryShutdown func(context.Context) error
}

// Dial connects to the bus selected in cfg.
var Dial = func(ctx context.Context, cfg *config.Config) (bus.Conn, error) {
	return dbusconn.Dial(ctx, dbusconn.Options{Type: cfg.Bus.Type, Address: cfg.Bus.Address})
}

// NewSession loads configuration, initializes logging, telemetry and
// metrics, and connects to the bus.
func NewSession(ctx context.Context, version string) (*Session, error) {
	printer, err := NewPrinter()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	s := &Session{Config: cfg, Printer: printer}

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "realmctl",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	s.telemetryShutdown, err = telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		s.Metrics = metrics.NewRealmMetrics()
	}

	conn, err := Dial(ctx, cfg)
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("couldn't connect to realm service: %w", err)
	}
	s.Conn = conn

	logger.Debug("Configuration loaded",
		"bus", cfg.Bus.Type, "call_timeout", cfg.Operation.CallTimeout, "credential_mode", cfg.Credential.Mode)
	return s, nil
}

// Close disconnects and flushes metrics and traces.
func (s *Session) Close(ctx context.Context) {
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			logger.Debug("Bus close error", logger.Err(err))
		}
	}
	if s.Config != nil && s.Config.Metrics.Enabled {
		if err := metrics.WriteTextfile(s.Config.Metrics.Textfile); err != nil {
			logger.Warn("Metrics not written", logger.Err(err))
		}
	}
	if s.telemetryShutdown != nil {
		if err := s.telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}
	_ = logger.Close()
}

// OnInterrupt calls fn for every SIGINT or SIGTERM until the returned stop
// function is called.
func OnInterrupt(fn func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigChan:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// ParseCommaSeparatedList parses a comma-separated string into a slice of trimmed strings.
// Returns nil if input is empty.
func ParseCommaSeparatedList(input string) []string {
	if input == "" {
		return nil
	}

	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value if not empty, otherwise returns fallback.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
