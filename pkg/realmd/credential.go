package realmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/realmctl/internal/logger"
)

// CredentialKind names how a credential proves the user's identity.
type CredentialKind string

const (
	CredentialPassword CredentialKind = "password"
	CredentialCache    CredentialKind = "ccache"
)

// Credential is what enrollment authenticates with. Implementations are
// PasswordCredential and CacheCredential.
type Credential interface {
	Kind() CredentialKind
	// Wipe zeroes the secret material. The credential is unusable
	// afterwards.
	Wipe()

	credential()
}

// PasswordCredential is a principal and its password. The password is
// never printed or logged.
type PasswordCredential struct {
	Principal string
	password  []byte
}

// NewPasswordCredential returns a credential holding a copy of password.
func NewPasswordCredential(principal string, password []byte) *PasswordCredential {
	return &PasswordCredential{Principal: principal, password: append([]byte(nil), password...)}
}

func (*PasswordCredential) Kind() CredentialKind { return CredentialPassword }
func (*PasswordCredential) credential()          {}

// Password returns the password as sent on the bus.
func (c *PasswordCredential) Password() string { return string(c.password) }

func (c *PasswordCredential) Wipe() {
	clear(c.password)
	c.password = nil
}

func (c *PasswordCredential) String() string {
	return c.Principal + " (password)"
}

// LogValue keeps the password out of structured logs.
func (c *PasswordCredential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(CredentialPassword)),
		slog.String(logger.KeyPrincipal, c.Principal),
	)
}

// CacheCredential is the content of a Kerberos credential cache, passed
// to the service unmodified.
type CacheCredential struct {
	Principal string
	blob      []byte
}

// NewCacheCredential wraps blob without copying it.
func NewCacheCredential(principal string, blob []byte) *CacheCredential {
	return &CacheCredential{Principal: principal, blob: blob}
}

func (*CacheCredential) Kind() CredentialKind { return CredentialCache }
func (*CacheCredential) credential()          {}

// Bytes returns the cache content.
func (c *CacheCredential) Bytes() []byte { return c.blob }

func (c *CacheCredential) Wipe() {
	clear(c.blob)
	c.blob = nil
}

func (c *CacheCredential) String() string {
	return fmt.Sprintf("%s (ccache, %d bytes)", c.Principal, len(c.blob))
}

// LogValue keeps the cache content out of structured logs.
func (c *CacheCredential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(CredentialCache)),
		slog.String(logger.KeyPrincipal, c.Principal),
		slog.Int("size", len(c.blob)),
	)
}

// Prompter asks the user for input.
type Prompter interface {
	// Input reads a line of visible input.
	Input(label string) (string, error)
	// Password reads input without echoing it.
	Password(label string) ([]byte, error)
}

// Acquirer obtains a credential for principal.
type Acquirer interface {
	Acquire(ctx context.Context, principal string) (Credential, error)
}

// NormalizePrincipal qualifies user with realm unless it already names
// one.
func NormalizePrincipal(user, realm string) string {
	if strings.Contains(user, "@") || realm == "" {
		return user
	}
	return user + "@" + realm
}

// PasswordAcquirer asks for the password interactively. An empty answer
// or an aborted prompt cancels the run.
type PasswordAcquirer struct {
	Prompter Prompter
}

func (a *PasswordAcquirer) Acquire(_ context.Context, principal string) (Credential, error) {
	password, err := a.Prompter.Password("Password for " + principal)
	if err != nil {
		if errors.Is(err, ErrUserCancelled) {
			return nil, ErrUserCancelled
		}
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return nil, ErrUserCancelled
	}

	cred := NewPasswordCredential(principal, password)
	clear(password)
	return cred, nil
}

// TicketInitializer obtains a ticket for principal into a credential cache
// file, typically by running kinit.
type TicketInitializer interface {
	Name() string
	InitCache(ctx context.Context, principal, cachePath string) error
}

// CacheAcquirer runs a TicketInitializer into a private cache file, reads
// the cache and removes the file.
type CacheAcquirer struct {
	Init TicketInitializer
	// Dir holds the per-run cache directories. Empty means
	// RuntimeDir().
	Dir string
	// Inspect, if set, is given the cache before it is returned. It only
	// observes; an error is logged and otherwise ignored.
	Inspect func(blob []byte) (string, error)
}

func (a *CacheAcquirer) Acquire(ctx context.Context, principal string) (Credential, error) {
	base := a.Dir
	if base == "" {
		base = RuntimeDir()
	}

	// One private directory per run.
	dir, err := os.MkdirTemp(base, "realmctl-ccache-")
	if err != nil {
		return nil, fmt.Errorf("failed to create credential cache directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove credential cache", logger.KeyCachePath, dir, logger.KeyError, err)
		}
	}()
	path := filepath.Join(dir, "ccache")

	logger.DebugCtx(ctx, "Initializing credential cache",
		logger.KeyCommand, a.Init.Name(), logger.KeyPrincipal, principal, logger.KeyCachePath, path)

	if err := a.Init.InitCache(ctx, principal, path); err != nil {
		step := &ExternalStepError{Command: a.Init.Name(), Err: err}
		var exit interface{ ExitCode() int }
		if errors.As(err, &exit) {
			step.ExitCode = exit.ExitCode()
		}
		return nil, step
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExternalStepError{Command: a.Init.Name(), Err: fmt.Errorf("no credential cache produced: %w", err)}
	}

	if a.Inspect != nil {
		if p, err := a.Inspect(blob); err != nil {
			logger.DebugCtx(ctx, "Could not parse credential cache", logger.KeyError, err)
		} else {
			logger.DebugCtx(ctx, "Credential cache ready", logger.KeyPrincipal, p, "size", len(blob))
		}
	}

	return NewCacheCredential(principal, blob), nil
}

// RuntimeDir returns the directory for short-lived private files:
// $XDG_RUNTIME_DIR, else /run/user/<uid>, else the temp directory.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	if dir := userRunDir(); dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir
		}
	}
	return os.TempDir()
}
