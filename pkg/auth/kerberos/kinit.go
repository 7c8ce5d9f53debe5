package kerberos

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/config"
)

// Kinit obtains a ticket-granting ticket by running the kinit program with
// KRB5CCNAME pointing at the requested cache file. kinit talks to the
// terminal itself, so the password never passes through realmctl.
type Kinit struct {
	// Command is the kinit program, looked up in PATH when not absolute.
	Command string
	// Args are passed before the principal.
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env is added to the inherited environment.
	Env []string

	// Krb5Conf, if set, is consulted before kinit runs.
	Krb5Conf string
}

// NewKinit builds a Kinit attached to the process's terminal.
func NewKinit(cfg *config.CredentialConfig) *Kinit {
	k := &Kinit{
		Command:  cfg.KinitCommand,
		Stdin:    os.Stdin,
		Stdout:   os.Stderr,
		Stderr:   os.Stderr,
		Krb5Conf: cfg.Krb5Conf,
	}
	if k.Command == "" {
		k.Command = "kinit"
	}
	if cfg.Krb5Conf != "" && os.Getenv("KRB5_CONFIG") == "" {
		k.Env = append(k.Env, "KRB5_CONFIG="+cfg.Krb5Conf)
	}
	return k
}

// Name returns the program name used in error messages.
func (k *Kinit) Name() string {
	return k.Command
}

// InitCache runs kinit for principal, writing the ticket to cachePath.
// A non-zero exit is returned as the *exec.ExitError so callers can read
// the exit code.
func (k *Kinit) InitCache(ctx context.Context, principal, cachePath string) error {
	if k.Krb5Conf != "" {
		k.checkRealm(principal)
	}

	args := append(append([]string{}, k.Args...), principal)
	cmd := exec.CommandContext(ctx, k.Command, args...)
	cmd.Stdin = k.Stdin
	cmd.Stdout = k.Stdout
	cmd.Stderr = k.Stderr
	cmd.Env = append(os.Environ(), k.Env...)
	cmd.Env = append(cmd.Env, "KRB5CCNAME=FILE:"+cachePath)

	logger.DebugCtx(ctx, "Running credential initialization",
		logger.KeyCommand, k.Command,
		logger.Principal(principal),
		logger.KeyCachePath, cachePath)

	if err := cmd.Run(); err != nil {
		if exit, ok := err.(*exec.ExitError); ok {
			logger.DebugCtx(ctx, "Credential initialization failed",
				logger.KeyCommand, k.Command,
				logger.KeyExitCode, exit.ExitCode())
			return exit
		}
		return fmt.Errorf("run %s: %w", k.Command, err)
	}
	return nil
}

// checkRealm warns when the principal's realm has no KDC in krb5.conf and
// DNS lookup of KDCs is disabled. kinit still runs.
func (k *Kinit) checkRealm(principal string) {
	at := strings.LastIndex(principal, "@")
	if at < 0 {
		return
	}
	realm := principal[at+1:]

	cfg, err := LoadKrb5Conf(k.Krb5Conf)
	if err != nil {
		logger.Debug("Kerberos configuration unavailable", logger.KeyError, err.Error())
		return
	}
	if !RealmKnown(cfg, realm) {
		logger.Warn("Realm has no KDC in the Kerberos configuration and DNS lookup is disabled",
			logger.KeyRealm, realm)
	}
}
