package realmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrincipal(t *testing.T) {
	tests := []struct {
		user, realm, want string
	}{
		{"admin", "EXAMPLE.COM", "admin@EXAMPLE.COM"},
		{"admin@OTHER.ORG", "EXAMPLE.COM", "admin@OTHER.ORG"},
		{"admin", "", "admin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePrincipal(tt.user, tt.realm))
	}
}

func TestPasswordCredential(t *testing.T) {
	cred := NewPasswordCredential("admin@EXAMPLE.COM", []byte("hunter2"))

	assert.Equal(t, CredentialPassword, cred.Kind())
	assert.Equal(t, "hunter2", cred.Password())
	assert.NotContains(t, cred.String(), "hunter2")
	assert.NotContains(t, fmt.Sprintf("%v", cred), "hunter2")
	assert.NotContains(t, cred.LogValue().String(), "hunter2")
	assert.Equal(t, slog.KindGroup, cred.LogValue().Kind())

	cred.Wipe()
	assert.Empty(t, cred.Password())
}

func TestPasswordAcquirer(t *testing.T) {
	ctx := context.Background()

	t.Run("Prompts", func(t *testing.T) {
		p := &stubPrompter{password: "hunter2"}
		cred, err := (&PasswordAcquirer{Prompter: p}).Acquire(ctx, "admin@EXAMPLE.COM")
		require.NoError(t, err)

		pw, ok := cred.(*PasswordCredential)
		require.True(t, ok)
		assert.Equal(t, "admin@EXAMPLE.COM", pw.Principal)
		assert.Equal(t, "hunter2", pw.Password())
		assert.Equal(t, []string{"Password for admin@EXAMPLE.COM"}, p.Labels())
	})

	t.Run("EmptyPasswordCancels", func(t *testing.T) {
		_, err := (&PasswordAcquirer{Prompter: &stubPrompter{}}).Acquire(ctx, "admin@EXAMPLE.COM")
		assert.ErrorIs(t, err, ErrUserCancelled)
	})

	t.Run("InterruptCancels", func(t *testing.T) {
		p := &stubPrompter{err: fmt.Errorf("prompt: %w", ErrUserCancelled)}
		_, err := (&PasswordAcquirer{Prompter: p}).Acquire(ctx, "admin@EXAMPLE.COM")
		assert.ErrorIs(t, err, ErrUserCancelled)
	})

	t.Run("PromptFailure", func(t *testing.T) {
		p := &stubPrompter{err: errBoom}
		_, err := (&PasswordAcquirer{Prompter: p}).Acquire(ctx, "admin@EXAMPLE.COM")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserCancelled)
	})
}

func TestCacheAcquirer(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsCacheAndRemovesIt", func(t *testing.T) {
		dir := t.TempDir()
		blob := []byte{0x05, 0x04, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef}
		init := &stubInitializer{blob: blob}
		var inspected []byte

		a := &CacheAcquirer{Init: init, Dir: dir, Inspect: func(b []byte) (string, error) {
			inspected = append([]byte(nil), b...)
			return "admin@EXAMPLE.COM", nil
		}}
		cred, err := a.Acquire(ctx, "admin@EXAMPLE.COM")
		require.NoError(t, err)

		cc, ok := cred.(*CacheCredential)
		require.True(t, ok)
		assert.Equal(t, blob, cc.Bytes())
		assert.Equal(t, blob, inspected)
		assert.Equal(t, "admin@EXAMPLE.COM", init.principal)
		assert.True(t, strings.HasPrefix(init.path, dir))

		_, err = os.Stat(filepath.Dir(init.path))
		assert.True(t, os.IsNotExist(err), "cache directory left behind")
	})

	t.Run("UniquePathPerRun", func(t *testing.T) {
		dir := t.TempDir()
		first := &stubInitializer{blob: []byte("a")}
		second := &stubInitializer{blob: []byte("b")}

		_, err := (&CacheAcquirer{Init: first, Dir: dir}).Acquire(ctx, "admin")
		require.NoError(t, err)
		_, err = (&CacheAcquirer{Init: second, Dir: dir}).Acquire(ctx, "admin")
		require.NoError(t, err)

		assert.NotEqual(t, first.path, second.path)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		dir := t.TempDir()
		init := &stubInitializer{err: exitError(1)}

		_, err := (&CacheAcquirer{Init: init, Dir: dir}).Acquire(ctx, "admin@EXAMPLE.COM")
		var step *ExternalStepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, "kinit", step.Command)
		assert.Equal(t, 1, step.ExitCode)
		assert.Equal(t, "kinit exited with status 1", err.Error())
		assert.Equal(t, KindExternalStep, Classify(err))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("NoCacheWritten", func(t *testing.T) {
		_, err := (&CacheAcquirer{Init: &stubInitializer{}, Dir: t.TempDir()}).Acquire(ctx, "admin")
		var step *ExternalStepError
		require.ErrorAs(t, err, &step)
		assert.Zero(t, step.ExitCode)
	})

	t.Run("InspectFailureIgnored", func(t *testing.T) {
		a := &CacheAcquirer{
			Init:    &stubInitializer{blob: []byte("opaque")},
			Dir:     t.TempDir(),
			Inspect: func([]byte) (string, error) { return "", errBoom },
		}
		cred, err := a.Acquire(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, []byte("opaque"), cred.(*CacheCredential).Bytes())
	})
}

func TestCacheCredential(t *testing.T) {
	cred := NewCacheCredential("admin@EXAMPLE.COM", []byte("secret-ticket"))
	assert.Equal(t, CredentialCache, cred.Kind())
	assert.NotContains(t, cred.String(), "secret-ticket")
	assert.NotContains(t, cred.LogValue().String(), "secret-ticket")

	cred.Wipe()
	assert.Nil(t, cred.Bytes())
}

func TestRuntimeDir(t *testing.T) {
	t.Run("XDGRuntimeDir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_RUNTIME_DIR", dir)
		assert.Equal(t, dir, RuntimeDir())
	})

	t.Run("Fallback", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "")
		assert.NotEmpty(t, RuntimeDir())
	})
}
