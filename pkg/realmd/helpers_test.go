package realmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/pkg/bus"
	"github.com/marmos91/realmctl/pkg/bus/bustest"
)

var testRealm = RealmRef{
	BusName:   "org.freedesktop.realmd.Sssd",
	Path:      "/org/freedesktop/realmd/Sssd/example_com",
	Interface: KerberosRealmInterface,
}

var otherRealm = RealmRef{
	BusName:   "org.freedesktop.realmd.Samba",
	Path:      "/org/freedesktop/realmd/Samba/example_com",
	Interface: KerberosRealmInterface,
}

// realmsBody encodes refs the way they arrive from the bus: a(sos).
func realmsBody(refs ...RealmRef) [][]any {
	out := make([][]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, []any{r.BusName, r.Path, r.Interface})
	}
	return out
}

// newService returns a bus where Discover answers with refs and every ref
// is named "EXAMPLE.COM".
func newService(relevance int32, refs ...RealmRef) *bustest.Conn {
	conn := bustest.New()
	conn.HandleReply(ProviderInterface+".Discover", relevance, realmsBody(refs...))
	for _, r := range refs {
		conn.SetProperty(r.Object(), r.Interface, "Name", "EXAMPLE.COM")
	}
	return conn
}

func sequentialIDs() func() OperationID {
	var (
		mu sync.Mutex
		n  int
	)
	return func() OperationID {
		mu.Lock()
		defer mu.Unlock()
		n++
		return OperationID(fmt.Sprintf("op-%d", n))
	}
}

func diagnostics(path dbus.ObjectPath, text, id string) bus.Signal {
	body := []any{text}
	if id != "" {
		body = append(body, id)
	}
	return bus.Signal{
		Sender: ":1.42",
		Path:   path,
		Name:   ServiceInterface + "." + DiagnosticsSignal,
		Body:   body,
	}
}

// stubPrompter answers prompts from fixed values.
type stubPrompter struct {
	mu       sync.Mutex
	user     string
	password string
	err      error
	labels   []string
}

func (p *stubPrompter) Input(label string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels = append(p.labels, label)
	return p.user, p.err
}

func (p *stubPrompter) Password(label string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels = append(p.labels, label)
	return []byte(p.password), p.err
}

func (p *stubPrompter) Labels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.labels...)
}

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

// stubInitializer writes blob to the cache path, or fails with err.
type stubInitializer struct {
	blob      []byte
	err       error
	principal string
	path      string
	calls     int
}

func (s *stubInitializer) Name() string { return "kinit" }

func (s *stubInitializer) InitCache(_ context.Context, principal, path string) error {
	s.calls++
	s.principal = principal
	s.path = path
	if s.err != nil {
		return s.err
	}
	if s.blob == nil {
		return nil
	}
	return os.WriteFile(path, s.blob, 0600)
}

// countingAcquirer records whether credentials were requested.
type countingAcquirer struct {
	calls int
	cred  Credential
	err   error
}

func (a *countingAcquirer) Acquire(context.Context, string) (Credential, error) {
	a.calls++
	return a.cred, a.err
}

var errBoom = errors.New("boom")
