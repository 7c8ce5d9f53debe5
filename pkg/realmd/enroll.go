package realmd

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/bus"
)

// Action is what a run does to the machine's membership.
type Action int

const (
	ActionEnroll Action = iota
	ActionUnenroll
)

func (a Action) String() string {
	if a == ActionUnenroll {
		return "unenroll"
	}
	return "enroll"
}

// PastTense returns the phrase used to report success.
func (a Action) PastTense() string {
	if a == ActionUnenroll {
		return "Unenrolled from"
	}
	return "Enrolled in"
}

// Option keys understood by realmd for enroll calls.
const (
	OptionComputerOU         = "computer-ou"
	OptionClientSoftware     = "client-software"
	OptionServerSoftware     = "server-software"
	OptionMembershipSoftware = "membership-software"
)

// Options are passed through to the enroll or unenroll call as a{sv}.
// Keys the service does not know are forwarded as well.
type Options map[string]dbus.Variant

// Set stores a string option. Empty values are skipped.
func (o Options) Set(key, value string) Options {
	if value != "" {
		o[key] = dbus.MakeVariant(value)
	}
	return o
}

// Executor sends the final enroll or unenroll call.
type Executor struct {
	Conn bus.Conn
	// Timeout bounds each call. Zero means DefaultCallTimeout.
	Timeout time.Duration
}

// Method returns the fully qualified method used for action with cred.
func Method(ref RealmRef, action Action, cred Credential) string {
	iface := ref.Interface
	if iface == "" {
		iface = KerberosRealmInterface
	}

	name := "Enroll"
	if action == ActionUnenroll {
		name = "Unenroll"
	}
	if cred.Kind() == CredentialCache {
		return iface + "." + name + "WithCredentialCache"
	}
	return iface + "." + name + "WithPassword"
}

// Execute performs action on realm with cred. The Future resolves once,
// with nil or an *EnrollmentError carrying the service's error.
func (e *Executor) Execute(ctx context.Context, action Action, realm RealmRef, cred Credential, opts Options, id OperationID) *bus.Future[struct{}] {
	if opts == nil {
		opts = Options{}
	}
	method := Method(realm, action, cred)

	var args []any
	switch c := cred.(type) {
	case *PasswordCredential:
		args = []any{c.Principal, c.Password(), map[string]dbus.Variant(opts), string(id)}
	case *CacheCredential:
		args = []any{c.Bytes(), map[string]dbus.Variant(opts), string(id)}
	default:
		return bus.Failed[struct{}](&EnrollmentError{Action: action, Err: fmt.Errorf("unsupported credential %T", cred)})
	}

	logger.DebugCtx(ctx, "Sending membership call",
		logger.KeyMethod, method, logger.KeyRealmPath, realm.Path, logger.KeyOperationID, id, logger.KeyCredential, cred)

	callCtx, cancel := withCallTimeout(ctx, e.Timeout)
	reply := e.Conn.Call(callCtx, realm.Object(), method, args...)

	result := bus.NewFuture[struct{}]()
	go func() {
		defer cancel()
		<-reply.Done()
		if _, err := reply.Wait(context.Background()); err != nil {
			result.Resolve(struct{}{}, &EnrollmentError{Action: action, Err: err})
			return
		}
		result.Resolve(struct{}{}, nil)
	}()
	return result
}

// Enroll joins the machine to realm.
func (e *Executor) Enroll(ctx context.Context, realm RealmRef, cred Credential, opts Options, id OperationID) *bus.Future[struct{}] {
	return e.Execute(ctx, ActionEnroll, realm, cred, opts, id)
}

// Unenroll removes the machine from realm.
func (e *Executor) Unenroll(ctx context.Context, realm RealmRef, cred Credential, opts Options, id OperationID) *bus.Future[struct{}] {
	return e.Execute(ctx, ActionUnenroll, realm, cred, opts, id)
}
