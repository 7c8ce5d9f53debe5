package realmd

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/bus"
)

// DefaultCallTimeout bounds every long-running realmd call.
const DefaultCallTimeout = 300 * time.Second

// RealmRef is a realm returned by discovery: the bus name and object path
// of the realm object and the interface implementing its membership
// methods. It is only meaningful to the process that discovered it.
type RealmRef struct {
	BusName   string
	Path      dbus.ObjectPath
	Interface string
}

// Object returns the realm object.
func (r RealmRef) Object() bus.ObjectRef {
	return bus.ObjectRef{Destination: r.BusName, Path: r.Path}
}

func (r RealmRef) String() string {
	return r.BusName + ":" + string(r.Path)
}

// DiscoveryResult is the reply to Provider.Discover. Realms are in the
// provider's order of preference.
type DiscoveryResult struct {
	Input     string
	Relevance int32
	Realms    []RealmRef
}

// Default returns the realm the provider prefers.
func (d DiscoveryResult) Default() (RealmRef, error) {
	if len(d.Realms) == 0 {
		return RealmRef{}, &NoMatchError{Input: d.Input, Relevance: d.Relevance}
	}
	return d.Realms[0], nil
}

// Discover asks the provider which realms input refers to. An empty input
// lets the provider pick the default domain.
//
// The Future resolves with a *NoMatchError when nothing was discovered,
// and with the bus error, unchanged, when the call itself failed. The call
// gives up after timeout; zero means DefaultCallTimeout.
func Discover(ctx context.Context, conn bus.Conn, input string, id OperationID, timeout time.Duration) *bus.Future[DiscoveryResult] {
	method := ProviderInterface + ".Discover"
	logger.DebugCtx(ctx, "Discovering realms", logger.KeyInput, input, logger.KeyOperationID, id)

	callCtx, cancel := withCallTimeout(ctx, timeout)
	reply := conn.Call(callCtx, Service, method, input, string(id))
	go func() {
		<-reply.Done()
		cancel()
	}()

	return bus.Then(reply, func(r *bus.Reply) (DiscoveryResult, error) {
		var (
			relevance int32
			realms    []RealmRef
		)
		if err := r.Store(&relevance, &realms); err != nil {
			return DiscoveryResult{}, fmt.Errorf("%s: invalid reply: %w", method, err)
		}

		result := DiscoveryResult{Input: input, Relevance: relevance, Realms: realms}
		if len(realms) == 0 {
			return result, &NoMatchError{Input: input, Relevance: relevance}
		}
		return result, nil
	})
}

// RealmName reads the display name of a realm.
func RealmName(ctx context.Context, conn bus.Conn, ref RealmRef) (string, error) {
	var name string
	if err := realmProperty(ctx, conn, ref, "Name", &name); err != nil {
		return "", fmt.Errorf("failed to read realm name: %w", err)
	}
	return name, nil
}

// realmProperty reads a property of the realm's own interface.
func realmProperty(ctx context.Context, conn bus.Conn, ref RealmRef, name string, dest any) error {
	iface := ref.Interface
	if iface == "" {
		iface = KerberosInterface
	}
	return bus.StoreProperty(ctx, conn, ref.Object(), iface, name, dest)
}

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
