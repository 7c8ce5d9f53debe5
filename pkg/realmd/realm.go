package realmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/internal/telemetry"
	"github.com/marmos91/realmctl/pkg/bus"
)

// RealmInfo describes a realm as reported by its properties.
type RealmInfo struct {
	Name            string            `json:"name" yaml:"name"`
	Domain          string            `json:"domain" yaml:"domain"`
	Enrolled        bool              `json:"enrolled" yaml:"enrolled"`
	Details         map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
	LoginFormat     string            `json:"login_format,omitempty" yaml:"login_format,omitempty"`
	PermittedLogins []string          `json:"permitted_logins,omitempty" yaml:"permitted_logins,omitempty"`
	Path            dbus.ObjectPath   `json:"path" yaml:"path"`
}

// DetailKeys returns the keys of Details in sorted order.
func (i *RealmInfo) DetailKeys() []string {
	keys := make([]string, 0, len(i.Details))
	for k := range i.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DescribeRealm reads the properties of ref. The login format and the
// permitted logins are only read for enrolled realms.
func DescribeRealm(ctx context.Context, conn bus.Conn, ref RealmRef) (*RealmInfo, error) {
	info := &RealmInfo{Path: ref.Path}

	props := []struct {
		name string
		dest any
	}{
		{"Name", &info.Name},
		{"Domain", &info.Domain},
		{"Enrolled", &info.Enrolled},
		{"Details", &info.Details},
	}
	for _, p := range props {
		if err := realmProperty(ctx, conn, ref, p.name, p.dest); err != nil {
			return nil, fmt.Errorf("failed to read realm %s: %w", ref.Path, err)
		}
	}

	if !info.Enrolled {
		return info, nil
	}

	if err := realmProperty(ctx, conn, ref, "LoginFormat", &info.LoginFormat); err != nil {
		return nil, fmt.Errorf("failed to read realm %s: %w", ref.Path, err)
	}
	logins, err := PermittedLogins(ctx, conn, ref)
	if err != nil {
		return nil, err
	}
	info.PermittedLogins = logins

	return info, nil
}

// PermittedLogins reads the logins allowed on an enrolled realm.
func PermittedLogins(ctx context.Context, conn bus.Conn, ref RealmRef) ([]string, error) {
	var logins []string
	if err := realmProperty(ctx, conn, ref, "PermittedLogins", &logins); err != nil {
		return nil, fmt.Errorf("failed to read permitted logins: %w", err)
	}
	return logins, nil
}

// KnownRealms returns the realms the provider already knows about,
// without running discovery.
func KnownRealms(ctx context.Context, conn bus.Conn) ([]RealmRef, error) {
	var realms []RealmRef
	if err := bus.StoreProperty(ctx, conn, Service, ProviderInterface, "Realms", &realms); err != nil {
		return nil, fmt.Errorf("failed to list realms: %w", err)
	}
	return realms, nil
}

// ProviderInfo is a realm provider registered with the service.
type ProviderInfo struct {
	BusName   string          `json:"bus_name" yaml:"bus_name"`
	Path      dbus.ObjectPath `json:"path" yaml:"path"`
	Interface string          `json:"interface" yaml:"interface"`
}

// Providers lists the providers registered with the service.
func Providers(ctx context.Context, conn bus.Conn) ([]ProviderInfo, error) {
	var providers []ProviderInfo
	if err := bus.StoreProperty(ctx, conn, Service, ServiceInterface, "Providers", &providers); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// ChangePermittedLogins adds and removes logins allowed on an enrolled
// realm. It waits for the service to answer.
func ChangePermittedLogins(ctx context.Context, conn bus.Conn, ref RealmRef, add, remove []string, id OperationID, timeout time.Duration) error {
	if add == nil {
		add = []string{}
	}
	if remove == nil {
		remove = []string{}
	}

	method := KerberosInterface + ".ChangePermittedLogins"
	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanLogins, id.String(),
		telemetry.Method(method), telemetry.RealmPath(string(ref.Path)))
	defer span.End()

	logger.DebugCtx(ctx, "Changing permitted logins",
		logger.KeyRealmPath, ref.Path, "add", add, "remove", remove, logger.KeyOperationID, id)

	callCtx, cancel := withCallTimeout(ctx, timeout)
	defer cancel()

	if _, err := conn.Call(callCtx, ref.Object(), method, add, remove, string(id)).Wait(callCtx); err != nil {
		telemetry.RecordError(ctx, err, errorName(err))
		return err
	}
	return nil
}
