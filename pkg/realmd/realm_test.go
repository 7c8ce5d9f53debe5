package realmd

import (
	"context"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/realmctl/pkg/bus/bustest"
)

func setRealmProperties(conn *bustest.Conn, ref RealmRef, enrolled bool) {
	obj := ref.Object()
	conn.SetProperty(obj, ref.Interface, "Name", "EXAMPLE.COM")
	conn.SetProperty(obj, ref.Interface, "Domain", "example.com")
	conn.SetProperty(obj, ref.Interface, "Enrolled", enrolled)
	conn.SetProperty(obj, ref.Interface, "Details", map[string]string{
		DetailType:          "kerberos",
		DetailKerberosRealm: "EXAMPLE.COM",
	})
	conn.SetProperty(obj, ref.Interface, "LoginFormat", "%U@example.com")
	conn.SetProperty(obj, ref.Interface, "PermittedLogins", []string{"alice@example.com"})
}

func TestDescribeRealm(t *testing.T) {
	ctx := context.Background()

	t.Run("Enrolled", func(t *testing.T) {
		conn := bustest.New()
		setRealmProperties(conn, testRealm, true)

		info, err := DescribeRealm(ctx, conn, testRealm)
		require.NoError(t, err)
		assert.Equal(t, "EXAMPLE.COM", info.Name)
		assert.Equal(t, "example.com", info.Domain)
		assert.True(t, info.Enrolled)
		assert.Equal(t, []string{DetailKerberosRealm, DetailType}, info.DetailKeys())
		assert.Equal(t, "%U@example.com", info.LoginFormat)
		assert.Equal(t, []string{"alice@example.com"}, info.PermittedLogins)
	})

	t.Run("NotEnrolledSkipsLogins", func(t *testing.T) {
		conn := bustest.New()
		setRealmProperties(conn, testRealm, false)

		info, err := DescribeRealm(ctx, conn, testRealm)
		require.NoError(t, err)
		assert.False(t, info.Enrolled)
		assert.Empty(t, info.LoginFormat)
		assert.Empty(t, info.PermittedLogins)
		assert.Len(t, conn.Calls(), 4)
	})

	t.Run("MissingProperty", func(t *testing.T) {
		_, err := DescribeRealm(ctx, bustest.New(), testRealm)
		require.Error(t, err)
	})
}

func TestKnownRealms(t *testing.T) {
	conn := bustest.New()
	conn.SetProperty(Service, ProviderInterface, "Realms", realmsBody(testRealm, otherRealm))

	realms, err := KnownRealms(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []RealmRef{testRealm, otherRealm}, realms)
}

func TestProviders(t *testing.T) {
	conn := bustest.New()
	conn.SetProperty(Service, ServiceInterface, "Providers", [][]any{
		{"org.freedesktop.realmd.Sssd", dbus.ObjectPath("/org/freedesktop/realmd/Sssd"), ProviderInterface},
	})

	providers, err := Providers(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "org.freedesktop.realmd.Sssd", providers[0].BusName)
}

func TestChangePermittedLogins(t *testing.T) {
	ctx := context.Background()
	conn := bustest.New()
	conn.HandleReply(KerberosInterface + ".ChangePermittedLogins")

	require.NoError(t, ChangePermittedLogins(ctx, conn, testRealm, []string{"bob"}, nil, "op-1", 0))

	calls := conn.CallsTo(KerberosInterface + ".ChangePermittedLogins")
	require.Len(t, calls, 1)
	assert.Equal(t, testRealm.Object(), calls[0].Object)
	assert.Equal(t, []any{[]string{"bob"}, []string{}, "op-1"}, calls[0].Args)

	conn.HandleError(KerberosInterface+".ChangePermittedLogins", errBoom)
	assert.ErrorIs(t, ChangePermittedLogins(ctx, conn, testRealm, nil, []string{"bob"}, "op-2", 0), errBoom)
}
