package bus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// GetProperty reads one property through org.freedesktop.DBus.Properties.
func GetProperty(ctx context.Context, conn Conn, obj ObjectRef, iface, name string) (dbus.Variant, error) {
	reply, err := conn.Call(ctx, obj, PropertiesInterface+".Get", iface, name).Wait(ctx)
	if err != nil {
		return dbus.Variant{}, err
	}
	if len(reply.Body) != 1 {
		return dbus.Variant{}, fmt.Errorf("property %s.%s: unexpected reply with %d values", iface, name, len(reply.Body))
	}
	if v, ok := reply.Body[0].(dbus.Variant); ok {
		return v, nil
	}
	return dbus.MakeVariant(reply.Body[0]), nil
}

// StoreProperty reads one property and decodes its value into dest.
func StoreProperty(ctx context.Context, conn Conn, obj ObjectRef, iface, name string, dest any) error {
	v, err := GetProperty(ctx, conn, obj, iface, name)
	if err != nil {
		return err
	}
	if err := dbus.Store([]any{v.Value()}, dest); err != nil {
		return fmt.Errorf("property %s.%s: %w", iface, name, err)
	}
	return nil
}
