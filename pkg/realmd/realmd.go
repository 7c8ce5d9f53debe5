// Package realmd is a client for the realmd service.
//
// It discovers realms through the org.freedesktop.realmd provider and
// enrolls or unenrolls the machine. Each long-running call is tagged with an
// OperationID that correlates the Diagnostics signals emitted while it runs
// and names the call when asking the service to cancel it.
//
// The Workflow type sequences a whole join or leave run and reports a
// terminal Outcome instead of exiting the process.
package realmd

import (
	"github.com/marmos91/realmctl/pkg/bus"
)

// Well-known names of the realmd service.
const (
	BusName     = "org.freedesktop.realmd"
	ServicePath = "/org/freedesktop/realmd"

	ProviderInterface           = "org.freedesktop.realmd.Provider"
	ServiceInterface            = "org.freedesktop.realmd.Service"
	RealmInterface              = "org.freedesktop.realmd.Realm"
	KerberosInterface           = "org.freedesktop.realmd.Kerberos"
	KerberosRealmInterface      = "org.freedesktop.realmd.KerberosRealm"
	KerberosMembershipInterface = "org.freedesktop.realmd.KerberosMembership"
	DiagnosticsInterface        = "org.freedesktop.realmd.Diagnostics"

	DiagnosticsSignal = "Diagnostics"
)

// Error names returned by the realmd service.
const (
	ErrorInternal          = "org.freedesktop.realmd.Error.Internal"
	ErrorDiscoveredNothing = "org.freedesktop.realmd.Error.DiscoveredNothing"
	ErrorDiscoveryFailed   = "org.freedesktop.realmd.Error.DiscoveryFailed"
	ErrorEnrollFailed      = "org.freedesktop.realmd.Error.EnrollFailed"
	ErrorUnenrollFailed    = "org.freedesktop.realmd.Error.UnenrollFailed"
	ErrorBusy              = "org.freedesktop.realmd.Error.Busy"
	ErrorNotAuthorized     = "org.freedesktop.realmd.Error.NotAuthorized"
	ErrorAlreadyEnrolled   = "org.freedesktop.realmd.Error.AlreadyEnrolled"
	ErrorNotEnrolled       = "org.freedesktop.realmd.Error.NotEnrolled"
	ErrorAuthFailed        = "org.freedesktop.realmd.Error.AuthFailed"
	ErrorCancelled         = "org.freedesktop.realmd.Error.Cancelled"
)

// Keys of the Details property of a realm.
const (
	DetailType          = "type"
	DetailDomain        = "domain"
	DetailKerberosKDCs  = "kerberos-kdcs"
	DetailKerberosRealm = "kerberos-realm"
)

// Service is the realmd service object, which hosts the Provider and
// Service interfaces.
var Service = bus.ObjectRef{Destination: BusName, Path: ServicePath}
