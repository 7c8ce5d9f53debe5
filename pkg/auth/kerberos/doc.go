// Package kerberos obtains the Kerberos credentials realmctl hands to the
// realmd service.
//
// Kinit runs the system kinit into a private credential cache file; the
// realmd package reads that file and sends its bytes to the service. The
// package also parses caches and krb5.conf with gokrb5 so that a run can
// report whose ticket it is sending and warn about realms the local
// Kerberos configuration does not know.
//
// Configuration is defined in pkg/config.CredentialConfig. This package
// accepts *config.CredentialConfig as constructor parameter.
package kerberos
