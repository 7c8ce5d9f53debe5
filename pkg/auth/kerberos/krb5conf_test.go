package kerberos

import (
	"os"
	"path/filepath"
	"testing"
)

// ============================================================================
// krb5.conf tests
// ============================================================================

func writeKrb5Conf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "krb5.conf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write krb5.conf: %v", err)
	}
	return path
}

const testKrb5Conf = `[libdefaults]
  default_realm = EXAMPLE.COM
  dns_lookup_kdc = false

[realms]
  EXAMPLE.COM = {
    kdc = kdc.example.com:88
  }
`

func TestLoadKrb5Conf(t *testing.T) {
	cfg, err := LoadKrb5Conf(writeKrb5Conf(t, testKrb5Conf))
	if err != nil {
		t.Fatalf("LoadKrb5Conf failed: %v", err)
	}
	if cfg.LibDefaults.DefaultRealm != "EXAMPLE.COM" {
		t.Fatalf("expected default realm EXAMPLE.COM, got %s", cfg.LibDefaults.DefaultRealm)
	}
}

func TestLoadKrb5Conf_Missing(t *testing.T) {
	if _, err := LoadKrb5Conf(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatal("expected error for missing krb5.conf")
	}
}

func TestRealmKnown(t *testing.T) {
	cfg, err := LoadKrb5Conf(writeKrb5Conf(t, testKrb5Conf))
	if err != nil {
		t.Fatalf("LoadKrb5Conf failed: %v", err)
	}

	if !RealmKnown(cfg, "EXAMPLE.COM") {
		t.Fatal("expected EXAMPLE.COM to be known")
	}
	if !RealmKnown(cfg, "example.com") {
		t.Fatal("expected realm match to ignore case")
	}
	if RealmKnown(cfg, "OTHER.ORG") {
		t.Fatal("expected OTHER.ORG to be unknown")
	}
}

func TestRealmKnown_DNSLookup(t *testing.T) {
	cfg, err := LoadKrb5Conf(writeKrb5Conf(t, "[libdefaults]\n  dns_lookup_kdc = true\n"))
	if err != nil {
		t.Fatalf("LoadKrb5Conf failed: %v", err)
	}
	if !RealmKnown(cfg, "ANY.REALM") {
		t.Fatal("expected any realm known with DNS lookup enabled")
	}
}

func TestRealmKnown_NilConfig(t *testing.T) {
	if RealmKnown(nil, "EXAMPLE.COM") {
		t.Fatal("expected nil config to know no realms")
	}
}
