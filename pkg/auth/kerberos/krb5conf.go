package kerberos

import (
	"errors"
	"fmt"
	"strings"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
)

// LoadKrb5Conf parses the krb5.conf at path. Directives gokrb5 does not
// support are skipped.
func LoadKrb5Conf(path string) (*krb5config.Config, error) {
	cfg, err := krb5config.Load(path)
	var unsupported krb5config.UnsupportedDirective
	if err != nil && errors.As(err, &unsupported) && cfg != nil {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse krb5.conf %s: %w", path, err)
	}
	return cfg, nil
}

// RealmKnown reports whether kinit can be expected to find a KDC for
// realm: either the realm lists a KDC or DNS lookup of KDCs is enabled.
func RealmKnown(cfg *krb5config.Config, realm string) bool {
	if cfg == nil {
		return false
	}
	if cfg.LibDefaults.DNSLookupKDC {
		return true
	}
	for _, r := range cfg.Realms {
		if strings.EqualFold(r.Realm, realm) && len(r.KDC) > 0 {
			return true
		}
	}
	return false
}
