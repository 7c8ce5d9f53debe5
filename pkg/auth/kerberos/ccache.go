package kerberos

import (
	"errors"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/credentials"
)

// ErrEmptyCache is returned for a zero-length credential cache.
var ErrEmptyCache = errors.New("credential cache is empty")

// CachePrincipal returns the default principal ("name@REALM") of a
// credential cache in the MIT file format.
func CachePrincipal(blob []byte) (principal string, err error) {
	if len(blob) == 0 {
		return "", ErrEmptyCache
	}

	// gokrb5 indexes past the end of truncated caches.
	defer func() {
		if r := recover(); r != nil {
			principal, err = "", fmt.Errorf("parse credential cache: truncated data")
		}
	}()

	var cc credentials.CCache
	if err := cc.Unmarshal(blob); err != nil {
		return "", fmt.Errorf("parse credential cache: %w", err)
	}

	name := cc.GetClientPrincipalName().PrincipalNameString()
	if name == "" {
		return "", errors.New("credential cache has no default principal")
	}
	return name + "@" + cc.GetClientRealm(), nil
}
