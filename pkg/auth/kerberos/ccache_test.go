package kerberos

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// ============================================================================
// CachePrincipal tests
// ============================================================================

// buildCCache returns a version 4 credential cache holding only a default
// principal.
func buildCCache(realm string, components ...string) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x05, 0x04})
	_ = binary.Write(&buf, binary.BigEndian, uint16(0)) // header length

	_ = binary.Write(&buf, binary.BigEndian, int32(1)) // KRB5_NT_PRINCIPAL
	_ = binary.Write(&buf, binary.BigEndian, int32(len(components)))
	_ = binary.Write(&buf, binary.BigEndian, int32(len(realm)))
	buf.WriteString(realm)
	for _, c := range components {
		_ = binary.Write(&buf, binary.BigEndian, int32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func TestCachePrincipal(t *testing.T) {
	got, err := CachePrincipal(buildCCache("EXAMPLE.COM", "admin"))
	if err != nil {
		t.Fatalf("CachePrincipal failed: %v", err)
	}
	if got != "admin@EXAMPLE.COM" {
		t.Fatalf("expected admin@EXAMPLE.COM, got %s", got)
	}
}

func TestCachePrincipal_MultiComponent(t *testing.T) {
	got, err := CachePrincipal(buildCCache("EXAMPLE.COM", "host", "client.example.com"))
	if err != nil {
		t.Fatalf("CachePrincipal failed: %v", err)
	}
	if got != "host/client.example.com@EXAMPLE.COM" {
		t.Fatalf("expected host/client.example.com@EXAMPLE.COM, got %s", got)
	}
}

func TestCachePrincipal_Empty(t *testing.T) {
	_, err := CachePrincipal(nil)
	if !errors.Is(err, ErrEmptyCache) {
		t.Fatalf("expected ErrEmptyCache, got %v", err)
	}
}

func TestCachePrincipal_NotACache(t *testing.T) {
	if _, err := CachePrincipal([]byte("ticket")); err == nil {
		t.Fatal("expected error for non-cache data")
	}
}

func TestCachePrincipal_Truncated(t *testing.T) {
	blob := buildCCache("EXAMPLE.COM", "admin")
	if _, err := CachePrincipal(blob[:10]); err == nil {
		t.Fatal("expected error for truncated cache")
	}
}
