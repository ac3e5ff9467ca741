// Package testutil provides shared helpers for store-backed tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/registry"
)

// StoreURL returns a file storage URL for a fresh store named name under
// the test's temporary directory.
func StoreURL(t *testing.T, name string) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), name+".db")
}

// OpenStore creates and connects a store at a fresh file URL, closing it
// when the test ends.
func OpenStore(t *testing.T, name string) *backend.Conn {
	t.Helper()
	url := StoreURL(t, name)
	if _, err := backend.Create(url); err != nil {
		t.Fatalf("create store %s: %v", url, err)
	}
	conn, err := backend.Connect(url)
	if err != nil {
		t.Fatalf("connect store %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// OpenSystemStore creates a system store with the baseline schema
// installed, as registry.Open would.
func OpenSystemStore(t *testing.T) *backend.Conn {
	t.Helper()
	conn := OpenStore(t, "system")
	if _, err := conn.InstallAttrs(context.Background(), registry.Baseline, nil); err != nil {
		t.Fatalf("install baseline schema: %v", err)
	}
	return conn
}
