package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiara-db/kiara/internal/registry"
	"github.com/kiara-db/kiara/internal/testutil"
)

func TestResolvePrefix_BareToken(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	prefix, err := registry.ResolvePrefix(ctx, sys, "foaf:")
	require.NoError(t, err)
	assert.Equal(t, "foaf", prefix)

	prefix, err = registry.ResolvePrefix(ctx, sys, "foaf")
	require.NoError(t, err)
	assert.Equal(t, "foaf", prefix)

	// Bare tokens never touch the namespace table.
	entries, err := registry.Namespaces(ctx, sys)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// A scheme-bearing namespace without an authority is an IRI, not a bare
// token: it must be recorded so identifiers under it expand on read.
func TestResolvePrefix_URNNamespace(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	prefix, err := registry.ResolvePrefix(ctx, sys, "urn:isbn:")
	require.NoError(t, err)
	assert.Equal(t, "ns1", prefix)

	iri, ok, err := registry.ExpandIdent(ctx, sys, prefix+"/0451450523")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "urn:isbn:0451450523", string(iri))
}

func TestResolvePrefix_MintsSequentially(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	for i := 1; i <= 3; i++ {
		ns := fmt.Sprintf("http://example.org/ns%d#", i)
		prefix, err := registry.ResolvePrefix(ctx, sys, ns)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ns%d", i), prefix)
	}

	entries, err := registry.Namespaces(ctx, sys)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestResolvePrefix_Idempotent(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	first, err := registry.ResolvePrefix(ctx, sys, "http://example.org/books#")
	require.NoError(t, err)

	second, err := registry.ResolvePrefix(ctx, sys, "http://example.org/books#")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := registry.Namespaces(ctx, sys)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// Two concurrent resolutions of the same unseen namespace must converge
// on a single entry, with both callers seeing the same prefix.
func TestResolvePrefix_ConcurrentSameNamespace(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	const ns = "http://example.org/ns1#"
	results := make([]string, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = registry.ResolvePrefix(ctx, sys, ns)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, "ns1", results[0])

	entries, err := registry.Namespaces(ctx, sys)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ns1", entries[0].Prefix)
	assert.Equal(t, ns, entries[0].Namespace)
}

// Concurrent resolutions of distinct namespaces must mint distinct
// prefixes, never reusing a suffix.
func TestResolvePrefix_ConcurrentDistinctNamespaces(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	const n = 5
	results := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns := fmt.Sprintf("http://example.org/vocab%d#", i)
			results[i], errs[i] = registry.ResolvePrefix(ctx, sys, ns)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[results[i]], "prefix %q minted twice", results[i])
		seen[results[i]] = true
	}

	entries, err := registry.Namespaces(ctx, sys)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestExpandIdent(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	prefix, err := registry.ResolvePrefix(ctx, sys, "http://example.org/books#")
	require.NoError(t, err)

	iri, ok, err := registry.ExpandIdent(ctx, sys, prefix+"/title")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/books#title", string(iri))

	// Unknown prefix comes back unchanged.
	same, ok, err := registry.ExpandIdent(ctx, sys, "nope/title")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "nope/title", string(same))

	// No separator at all.
	same, ok, err = registry.ExpandIdent(ctx, sys, "urn:x:y")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "urn:x:y", string(same))
}
