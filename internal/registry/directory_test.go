package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/registry"
	"github.com/kiara-db/kiara/internal/testutil"
)

func openClient(t *testing.T) *registry.Client {
	t.Helper()
	ctx := context.Background()
	client, err := registry.Open(ctx, testutil.StoreURL(t, "system"), "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestOpen_BootstrapsDefaultGraph(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	systemURL := "file:" + filepath.Join(dir, "system.db")

	client, err := registry.Open(ctx, systemURL, "")
	require.NoError(t, err)
	defer client.Close()

	// The default graph store is a sibling of the system store.
	_, err = os.Stat(filepath.Join(dir, "default.db"))
	assert.NoError(t, err)

	graphs, err := registry.Graphs(ctx, client.System)
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, registry.DefaultGraphIRI, graphs[0].Name)
	assert.True(t, graphs[0].IsDefault)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	systemURL := testutil.StoreURL(t, "system")

	first, err := registry.Open(ctx, systemURL, "")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := registry.Open(ctx, systemURL, "")
	require.NoError(t, err)
	defer second.Close()

	graphs, err := registry.Graphs(ctx, second.System)
	require.NoError(t, err)
	assert.Len(t, graphs, 1, "re-open must not re-record the default graph")
}

func TestGetOrCreate_NewGraph(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	const iri = "http://example.org/books#catalog"
	conn, err := client.GetOrCreate(ctx, iri)
	require.NoError(t, err)
	defer conn.Close()

	// Recorded in the directory with a prefix-derived storage URL.
	url, ok, err := registry.Lookup(ctx, client.System, iri)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(url, "ns1-catalog.db"), "url = %q", url)

	// Second call resolves through the directory to the same store.
	again, err := client.GetOrCreate(ctx, iri)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, conn.URL(), again.URL())

	graphs, err := registry.Graphs(ctx, client.System)
	require.NoError(t, err)
	assert.Len(t, graphs, 2) // default + books
}

func TestGetOrCreate_SharesPrefixAcrossGraphs(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	a, err := client.GetOrCreate(ctx, "http://example.org/shop#orders")
	require.NoError(t, err)
	defer a.Close()
	b, err := client.GetOrCreate(ctx, "http://example.org/shop#items")
	require.NoError(t, err)
	defer b.Close()

	// Same namespace, one minted prefix, two stores.
	entries, err := registry.Namespaces(ctx, client.System)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(a.URL(), "ns1-orders.db"), "url = %q", a.URL())
	assert.True(t, strings.HasSuffix(b.URL(), "ns1-items.db"), "url = %q", b.URL())
}

// An empty graph IRI must never match a recorded graph: the underlying
// query pattern treats a zero entity as a wildcard, so without the
// guard the lookup would return an arbitrary record.
func TestLookup_EmptyNameIsAbsent(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	a, err := client.GetOrCreate(ctx, "http://example.org/shop#orders")
	require.NoError(t, err)
	defer a.Close()
	b, err := client.GetOrCreate(ctx, "http://example.org/stock#items")
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := registry.Lookup(ctx, client.System, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrCreate_EmptyIRITargetsDefault(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	a, err := client.GetOrCreate(ctx, "http://example.org/shop#orders")
	require.NoError(t, err)
	defer a.Close()
	b, err := client.GetOrCreate(ctx, "http://example.org/stock#items")
	require.NoError(t, err)
	defer b.Close()

	conn, err := client.GetOrCreate(ctx, "")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, client.Default.URL(), conn.URL())

	// Resolving the empty IRI records nothing new.
	graphs, err := registry.Graphs(ctx, client.System)
	require.NoError(t, err)
	assert.Len(t, graphs, 3) // default + orders + items
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	// Empty IRI resolves to the default graph connection.
	conn, ok, err := client.Find(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, client.Default, conn)

	// Unrecorded graph is a miss, not an error.
	_, ok, err = client.Find(ctx, "http://example.org/nope#g")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFind_InconsistentDirectory(t *testing.T) {
	ctx := context.Background()
	client := openClient(t)

	// Record a graph whose storage URL uses a grammar no local driver
	// can open.
	const iri = "http://example.org/remote#g"
	_, err := client.System.Transact(ctx, []backend.Fact{
		{Entity: iri, Attr: registry.AttrGraphName, Value: backend.String(iri)},
		{Entity: iri, Attr: registry.AttrGraphURL, Value: backend.String("ddb://us-east-1/t/gone")},
	}, nil)
	require.NoError(t, err)

	_, _, err = client.Find(ctx, iri)
	require.Error(t, err)
	assert.True(t, registry.IsInconsistentDirectory(err))
}

func TestGetDefault_NoFallback(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	_, err := registry.GetDefault(ctx, sys, "")
	require.Error(t, err)
	var de *registry.DirectoryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, registry.ErrCodeNoDefaultGraph, de.Code)
}

func TestGetDefault_PrefersRecordedURL(t *testing.T) {
	ctx := context.Background()
	sys := testutil.OpenSystemStore(t)

	recorded := testutil.StoreURL(t, "recorded-default")
	_, err := backend.Create(recorded)
	require.NoError(t, err)
	require.NoError(t, registry.RecordDefault(ctx, sys, registry.DefaultGraphIRI, recorded))

	url, err := registry.GetDefault(ctx, sys, testutil.StoreURL(t, "ignored-fallback"))
	require.NoError(t, err)
	assert.Equal(t, recorded, url)
}
