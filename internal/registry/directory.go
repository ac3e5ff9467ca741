package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/rdf"
	"github.com/kiara-db/kiara/internal/storageurl"
)

// DefaultGraphIRI names the default graph in the directory when none is
// chosen by the caller.
const DefaultGraphIRI = "urn:kiara:default"

// Client bundles the system-store connection with the default-graph
// connection. It holds no other state; every directory read goes back to
// the system store.
type Client struct {
	System  *backend.Conn
	Default *backend.Conn
}

// Open initializes the system store at systemURL and the default graph,
// returning a client bundling both connections. defaultURL may be empty,
// in which case a sibling URL named "default" is derived from the system
// store's own URL.
//
// Open is idempotent: an already-initialized system store is connected
// to as-is.
func Open(ctx context.Context, systemURL, defaultURL string) (*Client, error) {
	if _, err := backend.Create(systemURL); err != nil {
		return nil, fmt.Errorf("open system store: %w", err)
	}
	sys, err := backend.Connect(systemURL)
	if err != nil {
		return nil, fmt.Errorf("open system store: %w", err)
	}
	if _, err := sys.InstallAttrs(ctx, Baseline, nil); err != nil {
		sys.Close()
		return nil, fmt.Errorf("install system schema: %w", err)
	}

	if defaultURL == "" {
		defaultURL, err = storageurl.Rewrite(systemURL, "default")
		if err != nil {
			sys.Close()
			return nil, fmt.Errorf("derive default graph url: %w", err)
		}
	}

	url, recorded, err := defaultGraphURL(ctx, sys)
	if err != nil {
		sys.Close()
		return nil, err
	}
	if !recorded {
		url, err = GetDefault(ctx, sys, defaultURL)
		if err != nil {
			sys.Close()
			return nil, err
		}
		if err := RecordDefault(ctx, sys, DefaultGraphIRI, url); err != nil {
			sys.Close()
			return nil, err
		}
		slog.Info("initialized default graph", "iri", DefaultGraphIRI, "url", url)
	}

	def, err := backend.Connect(url)
	if err != nil {
		sys.Close()
		return nil, NewInconsistentDirectoryError(DefaultGraphIRI, url, err)
	}
	if _, err := def.InstallAttrs(ctx, Baseline, nil); err != nil {
		def.Close()
		sys.Close()
		return nil, fmt.Errorf("install default graph schema: %w", err)
	}
	return &Client{System: sys, Default: def}, nil
}

// Close releases both connections.
func (c *Client) Close() error {
	var firstErr error
	if c.Default != nil {
		if err := c.Default.Close(); err != nil {
			firstErr = err
		}
	}
	if c.System != nil {
		if err := c.System.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Lookup finds the storage URL recorded for a graph IRI. An empty IRI
// is absent, never a match: the zero Pattern field matches any entity,
// and a point query must not degrade into a scan.
func Lookup(ctx context.Context, sys *backend.Conn, graphIRI string) (string, bool, error) {
	name := string(rdf.NewIRI(graphIRI))
	if name == "" {
		return "", false, nil
	}
	snap, err := sys.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok, err := snap.One(ctx, name, AttrGraphURL)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := v.(backend.String)
	if !isStr {
		return "", false, fmt.Errorf("graph record %q has non-string url", name)
	}
	return string(s), true, nil
}

// GetOrCreate connects to the store backing graphIRI, creating and
// recording it on first reference. An empty IRI targets the default
// graph, as in Find; the returned connection is always the caller's to
// close.
//
// The creation path derives the database name from the IRI's namespace
// prefix and local name, rewrites the system store's own URL to a
// sibling, creates the store, installs the baseline schema, and records
// the graph in the directory. The window between the directory miss and
// the record commit is unprotected: concurrent callers for the same IRI
// may both create. Store creation is idempotent, so this is bounded to a
// redundant directory fact (see package doc).
func (c *Client) GetOrCreate(ctx context.Context, graphIRI string) (*backend.Conn, error) {
	name := string(rdf.NewIRI(graphIRI))
	if name == "" {
		name = DefaultGraphIRI
	}

	url, ok, err := Lookup(ctx, c.System, name)
	if err != nil {
		return nil, err
	}
	if ok {
		conn, err := backend.Connect(url)
		if err != nil {
			return nil, NewInconsistentDirectoryError(name, url, err)
		}
		return conn, nil
	}

	namespace, local := rdf.Split(rdf.IRI(name))
	prefix, err := ResolvePrefix(ctx, c.System, string(namespace))
	if err != nil {
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}
	dbName := prefix + "-" + local
	url, err = storageurl.Rewrite(c.System.URL(), dbName)
	if err != nil {
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}

	created, err := backend.Create(url)
	if err != nil {
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}
	conn, err := backend.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}
	if _, err := conn.InstallAttrs(ctx, Baseline, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}

	_, err = c.System.Transact(ctx, []backend.Fact{
		{Entity: name, Attr: AttrGraphName, Value: backend.String(name)},
		{Entity: name, Attr: AttrGraphURL, Value: backend.String(url)},
	}, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("record graph %q: %w", name, err)
	}
	slog.Info("created graph store", "iri", name, "url", url, "created", created)
	return conn, nil
}

// GetDefault returns the recorded default-graph storage URL, or creates
// a store at fallbackURL and returns that URL without recording it.
// Recording is the caller's responsibility during first-time
// initialization (see RecordDefault).
func GetDefault(ctx context.Context, sys *backend.Conn, fallbackURL string) (string, error) {
	url, ok, err := defaultGraphURL(ctx, sys)
	if err != nil {
		return "", err
	}
	if ok {
		return url, nil
	}
	if fallbackURL == "" {
		return "", &DirectoryError{Code: ErrCodeNoDefaultGraph, Message: "no default graph recorded and no fallback supplied"}
	}
	if _, err := backend.Create(fallbackURL); err != nil {
		return "", fmt.Errorf("create default graph store: %w", err)
	}
	return fallbackURL, nil
}

// RecordDefault writes the graph record for the default graph and the
// single default-graph reference on the system entity.
func RecordDefault(ctx context.Context, sys *backend.Conn, graphIRI, url string) error {
	name := string(rdf.NewIRI(graphIRI))
	_, err := sys.Transact(ctx, []backend.Fact{
		{Entity: name, Attr: AttrGraphName, Value: backend.String(name)},
		{Entity: name, Attr: AttrGraphURL, Value: backend.String(url)},
		{Entity: SystemEntity, Attr: AttrDefault, Value: backend.Ref(name)},
	}, nil)
	if err != nil {
		return fmt.Errorf("record default graph: %w", err)
	}
	return nil
}

// Find resolves a graph IRI to a live connection. An empty IRI yields
// the default graph's handle. A recorded graph whose store cannot be
// connected to is an inconsistent directory, surfaced as fatal. An
// unrecorded IRI returns ok=false.
func (c *Client) Find(ctx context.Context, graphIRI string) (*backend.Conn, bool, error) {
	if graphIRI == "" {
		return c.Default, true, nil
	}
	url, ok, err := Lookup(ctx, c.System, graphIRI)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	conn, err := backend.Connect(url)
	if err != nil {
		return nil, false, NewInconsistentDirectoryError(graphIRI, url, err)
	}
	return conn, true, nil
}

// GraphEntry is one directory row.
type GraphEntry struct {
	Name      string
	URL       string
	IsDefault bool
}

// Graphs lists every graph recorded in the directory.
func Graphs(ctx context.Context, sys *backend.Conn) ([]GraphEntry, error) {
	snap, err := sys.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defName := ""
	if v, ok, err := snap.One(ctx, SystemEntity, AttrDefault); err != nil {
		return nil, err
	} else if ok {
		if ref, isRef := v.(backend.Ref); isRef {
			defName = string(ref)
		}
	}

	rows, err := snap.Facts(ctx, backend.Pattern{Attr: AttrGraphURL})
	if err != nil {
		return nil, err
	}
	entries := make([]GraphEntry, 0, len(rows))
	for _, r := range rows {
		s, ok := r.Value.(backend.String)
		if !ok {
			continue
		}
		entries = append(entries, GraphEntry{
			Name:      r.EntityIdent,
			URL:       string(s),
			IsDefault: r.EntityIdent == defName,
		})
	}
	return entries, nil
}

// defaultGraphURL reads the recorded default graph's storage URL.
func defaultGraphURL(ctx context.Context, sys *backend.Conn) (string, bool, error) {
	snap, err := sys.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok, err := snap.One(ctx, SystemEntity, AttrDefault)
	if err != nil || !ok {
		return "", false, err
	}
	ref, isRef := v.(backend.Ref)
	if !isRef {
		return "", false, fmt.Errorf("system entity has non-ref default graph")
	}
	u, ok, err := snap.One(ctx, string(ref), AttrGraphURL)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := u.(backend.String)
	if !isStr {
		return "", false, fmt.Errorf("default graph record has non-string url")
	}
	return string(s), true, nil
}
