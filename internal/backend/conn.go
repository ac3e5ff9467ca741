package backend

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kiara-db/kiara/internal/storageurl"
)

//go:embed schema.sql
var schemaSQL string

// Conn is a handle to one fact store.
type Conn struct {
	db  *sql.DB
	url string
}

// memPins holds one pinned connection per in-memory store so that
// shared-cache databases survive while any handle is outstanding.
var (
	memMu   sync.Mutex
	memPins = map[string]*sql.DB{}
)

// Connect opens a handle to an existing store at the given storage URL.
// Connectivity failures are wrapped in BackendError and propagated
// unchanged; no retry is performed at this layer.
func Connect(url string) (*Conn, error) {
	scheme, err := storageurl.Scheme(url)
	if err != nil {
		return nil, err
	}
	dsn, err := dsnFor(scheme, url)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &BackendError{URL: url, Op: "connect", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &BackendError{URL: url, Op: "connect", Err: err}
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent callers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &BackendError{URL: url, Op: "connect", Err: err}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &BackendError{URL: url, Op: "connect", Err: fmt.Errorf("apply schema: %w", err)}
	}
	return &Conn{db: db, url: url}, nil
}

// Create ensures a store exists at the given storage URL, returning
// whether it was newly created. Creation is idempotent.
func Create(url string) (bool, error) {
	scheme, err := storageurl.Scheme(url)
	if err != nil {
		return false, err
	}
	switch scheme {
	case "file":
		path := filePath(url)
		existed := false
		if _, err := os.Stat(path); err == nil {
			existed = true
		}
		if !existed {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return false, &BackendError{URL: url, Op: "create", Err: err}
			}
		}
		c, err := Connect(url)
		if err != nil {
			return false, err
		}
		c.Close()
		return !existed, nil
	case "mem":
		name, err := storageurl.DBName(url)
		if err != nil {
			return false, err
		}
		memMu.Lock()
		_, existed := memPins[name]
		memMu.Unlock()
		if existed {
			return false, nil
		}
		c, err := Connect(url)
		if err != nil {
			return false, err
		}
		// The pin keeps the shared-cache database alive; the handle used
		// for creation is not needed further.
		c.Close()
		return true, nil
	default:
		return false, &BackendError{URL: url, Op: "create", Err: fmt.Errorf("no driver for scheme %q", scheme)}
	}
}

// URL returns the storage URL this handle was opened with.
func (c *Conn) URL() string {
	return c.url
}

// Close releases the handle. In-memory stores stay pinned and survive
// Close; file stores are fully released.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// dsnFor maps a storage URL to a SQLite DSN. Only the sqlite-family
// schemes are connectable in this build; remote grammars (ddb, srv, sql)
// are understood by the rewriter but have no driver here.
func dsnFor(scheme, url string) (string, error) {
	switch scheme {
	case "file":
		return filePath(url), nil
	case "mem":
		name, err := storageurl.DBName(url)
		if err != nil {
			return "", err
		}
		dsn := "file:" + name + "?mode=memory&cache=shared"
		memMu.Lock()
		if _, ok := memPins[name]; !ok {
			pin, err := sql.Open("sqlite3", dsn)
			if err != nil {
				memMu.Unlock()
				return "", &BackendError{URL: url, Op: "connect", Err: err}
			}
			if err := pin.Ping(); err != nil {
				memMu.Unlock()
				return "", &BackendError{URL: url, Op: "connect", Err: err}
			}
			memPins[name] = pin
		}
		memMu.Unlock()
		return dsn, nil
	default:
		return "", &BackendError{URL: url, Op: "connect", Err: fmt.Errorf("no driver for scheme %q", scheme)}
	}
}

// filePath extracts the filesystem path from a file: URL, dropping any
// query parameters.
func filePath(url string) string {
	p := strings.TrimPrefix(url, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// BasisTx returns the current transaction-log position (0 for an empty
// store).
func (c *Conn) BasisTx(ctx context.Context) (int64, error) {
	var basis int64
	err := c.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(tx), 0) FROM txlog`).Scan(&basis)
	if err != nil {
		return 0, &BackendError{URL: c.url, Op: "basis", Err: err}
	}
	return basis, nil
}

// Snapshot captures a point-in-time view of the store at the current
// log position.
func (c *Conn) Snapshot(ctx context.Context) (*Snapshot, error) {
	basis, err := c.BasisTx(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{conn: c, Basis: basis}, nil
}

// Snapshot is a read view bound to a transaction-log position. Queries
// observe only facts committed at or before Basis; facts use append-only
// history, so the view is stable under later commits.
type Snapshot struct {
	conn  *Conn
	Basis int64
}
