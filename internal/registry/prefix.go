package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/rdf"
)

// generatedPrefix is the stem of allocator-minted prefixes: "ns1",
// "ns2", ... Minted prefixes are never reassigned or freed.
const generatedPrefix = "ns"

// ResolvePrefix returns the short prefix for a namespace IRI, minting a
// fresh one if the system store has no entry yet.
//
// A bare prefix token (no scheme marker, optionally with a trailing ":")
// is returned directly, without store access. Otherwise the allocator
// runs its optimistic loop: snapshot, scan for the maximum generated
// suffix, propose max+1, and commit conditioned on the log not having
// advanced past the snapshot. A stale basis means another writer minted
// concurrently; the loop re-reads and retries, unbounded. The backend
// commits monotonically, so the scan converges under low contention.
//
// Every successful allocation is globally unique: the conditional check
// is never skipped, so two writers can never both commit against the
// same basis.
func ResolvePrefix(ctx context.Context, sys *backend.Conn, namespace string) (string, error) {
	if rdf.IsBarePrefix(namespace) {
		return rdf.TrimPrefixToken(namespace), nil
	}
	ns := string(rdf.NewIRI(namespace))

	for {
		snap, err := sys.Snapshot(ctx)
		if err != nil {
			return "", err
		}

		prefix, ok, err := lookupPrefix(ctx, snap, ns)
		if err != nil {
			return "", err
		}
		if ok {
			return prefix, nil
		}

		candidate, err := nextCandidate(ctx, snap)
		if err != nil {
			return "", err
		}

		_, err = sys.Transact(ctx, []backend.Fact{
			{Entity: ns, Attr: AttrNSPrefix, Value: backend.String(candidate)},
			{Entity: ns, Attr: AttrNSURI, Value: backend.String(ns)},
		}, &backend.Condition{Basis: snap.Basis})
		if errors.Is(err, backend.ErrStaleBasis) {
			slog.Debug("prefix allocation conflicted, retrying",
				"namespace", ns, "candidate", candidate, "basis", snap.Basis)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("mint prefix for %q: %w", ns, err)
		}
		return candidate, nil
	}
}

// lookupPrefix finds the recorded prefix for a namespace IRI, if any.
func lookupPrefix(ctx context.Context, snap *backend.Snapshot, ns string) (string, bool, error) {
	v, ok, err := snap.One(ctx, ns, AttrNSPrefix)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := v.(backend.String)
	if !isStr {
		return "", false, fmt.Errorf("namespace entry for %q has non-string prefix", ns)
	}
	return string(s), true, nil
}

// nextCandidate scans all recorded prefixes of the generated form and
// proposes the next integer suffix. The maximum is recomputed from the
// snapshot on every attempt, never cached in process memory.
func nextCandidate(ctx context.Context, snap *backend.Snapshot) (string, error) {
	rows, err := snap.Facts(ctx, backend.Pattern{Attr: AttrNSPrefix})
	if err != nil {
		return "", err
	}
	max := 0
	for _, r := range rows {
		s, ok := r.Value.(backend.String)
		if !ok {
			continue
		}
		suffix, found := strings.CutPrefix(string(s), generatedPrefix)
		if !found {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return generatedPrefix + strconv.Itoa(max+1), nil
}

// NamespaceEntry is one (prefix, namespace) pair from the system store.
type NamespaceEntry struct {
	Prefix    string
	Namespace string
}

// Namespaces lists all recorded namespace entries.
func Namespaces(ctx context.Context, sys *backend.Conn) ([]NamespaceEntry, error) {
	snap, err := sys.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := snap.Facts(ctx, backend.Pattern{Attr: AttrNSPrefix})
	if err != nil {
		return nil, err
	}
	entries := make([]NamespaceEntry, 0, len(rows))
	for _, r := range rows {
		s, ok := r.Value.(backend.String)
		if !ok {
			continue
		}
		entries = append(entries, NamespaceEntry{Prefix: string(s), Namespace: r.EntityIdent})
	}
	return entries, nil
}

// ExpandIdent turns a stored attribute or entity identifier of the form
// "prefix/local" back into a full IRI using the namespace table.
// Identifiers whose prefix is not recorded are returned unchanged with
// ok=false.
func ExpandIdent(ctx context.Context, sys *backend.Conn, ident string) (rdf.IRI, bool, error) {
	i := strings.IndexByte(ident, '/')
	if i < 0 {
		return rdf.IRI(ident), false, nil
	}
	prefix, local := ident[:i], ident[i+1:]

	snap, err := sys.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	rows, err := snap.Facts(ctx, backend.Pattern{Attr: AttrNSPrefix, Value: backend.String(prefix)})
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return rdf.IRI(ident), false, nil
	}
	return rdf.IRI(rows[0].EntityIdent + local), true, nil
}
