package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/rdf"
	"github.com/kiara-db/kiara/internal/registry"
)

// blankMarker prefixes the declared identifier of skolemized blank
// nodes, so the reader can tell them from prefixed names.
const blankMarker = "_:"

// resolver maps RDF terms to backend identifiers for one load call.
// Prefix lookups are cached per call only; minted prefixes are immutable
// so the cache can never go stale, and no state outlives the call.
type resolver struct {
	sys      *backend.Conn
	prefixes map[string]string       // namespace IRI -> prefix
	blanks   map[rdf.BlankNode]string // label -> skolem ident
}

func newResolver(sys *backend.Conn) *resolver {
	return &resolver{
		sys:      sys,
		prefixes: make(map[string]string),
		blanks:   make(map[rdf.BlankNode]string),
	}
}

// identFor derives the backend identifier "prefix/local" for an IRI,
// minting the namespace prefix on first encounter.
func (r *resolver) identFor(ctx context.Context, iri rdf.IRI) (string, error) {
	namespace, local := rdf.Split(iri)
	prefix, ok := r.prefixes[string(namespace)]
	if !ok {
		var err error
		prefix, err = registry.ResolvePrefix(ctx, r.sys, string(namespace))
		if err != nil {
			return "", err
		}
		r.prefixes[string(namespace)] = prefix
	}
	return prefix + "/" + local, nil
}

// entityIdent derives the declared identifier for a subject or object
// position term. Blank nodes are skolemized once per label per load.
func (r *resolver) entityIdent(ctx context.Context, t rdf.Term) (string, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return r.identFor(ctx, v)
	case rdf.BlankNode:
		ident, ok := r.blanks[v]
		if !ok {
			ident = blankMarker + uuid.NewString()
			r.blanks[v] = ident
		}
		return ident, nil
	default:
		return "", fmt.Errorf("term %s cannot denote an entity", rdf.FormatTerm(t))
	}
}

// LoadData encodes every triple in the stream as backend facts and
// commits them in a single atomic transaction. Prefixes are minted for
// any newly encountered namespace, including namespaces declared in the
// stream but not yet used.
func (p *Pipeline) LoadData(ctx context.Context, src TripleSource) error {
	r := newResolver(p.Sys)
	var facts []backend.Fact
	count := 0

	for {
		t, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}

		subject, err := r.entityIdent(ctx, t.Subject)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		attrIdent, err := r.identFor(ctx, t.Predicate)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		def, ok, err := p.Graph.Attr(ctx, attrIdent)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		if !ok {
			return fmt.Errorf("load data: predicate %s has no installed attribute %q", t.Predicate, attrIdent)
		}

		value, err := r.valueFor(ctx, def, t.Object)
		if err != nil {
			return fmt.Errorf("load data: triple %s: %w", t, err)
		}
		facts = append(facts, backend.Fact{Entity: subject, Attr: attrIdent, Value: value})
		count++
	}

	// Declared-but-unused namespaces still get prefixes, so the table
	// covers everything the stream named.
	for _, ns := range src.Prefixes() {
		if _, err := registry.ResolvePrefix(ctx, p.Sys, string(ns)); err != nil {
			return fmt.Errorf("load data: %w", err)
		}
	}

	if _, err := p.Graph.Transact(ctx, facts, nil); err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	slog.Info("loaded triples", "graph", p.Graph.URL(), "triples", count)
	return nil
}

// valueFor maps an object term to a backend value of the attribute's
// declared type.
func (r *resolver) valueFor(ctx context.Context, def backend.AttrDef, o rdf.Term) (backend.Value, error) {
	if def.Type == backend.TypeRef {
		ident, err := r.entityIdent(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("attribute %q expects a reference: %w", def.Ident, err)
		}
		return backend.Ref(ident), nil
	}

	lit, ok := o.(rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("attribute %q expects a %s literal, got %s", def.Ident, def.Type, rdf.FormatTerm(o))
	}
	if lit.Lang != "" {
		return nil, fmt.Errorf("attribute %q: %w", def.Ident, ErrLangLiteral)
	}
	switch def.Type {
	case backend.TypeString:
		return backend.String(lit.Lexical), nil
	case backend.TypeLong:
		n, err := strconv.ParseInt(lit.Lexical, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", def.Ident, err)
		}
		return backend.Long(n), nil
	case backend.TypeDouble:
		f, err := strconv.ParseFloat(lit.Lexical, 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", def.Ident, err)
		}
		return backend.Double(f), nil
	case backend.TypeBool:
		b, err := strconv.ParseBool(lit.Lexical)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", def.Ident, err)
		}
		return backend.Bool(b), nil
	default:
		return nil, fmt.Errorf("attribute %q has unknown type %q", def.Ident, def.Type)
	}
}

// IsBlankIdent reports whether a declared identifier denotes a
// skolemized blank node.
func IsBlankIdent(ident string) bool {
	return strings.HasPrefix(ident, blankMarker)
}
