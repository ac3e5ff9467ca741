package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/rdf"
)

// ErrLangLiteral rejects language-tagged literals. The backend value
// variant has no representation for the tag, and dropping it silently
// would make a load-then-read lossy, so tagged input fails the load
// instead.
var ErrLangLiteral = errors.New("language-tagged literals are not supported")

// Pipeline loads triples into one graph store, using the system store
// to resolve and mint namespace prefixes.
type Pipeline struct {
	Sys   *backend.Conn
	Graph *backend.Conn
}

// InferSchema derives one attribute definition per distinct predicate in
// the stream. The value type follows the shape of observed objects
// (IRIs and blank nodes are references; literals map to string, long,
// double, or bool by datatype). Cardinality is many iff any subject
// exhibits the predicate more than once.
//
// A predicate observed with conflicting shapes - reference in one triple
// and literal in another, or two incompatible literal types - fails with
// SchemaConflictError rather than silently picking one.
func InferSchema(src TripleSource) (map[rdf.IRI]backend.AttrDef, error) {
	defs := make(map[rdf.IRI]backend.AttrDef)
	seen := make(map[string]bool) // subject ++ predicate, for cardinality

	for {
		t, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("infer schema: %w", err)
		}

		vt, err := valueTypeOf(t.Object)
		if err != nil {
			return nil, fmt.Errorf("infer schema for %s: %w", t.Predicate, err)
		}

		def, ok := defs[t.Predicate]
		if !ok {
			def = backend.AttrDef{Type: vt, Cardinality: backend.CardinalityOne, RDF: true}
		} else if def.Type != vt {
			return nil, &backend.SchemaConflictError{
				Ident:    string(t.Predicate),
				Existing: def,
				Proposed: backend.AttrDef{Type: vt, Cardinality: def.Cardinality, RDF: true},
			}
		}

		key := rdf.FormatTerm(t.Subject) + " " + string(t.Predicate)
		if seen[key] {
			def.Cardinality = backend.CardinalityMany
		}
		seen[key] = true
		defs[t.Predicate] = def
	}
	return defs, nil
}

// LoadSchema infers the attribute schema from the stream and installs it
// into the graph store in one transaction, before any data commit.
// Attribute identifiers are derived from each predicate's namespace
// prefix and local name, minting prefixes in the system store as needed.
func (p *Pipeline) LoadSchema(ctx context.Context, src TripleSource) error {
	inferred, err := InferSchema(src)
	if err != nil {
		return err
	}

	// Deterministic order so prefix minting does not depend on map
	// iteration.
	preds := make([]rdf.IRI, 0, len(inferred))
	for pred := range inferred {
		preds = append(preds, pred)
	}
	slices.Sort(preds)

	r := newResolver(p.Sys)
	defs := make([]backend.AttrDef, 0, len(inferred))
	for _, pred := range preds {
		ident, err := r.identFor(ctx, pred)
		if err != nil {
			return fmt.Errorf("load schema: %w", err)
		}
		def := inferred[pred]
		def.Ident = ident
		defs = append(defs, def)
	}

	if _, err := p.Graph.InstallAttrs(ctx, defs, nil); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	slog.Info("installed inferred schema", "graph", p.Graph.URL(), "attributes", len(defs))
	return nil
}

// valueTypeOf maps an object term's shape to a backend value type.
func valueTypeOf(o rdf.Term) (backend.ValueType, error) {
	switch v := o.(type) {
	case rdf.IRI, rdf.BlankNode:
		return backend.TypeRef, nil
	case rdf.Literal:
		if v.Lang != "" {
			return "", fmt.Errorf("%q@%s: %w", v.Lexical, v.Lang, ErrLangLiteral)
		}
		switch v.Datatype {
		case rdf.XSDInteger, rdf.XSDLong:
			return backend.TypeLong, nil
		case rdf.XSDDouble, rdf.XSDDecimal:
			return backend.TypeDouble, nil
		case rdf.XSDBoolean:
			return backend.TypeBool, nil
		default:
			return backend.TypeString, nil
		}
	default:
		return "", fmt.Errorf("unknown term %T", o)
	}
}
