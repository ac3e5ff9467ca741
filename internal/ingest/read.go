package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kiara-db/kiara/internal/backend"
	"github.com/kiara-db/kiara/internal/rdf"
	"github.com/kiara-db/kiara/internal/registry"
)

// ReadTriples reconstructs all triples stored in the graph. It queries
// every fact whose attribute is RDF-flagged, expands subject and
// predicate identifiers back to IRIs through the namespace table, and
// for reference-typed values dereferences the target entity, yielding
// its declared identifier rather than a raw internal id.
//
// The result is a finite, materialized slice in backend enumeration
// order; no further ordering is guaranteed.
func (p *Pipeline) ReadTriples(ctx context.Context) ([]rdf.Triple, error) {
	snap, err := p.Graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := snap.Facts(ctx, backend.Pattern{RDFOnly: true})
	if err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}

	// Expansion cache for this read; the namespace table is immutable
	// once entries are minted.
	idents := make(map[string]rdf.Term)

	triples := make([]rdf.Triple, 0, len(rows))
	for _, row := range rows {
		subject, err := p.termForIdent(ctx, idents, row.EntityIdent)
		if err != nil {
			return nil, fmt.Errorf("read triples: %w", err)
		}

		predTerm, err := p.termForIdent(ctx, idents, row.Attr.Ident)
		if err != nil {
			return nil, fmt.Errorf("read triples: %w", err)
		}
		pred, ok := predTerm.(rdf.IRI)
		if !ok {
			return nil, fmt.Errorf("read triples: attribute %q does not expand to an IRI", row.Attr.Ident)
		}

		object, err := p.objectFor(ctx, snap, idents, row)
		if err != nil {
			return nil, fmt.Errorf("read triples: %w", err)
		}
		triples = append(triples, rdf.Triple{Subject: subject, Predicate: pred, Object: object})
	}
	return triples, nil
}

// objectFor decodes a fact's value into an object term. Every arm of the
// value variant is handled; references go through entity dereferencing.
func (p *Pipeline) objectFor(ctx context.Context, snap *backend.Snapshot, idents map[string]rdf.Term, row backend.FactRow) (rdf.Term, error) {
	switch v := row.Value.(type) {
	case backend.Ref:
		view, err := snap.Deref(ctx, row.RefID)
		if err != nil {
			return nil, fmt.Errorf("dereference %q: %w", string(v), err)
		}
		return p.termForIdent(ctx, idents, view.Ident)
	case backend.String:
		return rdf.Literal{Lexical: string(v)}, nil
	case backend.Long:
		return rdf.Literal{Lexical: strconv.FormatInt(int64(v), 10), Datatype: rdf.XSDInteger}, nil
	case backend.Double:
		return rdf.Literal{Lexical: strconv.FormatFloat(float64(v), 'g', -1, 64), Datatype: rdf.XSDDouble}, nil
	case backend.Bool:
		return rdf.Literal{Lexical: strconv.FormatBool(bool(v)), Datatype: rdf.XSDBoolean}, nil
	default:
		return nil, fmt.Errorf("unknown value %T for attribute %q", row.Value, row.Attr.Ident)
	}
}

// termForIdent expands a declared identifier into a subject-position
// term: skolemized blank nodes keep their labels, prefixed identifiers
// expand through the namespace table.
func (p *Pipeline) termForIdent(ctx context.Context, cache map[string]rdf.Term, ident string) (rdf.Term, error) {
	if t, ok := cache[ident]; ok {
		return t, nil
	}
	var t rdf.Term
	if IsBlankIdent(ident) {
		t = rdf.BlankNode(strings.TrimPrefix(ident, blankMarker))
	} else {
		iri, ok, err := registry.ExpandIdent(ctx, p.Sys, ident)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("identifier %q has no recorded namespace prefix", ident)
		}
		t = iri
	}
	cache[ident] = t
	return t, nil
}
