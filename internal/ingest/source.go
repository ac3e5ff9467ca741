package ingest

import (
	"io"

	"github.com/kiara-db/kiara/internal/rdf"
)

// TripleSource is the consumed parser interface: a lazy, finite,
// single-pass sequence of triples with the namespace declarations
// encountered so far. *rdf.Reader satisfies it.
type TripleSource interface {
	// Next returns the next triple, or io.EOF at end of input.
	Next() (rdf.Triple, error)

	// Prefixes maps locally declared prefixes to their namespace IRIs.
	Prefixes() map[string]rdf.IRI
}

// SliceSource adapts a materialized triple set to TripleSource. Loading
// needs two passes (schema, then data) over single-pass input, so
// callers parse once and feed a SliceSource to each phase.
type SliceSource struct {
	Triples  []rdf.Triple
	Declared map[string]rdf.IRI
	pos      int
}

func (s *SliceSource) Next() (rdf.Triple, error) {
	if s.pos >= len(s.Triples) {
		return rdf.Triple{}, io.EOF
	}
	t := s.Triples[s.pos]
	s.pos++
	return t, nil
}

func (s *SliceSource) Prefixes() map[string]rdf.IRI {
	return s.Declared
}
