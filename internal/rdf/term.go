package rdf

import (
	"fmt"
	"strings"
)

// Term is a sealed interface over the three RDF term kinds.
// Only IRI, BlankNode, and Literal implement it.
type Term interface {
	term() // Sealed - only these types implement it
}

// IRI is an absolute internationalized resource identifier.
// Values are stored in NFC-normalized form; use NewIRI to construct.
type IRI string

func (IRI) term() {}

// BlankNode is a local blank-node label without the "_:" marker.
type BlankNode string

func (BlankNode) term() {}

// Literal is an RDF literal with an optional datatype or language tag.
// A literal has at most one of Datatype and Lang set; a plain literal
// has neither.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

func (Literal) term() {}

// Well-known XSD datatype IRIs used by schema inference.
const (
	XSDString  IRI = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger IRI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDLong    IRI = "http://www.w3.org/2001/XMLSchema#long"
	XSDDouble  IRI = "http://www.w3.org/2001/XMLSchema#double"
	XSDDecimal IRI = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDBoolean IRI = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Triple is one RDF statement. Subject is an IRI or BlankNode,
// Predicate is always an IRI, Object is any Term.
type Triple struct {
	Subject   Term
	Predicate IRI
	Object    Term
}

// String renders the triple in N-Triples syntax, primarily for
// diagnostics and export.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", FormatTerm(t.Subject), FormatTerm(t.Predicate), FormatTerm(t.Object))
}

// FormatTerm renders a single term in N-Triples syntax.
func FormatTerm(t Term) string {
	switch v := t.(type) {
	case IRI:
		return "<" + string(v) + ">"
	case BlankNode:
		return "_:" + string(v)
	case Literal:
		s := `"` + escapeLiteral(v.Lexical) + `"`
		if v.Lang != "" {
			return s + "@" + v.Lang
		}
		if v.Datatype != "" && v.Datatype != XSDString {
			return s + "^^<" + string(v.Datatype) + ">"
		}
		return s
	default:
		return fmt.Sprintf("%v", t)
	}
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}
