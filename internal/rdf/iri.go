package rdf

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NewIRI builds an IRI in NFC-normalized form. IRI equality throughout
// the system is defined over the normalized form, so all IRIs entering
// from parsers or callers must pass through here.
func NewIRI(s string) IRI {
	return IRI(norm.NFC.String(s))
}

// Split divides an IRI into its namespace and local name. The namespace
// includes the separator character. The split point is the last "#" if
// present, otherwise the last "/".
//
// Split("http://example.org/ns#name") = ("http://example.org/ns#", "name")
// Split("http://example.org/ns/name") = ("http://example.org/ns/", "name")
//
// An IRI with no separator splits into an empty namespace and itself as
// the local name.
func Split(iri IRI) (namespace IRI, local string) {
	s := string(iri)
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		return IRI(s[:i+1]), s[i+1:]
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return IRI(s[:i+1]), s[i+1:]
	}
	return "", s
}

// IsBarePrefix reports whether s is a caller-supplied short prefix token
// rather than an IRI. A bare token contains no ":" except an optional
// trailing separator (which TrimPrefixToken removes), so scheme-bearing
// names without an authority, like a "urn:isbn:" namespace, still count
// as IRIs and go through the allocator.
func IsBarePrefix(s string) bool {
	i := strings.IndexByte(s, ':')
	return i < 0 || i == len(s)-1
}

// TrimPrefixToken strips the trailing ":" separator from a bare prefix
// token, if present.
func TrimPrefixToken(s string) string {
	return strings.TrimSuffix(s, ":")
}
