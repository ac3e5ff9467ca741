package rdf

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		iri   IRI
		ns    IRI
		local string
	}{
		{"http://example.org/ns#name", "http://example.org/ns#", "name"},
		{"http://example.org/ns/name", "http://example.org/ns/", "name"},
		{"http://example.org/a#b/c", "http://example.org/a#", "b/c"},
		{"urn-like-no-separator", "", "urn-like-no-separator"},
	}
	for _, tt := range tests {
		ns, local := Split(tt.iri)
		if ns != tt.ns || local != tt.local {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.iri, ns, local, tt.ns, tt.local)
		}
	}
}

func TestIsBarePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"foaf:", true},
		{"foaf", true},
		{"http://xmlns.com/foaf/0.1/", false},
		{"mem://x", false},
		{"urn:isbn:", false},
		{"urn:kiara:default", false},
	}
	for _, tt := range tests {
		if got := IsBarePrefix(tt.in); got != tt.want {
			t.Errorf("IsBarePrefix(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTrimPrefixToken(t *testing.T) {
	if got := TrimPrefixToken("foaf:"); got != "foaf" {
		t.Errorf("TrimPrefixToken(foaf:) = %q", got)
	}
	if got := TrimPrefixToken("foaf"); got != "foaf" {
		t.Errorf("TrimPrefixToken(foaf) = %q", got)
	}
}

// NFC normalization: composed and decomposed forms of the same IRI must
// compare equal after NewIRI.
func TestNewIRI_Normalizes(t *testing.T) {
	composed := NewIRI("http://example.org/café")
	decomposed := NewIRI("http://example.org/café")
	if composed != decomposed {
		t.Errorf("NFC normalization: %q != %q", composed, decomposed)
	}
}
