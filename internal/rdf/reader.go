package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reader parses a line-oriented triple serialization: N-Triples statements
// optionally interleaved with Turtle-style @prefix declarations, with
// prefixed names permitted in place of full IRIs once declared.
//
// The reader is lazy and single-pass: Next returns one triple at a time
// and io.EOF at end of input. Prefix declarations encountered so far are
// available through Prefixes at any point.
type Reader struct {
	sc       *bufio.Scanner
	line     int
	prefixes map[string]IRI
}

// NewReader wraps r in a triple reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc, prefixes: make(map[string]IRI)}
}

// Prefixes returns the prefix declarations seen so far. The map is live;
// callers must not mutate it.
func (r *Reader) Prefixes() map[string]IRI {
	return r.prefixes
}

// Next returns the next triple, skipping comments, blank lines, and
// prefix declarations (which are recorded as a side effect).
// Returns io.EOF when the input is exhausted.
func (r *Reader) Next() (Triple, error) {
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@prefix") {
			if err := r.parsePrefix(line); err != nil {
				return Triple{}, err
			}
			continue
		}
		return r.parseTriple(line)
	}
	if err := r.sc.Err(); err != nil {
		return Triple{}, fmt.Errorf("read triples: %w", err)
	}
	return Triple{}, io.EOF
}

// ReadAll drains a reader, returning the materialized triples and the
// complete prefix table.
func ReadAll(src io.Reader) ([]Triple, map[string]IRI, error) {
	r := NewReader(src)
	var triples []Triple
	for {
		t, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		triples = append(triples, t)
	}
	return triples, r.prefixes, nil
}

// parsePrefix handles "@prefix ex: <http://example.org/ns#> ."
func (r *Reader) parsePrefix(line string) error {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "@prefix"))
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return r.errf("malformed @prefix declaration")
	}
	name := strings.TrimSpace(rest[:colon])
	rest = strings.TrimSpace(rest[colon+1:])
	if !strings.HasPrefix(rest, "<") {
		return r.errf("expected <iri> in @prefix declaration")
	}
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		return r.errf("unterminated IRI in @prefix declaration")
	}
	r.prefixes[name] = NewIRI(rest[1:end])
	return nil
}

func (r *Reader) parseTriple(line string) (Triple, error) {
	rest := line
	subj, rest, err := r.parseTerm(rest)
	if err != nil {
		return Triple{}, err
	}
	if _, ok := subj.(Literal); ok {
		return Triple{}, r.errf("literal not allowed in subject position")
	}
	pred, rest, err := r.parseTerm(rest)
	if err != nil {
		return Triple{}, err
	}
	predIRI, ok := pred.(IRI)
	if !ok {
		return Triple{}, r.errf("predicate must be an IRI")
	}
	obj, rest, err := r.parseTerm(rest)
	if err != nil {
		return Triple{}, err
	}
	if strings.TrimSpace(rest) != "." {
		return Triple{}, r.errf("statement must end with '.'")
	}
	return Triple{Subject: subj, Predicate: predIRI, Object: obj}, nil
}

// parseTerm consumes one term from the front of s and returns the rest.
func (r *Reader) parseTerm(s string) (Term, string, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "<"):
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, "", r.errf("unterminated IRI")
		}
		return NewIRI(s[1:end]), s[end+1:], nil

	case strings.HasPrefix(s, "_:"):
		end := len(s)
		if i := strings.IndexAny(s, " \t"); i >= 0 {
			end = i
		}
		return BlankNode(s[2:end]), s[end:], nil

	case strings.HasPrefix(s, `"`):
		return r.parseLiteral(s)

	default:
		// Prefixed name: prefix:local resolved against declarations.
		end := len(s)
		if i := strings.IndexAny(s, " \t"); i >= 0 {
			end = i
		}
		token := s[:end]
		colon := strings.IndexByte(token, ':')
		if colon < 0 {
			return nil, "", r.errf("unrecognized term %q", token)
		}
		ns, ok := r.prefixes[token[:colon]]
		if !ok {
			return nil, "", r.errf("undeclared prefix %q", token[:colon])
		}
		return NewIRI(string(ns) + token[colon+1:]), s[end:], nil
	}
}

func (r *Reader) parseLiteral(s string) (Term, string, error) {
	var b strings.Builder
	i := 1
	for ; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return nil, "", r.errf("dangling escape in literal")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return nil, "", r.errf("unsupported escape \\%c in literal", s[i])
			}
			continue
		}
		if c == '"' {
			break
		}
		b.WriteByte(c)
	}
	if i >= len(s) {
		return nil, "", r.errf("unterminated literal")
	}
	lit := Literal{Lexical: b.String()}
	rest := s[i+1:]

	switch {
	case strings.HasPrefix(rest, "^^"):
		rest = rest[2:]
		if strings.HasPrefix(rest, "<") {
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return nil, "", r.errf("unterminated datatype IRI")
			}
			lit.Datatype = NewIRI(rest[1:end])
			rest = rest[end+1:]
		} else {
			// Prefixed datatype name.
			end := len(rest)
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				end = i
			}
			token := rest[:end]
			colon := strings.IndexByte(token, ':')
			if colon < 0 {
				return nil, "", r.errf("malformed datatype %q", token)
			}
			ns, ok := r.prefixes[token[:colon]]
			if !ok {
				return nil, "", r.errf("undeclared prefix %q", token[:colon])
			}
			lit.Datatype = NewIRI(string(ns) + token[colon+1:])
			rest = rest[end:]
		}
	case strings.HasPrefix(rest, "@"):
		end := len(rest)
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			end = i
		}
		lit.Lang = rest[1:end]
		rest = rest[end:]
	}
	return lit, rest, nil
}

func (r *Reader) errf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", r.line, fmt.Sprintf(format, args...))
}
