// Package storageurl parses and rewrites backend storage-location URLs.
//
// Each supported backend scheme has its own URL grammar. The rewriter
// derives a sibling URL for a new database name by replacing only the
// name segment, preserving every other component (host, region, table,
// query parameters) byte-for-byte. Rewrites compose: rewriting to X and
// then to Y equals rewriting directly to Y.
package storageurl

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnrecognizedScheme indicates a URL whose scheme matches no known
// backend grammar. Fatal to the caller; never retried.
var ErrUnrecognizedScheme = errors.New("unrecognized storage scheme")

// grammar classifies how a scheme embeds its database name.
type grammar int

const (
	// tableGrammar: scheme://region/table/dbname[?query]
	tableGrammar grammar = iota
	// hostGrammar: scheme://host/dbname[?query]
	hostGrammar
	// jdbcGrammar: scheme://dbname?opaque-connection-suffix
	jdbcGrammar
	// pathGrammar: scheme:/dir/.../dbname or scheme://dbname
	pathGrammar
)

// schemes maps every supported backend scheme to its grammar.
var schemes = map[string]grammar{
	"ddb":  tableGrammar,
	"srv":  hostGrammar,
	"sql":  jdbcGrammar,
	"file": pathGrammar,
	"mem":  pathGrammar,
}

// Scheme returns the scheme portion of a storage URL, or an error if the
// URL carries no recognizable scheme.
func Scheme(url string) (string, error) {
	i := strings.IndexByte(url, ':')
	if i <= 0 {
		return "", fmt.Errorf("%w: %q has no scheme", ErrUnrecognizedScheme, url)
	}
	s := url[:i]
	if _, ok := schemes[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedScheme, s)
	}
	return s, nil
}

// DBName extracts the logical database name embedded in a storage URL.
func DBName(url string) (string, error) {
	scheme, body, query, err := split(url)
	if err != nil {
		return "", err
	}
	switch schemes[scheme] {
	case jdbcGrammar:
		return body, nil
	case pathGrammar:
		if scheme == "file" {
			return strings.TrimSuffix(path.Base(body), ".db"), nil
		}
		return path.Base(body), nil
	default:
		// Name is the final path segment; query never participates.
		_ = query
		return path.Base(body), nil
	}
}

// Rewrite returns a sibling storage URL identical to url except that the
// database-name segment is replaced with name. Trailing query parameters
// are preserved verbatim.
func Rewrite(url, name string) (string, error) {
	scheme, body, query, err := split(url)
	if err != nil {
		return "", err
	}
	var out string
	switch schemes[scheme] {
	case tableGrammar, hostGrammar:
		i := strings.LastIndexByte(body, '/')
		if i < 0 {
			return "", fmt.Errorf("%w: %q has no database segment", ErrUnrecognizedScheme, url)
		}
		out = scheme + "://" + body[:i+1] + name
	case jdbcGrammar:
		out = scheme + "://" + name
	case pathGrammar:
		if scheme == "mem" {
			out = "mem://" + name
		} else {
			dir := path.Dir(body)
			seg := name
			if strings.HasSuffix(path.Base(body), ".db") {
				seg += ".db"
			}
			out = "file:" + path.Join(dir, seg)
		}
	}
	if query != "" {
		out += "?" + query
	}
	return out, nil
}

// split separates a storage URL into scheme, body, and query. The body
// excludes the "://" (or ":" for path-only file URLs) and the query.
func split(url string) (scheme, body, query string, err error) {
	scheme, err = Scheme(url)
	if err != nil {
		return "", "", "", err
	}
	rest := url[len(scheme)+1:]
	rest = strings.TrimPrefix(rest, "//")
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		return scheme, rest[:i], rest[i+1:], nil
	}
	return scheme, rest, "", nil
}
