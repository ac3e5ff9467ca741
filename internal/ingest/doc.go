// Package ingest bridges the triple data model and the backend's
// entity/attribute/value facts.
//
// Loading is two-phase. Schema inference derives one attribute per
// distinct predicate from the shapes of observed objects and installs
// the attribute set in a single transaction before any data commit.
// Data loading then encodes every triple as facts and commits the whole
// stream atomically; partial application of a stream is never
// observable.
//
// Reading is the inverse: facts whose attribute carries the RDF flag
// are decoded back into triples, with reference-typed values expanded
// through entity dereferencing to the target's declared identifier.
//
// Schema inference assumes a fresh store, consistent with the
// directory's creation path. Re-inferring against a store that already
// defines an attribute differently fails with SchemaConflictError.
package ingest
