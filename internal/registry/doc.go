// Package registry maintains the system store: the directory of named
// graphs and the namespace-prefix table shared by all of them.
//
// The system store is the single shared resource across all naming
// operations. The only concurrency-safe mutation path into it is the
// optimistic conditional-commit protocol used by the prefix allocator:
// read a snapshot, compute, commit bound to the snapshot's basis, retry
// on staleness. Correctness is delegated entirely to the backend's
// conditional-commit primitive; no in-process state is shared.
//
// Graph creation deliberately bypasses that protocol. The window between
// a directory miss and the record commit can admit duplicate creation
// under concurrent callers for the same IRI; store creation is
// idempotent, so the damage is bounded to a redundant directory fact.
// This is an accepted, documented limitation rather than an oversight.
package registry
