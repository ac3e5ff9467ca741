// Package backend implements the transactional entity/attribute/value
// fact store that backs every graph, over SQLite.
//
// The persisted unit is a fact (entity, attribute, value, tx). Entities
// carry an optional declared identifier; attributes are schema-defined
// with a closed value-type variant and a cardinality. Every commit
// appends one row to the transaction log; the log position doubles as
// the store's logical clock.
//
// Conditional commits: Transact and InstallAttrs accept an optional
// basis condition. The whole commit fails with ErrStaleBasis if the log
// has advanced past the supplied basis at commit time. This is the
// compare-and-swap primitive the prefix allocator's optimistic protocol
// relies on; SQLite's single-writer transaction gives it atomicity.
//
// Database configuration follows the usual SQLite posture:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package backend
