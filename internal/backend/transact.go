package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Fact is one assertion to commit: entity (by declared identifier),
// attribute (by identifier), value.
type Fact struct {
	Entity string
	Attr   string
	Value  Value
}

// Condition is an optional precondition on a commit: the transaction log
// must not have advanced past Basis. A failed condition aborts the whole
// commit with ErrStaleBasis.
type Condition struct {
	Basis int64
}

// SchemaConflictError indicates an attribute definition incompatible
// with an existing one - either two shapes inferred for one predicate,
// or an install against a store that already defines the attribute
// differently. Surfaced to the caller, never retried.
type SchemaConflictError struct {
	Ident    string
	Existing AttrDef
	Proposed AttrDef
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("schema conflict on %q: existing %s/%s, proposed %s/%s",
		e.Ident, e.Existing.Type, e.Existing.Cardinality, e.Proposed.Type, e.Proposed.Cardinality)
}

// Transact commits a batch of facts as one atomic transaction. Entities
// and reference targets are interned by declared identifier, created on
// first use. Either every fact commits or none do; partial application
// is never observable.
//
// Returns the new transaction-log position.
func (c *Conn) Transact(ctx context.Context, facts []Fact, cond *Condition) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &BackendError{URL: c.url, Op: "transact", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	txID, err := c.beginCommit(ctx, tx, cond)
	if err != nil {
		return 0, err
	}

	for _, f := range facts {
		if err := c.assertFact(ctx, tx, txID, f); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &BackendError{URL: c.url, Op: "transact", Err: err}
	}
	return txID, nil
}

// InstallAttrs commits attribute definitions as one atomic transaction.
// Re-installing an identical definition is a no-op; an incompatible
// existing definition fails the whole commit with SchemaConflictError.
func (c *Conn) InstallAttrs(ctx context.Context, defs []AttrDef, cond *Condition) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &BackendError{URL: c.url, Op: "install attrs", Err: err}
	}
	defer tx.Rollback()

	txID, err := c.beginCommit(ctx, tx, cond)
	if err != nil {
		return 0, err
	}

	for _, def := range defs {
		var existing AttrDef
		var rdf int
		err := tx.QueryRowContext(ctx, `
			SELECT ident, value_type, cardinality, rdf FROM attributes WHERE ident = ?
		`, def.Ident).Scan(&existing.Ident, &existing.Type, &existing.Cardinality, &rdf)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO attributes (ident, value_type, cardinality, rdf, tx)
				VALUES (?, ?, ?, ?, ?)
			`, def.Ident, string(def.Type), string(def.Cardinality), boolInt(def.RDF), txID)
			if err != nil {
				return 0, &BackendError{URL: c.url, Op: "install attrs", Err: err}
			}
		case err != nil:
			return 0, &BackendError{URL: c.url, Op: "install attrs", Err: err}
		default:
			existing.RDF = rdf != 0
			if existing.Type != def.Type || existing.Cardinality != def.Cardinality {
				return 0, &SchemaConflictError{Ident: def.Ident, Existing: existing, Proposed: def}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &BackendError{URL: c.url, Op: "install attrs", Err: err}
	}
	return txID, nil
}

// beginCommit checks the basis condition and appends the transaction-log
// row, returning the new log position. Runs inside the caller's SQL
// transaction so the check and the append are atomic.
func (c *Conn) beginCommit(ctx context.Context, tx *sql.Tx, cond *Condition) (int64, error) {
	if cond != nil {
		var basis int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(tx), 0) FROM txlog`).Scan(&basis); err != nil {
			return 0, &BackendError{URL: c.url, Op: "transact", Err: err}
		}
		if basis > cond.Basis {
			return 0, fmt.Errorf("commit condition (basis %d, log at %d): %w", cond.Basis, basis, ErrStaleBasis)
		}
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO txlog (annotation) VALUES (?)`, uuid.NewString())
	if err != nil {
		return 0, &BackendError{URL: c.url, Op: "transact", Err: err}
	}
	txID, err := res.LastInsertId()
	if err != nil {
		return 0, &BackendError{URL: c.url, Op: "transact", Err: err}
	}
	return txID, nil
}

// assertFact writes one fact, interning entities and encoding the value
// per the attribute's declared type.
func (c *Conn) assertFact(ctx context.Context, tx *sql.Tx, txID int64, f Fact) error {
	eid, err := internEntity(ctx, tx, f.Entity)
	if err != nil {
		return &BackendError{URL: c.url, Op: "transact", Err: err}
	}

	var def AttrDef
	var aid int64
	var rdf int
	err = tx.QueryRowContext(ctx, `
		SELECT id, value_type, cardinality, rdf FROM attributes WHERE ident = ?
	`, f.Attr).Scan(&aid, &def.Type, &def.Cardinality, &rdf)
	if err == sql.ErrNoRows {
		return fmt.Errorf("attribute %q: %w", f.Attr, ErrNotFound)
	}
	if err != nil {
		return &BackendError{URL: c.url, Op: "transact", Err: err}
	}

	if got := Type(f.Value); got != def.Type {
		return fmt.Errorf("attribute %q expects %s value, got %s", f.Attr, def.Type, got)
	}

	var v string
	var vref sql.NullInt64
	if ref, ok := f.Value.(Ref); ok {
		rid, err := internEntity(ctx, tx, string(ref))
		if err != nil {
			return &BackendError{URL: c.url, Op: "transact", Err: err}
		}
		vref = sql.NullInt64{Int64: rid, Valid: true}
	} else {
		v, err = encodeLiteral(f.Value)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", f.Attr, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO facts (e, a, v, vref, tx) VALUES (?, ?, ?, ?, ?)
	`, eid, aid, v, vref, txID)
	if err != nil {
		return &BackendError{URL: c.url, Op: "transact", Err: err}
	}
	return nil
}

// internEntity resolves a declared identifier to an entity id, creating
// the entity on first use.
func internEntity(ctx context.Context, tx *sql.Tx, ident string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM entities WHERE ident = ?`, ident).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("intern entity %q: %w", ident, err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO entities (ident) VALUES (?)`, ident)
	if err != nil {
		return 0, fmt.Errorf("intern entity %q: %w", ident, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("intern entity %q: %w", ident, err)
	}
	return id, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
