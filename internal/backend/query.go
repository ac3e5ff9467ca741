package backend

import (
	"context"
	"database/sql"
	"fmt"
)

// Pattern selects facts from a snapshot. Zero-valued fields match
// anything; set fields narrow the result.
type Pattern struct {
	EntityID int64  // internal id, 0 = any
	Entity   string // declared identifier, "" = any
	Attr     string // attribute identifier, "" = any
	Value    Value  // nil = any
	RDFOnly  bool   // only RDF-flagged attributes
}

// FactRow is one matched fact with its attribute and entity metadata
// resolved.
type FactRow struct {
	EntityID    int64
	EntityIdent string
	Attr        AttrDef
	Value       Value
	RefID       int64 // internal id of the referenced entity, for ref values
	Tx          int64
}

// Facts returns all facts visible in the snapshot that match the
// pattern. For cardinality-one attributes only the latest assertion at
// or before the snapshot's basis is visible. Order follows backend
// enumeration (entity, attribute, tx).
func (s *Snapshot) Facts(ctx context.Context, p Pattern) ([]FactRow, error) {
	q := `
		SELECT f.e, COALESCE(e.ident, ''), a.ident, a.value_type, a.cardinality, a.rdf,
		       f.v, f.vref, COALESCE(re.ident, ''), f.tx
		FROM facts f
		JOIN attributes a ON a.id = f.a
		JOIN entities e ON e.id = f.e
		LEFT JOIN entities re ON re.id = f.vref
		WHERE f.tx <= ?
		  AND (a.cardinality = 'many' OR NOT EXISTS (
		        SELECT 1 FROM facts f2
		        WHERE f2.e = f.e AND f2.a = f.a AND f2.tx > f.tx AND f2.tx <= ?))
	`
	args := []any{s.Basis, s.Basis}

	if p.EntityID != 0 {
		q += ` AND f.e = ?`
		args = append(args, p.EntityID)
	}
	if p.Entity != "" {
		q += ` AND e.ident = ?`
		args = append(args, p.Entity)
	}
	if p.Attr != "" {
		q += ` AND a.ident = ?`
		args = append(args, p.Attr)
	}
	if p.RDFOnly {
		q += ` AND a.rdf = 1`
	}
	if p.Value != nil {
		if ref, ok := p.Value.(Ref); ok {
			q += ` AND re.ident = ?`
			args = append(args, string(ref))
		} else {
			enc, err := encodeLiteral(p.Value)
			if err != nil {
				return nil, err
			}
			q += ` AND f.v = ?`
			args = append(args, enc)
		}
	}
	q += ` ORDER BY f.e, f.a, f.tx`

	rows, err := s.conn.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &BackendError{URL: s.conn.url, Op: "query", Err: err}
	}
	defer rows.Close()

	var out []FactRow
	for rows.Next() {
		var r FactRow
		var vtype, card string
		var rdf int
		var v string
		var vref sql.NullInt64
		var refIdent string
		if err := rows.Scan(&r.EntityID, &r.EntityIdent, &r.Attr.Ident, &vtype, &card, &rdf,
			&v, &vref, &refIdent, &r.Tx); err != nil {
			return nil, &BackendError{URL: s.conn.url, Op: "query", Err: err}
		}
		r.Attr.Type = ValueType(vtype)
		r.Attr.Cardinality = Cardinality(card)
		r.Attr.RDF = rdf != 0
		if r.Attr.Type == TypeRef {
			if !vref.Valid {
				return nil, &BackendError{URL: s.conn.url, Op: "query",
					Err: fmt.Errorf("ref fact for %q has no target", r.Attr.Ident)}
			}
			r.RefID = vref.Int64
			r.Value = Ref(refIdent)
		} else {
			val, err := decodeLiteral(r.Attr.Type, v)
			if err != nil {
				return nil, &BackendError{URL: s.conn.url, Op: "query", Err: err}
			}
			r.Value = val
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &BackendError{URL: s.conn.url, Op: "query", Err: err}
	}
	return out, nil
}

// One returns the single visible value of a cardinality-one attribute on
// an entity, by declared identifier.
func (s *Snapshot) One(ctx context.Context, entity, attr string) (Value, bool, error) {
	rows, err := s.Facts(ctx, Pattern{Entity: entity, Attr: attr})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[len(rows)-1].Value, true, nil
}

// EntityView is a dereferenced entity: its declared identifier plus all
// visible attribute values.
type EntityView struct {
	ID    int64
	Ident string
	Attrs map[string][]Value
}

// Deref materializes the entity with the given internal id.
func (s *Snapshot) Deref(ctx context.Context, id int64) (*EntityView, error) {
	var ident sql.NullString
	err := s.conn.db.QueryRowContext(ctx, `SELECT ident FROM entities WHERE id = ?`, id).Scan(&ident)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, &BackendError{URL: s.conn.url, Op: "deref", Err: err}
	}

	rows, err := s.Facts(ctx, Pattern{EntityID: id})
	if err != nil {
		return nil, err
	}
	view := &EntityView{ID: id, Ident: ident.String, Attrs: make(map[string][]Value)}
	for _, r := range rows {
		view.Attrs[r.Attr.Ident] = append(view.Attrs[r.Attr.Ident], r.Value)
	}
	return view, nil
}

// Attr returns the schema definition of an attribute, if installed.
func (c *Conn) Attr(ctx context.Context, ident string) (AttrDef, bool, error) {
	var def AttrDef
	var rdf int
	err := c.db.QueryRowContext(ctx, `
		SELECT ident, value_type, cardinality, rdf FROM attributes WHERE ident = ?
	`, ident).Scan(&def.Ident, &def.Type, &def.Cardinality, &rdf)
	if err == sql.ErrNoRows {
		return AttrDef{}, false, nil
	}
	if err != nil {
		return AttrDef{}, false, &BackendError{URL: c.url, Op: "query", Err: err}
	}
	def.RDF = rdf != 0
	return def, true, nil
}
