// Package sqlite implements a GroundStore backed by an embedded SQLite
// database, for MLNs whose evidence and query domains are too large to
// keep comfortably in process memory.
//
// Every predicate's tuples live in one shared atoms table rather than a
// table per predicate: SQLite has no array column type, and generating
// dynamic per-template n-way SQL joins for arbitrary clause shapes would
// mean building and caching a new prepared statement per distinct
// template shape. Instead GroundClause fetches every candidate row for
// each atom's predicate with one plain SELECT and performs the actual
// join in Go, the same nested-loop unify memstore uses. This trades join
// performance for a single, fixed schema; the database still earns its
// keep by keeping the full tuple set off the Go heap and durable across
// runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/store"
)

const argSep = "\x1f"

// Store is a GroundStore backed by a single SQLite database file.
type Store struct {
	db *sql.DB
}

var _ store.GroundStore = (*Store)(nil)
var _ store.SoftEvidenceSource = (*Store)(nil)
var _ store.KeyConstraintSource = (*Store)(nil)
var _ store.AtomCatalog = (*Store)(nil)
var _ store.EvidenceSource = (*Store)(nil)

// Open opens (creating if necessary) a SQLite database at path, with WAL
// mode enabled, and ensures its schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS atoms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	predicate TEXT NOT NULL,
	args TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0,
	truth INTEGER NOT NULL DEFAULT 0,
	club INTEGER NOT NULL DEFAULT 0,
	soft_prob REAL,
	UNIQUE(predicate, args)
);

CREATE INDEX IF NOT EXISTS idx_atoms_predicate ON atoms(predicate);
CREATE INDEX IF NOT EXISTS idx_atoms_active ON atoms(predicate, active);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func argKey(args []string) string { return strings.Join(args, argSep) }

func splitArgKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, argSep)
}

// Seed loads tuples for predicate, each as a row keyed on (predicate,
// args); a tuple whose key already exists is left untouched. active sets
// the initial activation flag for newly-inserted rows.
func (s *Store) Seed(ctx context.Context, predicate string, tuples []model.Tuple, active bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO atoms (predicate, args, active, truth, club, soft_prob)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(predicate, args) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tuples {
		var softProb interface{}
		if !math.IsNaN(t.SoftProb) {
			softProb = t.SoftProb
		}
		if _, err := stmt.ExecContext(ctx, predicate, argKey(t.Args), boolToInt(active), int(t.Truth), int(t.Club), softProb); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) ActiveAtomsOf(ctx context.Context, predicate string) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM atoms WHERE predicate = ? AND active = 1`, predicate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ActivateAtoms(ctx context.Context, atomIDs []uint64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE atoms SET active = 1 WHERE id = ? AND active = 0`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	activated := 0
	for _, id := range atomIDs {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return activated, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return activated, err
		}
		activated += int(n)
	}
	return activated, tx.Commit()
}

func (s *Store) SetTruth(ctx context.Context, atom lit.AtomID, truth bool) error {
	t := model.TruthFalse
	if truth {
		t = model.TruthTrue
	}
	res, err := s.db.ExecContext(ctx, `UPDATE atoms SET truth = ? WHERE id = ?`, int(t), uint64(atom))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sqlite: unknown atom %d", atom)
	}
	return nil
}

// EvidenceTruths returns every atom id with a truth column other than
// TruthUnknown.
func (s *Store) EvidenceTruths(ctx context.Context) (map[uint64]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, truth FROM atoms WHERE truth != ?`, int(model.TruthUnknown))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]bool)
	for rows.Next() {
		var id uint64
		var truth int
		if err := rows.Scan(&id, &truth); err != nil {
			return nil, err
		}
		out[id] = model.TruthState(truth) == model.TruthTrue
	}
	return out, rows.Err()
}

type fetchedRow struct {
	id   uint64
	args []string
}

func (s *Store) fetchPredicate(ctx context.Context, predicate string) ([]fetchedRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, args FROM atoms WHERE predicate = ?`, predicate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []fetchedRow
	for rows.Next() {
		var id uint64
		var args string
		if err := rows.Scan(&id, &args); err != nil {
			return nil, err
		}
		out = append(out, fetchedRow{id: id, args: splitArgKey(args)})
	}
	return out, rows.Err()
}

// GroundClause performs the join implied by template's atoms in Go,
// against one SELECT per referenced predicate. See the package doc for
// why this isn't pushed down into SQL.
func (s *Store) GroundClause(ctx context.Context, tmpl model.ClauseTemplate) ([][]lit.Lit, error) {
	varNames := make(map[string]bool, len(tmpl.Vars))
	for _, v := range tmpl.Vars {
		varNames[v.Name] = true
	}

	cache := make(map[string][]fetchedRow)
	rowsFor := func(predicate string) ([]fetchedRow, error) {
		if r, ok := cache[predicate]; ok {
			return r, nil
		}
		r, err := s.fetchPredicate(ctx, predicate)
		if err != nil {
			return nil, err
		}
		cache[predicate] = r
		return r, nil
	}

	type frame struct {
		bindings map[string]string
		picks    []uint64
	}
	frames := []frame{{bindings: map[string]string{}, picks: nil}}

	for _, atom := range tmpl.Atoms {
		candidates, err := rowsFor(atom.Predicate)
		if err != nil {
			return nil, err
		}
		var next []frame
		for _, fr := range frames {
			for _, r := range candidates {
				nb, ok := unify(varNames, fr.bindings, atom.Args, r.args)
				if !ok {
					continue
				}
				picks := append(append([]uint64(nil), fr.picks...), r.id)
				next = append(next, frame{bindings: nb, picks: picks})
			}
		}
		frames = next
		if len(frames) == 0 {
			break
		}
	}

	out := make([][]lit.Lit, 0, len(frames))
	for _, fr := range frames {
		ls := make([]lit.Lit, 0, len(tmpl.Atoms))
		for i, atom := range tmpl.Atoms {
			a := lit.AtomID(fr.picks[i])
			if atom.Negated {
				ls = append(ls, a.Neg())
			} else {
				ls = append(ls, a.Pos())
			}
		}
		out = append(out, ls)
	}
	return out, nil
}

// unify mirrors memstore's constant-vs-variable join logic: an args
// position counts as a bindable variable only if varNames declares it,
// otherwise it is a literal constant requiring an exact match.
func unify(varNames map[string]bool, bindings map[string]string, args, vals []string) (map[string]string, bool) {
	if len(args) != len(vals) {
		return nil, false
	}
	nb := make(map[string]string, len(bindings)+len(args))
	for k, v := range bindings {
		nb[k] = v
	}
	for i, a := range args {
		if !varNames[a] {
			if a != vals[i] {
				return nil, false
			}
			continue
		}
		if bound, ok := nb[a]; ok {
			if bound != vals[i] {
				return nil, false
			}
			continue
		}
		nb[a] = vals[i]
	}
	return nb, true
}

// DescribeAtoms returns the predicate and argument vector of every atom
// row in the database.
func (s *Store) DescribeAtoms(ctx context.Context) (map[uint64]store.AtomRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, predicate, args FROM atoms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]store.AtomRef)
	for rows.Next() {
		var id uint64
		var predicate, args string
		if err := rows.Scan(&id, &predicate, &args); err != nil {
			return nil, err
		}
		out[id] = store.AtomRef{Predicate: predicate, Args: splitArgKey(args)}
	}
	return out, rows.Err()
}

func (s *Store) SoftEvidenceAtoms(ctx context.Context, predicate string) ([]model.Tuple, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, args, truth, club, soft_prob FROM atoms WHERE predicate = ? AND soft_prob IS NOT NULL`, predicate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Tuple
	for rows.Next() {
		var id uint64
		var args string
		var truth, club int
		var softProb float64
		if err := rows.Scan(&id, &args, &truth, &club, &softProb); err != nil {
			return nil, err
		}
		out = append(out, model.Tuple{
			AtomID:   id,
			Args:     splitArgKey(args),
			Truth:    model.TruthState(truth),
			Club:     model.Club(club),
			SoftProb: softProb,
		})
	}
	return out, rows.Err()
}

func (s *Store) KeyGroups(ctx context.Context, predicate string, keyArgs []int) ([]model.KeyGroup, error) {
	rows, err := s.fetchPredicate(ctx, predicate)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*model.KeyGroup)
	var order []string
	for _, r := range rows {
		kv := make([]string, len(keyArgs))
		for i, idx := range keyArgs {
			if idx < len(r.args) {
				kv[i] = r.args[idx]
			}
		}
		k := argKey(kv)
		g, ok := groups[k]
		if !ok {
			g = &model.KeyGroup{Predicate: predicate, KeyArgs: kv}
			groups[k] = g
			order = append(order, k)
		}
		g.AtomIDs = append(g.AtomIDs, r.id)
	}
	sort.Strings(order)
	out := make([]model.KeyGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}
