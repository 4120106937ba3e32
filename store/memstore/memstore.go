// Package memstore implements an in-memory hash-join GroundStore: the
// default backend for tests and small MLNs, with no external dependency.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/store"
)

type row struct {
	atomID    uint64
	predicate string
	tuple     model.Tuple
	active    bool
}

// Store is a map-of-slices GroundStore, indexed by predicate name and then
// by argument vector for hash-join lookups. Every tuple the store will
// ever need to reference is loaded up front via Seed, which assigns each
// one a permanent atom id; ActivateAtoms only ever flips an existing row's
// active bit.
type Store struct {
	mu sync.Mutex

	predicates map[string]*model.Predicate
	rows       map[string][]*row
	byArgs     map[string]map[string]*row // predicate -> joined-args key -> row
	byAtomID   map[uint64]*row

	nextAtomID uint64
}

var _ store.GroundStore = (*Store)(nil)
var _ store.SoftEvidenceSource = (*Store)(nil)
var _ store.KeyConstraintSource = (*Store)(nil)
var _ store.AtomCatalog = (*Store)(nil)
var _ store.EvidenceSource = (*Store)(nil)

// New returns an empty Store over the given predicate schema.
func New(predicates []model.Predicate) *Store {
	s := &Store{
		predicates: make(map[string]*model.Predicate, len(predicates)),
		rows:       make(map[string][]*row),
		byArgs:     make(map[string]map[string]*row),
		byAtomID:   make(map[uint64]*row),
		nextAtomID: 1,
	}
	for i := range predicates {
		p := predicates[i]
		s.predicates[p.Name] = &p
		s.byArgs[p.Name] = make(map[string]*row)
	}
	return s
}

func argKey(args []string) string { return strings.Join(args, "\x1f") }

// Seed loads the full domain of tuples for predicate (evidence, query
// rows, or otherwise), assigning each a permanent atom id. active sets the
// initial activation state for every tuple in the batch; program.Program
// seeds everything inactive and lets the grounding closure, plus its own
// soft-evidence and learning-mode passes, decide what starts active.
func (s *Store) Seed(predicate string, tuples []model.Tuple, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.predicates[predicate]; !ok {
		return fmt.Errorf("memstore: unknown predicate %q", predicate)
	}
	for _, t := range tuples {
		k := argKey(t.Args)
		if _, exists := s.byArgs[predicate][k]; exists {
			continue
		}
		id := s.nextAtomID
		s.nextAtomID++
		t.AtomID = id
		r := &row{atomID: id, predicate: predicate, tuple: t, active: active}
		s.rows[predicate] = append(s.rows[predicate], r)
		s.byArgs[predicate][k] = r
		s.byAtomID[id] = r
	}
	return nil
}

func (s *Store) ActiveAtomsOf(_ context.Context, predicate string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint64
	for _, r := range s.rows[predicate] {
		if r.active {
			out = append(out, r.atomID)
		}
	}
	return out, nil
}

func (s *Store) ActivateAtoms(_ context.Context, atomIDs []uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activated := 0
	for _, id := range atomIDs {
		r, ok := s.byAtomID[id]
		if !ok {
			return activated, fmt.Errorf("memstore: unknown atom %d", id)
		}
		if !r.active {
			r.active = true
			activated++
		}
	}
	return activated, nil
}

func (s *Store) SetTruth(_ context.Context, atom lit.AtomID, truth bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byAtomID[uint64(atom)]
	if !ok {
		return fmt.Errorf("memstore: unknown atom %d", atom)
	}
	if truth {
		r.tuple.Truth = model.TruthTrue
	} else {
		r.tuple.Truth = model.TruthFalse
	}
	return nil
}

// GroundClause performs a nested-loop join over the template's atoms
// against every tuple the store holds for each referenced predicate
// (active or not), binding shared variable names across positions. It is
// deliberately simple (no query planning) since this store exists for
// tests and small instances, not performance.
func (s *Store) GroundClause(_ context.Context, tmpl model.ClauseTemplate) ([][]lit.Lit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	varNames := variableSet(tmpl.Vars)

	type frame struct {
		bindings map[string]string
		picks    []*row
	}
	frames := []frame{{bindings: map[string]string{}, picks: nil}}

	for _, atom := range tmpl.Atoms {
		var next []frame
		for _, fr := range frames {
			for _, r := range s.rows[atom.Predicate] {
				nb, ok := unify(varNames, fr.bindings, atom.Args, r.tuple.Args)
				if !ok {
					continue
				}
				picks := append(append([]*row(nil), fr.picks...), r)
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
			r := fr.picks[i]
			a := lit.AtomID(r.atomID)
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

// variableSet returns the set of names that tmpl.Vars declares as genuine
// logical variables, so unify can tell them apart from literal constants
// that happen to share the Args slice.
func variableSet(vars []model.Variable) map[string]bool {
	out := make(map[string]bool, len(vars))
	for _, v := range vars {
		out[v.Name] = true
	}
	return out
}

// unify binds atom.Args positions named in varNames against vals, extending
// bindings; an Args position not in varNames is a literal constant and must
// match vals at that position exactly, contributing no binding.
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

func (s *Store) SoftEvidenceAtoms(_ context.Context, predicate string) ([]model.Tuple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Tuple
	for _, r := range s.rows[predicate] {
		if !math.IsNaN(r.tuple.SoftProb) {
			out = append(out, r.tuple)
		}
	}
	return out, nil
}

// DescribeAtoms returns the predicate and argument vector every atom id
// this store has ever assigned was seeded from.
func (s *Store) DescribeAtoms(_ context.Context) (map[uint64]store.AtomRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]store.AtomRef, len(s.byAtomID))
	for id, r := range s.byAtomID {
		out[id] = store.AtomRef{Predicate: r.predicate, Args: append([]string(nil), r.tuple.Args...)}
	}
	return out, nil
}

// EvidenceTruths returns every atom id this store has seeded with a fixed
// evidence truth, i.e. every row whose tuple.Truth is not TruthUnknown.
func (s *Store) EvidenceTruths(_ context.Context) (map[uint64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]bool)
	for id, r := range s.byAtomID {
		switch r.tuple.Truth {
		case model.TruthTrue:
			out[id] = true
		case model.TruthFalse:
			out[id] = false
		}
	}
	return out, nil
}

func (s *Store) KeyGroups(_ context.Context, predicate string, keyArgs []int) ([]model.KeyGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make(map[string]*model.KeyGroup)
	var order []string
	for _, r := range s.rows[predicate] {
		kv := make([]string, len(keyArgs))
		for i, idx := range keyArgs {
			if idx < len(r.tuple.Args) {
				kv[i] = r.tuple.Args[idx]
			}
		}
		k := argKey(kv)
		g, ok := groups[k]
		if !ok {
			g = &model.KeyGroup{Predicate: predicate, KeyArgs: kv}
			groups[k] = g
			order = append(order, k)
		}
		g.AtomIDs = append(g.AtomIDs, r.atomID)
	}
	sort.Strings(order)
	out := make([]model.KeyGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}
