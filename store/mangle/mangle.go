// Package mangle implements a GroundStore backed by Google Mangle's
// Datalog engine: facts are kept in a factstore.FactStore, and
// GroundClause synthesizes a throwaway Mangle rule per clause template
// and lets the engine's own evaluator perform the join, rather than
// hand-rolling one in Go the way store/memstore and store/sqlite do.
package mangle

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

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

// Store is a GroundStore whose fact storage and clause-template joins
// are both delegated to Google Mangle.
type Store struct {
	mu sync.Mutex

	predicates map[string]*model.Predicate
	rows       map[string][]*row
	byArgs     map[string]map[string]*row
	byAtomID   map[uint64]*row

	nextAtomID  uint64
	nextResult  int // disambiguates the synthetic head predicate across calls
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

// Seed loads tuples for predicate, assigning each a permanent atom id, the
// same contract as store/memstore's Seed.
func (s *Store) Seed(predicate string, tuples []model.Tuple, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.predicates[predicate]; !ok {
		return fmt.Errorf("mangle: unknown predicate %q", predicate)
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
			return activated, fmt.Errorf("mangle: unknown atom %d", id)
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
		return fmt.Errorf("mangle: unknown atom %d", atom)
	}
	if truth {
		r.tuple.Truth = model.TruthTrue
	} else {
		r.tuple.Truth = model.TruthFalse
	}
	return nil
}

// mangleVar turns a template variable name into a valid Mangle variable
// identifier: Mangle variables must start with an uppercase letter, while
// this package's clause templates name variables in lowercase.
func mangleVar(name string) string { return "V_" + name }

func quoteConst(v string) string { return strconv.Quote(v) }

// GroundClause synthesizes a Mangle program consisting of a declaration
// and rule for a throwaway head predicate whose body is template's atoms,
// evaluates it against a private snapshot fact store seeded only with the
// tuples of the predicates the template references, and reads the
// resulting bindings back to reconstruct which stored atom ids each
// grounding refers to.
func (s *Store) GroundClause(_ context.Context, tmpl model.ClauseTemplate) ([][]lit.Lit, error) {
	s.mu.Lock()
	varNames := make(map[string]bool, len(tmpl.Vars))
	for _, v := range tmpl.Vars {
		varNames[v.Name] = true
	}

	referenced := make(map[string]bool)
	for _, a := range tmpl.Atoms {
		referenced[a.Predicate] = true
	}

	snapshot := factstore.NewSimpleInMemoryStore()
	fstore := factstore.NewConcurrentFactStore(snapshot)
	for predicate := range referenced {
		p, ok := s.predicates[predicate]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("mangle: unknown predicate %q", predicate)
		}
		sym := ast.PredicateSym{Symbol: predicate, Arity: p.Arity}
		for _, r := range s.rows[predicate] {
			args := make([]ast.BaseTerm, len(r.tuple.Args))
			for i, v := range r.tuple.Args {
				args[i] = ast.String(v)
			}
			fstore.Add(ast.Atom{Predicate: sym, Args: args})
		}
	}
	s.nextResult++
	headName := fmt.Sprintf("ground_result_%d", s.nextResult)
	s.mu.Unlock()

	var src strings.Builder
	for predicate := range referenced {
		p := s.predicates[predicate]
		fmt.Fprintf(&src, "Decl %s(", predicate)
		for i := 0; i < p.Arity; i++ {
			if i > 0 {
				src.WriteString(", ")
			}
			fmt.Fprintf(&src, "Arg%d.Type<string>", i)
		}
		src.WriteString(").\n")
	}

	headVars := make([]string, 0, len(tmpl.Vars))
	for _, v := range tmpl.Vars {
		headVars = append(headVars, mangleVar(v.Name))
	}
	fmt.Fprintf(&src, "Decl %s(", headName)
	for i := range headVars {
		if i > 0 {
			src.WriteString(", ")
		}
		fmt.Fprintf(&src, "Arg%d.Type<string>", i)
	}
	src.WriteString(").\n")

	fmt.Fprintf(&src, "%s(%s) :- ", headName, strings.Join(headVars, ", "))
	for i, atom := range tmpl.Atoms {
		if i > 0 {
			src.WriteString(", ")
		}
		fmt.Fprintf(&src, "%s(%s)", atom.Predicate, strings.Join(mangleArgs(varNames, atom.Args), ", "))
	}
	src.WriteString(".\n")

	unit, err := parse.Unit(strings.NewReader(src.String()))
	if err != nil {
		return nil, fmt.Errorf("mangle: parsing synthesized program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("mangle: analyzing synthesized program: %w", err)
	}
	if _, err := mengine.EvalProgramWithStats(programInfo, fstore); err != nil {
		return nil, fmt.Errorf("mangle: evaluating synthesized program: %w", err)
	}

	headSym := ast.PredicateSym{Symbol: headName, Arity: len(headVars)}
	var bindingRows [][]string
	err = fstore.GetFacts(ast.NewQuery(headSym), func(fact ast.Atom) error {
		vals := make([]string, len(fact.Args))
		for i, a := range fact.Args {
			c, ok := a.(ast.Constant)
			if !ok {
				return fmt.Errorf("mangle: unbound result argument %v", a)
			}
			vals[i] = c.Symbol
		}
		bindingRows = append(bindingRows, vals)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mangle: reading synthesized results: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]lit.Lit, 0, len(bindingRows))
	for _, vals := range bindingRows {
		binding := make(map[string]string, len(tmpl.Vars))
		for i, v := range tmpl.Vars {
			binding[v.Name] = vals[i]
		}
		ls := make([]lit.Lit, 0, len(tmpl.Atoms))
		ok := true
		for _, atom := range tmpl.Atoms {
			concreteArgs := make([]string, len(atom.Args))
			for i, a := range atom.Args {
				if varNames[a] {
					concreteArgs[i] = binding[a]
				} else {
					concreteArgs[i] = a
				}
			}
			r, found := s.byArgs[atom.Predicate][argKey(concreteArgs)]
			if !found {
				ok = false
				break
			}
			a := lit.AtomID(r.atomID)
			if atom.Negated {
				ls = append(ls, a.Neg())
			} else {
				ls = append(ls, a.Pos())
			}
		}
		if ok {
			out = append(out, ls)
		}
	}
	return out, nil
}

func mangleArgs(varNames map[string]bool, args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if varNames[a] {
			out[i] = mangleVar(a)
		} else {
			out[i] = quoteConst(a)
		}
	}
	return out
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
// evidence truth.
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
