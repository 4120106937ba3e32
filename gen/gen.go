// Package gen generates synthetic fixtures for tests across the rest of
// the module: small grounding problems, known-SAT/UNSAT ground CNFs, and
// pigeonhole-style stress instances, plus a scripted UnitSolver test
// double. Randomized generators draw from a package-level seedable rng so
// a failing test's fixture can be reproduced exactly by its seed.
package gen

import (
	"math"
	"math/rand"
	"sync"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/mrf"
)

var rng = rand.New(rand.NewSource(33))
var mu sync.Mutex

// Seed reseeds the package rng, the same package-level seedable-rng shape
// used by every randomized generator in this file.
func Seed(s int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = rand.New(rand.NewSource(s))
}

func randLit(n int) lit.Lit {
	v := lit.AtomID(rng.Intn(n))
	if rng.Intn(2) == 0 {
		return v.Pos()
	}
	return v.Neg()
}

func blankAtoms(n int) []mrf.Atom {
	atoms := make([]mrf.Atom, n)
	for i := range atoms {
		atoms[i] = mrf.Atom{ID: uint64(i), Prior: math.NaN()}
	}
	return atoms
}

// Rand3CNF generates a random ground MRF with n atoms and m hard 3-literal
// clauses, none of them tautological or a trivial unit.
func Rand3CNF(n, m int) *mrf.MRF {
	mu.Lock()
	defer mu.Unlock()
	clauses := make([]mrf.Clause, 0, m)
	for i := 0; i < m; i++ {
		ls := make([]lit.Lit, 3)
	retry:
		for j := 0; j < 3; j++ {
			ls[j] = randLit(n)
			for k := 0; k < j; k++ {
				if ls[k].Var() == ls[j].Var() {
					ls[j] = randLit(n)
					k = -1
				}
			}
		}
		c, ok := mrf.NewClause(ls, model.HardWeight)
		if !ok {
			goto retry
		}
		clauses = append(clauses, c)
	}
	return mrf.New(blankAtoms(n), clauses)
}

// HardRand3CNF generates a random 3-SAT instance in the classically
// hard region, 4 clauses per variable.
func HardRand3CNF(n int) *mrf.MRF {
	return Rand3CNF(n, 4*n)
}

// partVar maps pigeon i, hole h (of H holes) to a dense atom id, the same
// linearization the original pigeonhole generator uses.
func partVar(i, h, holes int) lit.AtomID {
	return lit.AtomID(i*holes + h)
}

// Pigeonhole builds the classic unsatisfiable-when-pigeons>holes stress
// instance: every pigeon must go in some hole, and no two pigeons may
// share a hole. It is satisfiable iff pigeons <= holes.
func Pigeonhole(pigeons, holes int) *mrf.MRF {
	n := pigeons * holes
	var clauses []mrf.Clause
	for i := 0; i < pigeons; i++ {
		ls := make([]lit.Lit, holes)
		for h := 0; h < holes; h++ {
			ls[h] = partVar(i, h, holes).Pos()
		}
		if c, ok := mrf.NewClause(ls, model.HardWeight); ok {
			clauses = append(clauses, c)
		}
	}
	for i := 0; i < pigeons; i++ {
		for j := 0; j < i; j++ {
			for h := 0; h < holes; h++ {
				ls := []lit.Lit{partVar(i, h, holes).Neg(), partVar(j, h, holes).Neg()}
				if c, ok := mrf.NewClause(ls, model.HardWeight); ok {
					clauses = append(clauses, c)
				}
			}
		}
	}
	return mrf.New(blankAtoms(n), clauses)
}

// TrivialSat returns a one-atom MRF satisfied by its single positive unit
// clause.
func TrivialSat() *mrf.MRF {
	c, _ := mrf.NewClause([]lit.Lit{lit.AtomID(0).Pos()}, model.HardWeight)
	return mrf.New(blankAtoms(1), []mrf.Clause{c})
}

// TrivialUnsat returns a one-atom MRF with directly contradicting hard
// unit clauses.
func TrivialUnsat() *mrf.MRF {
	c1, _ := mrf.NewClause([]lit.Lit{lit.AtomID(0).Pos()}, model.HardWeight)
	c2, _ := mrf.NewClause([]lit.Lit{lit.AtomID(0).Neg()}, model.HardWeight)
	return mrf.New(blankAtoms(1), []mrf.Clause{c1, c2})
}

// SocialChainFixture is a small grounding-level fixture: n people arranged
// in a friendship cycle (Friends(p_i, p_{i+1 mod n})), each with a random
// smoking evidence bit, plus the classic smoking-causes-cancer and
// friends-smoke-alike clause templates. The cyclic Friends relation mirrors
// the original package's BinCycle shape, carried from pure SAT structure
// into this domain's predicates so grounding-closure tests can exercise a
// long transitive chain without hand-writing one.
type SocialChainFixture struct {
	Predicates []model.Predicate
	Friends    []model.Tuple
	Smokes     []model.Tuple
	Templates  []model.ClauseTemplate
}

// SocialChain builds a SocialChainFixture over n synthetic people.
func SocialChain(n int) SocialChainFixture {
	mu.Lock()
	defer mu.Unlock()
	people := make([]string, n)
	for i := range people {
		people[i] = "P" + itoa(i)
	}

	friends := make([]model.Tuple, 0, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		friends = append(friends, model.NewTuple([]string{people[i], people[j]}, model.TruthTrue, model.ClubActive))
	}

	smokes := make([]model.Tuple, 0, n)
	for i := 0; i < n; i++ {
		truth := model.TruthUnknown
		club := model.ClubUnknown
		if rng.Intn(2) == 0 {
			truth, club = model.TruthTrue, model.ClubActive
		}
		smokes = append(smokes, model.NewTuple([]string{people[i]}, truth, club))
	}

	predicates := []model.Predicate{
		{Name: "Friends", Arity: 2, ArgTypes: []string{"person", "person"}},
		{Name: "Smokes", Arity: 1, ArgTypes: []string{"person"}},
		{Name: "Cancer", Arity: 1, ArgTypes: []string{"person"}, IsQuery: true},
	}
	templates := []model.ClauseTemplate{
		{
			ID:     1,
			Weight: 1.5,
			Atoms: []model.Atom{
				{Predicate: "Smokes", Args: []string{"x"}, Negated: true},
				{Predicate: "Cancer", Args: []string{"x"}},
			},
			Vars: []model.Variable{{Name: "x"}},
		},
		{
			ID:     2,
			Weight: 1.1,
			Atoms: []model.Atom{
				{Predicate: "Friends", Args: []string{"x", "y"}, Negated: true},
				{Predicate: "Smokes", Args: []string{"x"}, Negated: true},
				{Predicate: "Smokes", Args: []string{"y"}},
			},
			Vars: []model.Variable{{Name: "x"}, {Name: "y"}},
		},
	}

	return SocialChainFixture{Predicates: predicates, Friends: friends, Smokes: smokes, Templates: templates}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
