package ground

import (
	"context"
	"fmt"
	"testing"

	"tuffy/model"
	"tuffy/store/memstore"
)

func buildStore(t *testing.T) (*memstore.Store, []model.Predicate) {
	t.Helper()
	preds := []model.Predicate{
		{Name: "Friends", Arity: 2, ArgTypes: []string{"p", "p"}},
		{Name: "Smokes", Arity: 1, ArgTypes: []string{"p"}},
	}
	s := memstore.New(preds)
	if err := s.Seed("Friends", []model.Tuple{
		model.NewTuple([]string{"Anna", "Bob"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed friends: %v", err)
	}
	if err := s.Seed("Smokes", []model.Tuple{
		model.NewTuple([]string{"Anna"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Bob"}, model.TruthUnknown, model.ClubUnknown),
	}, false); err != nil {
		t.Fatalf("seed smokes: %v", err)
	}
	// Anna's Smokes tuple is itself evidence, so it starts active; Bob's is
	// discovered through the clause below and should be activated by the
	// closure, not pre-seeded.
	if _, err := s.ActivateAtoms(context.Background(), []uint64{2}); err != nil {
		t.Fatalf("activate anna: %v", err)
	}
	return s, preds
}

func TestGroundActivatesTransitivelyConnectedAtom(t *testing.T) {
	s, preds := buildStore(t)
	tmpl := model.ClauseTemplate{
		ID:     1,
		Weight: 2.0,
		Atoms: []model.Atom{
			{Predicate: "Friends", Negated: true, Args: []string{"x", "y"}},
			{Predicate: "Smokes", Negated: true, Args: []string{"x"}},
			{Predicate: "Smokes", Args: []string{"y"}},
		},
		Vars: []model.Variable{{Name: "x"}, {Name: "y"}},
	}
	g := New(s, nil, Config{}, nil, []model.ClauseTemplate{tmpl}, preds)
	m, err := g.Ground(context.Background())
	if err != nil {
		t.Fatalf("ground: %v", err)
	}
	if len(m.Atoms) != 3 {
		t.Fatalf("expected Friends(Anna,Bob), Smokes(Anna) and Smokes(Bob) active, got %d atoms", len(m.Atoms))
	}
	// 1 soft clause from the template plus 2 hard evidence units, one for
	// Friends(Anna,Bob) and one for Smokes(Anna) - both seeded with a fixed
	// truth rather than model.TruthUnknown.
	if len(m.Clauses) != 3 {
		t.Fatalf("expected 1 soft clause and 2 evidence hard units, got %d clauses", len(m.Clauses))
	}
	hard := 0
	for _, c := range m.Clauses {
		if c.IsHard() {
			hard++
		}
	}
	if hard != 2 {
		t.Fatalf("expected 2 hard evidence unit clauses, got %d", hard)
	}
}

func TestGroundEnforcesKeyConstraint(t *testing.T) {
	preds := []model.Predicate{
		{Name: "AgeOf", Arity: 2, ArgTypes: []string{"p", "int"}, IsKeyConstrained: true, KeyArgs: []int{0}},
	}
	s := memstore.New(preds)
	if err := s.Seed("AgeOf", []model.Tuple{
		model.NewTuple([]string{"Anna", "30"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Anna", "31"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	g := New(s, nil, Config{KeyConstraintAllowsNullLabel: true}, nil, nil, preds)
	m, err := g.Ground(context.Background())
	if err != nil {
		t.Fatalf("ground: %v", err)
	}
	// 1 mutex clause for the conflicting key group plus 2 hard evidence
	// units, one per AgeOf tuple (both seeded with truth=True).
	if len(m.Clauses) != 3 {
		t.Fatalf("expected 3 hard clauses (1 mutex + 2 evidence units), got %d", len(m.Clauses))
	}
	for i, c := range m.Clauses {
		if !c.IsHard() {
			t.Errorf("clause %d: expected hard, all of mutex and evidence clauses are hard", i)
		}
	}
}

// TestGroundClosureIsMinimal checks that evidence atoms referenced only as
// the antecedent of an implication never enter the active set: P is true
// for every one of 1000 people and appears in no other template, so no
// assignment to any P atom can ever change the cost of w: P(x) => Q(x),
// and the closure must not activate a single one of them.
func TestGroundClosureIsMinimal(t *testing.T) {
	preds := []model.Predicate{
		{Name: "P", Arity: 1, ArgTypes: []string{"p"}},
		{Name: "Q", Arity: 1, ArgTypes: []string{"p"}, IsQuery: true},
	}
	s := memstore.New(preds)

	const n = 1000
	pTuples := make([]model.Tuple, n)
	qTuples := make([]model.Tuple, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("person%d", i)
		pTuples[i] = model.NewTuple([]string{name}, model.TruthTrue, model.ClubActive)
		qTuples[i] = model.NewTuple([]string{name}, model.TruthUnknown, model.ClubQuery)
	}
	if err := s.Seed("P", pTuples, false); err != nil {
		t.Fatalf("seed P: %v", err)
	}
	if err := s.Seed("Q", qTuples, false); err != nil {
		t.Fatalf("seed Q: %v", err)
	}

	tmpl := model.ClauseTemplate{
		ID:     1,
		Weight: 2.0,
		Atoms: []model.Atom{
			{Predicate: "P", Negated: true, Args: []string{"x"}},
			{Predicate: "Q", Args: []string{"x"}},
		},
		Vars: []model.Variable{{Name: "x"}},
	}

	g := New(s, nil, Config{}, nil, []model.ClauseTemplate{tmpl}, preds)
	m, err := g.Ground(context.Background())
	if err != nil {
		t.Fatalf("ground: %v", err)
	}

	refs, err := s.DescribeAtoms(context.Background())
	if err != nil {
		t.Fatalf("describe atoms: %v", err)
	}
	pActive, qActive := 0, 0
	for _, storeID := range g.AtomOrigin {
		switch refs[storeID].Predicate {
		case "P":
			pActive++
		case "Q":
			qActive++
		}
	}
	if pActive != 0 {
		t.Errorf("expected 0 active P atoms, got %d", pActive)
	}
	if qActive != n {
		t.Errorf("expected %d active Q atoms, got %d", n, qActive)
	}
	if len(m.Clauses) != n {
		t.Errorf("expected %d ground clauses, got %d", n, len(m.Clauses))
	}
}
