package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"tuffy/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedThenActivateAtomsByID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Seed(ctx, "Smokes", []model.Tuple{
		model.NewTuple([]string{"Anna"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Bob"}, model.TruthUnknown, model.ClubUnknown),
	}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ids, err := s.ActiveAtomsOf(ctx, "Smokes")
	if err != nil {
		t.Fatalf("active atoms: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no active atoms before activation, got %v", ids)
	}

	n, err := s.ActivateAtoms(ctx, ids2(t, s, "Smokes"))
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 newly activated, got %d", n)
	}
	ids, err = s.ActiveAtomsOf(ctx, "Smokes")
	if err != nil {
		t.Fatalf("active atoms: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 active atoms, got %d", len(ids))
	}
}

// ids2 fetches every atom id seeded for predicate, regardless of current
// activation, by going through GroundClause on a trivial one-atom template.
func ids2(t *testing.T, s *Store, predicate string) []uint64 {
	t.Helper()
	groundings, err := s.GroundClause(context.Background(), model.ClauseTemplate{
		Atoms: []model.Atom{{Predicate: predicate, Args: []string{"x"}}},
		Vars:  []model.Variable{{Name: "x"}},
	})
	if err != nil {
		t.Fatalf("ground: %v", err)
	}
	out := make([]uint64, 0, len(groundings))
	for _, g := range groundings {
		out = append(out, uint64(g[0].Var()))
	}
	return out
}

func TestGroundClauseJoinsSharedVariablesAcrossAllTuples(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Seed(ctx, "Friends", []model.Tuple{
		model.NewTuple([]string{"Anna", "Bob"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed friends: %v", err)
	}
	if err := s.Seed(ctx, "Smokes", []model.Tuple{
		model.NewTuple([]string{"Bob"}, model.TruthUnknown, model.ClubUnknown),
	}, false); err != nil {
		t.Fatalf("seed smokes: %v", err)
	}

	tmpl := model.ClauseTemplate{
		Weight: 1.5,
		Atoms: []model.Atom{
			{Predicate: "Friends", Args: []string{"x", "y"}},
			{Predicate: "Smokes", Negated: true, Args: []string{"y"}},
		},
		Vars: []model.Variable{{Name: "x"}, {Name: "y"}},
	}
	groundings, err := s.GroundClause(ctx, tmpl)
	if err != nil {
		t.Fatalf("ground: %v", err)
	}
	if len(groundings) != 1 {
		t.Fatalf("expected exactly one grounding from the shared binding, got %d", len(groundings))
	}
}

func TestGroundClauseTreatsUndeclaredArgsAsLiteralConstants(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Seed(ctx, "Friends", []model.Tuple{
		model.NewTuple([]string{"Anna", "Bob"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Carl", "Dana"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tmpl := model.ClauseTemplate{
		Weight: 1.0,
		Atoms:  []model.Atom{{Predicate: "Friends", Args: []string{"Anna", "y"}}},
		Vars:   []model.Variable{{Name: "y"}},
	}
	groundings, err := s.GroundClause(ctx, tmpl)
	if err != nil {
		t.Fatalf("ground: %v", err)
	}
	if len(groundings) != 1 {
		t.Fatalf("expected only the Anna/Bob row to match the literal constant, got %d groundings", len(groundings))
	}
}

func TestSoftEvidenceAtomsSkipsAbsent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	tup := model.NewTuple([]string{"Anna"}, model.TruthUnknown, model.ClubActive)
	tup.SoftProb = 0.9
	if err := s.Seed(ctx, "Smokes", []model.Tuple{
		tup,
		model.NewTuple([]string{"Bob"}, model.TruthUnknown, model.ClubUnknown),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	soft, err := s.SoftEvidenceAtoms(ctx, "Smokes")
	if err != nil {
		t.Fatalf("soft evidence: %v", err)
	}
	if len(soft) != 1 || soft[0].Args[0] != "Anna" {
		t.Fatalf("expected exactly Anna's soft evidence row, got %v", soft)
	}
	if math.IsNaN(soft[0].SoftProb) {
		t.Errorf("expected a concrete probability")
	}
}

func TestKeyGroups(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Seed(ctx, "Age", []model.Tuple{
		model.NewTuple([]string{"Anna", "30"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Anna", "31"}, model.TruthTrue, model.ClubActive),
		model.NewTuple([]string{"Bob", "40"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	groups, err := s.KeyGroups(ctx, "Age", []int{0})
	if err != nil {
		t.Fatalf("key groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 key groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.KeyArgs[0] == "Anna" && len(g.AtomIDs) != 2 {
			t.Errorf("expected Anna's group to have 2 conflicting atoms, got %d", len(g.AtomIDs))
		}
	}
}

func TestSetTruthRejectsUnknownAtom(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.SetTruth(ctx, 999, true); err == nil {
		t.Errorf("expected an error setting truth on an unknown atom")
	}
}
