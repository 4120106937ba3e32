package gen

import (
	"context"
	"testing"
	"time"

	"tuffy/lit"
	"tuffy/unitsolver"
)

func TestRand3CNFProducesNonTautologicalClauses(t *testing.T) {
	Seed(7)
	m := Rand3CNF(20, 40)
	if len(m.Clauses) != 40 {
		t.Fatalf("expected 40 clauses, got %d", len(m.Clauses))
	}
	for _, c := range m.Clauses {
		if len(c.Lits) != 3 {
			t.Errorf("expected 3 distinct literals, got %d", len(c.Lits))
		}
	}
}

func TestPigeonholeBuildsOneAtomPerPigeonHolePair(t *testing.T) {
	m := Pigeonhole(4, 3)
	if m.Cost == 0 {
		t.Skip("initial all-false assignment happens to satisfy every clause; not the interesting case")
	}
	if len(m.Atoms) != 12 {
		t.Fatalf("expected 12 atoms, got %d", len(m.Atoms))
	}
}

func TestTrivialSatAndUnsat(t *testing.T) {
	sat := TrivialSat()
	if len(sat.Clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(sat.Clauses))
	}
	unsat := TrivialUnsat()
	if len(unsat.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(unsat.Clauses))
	}
}

func TestSocialChainBuildsCyclicFriendships(t *testing.T) {
	Seed(3)
	fx := SocialChain(5)
	if len(fx.Friends) != 5 {
		t.Fatalf("expected 5 friendship links in the cycle, got %d", len(fx.Friends))
	}
	if len(fx.Smokes) != 5 {
		t.Fatalf("expected 5 smokes rows, got %d", len(fx.Smokes))
	}
	if len(fx.Templates) != 2 {
		t.Fatalf("expected 2 clause templates, got %d", len(fx.Templates))
	}
	last := fx.Friends[len(fx.Friends)-1]
	if last.Args[1] != fx.Friends[0].Args[0] {
		t.Errorf("expected the cycle to close back to the first person, got %v", last)
	}
}

func TestFakeUnitSolverReturnsScriptedForcedLiterals(t *testing.T) {
	forced := []lit.Lit{lit.AtomID(0).Pos(), lit.AtomID(1).Neg()}
	s := NewFakeUnitSolver(5*time.Millisecond, forced)
	got, err := s.Units(context.Background(), []unitsolver.Clause{{lit.AtomID(0).Pos()}})
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	if len(got) != len(forced) {
		t.Fatalf("expected %d forced literals, got %d", len(forced), len(got))
	}
}

func TestFakeUnitSolverReportsUnsat(t *testing.T) {
	s := NewFakeUnsatUnitSolver(time.Millisecond)
	_, err := s.Units(context.Background(), nil)
	if err != unitsolver.ErrUnsat {
		t.Fatalf("expected ErrUnsat, got %v", err)
	}
}

func TestFakeUnitSolverRespectsContextCancellation(t *testing.T) {
	s := NewFakeUnitSolver(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Units(ctx, nil)
	if err == nil {
		t.Fatalf("expected a context-cancellation error")
	}
}
