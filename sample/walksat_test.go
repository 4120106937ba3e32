package sample

import (
	"math/rand"
	"testing"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/mrf"
)

func never() bool { return false }

func TestWalkSATSolvesXorConstraint(t *testing.T) {
	x, y := lit.AtomID(0), lit.AtomID(1)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}, {ID: 1}},
		[]mrf.Clause{
			{Lits: []lit.Lit{x.Pos(), y.Pos()}, Weight: model.HardWeight},
			{Lits: []lit.Lit{x.Neg(), y.Neg()}, Weight: model.HardWeight},
		},
	)

	rng := rand.New(rand.NewSource(1))
	_, cost, sat := WalkSAT(m, WalkSATConfig{MaxTries: 50, MaxFlips: 50, RandomWalkProb: 0.4}, rng, never)
	if !sat || cost != 0 {
		t.Fatalf("expected a satisfying assignment, got sat=%v cost=%v", sat, cost)
	}
	if m.Atoms[0].Truth == m.Atoms[1].Truth {
		t.Errorf("x and y must disagree, got x=%v y=%v", m.Atoms[0].Truth, m.Atoms[1].Truth)
	}
}

func TestWalkSATRespectsTimeout(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}},
		[]mrf.Clause{{Lits: []lit.Lit{x.Pos()}, Weight: model.HardWeight}, {Lits: []lit.Lit{x.Neg()}, Weight: model.HardWeight}},
	)
	rng := rand.New(rand.NewSource(2))
	calls := 0
	timedOut := func() bool {
		calls++
		return calls > 2
	}
	_, _, sat := WalkSAT(m, WalkSATConfig{MaxTries: 1000, MaxFlips: 1000, RandomWalkProb: 0.5}, rng, timedOut)
	if sat {
		t.Errorf("an unsatisfiable instance must never report sat")
	}
}
