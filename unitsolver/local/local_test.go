package local

import (
	"context"
	"testing"

	"tuffy/lit"
	"tuffy/unitsolver"
)

func TestUnitsForcesChain(t *testing.T) {
	a := lit.AtomID(1)
	b := lit.AtomID(2)
	c := lit.AtomID(3)
	cnf := []unitsolver.Clause{
		{a.Pos()},
		{a.Neg(), b.Pos()},
		{b.Neg(), c.Pos()},
	}
	s := New()
	units, err := s.Units(context.Background(), cnf)
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	forced := map[lit.AtomID]bool{}
	for _, m := range units {
		if !m.IsPos() {
			t.Errorf("expected all forced literals to be positive here, got %s", m)
		}
		forced[m.Var()] = true
	}
	for _, v := range []lit.AtomID{a, b, c} {
		if !forced[v] {
			t.Errorf("expected atom %v to be forced", v)
		}
	}
}

func TestUnitsDetectsContradiction(t *testing.T) {
	a := lit.AtomID(1)
	cnf := []unitsolver.Clause{
		{a.Pos()},
		{a.Neg()},
	}
	s := New()
	if _, err := s.Units(context.Background(), cnf); err != unitsolver.ErrUnsat {
		t.Fatalf("expected ErrUnsat, got %v", err)
	}
}
