package mrf

import (
	"testing"

	"tuffy/lit"
	"tuffy/model"
)

func mkAtom(truth bool) Atom { return Atom{Truth: truth} }

func TestNewClauseDedupesAndDetectsTautology(t *testing.T) {
	a := lit.AtomID(1).Pos()
	b := lit.AtomID(1).Neg()
	if _, ok := NewClause([]lit.Lit{a, b}, 1.0); ok {
		t.Errorf("expected tautology to be rejected")
	}
	c, ok := NewClause([]lit.Lit{a, a}, 1.0)
	if !ok || len(c.Lits) != 1 {
		t.Errorf("expected dedup to a single literal, got %v ok=%v", c.Lits, ok)
	}
}

func TestCostAndFlip(t *testing.T) {
	// one hard clause (x1 v x2), both false initially: unsatisfied.
	c1, _ := NewClause([]lit.Lit{lit.AtomID(0).Pos(), lit.AtomID(1).Pos()}, model.HardWeight)
	atoms := []Atom{mkAtom(false), mkAtom(false)}
	m := New(atoms, []Clause{c1})
	if m.Cost != model.HardWeight {
		t.Errorf("expected cost = hard weight, got %v", m.Cost)
	}
	delta := m.FlipAtom(0)
	if delta != -model.HardWeight {
		t.Errorf("expected flip to resolve the clause, delta=%v", delta)
	}
	if m.Cost != 0 {
		t.Errorf("expected zero cost after satisfying flip, got %v", m.Cost)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	c1, _ := NewClause([]lit.Lit{lit.AtomID(0).Pos()}, 3.0)
	m := New([]Atom{mkAtom(true)}, []Clause{c1})
	n := m.Copy()
	n.Atoms[0].Truth = false
	if m.Atoms[0].Truth != true {
		t.Errorf("copy shares atom storage with original")
	}
}
