package ground

import (
	"testing"

	"tuffy/lit"
)

func TestConsolidateSumsDuplicateWeights(t *testing.T) {
	a := lit.AtomID(1).Pos()
	b := lit.AtomID(2).Neg()
	raw := []rawClause{
		{Lits: []lit.Lit{a, b}, Weight: 1.0},
		{Lits: []lit.Lit{b, a}, Weight: 2.0}, // same clause, different literal order
	}
	out := consolidate(raw)
	if len(out) != 1 {
		t.Fatalf("expected 1 consolidated clause, got %d", len(out))
	}
	if out[0].Weight != 3.0 {
		t.Errorf("expected summed weight 3.0, got %v", out[0].Weight)
	}
}

func TestConsolidateDropsTautologies(t *testing.T) {
	a := lit.AtomID(1)
	raw := []rawClause{{Lits: []lit.Lit{a.Pos(), a.Neg()}, Weight: 5.0}}
	out := consolidate(raw)
	if len(out) != 0 {
		t.Errorf("expected tautology to be dropped, got %v", out)
	}
}

func TestConsolidateDropsZeroWeightGroups(t *testing.T) {
	a := lit.AtomID(1).Pos()
	b := lit.AtomID(2).Neg()
	raw := []rawClause{
		{Lits: []lit.Lit{a, b}, Weight: 4.0},
		{Lits: []lit.Lit{b, a}, Weight: -4.0}, // same clause, cancelling grounding
	}
	out := consolidate(raw)
	if len(out) != 0 {
		t.Errorf("expected clause with summed weight 0 to be dropped, got %v", out)
	}
}
