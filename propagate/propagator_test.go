package propagate

import (
	"testing"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/mrf"
	"tuffy/tuffyerr"
)

func TestRunPinsSingleHardUnit(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}},
		[]mrf.Clause{{Lits: []lit.Lit{x.Pos()}, Weight: model.HardWeight}},
	)

	res, err := Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.MRF.Atoms) != 0 || len(res.MRF.Clauses) != 0 {
		t.Fatalf("expected an empty MRF, got %d atoms, %d clauses", len(res.MRF.Atoms), len(res.MRF.Clauses))
	}
	if v, ok := res.Pinned[0]; !ok || !v {
		t.Errorf("expected atom 0 pinned true, got %v, %v", v, ok)
	}
}

func TestRunDetectsContradiction(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}},
		[]mrf.Clause{
			{Lits: []lit.Lit{x.Pos()}, Weight: model.HardWeight},
			{Lits: []lit.Lit{x.Neg()}, Weight: model.HardWeight},
		},
	)

	_, err := Run(m)
	if !tuffyerr.Is(err, tuffyerr.KindUnsat) {
		t.Fatalf("expected an Unsat error, got %v", err)
	}
}

func TestRunShortensClauseAndChains(t *testing.T) {
	x, y := lit.AtomID(0), lit.AtomID(1)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}, {ID: 1}},
		[]mrf.Clause{
			{Lits: []lit.Lit{x.Pos(), y.Pos()}, Weight: model.HardWeight},
			{Lits: []lit.Lit{x.Neg()}, Weight: model.HardWeight},
		},
	)

	res, err := Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.MRF.Atoms) != 0 || len(res.MRF.Clauses) != 0 {
		t.Fatalf("expected both atoms pinned and no clauses left, got %d atoms, %d clauses", len(res.MRF.Atoms), len(res.MRF.Clauses))
	}
	if v, ok := res.Pinned[0]; !ok || v {
		t.Errorf("expected atom 0 pinned false, got %v, %v", v, ok)
	}
	if v, ok := res.Pinned[1]; !ok || !v {
		t.Errorf("expected atom 1 pinned true, got %v, %v", v, ok)
	}
}

func TestRunLeavesSoftClauseWithoutForcedUnits(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New(
		[]mrf.Atom{{ID: 0}},
		[]mrf.Clause{{Lits: []lit.Lit{x.Pos()}, Weight: 1.5}},
	)

	res, err := Run(m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Pinned) != 0 {
		t.Errorf("a soft unit clause must not force anything, got %v", res.Pinned)
	}
	if len(res.MRF.Atoms) != 1 || len(res.MRF.Clauses) != 1 {
		t.Fatalf("expected the soft clause to survive untouched, got %d atoms, %d clauses", len(res.MRF.Atoms), len(res.MRF.Clauses))
	}
}
