package lit

import "testing"

func TestDimacsRoundTrip(t *testing.T) {
	for i := 1; i < 100; i++ {
		if Dimacs2Lit(i).Dimacs() != i {
			t.Errorf("dimacs conversion %d", i)
		}
		if Dimacs2Lit(-i).Dimacs() != -i {
			t.Errorf("dimacs - conversion %d", i)
		}
		if !Dimacs2Lit(i).IsPos() {
			t.Errorf("not positive: %d", i)
		}
		if Dimacs2Lit(-i).IsPos() {
			t.Errorf("not negative: -%d", i)
		}
	}
}

func TestPosNegNot(t *testing.T) {
	a := AtomID(33)
	m := a.Pos()
	n := a.Neg()
	if m.Sign() != 1 {
		t.Errorf("wrong sign for pos lit %d", m.Sign())
	}
	if n.Sign() != -1 {
		t.Errorf("wrong sign for neg lit %d", n.Sign())
	}
	if m.Not() != n {
		t.Errorf("pos/neg not negations")
	}
	if m.Var() != a || n.Var() != a {
		t.Errorf("generated lits not same atom")
	}
}

func TestExistentialSentinel(t *testing.T) {
	if !IsExistentialSentinel(ExistentialSentinel) {
		t.Errorf("expected sentinel to be recognized")
	}
	if !IsExistentialSentinel(-ExistentialSentinel) {
		t.Errorf("expected negated sentinel to be recognized")
	}
	if IsExistentialSentinel(42) {
		t.Errorf("42 should not be a sentinel")
	}
}
