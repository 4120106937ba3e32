package tuffyerr

import (
	"fmt"
	"testing"
)

func TestIsFindsWrappedKind(t *testing.T) {
	base := SolverFailure("glucose exited", fmt.Errorf("exit status 1"))
	wrapped := fmt.Errorf("grounding step failed: %w", base)
	if !Is(wrapped, KindSolverFailure) {
		t.Errorf("expected wrapped solver failure to be detected")
	}
	if Is(wrapped, KindUnsat) {
		t.Errorf("did not expect unsat kind to match")
	}
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("boom")
	e := SolverFailure("msg", inner)
	if e.Unwrap() != inner {
		t.Errorf("expected Unwrap to return inner error")
	}
}
