package gen

import (
	"context"
	"math/rand"
	"time"

	"tuffy/lit"
	"tuffy/unitsolver"
)

// FakeUnitSolver is a scripted unitsolver.UnitSolver test double: it
// returns a fixed, pre-configured answer after a random delay drawn from
// [0, d), the same bounded-random-wait-then-return-a-scripted-result shape
// the original package's randS fakes a SAT solver with. It never looks at
// the cnf it is given; tests configure the answer ahead of time.
type FakeUnitSolver struct {
	delay  time.Duration
	forced []lit.Lit
	unsat  bool
	rand   *rand.Rand
}

// NewFakeUnitSolver returns a FakeUnitSolver that answers with forced
// after waiting a random duration in [0, d).
func NewFakeUnitSolver(d time.Duration, forced []lit.Lit) *FakeUnitSolver {
	return &FakeUnitSolver{delay: d, forced: forced, rand: rand.New(rand.NewSource(33))}
}

// NewFakeUnsatUnitSolver returns a FakeUnitSolver that always reports the
// cnf unsatisfiable after waiting a random duration in [0, d).
func NewFakeUnsatUnitSolver(d time.Duration) *FakeUnitSolver {
	return &FakeUnitSolver{delay: d, unsat: true, rand: rand.New(rand.NewSource(33))}
}

func (f *FakeUnitSolver) Units(ctx context.Context, cnf []unitsolver.Clause) ([]lit.Lit, error) {
	wait := time.Duration(0)
	if f.delay > 0 {
		wait = time.Duration(f.rand.Int63n(f.delay.Nanoseconds()))
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.unsat {
		return nil, unitsolver.ErrUnsat
	}
	return f.forced, nil
}
