// Package local implements an in-process UnitSolver: a queue-driven unit
// propagation fixed point over the given CNF, with no external process.
// It is the zero-dependency default, and the backend cmd/unitoracle
// serves remotely.
package local

import (
	"context"

	"tuffy/lit"
	"tuffy/unitsolver"
)

// Solver is a stateless in-process UnitSolver.
type Solver struct{}

// New returns a local Solver.
func New() *Solver { return &Solver{} }

// Units runs unit propagation to a fixed point over cnf and returns every
// literal it forced. It only performs propagation, not a full search, so
// it can report a clause set unsatisfiable via a direct contradiction but
// cannot prove satisfiability of a clause set with no unit to start from;
// such clauses simply contribute no forced literals, which matches the
// UnitSolver contract (the grounder treats "no units found" and "not yet
// provably unsat" identically).
func (s *Solver) Units(_ context.Context, cnf []unitsolver.Clause) ([]lit.Lit, error) {
	assigned := make(map[lit.AtomID]bool) // value: true means the positive lit is forced
	forced := make(map[lit.AtomID]lit.Lit)

	clauses := make([]unitsolver.Clause, len(cnf))
	for i, c := range cnf {
		clauses[i] = append(unitsolver.Clause(nil), c...)
	}

	for {
		progressed := false
		for i, c := range clauses {
			if c == nil {
				continue
			}
			var unassignedLit lit.Lit
			unassignedCount := 0
			satisfied := false
			for _, m := range c {
				v := m.Var()
				if val, ok := assigned[v]; ok {
					if val == m.IsPos() {
						satisfied = true
						break
					}
					continue // falsified literal, drop it from consideration
				}
				unassignedCount++
				unassignedLit = m
			}
			if satisfied {
				clauses[i] = nil
				continue
			}
			if unassignedCount == 0 {
				return nil, unitsolver.ErrUnsat
			}
			if unassignedCount == 1 {
				v := unassignedLit.Var()
				if existing, ok := assigned[v]; ok {
					if existing != unassignedLit.IsPos() {
						return nil, unitsolver.ErrUnsat
					}
					continue
				}
				assigned[v] = unassignedLit.IsPos()
				forced[v] = unassignedLit
				clauses[i] = nil
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	out := make([]lit.Lit, 0, len(forced))
	for _, m := range forced {
		out = append(out, m)
	}
	return out, nil
}
