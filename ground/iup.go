package ground

import (
	"context"
	"time"

	"tuffy/tuffyerr"
	"tuffy/unitsolver"
)

// runIUP hands the hard clauses grounded so far to the external unit
// solver, commits every forced literal both to the store and to the
// grounder's own forced map, and records the time spent. A hard
// contradiction is surfaced as a fatal Unsat error; any other solver
// failure is wrapped as a recoverable SolverFailure so the caller can log
// it and continue grounding without this particular IUP step.
func (g *Grounder) runIUP(ctx context.Context, hard []rawClause) error {
	if len(hard) == 0 {
		return nil
	}
	cnf := make([]unitsolver.Clause, len(hard))
	for i, c := range hard {
		cnf[i] = unitsolver.Clause(c.Lits)
	}

	start := time.Now()
	units, err := g.Solver.Units(ctx, cnf)
	g.Metrics.AddGlucoseTime(time.Since(start))
	if err == unitsolver.ErrUnsat {
		return tuffyerr.Unsat("iterative unit propagation found a hard contradiction")
	}
	if err != nil {
		return tuffyerr.SolverFailure("external unit solver call failed", err)
	}

	for _, m := range units {
		v := m.Var()
		truth := m.IsPos()
		if existing, ok := g.forced[v]; ok && existing != truth {
			return tuffyerr.Unsat("iterative unit propagation forced an atom both true and false")
		}
		g.forced[v] = truth
		g.active[v] = true
		if err := g.Store.SetTruth(ctx, v, truth); err != nil {
			return err
		}
	}
	return nil
}
