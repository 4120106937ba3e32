package ground

import (
	"context"

	"tuffy/lit"
	"tuffy/tuffyerr"
)

// simplifyWithHardUnits runs a one-shot unit-propagation pass over the hard
// clauses accumulated so far, seeded with every atom iterative unit
// propagation has already forced, and commits any newly forced literal to
// the store and to the closure's own bookkeeping. It is called once, right
// as the first soft-clause template is reached, so the much larger
// soft-clause expansion proceeds against an already-shrunk hard-clause CNF
// instead of re-discovering the same units while grounding soft templates.
// Unlike the post-grounding UnitPropagator, the atom set here is still
// open, so this works directly off the raw literal lists rather than a
// dense MRF with incidence structure.
func (g *Grounder) simplifyWithHardUnits(ctx context.Context, hard []rawClause) error {
	if len(hard) == 0 {
		return nil
	}

	clauses := make([][]lit.Lit, len(hard))
	for i, c := range hard {
		clauses[i] = append([]lit.Lit(nil), c.Lits...)
	}
	dropped := make([]bool, len(clauses))

	forced := make(map[lit.AtomID]bool, len(g.forced))
	for a, v := range g.forced {
		forced[a] = v
	}

	for changed := true; changed; {
		changed = false
		for i, ls := range clauses {
			if dropped[i] {
				continue
			}
			kept := ls[:0:0]
			satisfied := false
			for _, m := range ls {
				v, ok := forced[m.Var()]
				switch {
				case ok && v == m.IsPos():
					satisfied = true
				case ok:
					// falsified literal; drop it from the clause
				default:
					kept = append(kept, m)
				}
			}
			if satisfied {
				dropped[i] = true
				changed = true
				continue
			}
			if len(kept) == 0 {
				return tuffyerr.Unsat("hard-unit simplification shortened a clause to empty before soft grounding began")
			}
			if len(kept) < len(ls) {
				clauses[i] = kept
				changed = true
			}
			if len(clauses[i]) == 1 {
				m := clauses[i][0]
				v, truth := m.Var(), m.IsPos()
				if existing, ok := forced[v]; ok && existing != truth {
					return tuffyerr.Unsat("hard-unit simplification forced an atom both true and false")
				}
				forced[v] = truth
				dropped[i] = true
				changed = true
			}
		}
	}

	for v, truth := range forced {
		if existing, ok := g.forced[v]; ok {
			if existing != truth {
				return tuffyerr.Unsat("hard-unit simplification forced an atom both true and false")
			}
			continue
		}
		g.forced[v] = truth
		g.active[v] = true
		if err := g.Store.SetTruth(ctx, v, truth); err != nil {
			return err
		}
	}
	return nil
}
