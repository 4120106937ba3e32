// Package sample implements the stochastic local search kernels used once
// a ground MRF exists: WalkSAT for MAP inference, SampleSAT as the
// feasibility kernel MC-SAT calls to draw a near-uniform model of a
// satisfied-clause subset, and MC-SAT itself for marginal inference.
package sample

import (
	"math/rand"

	"tuffy/lit"
	"tuffy/mrf"
)

// WalkSATConfig controls the MAP search.
type WalkSATConfig struct {
	MaxTries       int
	MaxFlips       int
	RandomWalkProb float64 // walksat_random_step_probability
}

// WalkSAT runs randomized greedy local search for a zero-cost assignment,
// restarting up to MaxTries times and tracking the best assignment seen
// across every try. m is mutated in place as tries proceed; the caller
// gets back the best truth assignment found, its cost, and whether it is
// fully satisfying.
func WalkSAT(m *mrf.MRF, cfg WalkSATConfig, rng *rand.Rand, timedOut func() bool) (best []bool, bestCost float64, sat bool) {
	haveBest := false
	for try := 0; try < cfg.MaxTries; try++ {
		randomizeAssignment(m, rng)
		m.Recompute()
		if !haveBest || m.Cost < bestCost {
			bestCost, best, haveBest = m.Cost, snapshot(m), true
		}

		for flip := 0; flip < cfg.MaxFlips; flip++ {
			if m.Cost == 0 {
				return snapshot(m), 0, true
			}
			if timedOut() {
				return best, bestCost, bestCost == 0
			}
			if !walksatStep(m, cfg.RandomWalkProb, rng) {
				break
			}
			if m.Cost < bestCost {
				bestCost, best = m.Cost, snapshot(m)
			}
		}
	}
	return best, bestCost, bestCost == 0
}

// walksatStep performs one WalkSAT flip: pick an unsatisfied clause
// uniformly, then within it pick a flip target either uniformly at random
// (probability randomWalkProb) or by minimal cost delta. Returns false if
// m has no unsatisfied clause left to pick from.
func walksatStep(m *mrf.MRF, randomWalkProb float64, rng *rand.Rand) bool {
	c := pickUnsatisfiedClause(m, rng)
	if c < 0 {
		return false
	}
	a := pickFlipAtom(m, &m.Clauses[c], randomWalkProb, rng)
	m.FlipAtom(a)
	return true
}

func randomizeAssignment(m *mrf.MRF, rng *rand.Rand) {
	for i := range m.Atoms {
		m.Atoms[i].Truth = rng.Intn(2) == 0
	}
}

func snapshot(m *mrf.MRF) []bool {
	out := make([]bool, len(m.Atoms))
	for i, a := range m.Atoms {
		out[i] = a.Truth
	}
	return out
}

func pickUnsatisfiedClause(m *mrf.MRF, rng *rand.Rand) mrf.ClauseID {
	var unsat []mrf.ClauseID
	for i := range m.Clauses {
		if m.NSatForClause(&m.Clauses[i]) == 0 {
			unsat = append(unsat, mrf.ClauseID(i))
		}
	}
	if len(unsat) == 0 {
		return -1
	}
	return unsat[rng.Intn(len(unsat))]
}

// pickFlipAtom chooses which atom within c to flip: uniformly at random
// with probability randomWalkProb, otherwise the atom minimizing the
// resulting cost delta (ties broken uniformly).
func pickFlipAtom(m *mrf.MRF, c *mrf.Clause, randomWalkProb float64, rng *rand.Rand) lit.AtomID {
	atoms := uniqueVars(c.Lits)
	if rng.Float64() < randomWalkProb {
		return atoms[rng.Intn(len(atoms))]
	}

	bestDelta := flipDelta(m, atoms[0])
	ties := []lit.AtomID{atoms[0]}
	for _, a := range atoms[1:] {
		d := flipDelta(m, a)
		switch {
		case d < bestDelta:
			bestDelta, ties = d, []lit.AtomID{a}
		case d == bestDelta:
			ties = append(ties, a)
		}
	}
	return ties[rng.Intn(len(ties))]
}

// flipDelta measures the cost delta of flipping a without committing to
// it: flip, read the delta, flip back.
func flipDelta(m *mrf.MRF, a lit.AtomID) float64 {
	d := m.FlipAtom(a)
	m.FlipAtom(a)
	return d
}

func uniqueVars(ls []lit.Lit) []lit.AtomID {
	seen := make(map[lit.AtomID]bool, len(ls))
	out := make([]lit.AtomID, 0, len(ls))
	for _, l := range ls {
		v := l.Var()
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
