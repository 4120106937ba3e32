package sample

import (
	"math"
	"math/rand"

	"tuffy/lit"
	"tuffy/mrf"
)

// SampleSATConfig controls the hybrid WalkSAT/simulated-annealing
// feasibility kernel.
type SampleSATConfig struct {
	MaxFlips       int
	SAProb         float64 // simulatedAnnealingSampleSATProb
	SACoef         float64 // samplesat_sa_coef, inverse temperature
	RandomWalkProb float64
}

// SampleSAT drives m toward a zero-cost assignment by alternating, per
// step, a single Bernoulli trial between a simulated-annealing flip and a
// WalkSAT flip restricted to m's own (already reduced) clause set. m is
// expected to already contain only the clauses that must hold for this
// slice sample, so "satisfied" means m.Cost == 0. Returns whether it
// succeeded within MaxFlips.
func SampleSAT(m *mrf.MRF, cfg SampleSATConfig, rng *rand.Rand, timedOut func() bool) bool {
	for flip := 0; flip < cfg.MaxFlips; flip++ {
		if m.Cost == 0 {
			return true
		}
		if timedOut() {
			return m.Cost == 0
		}
		if rng.Float64() < cfg.SAProb {
			saStep(m, cfg.SACoef, rng)
		} else {
			walksatStep(m, cfg.RandomWalkProb, rng)
		}
	}
	return m.Cost == 0
}

// saStep proposes a uniformly random atom flip and accepts it with
// probability min(1, exp(-delta*coef)); a cost-improving or neutral flip
// is always kept.
func saStep(m *mrf.MRF, coef float64, rng *rand.Rand) {
	a := lit.AtomID(rng.Intn(len(m.Atoms)))
	delta := m.FlipAtom(a)
	if delta <= 0 {
		return
	}
	if rng.Float64() < math.Exp(-delta*coef) {
		return
	}
	m.FlipAtom(a)
}
