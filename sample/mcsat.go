package sample

import (
	"math"
	"math/rand"

	"tuffy/lit"
	"tuffy/metrics"
	"tuffy/model"
	"tuffy/mrf"
)

// MCSATConfig controls marginal inference.
type MCSATConfig struct {
	Samples   int
	SampleSAT SampleSATConfig
}

// Marginals is the result of an MC-SAT run: per-atom true-count tallies
// (divide by N for the marginal estimate) and the average cost under the
// full MRF over the samples actually drawn.
type Marginals struct {
	NTrue          []int64
	N              int
	SumCost        float64
	SampleSatFails int
}

// MCSAT draws N samples from the Gibbs distribution defined by m using the
// slice-sampling scheme: each step restricts SampleSAT to the hard clauses
// plus an independently-retained subset of the clauses currently satisfied
// by the running assignment, then folds the resulting model's truth
// values back onto a fresh copy of the full MRF to tally marginals and
// cost. m itself is never mutated; sink may be nil.
func MCSAT(m *mrf.MRF, cfg MCSATConfig, rng *rand.Rand, sink *metrics.Sink, timedOut func() bool) *Marginals {
	res := &Marginals{NTrue: make([]int64, len(m.Atoms))}
	sigma := m.Copy()

	for i := 0; i < cfg.Samples; i++ {
		if timedOut() {
			sink.SetTimeoutCounts(int64(res.N), int64(len(m.Clauses)))
			break
		}

		sub := retainedSubMRF(sigma, rng)
		if SampleSAT(sub, cfg.SampleSAT, rng, timedOut) {
			sigma = applyAssignment(m, sub)
		} else {
			sink.IncSampleSatFailure()
			res.SampleSatFails++
		}

		for a, at := range sigma.Atoms {
			if at.Truth {
				res.NTrue[a]++
			}
		}
		res.SumCost += sigma.Cost
		res.N++
	}
	return res
}

// retainedSubMRF builds M': every hard clause of sigma unchanged, plus
// each soft clause currently satisfied by sigma, independently retained
// with probability 1-exp(-|weight|). A retained positive-weight clause is
// kept as-is (it must stay satisfied); a retained negative-weight clause
// is replaced by one hard unit clause per literal, each negated, forcing
// the whole disjunction false, since a negative weight means the world is
// less likely the more often that clause holds.
func retainedSubMRF(sigma *mrf.MRF, rng *rand.Rand) *mrf.MRF {
	// SampleSAT must draw a near-uniform sample from M''s satisfying
	// region, not merely verify that the previous sigma still satisfies
	// it, so every call starts from a fresh random assignment rather than
	// sigma's current truth values.
	atoms := make([]mrf.Atom, len(sigma.Atoms))
	for i, a := range sigma.Atoms {
		a.Truth = rng.Intn(2) == 0
		atoms[i] = a
	}

	var clauses []mrf.Clause
	for i := range sigma.Clauses {
		c := &sigma.Clauses[i]
		if c.IsHard() {
			clauses = append(clauses, cloneClause(c))
			continue
		}
		if sigma.NSatForClause(c) == 0 {
			continue // not currently satisfied, not eligible for M
		}
		if rng.Float64() >= 1-math.Exp(-math.Abs(c.Weight)) {
			continue // not retained
		}
		if c.Weight < 0 {
			for _, l := range c.Lits {
				clauses = append(clauses, mrf.Clause{Lits: []lit.Lit{l.Not()}, Weight: model.HardWeight})
			}
			continue
		}
		clauses = append(clauses, cloneClause(c))
	}
	return mrf.New(atoms, clauses)
}

func cloneClause(c *mrf.Clause) mrf.Clause {
	return mrf.Clause{Lits: append([]lit.Lit(nil), c.Lits...), Weight: c.Weight}
}

// applyAssignment copies sub's truth values onto a fresh copy of full and
// recomputes its cost, so the sampler's per-sample bookkeeping always
// reflects the complete clause set rather than a reduced sub-MRF.
func applyAssignment(full *mrf.MRF, sub *mrf.MRF) *mrf.MRF {
	out := full.Copy()
	for i := range out.Atoms {
		out.Atoms[i].Truth = sub.Atoms[i].Truth
	}
	out.Recompute()
	return out
}
