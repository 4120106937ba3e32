// Package tuffy is the top-level facade over the inference pipeline: it
// wires a GroundStore, an optional UnitSolver, and the grounding,
// propagation, and sampling packages into one Run call, the same
// thin-facade-wrapping-an-internal-engine shape gini.Gini wraps xo.S with.
package tuffy

import (
	"context"
	"math/rand"
	"time"

	"tuffy/config"
	"tuffy/ground"
	"tuffy/lit"
	"tuffy/metrics"
	"tuffy/model"
	"tuffy/propagate"
	"tuffy/sample"
	"tuffy/store"
	"tuffy/tuffyerr"
	"tuffy/unitsolver"
)

// Driver runs one marginal-inference request end to end: ground, then
// optionally re-propagate the resulting MRF's hard units to a fixed
// point, then draw MC-SAT samples.
type Driver struct {
	Store      store.GroundStore
	Solver     unitsolver.UnitSolver
	Config     *config.Config
	Metrics    *metrics.Sink
	Templates  []model.ClauseTemplate
	Predicates []model.Predicate
}

// New returns a Driver ready for one call to Run.
func New(st store.GroundStore, solver unitsolver.UnitSolver, cfg *config.Config, sink *metrics.Sink, templates []model.ClauseTemplate, predicates []model.Predicate) *Driver {
	return &Driver{Store: st, Solver: solver, Config: cfg, Metrics: sink, Templates: templates, Predicates: predicates}
}

// AtomMarginal is one ground atom's estimated probability of being true.
// Predicate and Args are only populated when the underlying store
// implements store.AtomCatalog; otherwise a caller has only the bare
// AtomID to go on.
type AtomMarginal struct {
	AtomID    uint64
	Predicate string
	Args      []string
	Prob      float64
}

// Summary carries the same run statistics NonPartInfer.run prints at the
// end of a run, in the same order: grounding sizes, timeout partial
// counts, external and internal unit-propagation time, the SampleSAT
// failure count, then an echo of the sampling parameters the run used.
type Summary struct {
	NumberGroundClauses           int64
	NumberUnits                   int64
	NumberGroundAtoms             int64
	NumberSamplesAtTimeout        int64
	NumberClausesAtTimeout        int64
	GlucoseTimeMs                 int64
	JavaUPGroundingTimeMs         int64
	McsatStepsWhereSampleSatFails int64

	WalkSATRandomStepProb  float64
	SimulatedAnnealingProb float64
	SimulatedAnnealingCoef float64
	Samples                int
	MaxFlips               int
}

// Result is what one Driver.Run call reports.
type Result struct {
	Marginals   []AtomMarginal
	AverageCost float64
	Summary     Summary
}

// Run grounds the MLN, optionally re-propagates the resulting MRF's hard
// unit clauses to a fixed point, draws MC-SAT samples over what remains,
// and folds the forced-true/false atoms propagation pinned back into the
// reported marginals at probability 1 or 0. Ported from NonPartInfer.run:
// ground, check the deadline, propagate, sample, report.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	d.Metrics.Infof(">>> running marginal inference")

	groundCfg := ground.Config{
		MarkAllAtomsActive:              d.Config.MarkAllAtomsActive,
		IterativeUnitPropagate:          d.Config.IterativeUnitPropagate,
		KeyConstraintAllowsNullLabel:    d.Config.KeyConstraintAllowsNullLabel,
		MaxGroundAtoms:                  d.Config.MaxGroundAtoms,
		MaxGroundClauses:                d.Config.MaxGroundClauses,
		SoftEvidenceActivationThreshold: d.Config.SoftEvidenceActivationThreshold,
		LearningMode:                    d.Config.LearningMode,
	}
	g := ground.New(d.Store, d.Solver, groundCfg, d.Metrics, d.Templates, d.Predicates)

	groundStart := time.Now()
	m, err := g.Ground(ctx)
	if err != nil {
		return nil, err
	}
	d.Metrics.Infof("ground: %d atoms, %d clauses in %s", len(m.Atoms), len(m.Clauses), time.Since(groundStart))

	if err := ctx.Err(); err != nil {
		return nil, tuffyerr.Timeout("deadline passed before sampling could start")
	}

	origin := g.AtomOrigin // dense grounding atom id -> store atom id
	pinnedProbs := map[uint64]float64{}

	if d.Config.IterativeUnitPropagate {
		beforeAtoms, beforeClauses := len(m.Atoms), len(m.Clauses)
		upStart := time.Now()
		res, err := propagate.Run(m)
		if err != nil {
			return nil, err
		}
		d.Metrics.AddUPGroundingTime(time.Since(upStart))
		d.Metrics.Infof("unit propagation: %d -> %d atoms, %d -> %d clauses", beforeAtoms, len(res.MRF.Atoms), beforeClauses, len(res.MRF.Clauses))

		for groundingID, truth := range res.Pinned {
			storeID := origin[lit.AtomID(groundingID)]
			if truth {
				pinnedProbs[storeID] = 1
			} else {
				pinnedProbs[storeID] = 0
			}
		}

		surviving := make(map[lit.AtomID]uint64, len(res.Remap))
		for newID, oldID := range res.Remap {
			surviving[lit.AtomID(newID)] = origin[oldID]
		}
		origin = surviving
		m = res.MRF
	}

	d.Metrics.SetGroundingCounts(int64(len(m.Atoms)), int64(len(m.Clauses)), int64(len(pinnedProbs)))

	rng := rand.New(rand.NewSource(d.Config.Seed))
	timedOut := func() bool { return ctx.Err() != nil }

	mcCfg := sample.MCSATConfig{
		Samples: d.Config.Samples,
		SampleSAT: sample.SampleSATConfig{
			MaxFlips:       d.Config.MaxFlips,
			SAProb:         d.Config.SimulatedAnnealingProb,
			SACoef:         d.Config.SimulatedAnnealingCoef,
			RandomWalkProb: d.Config.WalkSATProb,
		},
	}
	sampleStart := time.Now()
	marginals := sample.ParallelMCSAT(m, mcCfg, d.Config.ParallelMCSATWorkers, rng, d.Metrics, timedOut)
	d.Metrics.Infof("mc-sat: %d samples in %s, average cost %v", marginals.N, time.Since(sampleStart), averageCost(marginals))

	catalog, _ := d.Store.(store.AtomCatalog)
	var refs map[uint64]store.AtomRef
	if catalog != nil {
		refs, err = catalog.DescribeAtoms(ctx)
		if err != nil {
			d.Metrics.Warnf("driver: describing atoms for reporting: %v", err)
			refs = nil
		}
	}

	out := make([]AtomMarginal, 0, len(m.Atoms)+len(pinnedProbs))
	for i := range m.Atoms {
		storeID := origin[lit.AtomID(i)]
		prob := 0.0
		if marginals.N > 0 {
			prob = float64(marginals.NTrue[i]) / float64(marginals.N)
		}
		out = append(out, labeledMarginal(storeID, prob, refs))
	}
	for storeID, prob := range pinnedProbs {
		out = append(out, labeledMarginal(storeID, prob, refs))
	}

	return &Result{
		Marginals:   out,
		AverageCost: averageCost(marginals),
		Summary: Summary{
			NumberGroundClauses:           d.Metrics.Stats.NumberGroundClauses,
			NumberUnits:                   d.Metrics.Stats.NumberUnits,
			NumberGroundAtoms:             d.Metrics.Stats.NumberGroundAtoms,
			NumberSamplesAtTimeout:        d.Metrics.Stats.NumberSamplesAtTimeout,
			NumberClausesAtTimeout:        d.Metrics.Stats.NumberClausesAtTimeout,
			GlucoseTimeMs:                 d.Metrics.Stats.GlucoseTimeMs,
			JavaUPGroundingTimeMs:         d.Metrics.Stats.JavaUPGroundingTimeMs,
			McsatStepsWhereSampleSatFails: int64(marginals.SampleSatFails),
			WalkSATRandomStepProb:         d.Config.WalkSATProb,
			SimulatedAnnealingProb:        d.Config.SimulatedAnnealingProb,
			SimulatedAnnealingCoef:        d.Config.SimulatedAnnealingCoef,
			Samples:                       d.Config.Samples,
			MaxFlips:                      d.Config.MaxFlips,
		},
	}, nil
}

func labeledMarginal(storeID uint64, prob float64, refs map[uint64]store.AtomRef) AtomMarginal {
	am := AtomMarginal{AtomID: storeID, Prob: prob}
	if ref, ok := refs[storeID]; ok {
		am.Predicate = ref.Predicate
		am.Args = ref.Args
	}
	return am
}

func averageCost(m *sample.Marginals) float64 {
	if m.N == 0 {
		return 0
	}
	return m.SumCost / float64(m.N)
}
