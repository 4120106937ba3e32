package sample

import (
	"math/rand"
	"testing"

	"tuffy/lit"
	"tuffy/mrf"
)

func TestParallelMCSATMergesWorkerTallies(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New([]mrf.Atom{{ID: 0}}, []mrf.Clause{{Lits: []lit.Lit{x.Pos()}, Weight: 1.0}})

	rng := rand.New(rand.NewSource(9))
	cfg := MCSATConfig{Samples: 4000, SampleSAT: SampleSATConfig{MaxFlips: 30, SAProb: 0.3, SACoef: 2.0, RandomWalkProb: 0.5}}
	res := ParallelMCSAT(m, cfg, 4, rng, nil, never)
	if res.N != cfg.Samples {
		t.Fatalf("expected the full sample budget split across workers, got %d", res.N)
	}
	if res.NTrue[0] < 0 || res.NTrue[0] > int64(res.N) {
		t.Errorf("merged tally out of range: %d of %d", res.NTrue[0], res.N)
	}
}

func TestParallelMCSATSingleWorkerMatchesMCSAT(t *testing.T) {
	x := lit.AtomID(0)
	m := mrf.New([]mrf.Atom{{ID: 0}}, []mrf.Clause{{Lits: []lit.Lit{x.Pos()}, Weight: 1.0}})
	rng := rand.New(rand.NewSource(11))
	cfg := MCSATConfig{Samples: 500, SampleSAT: SampleSATConfig{MaxFlips: 20, SAProb: 0.2, SACoef: 1.0, RandomWalkProb: 0.5}}
	res := ParallelMCSAT(m, cfg, 1, rng, nil, never)
	if res.N != cfg.Samples {
		t.Errorf("expected %d samples with a single worker, got %d", cfg.Samples, res.N)
	}
}
