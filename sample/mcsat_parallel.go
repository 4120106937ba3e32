package sample

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"tuffy/metrics"
	"tuffy/mrf"
)

// ParallelMCSAT runs workers independent MC-SAT chains concurrently, each
// against its own deep copy of m and its own RNG stream split off of root,
// and merges their per-atom tallies. Each chain is itself strictly
// sequential, per 4.5.4's ordering requirement; only the chains run
// concurrently with one another, matching the spec's "each worker must
// receive a deep-copied MRF snapshot" allowance. cfg.Samples is the total
// sample budget across all workers, split as evenly as possible.
func ParallelMCSAT(m *mrf.MRF, cfg MCSATConfig, workers int, root *rand.Rand, sink *metrics.Sink, timedOut func() bool) *Marginals {
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		return MCSAT(m, cfg, root, sink, timedOut)
	}

	perWorker := cfg.Samples / workers
	remainder := cfg.Samples % workers
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = root.Int63()
	}

	results := make([]*Marginals, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		samples := perWorker
		if w < remainder {
			samples++
		}
		g.Go(func() error {
			if samples == 0 {
				results[w] = &Marginals{NTrue: make([]int64, len(m.Atoms))}
				return nil
			}
			workerCfg := cfg
			workerCfg.Samples = samples
			rng := rand.New(rand.NewSource(seeds[w]))
			results[w] = MCSAT(m.Copy(), workerCfg, rng, sink, timedOut)
			return nil
		})
	}
	_ = g.Wait() // worker goroutines never return a non-nil error

	return mergeMarginals(len(m.Atoms), results)
}

func mergeMarginals(numAtoms int, parts []*Marginals) *Marginals {
	out := &Marginals{NTrue: make([]int64, numAtoms)}
	for _, p := range parts {
		if p == nil {
			continue
		}
		for a, n := range p.NTrue {
			out.NTrue[a] += n
		}
		out.N += p.N
		out.SumCost += p.SumCost
		out.SampleSatFails += p.SampleSatFails
	}
	return out
}
