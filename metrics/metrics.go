// Package metrics carries the run-scoped logger and counters that the
// rest of the pipeline would otherwise reach for as ambient globals; every
// constructor in this repository takes an explicit *Sink instead.
package metrics

import (
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Stats holds every counter the driver reports at the end of a run.
type Stats struct {
	RunID ulid.ULID

	NumberGroundAtoms   int64
	NumberGroundClauses int64
	NumberUnits         int64

	GlucoseTimeMs             int64
	JavaUPGroundingTimeMs     int64
	McsatStepsWhereSampleSatFails int64
	NumberSamplesAtTimeout    int64
	NumberClausesAtTimeout    int64
}

// Sink bundles a structured logger with the counters collected during a
// run. A nil *Sink is valid and silently discards everything, so callers
// that don't care about metrics can pass nil rather than constructing a
// no-op logger.
type Sink struct {
	Log   *zap.Logger
	Stats Stats
}

// New builds a Sink with a fresh run id and the given logger. Pass
// zap.NewNop() for tests that don't want log output.
func New(log *zap.Logger) *Sink {
	return &Sink{
		Log:   log,
		Stats: Stats{RunID: ulid.Make()},
	}
}

func (s *Sink) logger() *zap.Logger {
	if s == nil || s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Infof logs at info level with printf-style formatting, matching the
// driver's informational progress messages.
func (s *Sink) Infof(format string, args ...any) {
	s.logger().Sugar().Infof(format, args...)
}

// Warnf logs at warn level, used for recovered external-solver failures.
func (s *Sink) Warnf(format string, args ...any) {
	s.logger().Sugar().Warnf(format, args...)
}

// AddGlucoseTime accumulates wall-clock time spent in external solver
// calls during IUP.
func (s *Sink) AddGlucoseTime(d time.Duration) {
	if s == nil {
		return
	}
	s.Stats.GlucoseTimeMs += d.Milliseconds()
}

// AddUPGroundingTime accumulates wall-clock time spent in in-process unit
// propagation during grounding.
func (s *Sink) AddUPGroundingTime(d time.Duration) {
	if s == nil {
		return
	}
	s.Stats.JavaUPGroundingTimeMs += d.Milliseconds()
}

// SetGroundingCounts records the final grounding-closure sizes.
func (s *Sink) SetGroundingCounts(atoms, clauses, units int64) {
	if s == nil {
		return
	}
	s.Stats.NumberGroundAtoms = atoms
	s.Stats.NumberGroundClauses = clauses
	s.Stats.NumberUnits = units
}

// IncSampleSatFailure records one MC-SAT step where the SampleSAT inner
// loop failed to find a satisfying assignment within its flip budget.
func (s *Sink) IncSampleSatFailure() {
	if s == nil {
		return
	}
	s.Stats.McsatStepsWhereSampleSatFails++
}

// SetTimeoutCounts records the partial-result sizes reported when a run
// is cut short by its deadline.
func (s *Sink) SetTimeoutCounts(samples, clauses int64) {
	if s == nil {
		return
	}
	s.Stats.NumberSamplesAtTimeout = samples
	s.Stats.NumberClausesAtTimeout = clauses
}
