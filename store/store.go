// Package store defines the join-engine abstraction the grounder depends
// on: GroundStore turns clause templates and evidence into ground atoms
// and ground clauses without the grounder itself needing to know how the
// underlying joins are executed.
package store

import (
	"context"

	"tuffy/lit"
	"tuffy/model"
)

// GroundStore is the pluggable join engine behind grounding. Valid
// implementations range from an in-memory hash join to an embedded
// relational engine to a push-down to an external database; the grounder
// only ever needs the result of these joins, never how they're computed.
//
// Every ground atom a predicate could ever produce is assumed to already
// have a stable id by the time the grounder runs (assigned when the
// concrete store was loaded with its evidence and query domain); grounding
// only ever asks which of those ids are currently active, and requests
// that more of them become active.
type GroundStore interface {
	// ActiveAtomsOf returns the currently active ground atom ids for
	// predicate name, used by the closure loop's fixed-point check.
	ActiveAtomsOf(ctx context.Context, predicate string) ([]uint64, error)

	// ActivateAtoms marks the given atom ids active. Returns how many of
	// them were not already active, so the closure loop can detect a
	// fixed point when every template in a round activates nothing new.
	ActivateAtoms(ctx context.Context, atomIDs []uint64) (newlyActivated int, err error)

	// GroundClause executes the join implied by template's atoms against
	// every tuple the store knows about for the referenced predicates
	// (active or not) and returns one literal slice per grounding, with
	// any existential-quantifier sentinel positions already included (the
	// caller filters them, see lit.IsExistentialSentinel). The grounder
	// decides, from which of the returned atoms are already active,
	// whether a given grounding is worth activating and keeping.
	GroundClause(ctx context.Context, template model.ClauseTemplate) ([][]lit.Lit, error)

	// SetTruth commits a forced truth value for atom id, used after unit
	// propagation determines it outside of sampling.
	SetTruth(ctx context.Context, atom lit.AtomID, truth bool) error
}

// SoftEvidenceSource is an optional capability: stores that track
// per-tuple soft-evidence probabilities can implement it so the grounder
// can emit the corresponding unit clauses. Detected via type assertion;
// for a store without it the grounder emits no soft-evidence clauses and
// activates no atoms on soft evidence.
type SoftEvidenceSource interface {
	SoftEvidenceAtoms(ctx context.Context, predicate string) ([]model.Tuple, error)
}

// KeyConstraintSource is an optional capability: stores that can compute
// functional-dependency key groups natively (e.g. via GROUP BY) implement
// it so the grounder can emit key-constraint clauses. For a store without
// it no key-constraint clauses are emitted; the grounder does no grouping
// of its own.
type KeyConstraintSource interface {
	KeyGroups(ctx context.Context, predicate string, keyArgs []int) ([]model.KeyGroup, error)
}

// AtomRef names the predicate and argument vector a ground atom id was
// seeded from.
type AtomRef struct {
	Predicate string
	Args      []string
}

// AtomCatalog is an optional capability: stores that retain the full
// predicate/argument naming for every atom id they have ever assigned can
// implement it so a driver can report marginals by relation name instead
// of by bare numeric atom id.
type AtomCatalog interface {
	DescribeAtoms(ctx context.Context) (map[uint64]AtomRef, error)
}

// EvidenceSource is an optional capability: stores that seed tuples with a
// fixed evidence truth (model.TruthTrue or model.TruthFalse, as opposed to
// model.TruthUnknown) can implement it so the grounder pins those atoms by
// injecting a hard unit clause for each one, the same mechanism iterative
// unit propagation already uses for derived facts. An atom this returns
// nothing for is free for sampling to decide.
type EvidenceSource interface {
	EvidenceTruths(ctx context.Context) (map[uint64]bool, error)
}
