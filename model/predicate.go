// Package model holds the predicate, clause-template, and evidence types
// the grounder consumes. These describe the MLN at the template level,
// before any atom or clause has been grounded.
package model

// Club buckets a ground atom by provenance: which row in the program file
// it came from, not whether the grounding closure ever activated it. An
// atom discovered only by a clause join during grounding (no evidence row,
// no query row of its own) carries the zero value, ClubUnknown, regardless
// of whether the closure later marks it active.
type Club int

const (
	// ClubUnknown atoms have no evidence or query row of their own; they
	// surface only as an argument binding inside some clause's join.
	ClubUnknown Club = iota
	// ClubActive atoms were loaded from a predicate's plain evidence table,
	// as opposed to its query table.
	ClubActive
	// ClubQuery atoms appear in a query predicate.
	ClubQuery
	// ClubQueryEvidTrue atoms are query atoms that also have positive
	// evidence; kept distinct so the driver can report them without
	// resampling their truth value.
	ClubQueryEvidTrue
)

// Predicate describes one relation in the MLN's schema: its name, argument
// count, and whether it is closed-world (absent tuples are false, never
// grounded as free atoms) or a query predicate (in learning mode its
// ground atoms are activated regardless of clause membership).
type Predicate struct {
	Name          string
	Arity         int
	ArgTypes      []string
	ClosedWorld   bool
	IsQuery       bool
	HasSoftEvid   bool
	IsKeyConstrained bool
	KeyArgs       []int // indexes into ArgTypes that form the functional key
}

// Variable is one argument position in a clause template: either bound to
// a named logical variable or, for an existentially quantified position,
// marked as such.
type Variable struct {
	Name          string
	Existential   bool
}

// Atom is one predicate application inside a clause template, with a
// sense (negated or not) and a list of argument variables or constants.
type Atom struct {
	Predicate string
	Negated   bool
	Args      []string // variable names, or literal constants
}

// ClauseTemplate is one weighted first-order clause prior to grounding.
type ClauseTemplate struct {
	ID              int
	Weight          float64
	Atoms           []Atom
	Vars            []Variable
	IsHardClause    bool // weight >= HardWeight, i.e. a hard constraint
	IsHardTemplate  bool // template that only ever grounds hard clauses (e.g. mutual exclusion axioms)
}

// HardWeight is the threshold spec.md's MRF invariant uses: any clause
// whose |weight| is at or above this value is treated as a hard
// constraint, never violated by a valid world.
const HardWeight = 1e10

// IsHard reports whether w is at or above the hard-constraint threshold.
func IsHard(w float64) bool {
	if w < 0 {
		w = -w
	}
	return w >= HardWeight
}
