package mrf

import "tuffy/model"

// Atom is one ground atom in the Markov random field.
type Atom struct {
	ID       uint64
	Truth    bool
	Club     model.Club
	Prior    float64 // NaN when the atom has no soft-evidence prior
	IsActive bool
	NTrue    int64 // number of MC-SAT samples where this atom came out true
	NSat     int32 // number of incident clauses currently satisfied by Truth
}

// Copy returns a value copy of a. Atom has no reference fields, so a plain
// struct copy suffices; kept as a method for symmetry with Clause.Copy and
// MRF.Copy.
func (a Atom) Copy() Atom { return a }
