package model

import "math"

// Tuple is one row of a predicate's evidence or query table: a bound
// argument vector plus the grounder metadata needed to turn it into a
// ground atom.
//
// SoftProb must be set to NoSoftProb (not left at its float64 zero value)
// for tuples with no soft-evidence probability; the zero value 0.0 is a
// valid probability, so it cannot double as "absent". Use NewTuple to get
// this right automatically.
type Tuple struct {
	AtomID   uint64 // 0 until the atom has been assigned a dense id
	Args     []string
	Truth    TruthState
	Club     Club
	SoftProb float64
}

// NoSoftProb marks a Tuple as carrying no soft-evidence probability.
var NoSoftProb = math.NaN()

// NewTuple builds a Tuple with SoftProb defaulted to NoSoftProb.
func NewTuple(args []string, truth TruthState, club Club) Tuple {
	return Tuple{Args: args, Truth: truth, Club: club, SoftProb: NoSoftProb}
}

// TruthState is the three-valued truth assignment a tuple or ground atom
// can carry prior to, or independent of, sampling.
type TruthState int

const (
	TruthUnknown TruthState = iota
	TruthTrue
	TruthFalse
)

// KeyGroup is one group of tuples sharing the same functional-dependency
// key, as produced by a KeyConstraintSource for a key-constrained
// predicate.
type KeyGroup struct {
	Predicate string
	KeyArgs   []string    // the shared key attribute values
	AtomIDs   []uint64    // candidate atom ids disagreeing on the dependent attribute
}
