// Package lit implements signed ground-atom literals: the id of a ground
// atom paired with a sense (positive/negative occurrence in a clause).
package lit

import "fmt"

// AtomID identifies a ground atom. Stores assign 1-based ids as tuples are
// seeded; the grounder renumbers the active atoms densely from 0, in store
// id order, for the MRF.
type AtomID uint32

// Pos returns the positive occurrence of the atom.
func (a AtomID) Pos() Lit { return Lit(a << 1) }

// Neg returns the negative occurrence of the atom.
func (a AtomID) Neg() Lit { return Lit(a<<1) | 1 }

func (a AtomID) String() string { return fmt.Sprintf("a%d", uint32(a)) }

// Lit is a signed literal: an AtomID together with a sense bit in its low
// order bit, following the dense encoding var<<1|sign used throughout the
// grounder and sampler so literals can index directly into flat slices.
type Lit uint32

// LitNull is the zero value, used as a clause terminator in streaming
// Adder-style APIs (mirrors DIMACS's trailing 0).
const LitNull = Lit(0)

// Var returns the underlying atom id.
func (m Lit) Var() AtomID { return AtomID(m >> 1) }

// IsPos reports whether m occurs positively.
func (m Lit) IsPos() bool { return m&1 == 0 }

// Sign returns 1 for a positive literal, -1 for a negative one.
func (m Lit) Sign() int {
	if m.IsPos() {
		return 1
	}
	return -1
}

// Not returns the negation of m.
func (m Lit) Not() Lit { return m ^ 1 }

// Dimacs returns the signed 1-based integer DIMACS form of m.
func (m Lit) Dimacs() int {
	d := int(m.Var())
	if !m.IsPos() {
		return -d
	}
	return d
}

// Dimacs2Lit converts a signed, nonzero, 1-based DIMACS integer to a Lit.
func Dimacs2Lit(d int) Lit {
	if d < 0 {
		return AtomID(-d).Neg()
	}
	return AtomID(d).Pos()
}

func (m Lit) String() string {
	if m.IsPos() {
		return fmt.Sprintf("+%s", m.Var())
	}
	return fmt.Sprintf("-%s", m.Var())
}

// ExistentialSentinel is the magic literal value the original grounder
// used to mark an existentially-quantified clause position; it is never a
// real ground atom id, so it is filtered out of every grounded clause
// before the clause reaches the MRF.
const ExistentialSentinel = 999999999

// IsExistentialSentinel reports whether d is the magic existential
// placeholder emitted by a join against an existentially quantified
// variable with no matching tuple (or its negation).
func IsExistentialSentinel(d int) bool {
	return d == ExistentialSentinel || d == -ExistentialSentinel
}
