package mrf

import (
	"sort"

	"tuffy/lit"
	"tuffy/model"
)

// ClauseID identifies a ground clause by its position in the MRF's clause
// slice.
type ClauseID int32

// Clause is one ground clause: a sorted, deduplicated, non-tautological
// set of literals plus its consolidated weight. |Weight| >= model.HardWeight
// marks a hard constraint.
type Clause struct {
	Lits   []lit.Lit
	Weight float64
}

// IsHard reports whether c is a hard constraint.
func (c *Clause) IsHard() bool { return model.IsHard(c.Weight) }

// NewClause builds a Clause from a raw literal slice, sorting, deduping,
// and detecting tautologies (a literal and its negation both present).
// ok is false for a tautological clause, which the caller must discard
// rather than ground.
func NewClause(ls []lit.Lit, weight float64) (c Clause, ok bool) {
	cp := append([]lit.Lit(nil), ls...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0:0]
	for i, m := range cp {
		if i > 0 && m == cp[i-1] {
			continue
		}
		if i > 0 && m == cp[i-1].Not() {
			return Clause{}, false
		}
		// a lit and its negation differ only in the low sign bit, so the
		// positive lit sorts immediately before its negation and the
		// adjacent check above catches every tautology.
		out = append(out, m)
	}
	return Clause{Lits: out, Weight: weight}, true
}

// Key returns a canonical string key for grouping clauses with identical
// literal sets during consolidation (summing their weights).
func (c *Clause) Key() string {
	b := make([]byte, 0, len(c.Lits)*5)
	for _, m := range c.Lits {
		b = appendUint32(b, uint32(m))
		b = append(b, ',')
	}
	return string(b)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [10]byte
	n := len(tmp)
	if v == 0 {
		return append(b, '0')
	}
	for v > 0 {
		n--
		tmp[n] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[n:]...)
}
