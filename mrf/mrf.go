// Package mrf implements the ground Markov random field: the dense set of
// ground atoms and ground clauses produced by grounding, plus the
// incidence structure and cost bookkeeping the sampler needs.
package mrf

import (
	"tuffy/lit"
)

// MRF is the ground Markov random field. Atoms and Clauses are dense,
// 0-indexed slices; lit.AtomID/mrf.ClauseID index directly into them.
// Incidence is stored in CSR form (Offsets/Flat) rather than a slice of
// slices, since it is built once after grounding and never mutated
// incrementally afterward.
type MRF struct {
	Atoms   []Atom
	Clauses []Clause

	// Offsets has len(Atoms)+1 entries; Flat[Offsets[a]:Offsets[a+1]] are
	// the clause ids in which atom a occurs, in either sense.
	Offsets []int32
	Flat    []ClauseID

	Cost float64 // sum of |weight| over unsatisfied clauses, given Atoms[*].Truth
}

// New builds an MRF from its atoms and clauses, computing incidence, NSat,
// and Cost from the atoms' current Truth values.
func New(atoms []Atom, clauses []Clause) *MRF {
	m := &MRF{Atoms: atoms, Clauses: clauses}
	m.buildIncidence()
	m.recomputeSatStats()
	return m
}

func (m *MRF) buildIncidence() {
	n := len(m.Atoms)
	counts := make([]int32, n+1)
	for _, c := range m.Clauses {
		seen := make(map[lit.AtomID]bool, len(c.Lits))
		for _, l := range c.Lits {
			v := l.Var()
			if seen[v] {
				continue
			}
			seen[v] = true
			counts[int(v)+1]++
		}
	}
	offsets := make([]int32, n+1)
	for i := 0; i < n; i++ {
		offsets[i+1] = offsets[i] + counts[i+1]
	}
	flat := make([]ClauseID, offsets[n])
	cursor := append([]int32(nil), offsets...)
	for ci, c := range m.Clauses {
		seen := make(map[lit.AtomID]bool, len(c.Lits))
		for _, l := range c.Lits {
			v := l.Var()
			if seen[v] {
				continue
			}
			seen[v] = true
			flat[cursor[int(v)]] = ClauseID(ci)
			cursor[int(v)]++
		}
	}
	m.Offsets = offsets
	m.Flat = flat
}

// Occurrences returns the clause ids incident to atom a.
func (m *MRF) Occurrences(a lit.AtomID) []ClauseID {
	i := int(a)
	if i+1 >= len(m.Offsets) {
		return nil
	}
	return m.Flat[m.Offsets[i]:m.Offsets[i+1]]
}

// clauseSatisfied reports whether c is satisfied under the MRF's current
// atom truth assignment.
func (m *MRF) clauseSatisfied(c *Clause) bool {
	for _, l := range c.Lits {
		a := &m.Atoms[l.Var()]
		if a.Truth == l.IsPos() {
			return true
		}
	}
	return false
}

// recomputeSatStats recomputes every atom's NSat and the MRF's total Cost
// from scratch. Called once after construction; sampler moves use the
// incremental update paths in sample instead.
func (m *MRF) recomputeSatStats() {
	for i := range m.Atoms {
		m.Atoms[i].NSat = 0
	}
	m.Cost = 0
	for ci := range m.Clauses {
		c := &m.Clauses[ci]
		if m.clauseSatisfied(c) {
			for _, l := range c.Lits {
				m.Atoms[l.Var()].NSat++
			}
		} else {
			m.Cost += abs(c.Weight)
		}
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Recompute rebuilds every atom's NSat and the MRF's total Cost from the
// current Atoms[*].Truth values, without touching incidence. Callers that
// assign new truth values directly (e.g. a sampler restarting with a fresh
// random assignment) must call this once afterward instead of using the
// incremental FlipAtom path for every atom.
func (m *MRF) Recompute() { m.recomputeSatStats() }

// NSatForClause returns how many of c's literals currently evaluate true.
func (m *MRF) NSatForClause(c *Clause) int {
	n := 0
	for _, l := range c.Lits {
		if m.Atoms[l.Var()].Truth == l.IsPos() {
			n++
		}
	}
	return n
}

// FlipAtom toggles atom a's truth value, incrementally updating every
// incident clause's satisfaction, the NSat counter of every atom sharing
// one of those clauses, and the MRF's total Cost. Returns the change in
// Cost (negative means the flip improved the assignment).
func (m *MRF) FlipAtom(a lit.AtomID) float64 {
	deltaCost := 0.0
	occ := m.Occurrences(a)
	wasSat := make([]bool, len(occ))
	for i, cid := range occ {
		wasSat[i] = m.clauseSatisfied(&m.Clauses[cid])
	}
	m.Atoms[a].Truth = !m.Atoms[a].Truth
	for i, cid := range occ {
		c := &m.Clauses[cid]
		isSat := m.clauseSatisfied(c)
		if wasSat[i] == isSat {
			continue
		}
		delta := int32(1)
		if !isSat {
			delta = -1
			deltaCost += abs(c.Weight)
		} else {
			deltaCost -= abs(c.Weight)
		}
		for _, l := range c.Lits {
			m.Atoms[l.Var()].NSat += delta
		}
	}
	m.Cost += deltaCost
	return deltaCost
}

// Copy returns a deep copy of the MRF, suitable as an independent
// parallel MC-SAT worker snapshot: atoms and clauses are copied, and
// incidence slices are copied so no worker shares backing arrays.
func (m *MRF) Copy() *MRF {
	n := &MRF{
		Atoms:   append([]Atom(nil), m.Atoms...),
		Clauses: make([]Clause, len(m.Clauses)),
		Offsets: append([]int32(nil), m.Offsets...),
		Flat:    append([]ClauseID(nil), m.Flat...),
		Cost:    m.Cost,
	}
	for i, c := range m.Clauses {
		n.Clauses[i] = Clause{Lits: append([]lit.Lit(nil), c.Lits...), Weight: c.Weight}
	}
	return n
}
