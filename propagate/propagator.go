// Package propagate implements the post-grounding unit-propagation fixed
// point: a queue-driven pass over an MRF's hard unit clauses that pins
// atoms to a forced truth value, drops clauses they satisfy, and shortens
// clauses containing their negation, failing fast on a hard contradiction.
package propagate

import (
	"fmt"
	"sort"

	"tuffy/lit"
	"tuffy/mrf"
	"tuffy/tuffyerr"
)

// Result is the outcome of a propagation pass: a new MRF containing only
// the surviving, un-pinned atoms and clauses, plus the truth values forced
// on every atom that got pinned and removed.
type Result struct {
	MRF    *mrf.MRF
	Pinned map[uint64]bool // original atom id -> forced truth value

	// Remap has len(MRF.Atoms) entries; Remap[i] is the atom id that
	// atom i held before this propagation pass renumbered it, letting a
	// caller that already tracks provenance for the pre-propagation ids
	// carry it through.
	Remap []lit.AtomID
}

type workClause struct {
	lits    []lit.Lit
	weight  float64
	hard    bool
	dropped bool
}

// Run computes the fixed point described above. m is read only; the
// returned Result's MRF is a fresh object with densely renumbered atoms.
func Run(m *mrf.MRF) (*Result, error) {
	clauses := make([]workClause, len(m.Clauses))
	for i, c := range m.Clauses {
		clauses[i] = workClause{
			lits:   append([]lit.Lit(nil), c.Lits...),
			weight: c.Weight,
			hard:   c.IsHard(),
		}
	}

	pinned := make(map[lit.AtomID]bool)
	var queue []int
	for i, c := range clauses {
		if c.hard && len(c.lits) == 1 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		c := &clauses[ci]
		if c.dropped || len(c.lits) != 1 {
			continue
		}
		l := c.lits[0]
		a := l.Var()
		v := l.IsPos()

		if existing, ok := pinned[a]; ok {
			if existing != v {
				return nil, tuffyerr.Unsat(fmt.Sprintf("unit propagation forces %s both true and false", a))
			}
			c.dropped = true
			continue
		}
		pinned[a] = v
		c.dropped = true

		for _, cid := range m.Occurrences(a) {
			oc := &clauses[int(cid)]
			if oc.dropped {
				continue
			}
			idx := -1
			for i, ol := range oc.lits {
				if ol.Var() == a {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			if oc.lits[idx].IsPos() == v {
				oc.dropped = true
				continue
			}
			oc.lits = append(oc.lits[:idx], oc.lits[idx+1:]...)
			if len(oc.lits) == 0 {
				if oc.hard {
					return nil, tuffyerr.Unsat(fmt.Sprintf("unit propagation shortened a hard clause to empty over %s", a))
				}
				continue
			}
			if len(oc.lits) == 1 && oc.hard {
				queue = append(queue, int(cid))
			}
		}
	}

	return build(m, clauses, pinned)
}

func build(orig *mrf.MRF, clauses []workClause, pinned map[lit.AtomID]bool) (*Result, error) {
	keep := make([]lit.AtomID, 0, len(orig.Atoms))
	for i := range orig.Atoms {
		a := lit.AtomID(i)
		if _, ok := pinned[a]; !ok {
			keep = append(keep, a)
		}
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i] < keep[j] })

	remap := make(map[lit.AtomID]lit.AtomID, len(keep))
	atoms := make([]mrf.Atom, len(keep))
	for i, old := range keep {
		remap[old] = lit.AtomID(i)
		a := orig.Atoms[old].Copy()
		a.ID = uint64(i)
		atoms[i] = a
	}

	outClauses := make([]mrf.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.dropped {
			continue
		}
		ls := make([]lit.Lit, len(c.lits))
		for i, l := range c.lits {
			nv := remap[l.Var()]
			if l.IsPos() {
				ls[i] = nv.Pos()
			} else {
				ls[i] = nv.Neg()
			}
		}
		outClauses = append(outClauses, mrf.Clause{Lits: ls, Weight: c.weight})
	}

	out := make(map[uint64]bool, len(pinned))
	for a, v := range pinned {
		out[orig.Atoms[a].ID] = v
	}

	return &Result{MRF: mrf.New(atoms, outClauses), Pinned: out, Remap: keep}, nil
}
