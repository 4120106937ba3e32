package ground

import (
	"sort"

	"tuffy/lit"
	"tuffy/mrf"
)

// consolidate groups raw clauses by their literal set, summing weights for
// duplicates and dropping tautologies, mirroring consolidateClauses's
// GROUP BY ... SUM(weight) over the grounded clause buffer. A unit clause
// {l} whose summed weight w is negative is then rewritten to the canonical
// {¬l} with weight -w, merged into any existing {¬l} group. Groups whose
// summed weight cancels out to zero carry no information and are dropped.
func consolidate(raw []rawClause) []mrf.Clause {
	byKey := make(map[string]*mrf.Clause)
	var order []string
	for _, r := range raw {
		c, ok := mrf.NewClause(r.Lits, r.Weight)
		if !ok {
			continue
		}
		k := c.Key()
		if existing, found := byKey[k]; found {
			existing.Weight += c.Weight
			continue
		}
		cp := c
		byKey[k] = &cp
		order = append(order, k)
	}
	for _, k := range order {
		c := byKey[k]
		if len(c.Lits) != 1 || c.Weight >= 0 {
			continue
		}
		flipped, _ := mrf.NewClause([]lit.Lit{c.Lits[0].Not()}, -c.Weight)
		c.Weight = 0
		fk := flipped.Key()
		if existing, found := byKey[fk]; found {
			existing.Weight += flipped.Weight
			continue
		}
		byKey[fk] = &flipped
		order = append(order, fk)
	}
	sort.Strings(order)
	out := make([]mrf.Clause, 0, len(order))
	for _, k := range order {
		if byKey[k].Weight == 0 {
			continue
		}
		out = append(out, *byKey[k])
	}
	return out
}
