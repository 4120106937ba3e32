package ground

import (
	"context"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/store"
)

// keyConstraintClauses emits, for every key-constrained predicate, a
// pairwise mutual-exclusion hard clause for every pair of atoms sharing a
// key but disagreeing on the dependent attribute, plus — when
// Config.KeyConstraintAllowsNullLabel is false (one setting for every
// predicate) — an existence clause requiring at least one of them to hold.
func (g *Grounder) keyConstraintClauses(ctx context.Context) ([]rawClause, error) {
	var out []rawClause
	for _, p := range g.Predicates {
		if !p.IsKeyConstrained {
			continue
		}
		groups, err := g.keyGroupsFor(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, grp := range groups {
			ids := grp.AtomIDs
			for i := 0; i < len(ids); i++ {
				for j := i + 1; j < len(ids); j++ {
					a := lit.AtomID(ids[i])
					b := lit.AtomID(ids[j])
					out = append(out, rawClause{
						Lits:   []lit.Lit{a.Neg(), b.Neg()},
						Weight: model.HardWeight,
					})
				}
			}
			if !g.Config.KeyConstraintAllowsNullLabel && len(ids) > 0 {
				ls := make([]lit.Lit, len(ids))
				for i, id := range ids {
					ls[i] = lit.AtomID(id).Pos()
				}
				out = append(out, rawClause{Lits: ls, Weight: model.HardWeight})
			}
		}
	}
	return out, nil
}

func (g *Grounder) keyGroupsFor(ctx context.Context, p model.Predicate) ([]model.KeyGroup, error) {
	if src, ok := g.Store.(store.KeyConstraintSource); ok {
		return src.KeyGroups(ctx, p.Name, p.KeyArgs)
	}
	// A store without KeyConstraintSource yields no groups, so no key
	// constraint clauses are emitted for it; there is no grouping in Go
	// and ground.New does not check for the capability.
	return nil, nil
}
