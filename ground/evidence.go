package ground

import (
	"context"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/store"
)

// evidenceClauses emits one hard unit clause per active atom with a fixed
// evidence truth, pinning it the same way a derived unit from iterative
// unit propagation would. Grounding.java conditions on evidence at the SQL
// level, filtering which ground clauses get produced in the first place;
// this ports the same effect onto a literal-level join engine by adding
// the evidence itself as a hard constraint the sampler (or a subsequent
// propagation pass) must satisfy, rather than teaching every GroundStore
// implementation to special-case it during joins.
func (g *Grounder) evidenceClauses(ctx context.Context) ([]rawClause, error) {
	src, ok := g.Store.(store.EvidenceSource)
	if !ok {
		return nil, nil
	}
	truths, err := src.EvidenceTruths(ctx)
	if err != nil {
		return nil, err
	}
	var out []rawClause
	for id, truth := range truths {
		a := lit.AtomID(id)
		if !g.active[a] {
			continue
		}
		l := a.Neg()
		if truth {
			l = a.Pos()
		}
		out = append(out, rawClause{Lits: []lit.Lit{l}, Weight: model.HardWeight})
	}
	return out, nil
}
