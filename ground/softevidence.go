package ground

import (
	"context"
	"math"

	"tuffy/lit"
	"tuffy/model"
	"tuffy/store"
)

// softEvidenceClauses emits one hard or soft unit clause per soft-evidence
// tuple: weight is the hard weight (signed by the evidence's truth) when
// the probability sits at the boundary, and ln(p/(1-p)) otherwise — the
// same log-odds weight the original grounder computes, so that sampling a
// world with this atom true carries exactly the log-likelihood a
// probability p of truth implies under the Gibbs distribution.
func (g *Grounder) softEvidenceClauses(ctx context.Context) ([]rawClause, error) {
	var out []rawClause
	for _, p := range g.Predicates {
		if !p.HasSoftEvid {
			continue
		}
		src, ok := g.Store.(store.SoftEvidenceSource)
		if !ok {
			continue
		}
		tuples, err := src.SoftEvidenceAtoms(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		for _, t := range tuples {
			if math.IsNaN(t.SoftProb) {
				continue
			}
			weight := softEvidenceWeight(t.SoftProb)
			out = append(out, rawClause{
				Lits:   []lit.Lit{lit.AtomID(t.AtomID).Pos()},
				Weight: weight,
			})
		}
	}
	return out, nil
}

func softEvidenceWeight(prob float64) float64 {
	switch {
	case prob >= 1:
		return model.HardWeight
	case prob <= 0:
		return -model.HardWeight
	default:
		return math.Log(prob / (1 - prob))
	}
}
