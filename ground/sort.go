package ground

import (
	"sort"

	"tuffy/model"
)

// sortTemplates orders clause templates hard clause < hard template <
// soft, so the closure loop discharges the clauses most likely to prune
// the active atom set first, and so iterative unit propagation sees the
// full hard clause set as early in the closure as possible. This three-way
// order (not just hard-before-soft) mirrors the comparator in the
// original grounder: a plain ground hard clause with no free variables is
// grounded before a hard *template* that still needs joining, which in
// turn comes before any soft template.
func sortTemplates(templates []model.ClauseTemplate) []model.ClauseTemplate {
	out := append([]model.ClauseTemplate(nil), templates...)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func rank(t model.ClauseTemplate) int {
	switch {
	case t.IsHardClause:
		return 0
	case t.IsHardTemplate:
		return 1
	default:
		return 2
	}
}
