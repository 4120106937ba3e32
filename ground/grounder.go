// Package ground implements clause-template grounding: the fixed-point
// closure that decides which ground atoms and ground clauses matter for a
// given evidence database and query, iterative unit propagation during
// that closure, and the final consolidation/key-constraint/soft-evidence
// passes that turn the closure's result into a ground Markov network.
package ground

import (
	"context"
	"fmt"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"tuffy/lit"
	"tuffy/metrics"
	"tuffy/model"
	"tuffy/mrf"
	"tuffy/store"
	"tuffy/tuffyerr"
	"tuffy/unitsolver"
)

// Config is the subset of the run configuration the grounder consults.
// Kept narrow and duplicated from config.Config's fields (rather than
// importing package config directly) so ground has no dependency on how
// configuration is loaded from disk.
type Config struct {
	MarkAllAtomsActive          bool
	IterativeUnitPropagate      bool
	KeyConstraintAllowsNullLabel bool
	MaxGroundAtoms              int64
	MaxGroundClauses            int64

	// SoftEvidenceActivationThreshold is the prior lower bound a
	// soft-evidence atom's probability must clear to seed the closure's
	// initial active set. Plain evidence and query atoms are not seeded
	// active at all; the closure discovers them itself once a clause
	// could be violated without them.
	SoftEvidenceActivationThreshold float64
	// LearningMode, when set, also seeds every query atom into the
	// initial active set (queries are read back during weight learning,
	// never during plain marginal inference).
	LearningMode bool
}

// Grounder runs the grounding closure described above against a
// GroundStore, optionally consulting a UnitSolver during iterative unit
// propagation.
type Grounder struct {
	Store      store.GroundStore
	Solver     unitsolver.UnitSolver
	Config     Config
	Metrics    *metrics.Sink
	Templates  []model.ClauseTemplate
	Predicates []model.Predicate

	active     map[lit.AtomID]bool
	forced     map[lit.AtomID]bool // atom -> truth value forced by iterative unit propagation
	exhausted  *lru.Cache[int, int] // templateID -> len(active) at last exhaustion

	// evidenceTruths and closedWorldByAtom back worthActivating's could-be-
	// violated test; both are loaded once, before the closure loop starts,
	// from the store's optional EvidenceSource/AtomCatalog capabilities.
	// An atom missing from closedWorldByAtom is treated as closed-world,
	// the conservative choice when the store can't describe its predicate.
	evidenceTruths    map[lit.AtomID]bool
	closedWorldByAtom map[lit.AtomID]bool

	// simplifiedHardUnits latches true the first time the closure reaches a
	// soft-clause template, so simplifyWithHardUnits runs exactly once per
	// Ground call rather than once per round.
	simplifiedHardUnits bool

	// AtomOrigin maps a dense MRF atom id, as assigned by the final
	// grounding pass, back to the GroundStore atom id it came from. Set
	// once Ground returns; callers that need to label a marginal by
	// predicate and arguments look the store atom id up via an
	// AtomCatalog.
	AtomOrigin map[lit.AtomID]uint64
}

// New returns a Grounder ready to run Ground once.
func New(st store.GroundStore, solver unitsolver.UnitSolver, cfg Config, sink *metrics.Sink, templates []model.ClauseTemplate, predicates []model.Predicate) *Grounder {
	cache, _ := lru.New[int, int](1024)
	return &Grounder{
		Store:      st,
		Solver:     solver,
		Config:     cfg,
		Metrics:    sink,
		Templates:  templates,
		Predicates: predicates,
		active:     make(map[lit.AtomID]bool),
		forced:     make(map[lit.AtomID]bool),
		exhausted:  cache,
	}
}

// Ground runs the grounding closure to a fixed point, then emits the
// final ground clause set (template groundings, key-constraint clauses,
// and soft-evidence unit clauses) and returns the resulting MRF.
func (g *Grounder) Ground(ctx context.Context) (*mrf.MRF, error) {
	sorted := sortTemplates(g.Templates)

	if err := g.seedActiveFromStore(ctx); err != nil {
		return nil, err
	}
	if err := g.loadEvidenceAndCatalog(ctx); err != nil {
		return nil, err
	}

	var hardClausesSoFar []rawClause

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, tuffyerr.Timeout("grounding closure did not converge before the deadline")
		}
		changed := false
		hardClausesSoFar = hardClausesSoFar[:0]

		for _, tmpl := range sorted {
			if !g.simplifiedHardUnits && !tmpl.IsHardClause && !tmpl.IsHardTemplate {
				if err := g.simplifyWithHardUnits(ctx, hardClausesSoFar); err != nil {
					return nil, err
				}
				g.simplifiedHardUnits = true
			}
			if g.templateExhausted(tmpl.ID) {
				continue
			}
			groundings, err := g.Store.GroundClause(ctx, tmpl)
			if err != nil {
				return nil, fmt.Errorf("ground: %s: %w", predicateNames(tmpl), err)
			}

			var toActivate []uint64
			for _, raw := range groundings {
				ls := filterSentinels(raw)
				if ls == nil {
					continue
				}
				var satisfied bool
				ls, satisfied = g.simplifyEvidenceLiterals(ls)
				if satisfied {
					continue
				}
				if len(ls) == 0 {
					if tmpl.IsHardClause || tmpl.IsHardTemplate {
						return nil, tuffyerr.Unsat(fmt.Sprintf("evidence alone violates a hard clause in template %d", tmpl.ID))
					}
					g.Metrics.Warnf("ground: template %d grounding violated by evidence alone, skipping", tmpl.ID)
					continue
				}
				if !g.worthActivating(ls, tmpl, round) {
					continue
				}
				for _, m := range ls {
					toActivate = append(toActivate, uint64(m.Var()))
				}
				if tmpl.IsHardClause || tmpl.IsHardTemplate {
					hardClausesSoFar = append(hardClausesSoFar, rawClause{Lits: ls, Weight: tmpl.Weight})
				}
			}

			if len(toActivate) > 0 {
				n, err := g.Store.ActivateAtoms(ctx, dedupUint64(toActivate))
				if err != nil {
					return nil, err
				}
				for _, id := range toActivate {
					g.active[lit.AtomID(id)] = true
				}
				if n > 0 {
					changed = true
				}
			} else {
				g.exhausted.Add(tmpl.ID, len(g.active))
			}

			if g.Config.IterativeUnitPropagate && g.Solver != nil && (tmpl.IsHardClause || tmpl.IsHardTemplate) {
				if err := g.runIUP(ctx, hardClausesSoFar); err != nil {
					if tuffyerr.Is(err, tuffyerr.KindUnsat) {
						return nil, err
					}
					g.Metrics.Warnf("ground: external unit propagation step skipped: %v", err)
				}
			}
		}

		if !changed {
			break
		}
	}

	return g.finalize(ctx)
}

// seedActiveFromStore builds the closure's initial active set: every atom
// the store already carries as active (carryover from a previous run's
// ActivateAtoms calls), every soft-evidence atom whose prior clears
// SoftEvidenceActivationThreshold, and, in learning mode only, every query
// atom. Plain evidence is deliberately absent — the closure discovers it
// the first time a clause could be violated without it.
func (g *Grounder) seedActiveFromStore(ctx context.Context) error {
	for _, p := range g.Predicates {
		ids, err := g.Store.ActiveAtomsOf(ctx, p.Name)
		if err != nil {
			return err
		}
		for _, id := range ids {
			g.active[lit.AtomID(id)] = true
		}
	}

	if src, ok := g.Store.(store.SoftEvidenceSource); ok {
		for _, p := range g.Predicates {
			if !p.HasSoftEvid {
				continue
			}
			tuples, err := src.SoftEvidenceAtoms(ctx, p.Name)
			if err != nil {
				return err
			}
			var toActivate []uint64
			for _, t := range tuples {
				if math.IsNaN(t.SoftProb) || t.SoftProb < g.Config.SoftEvidenceActivationThreshold {
					continue
				}
				toActivate = append(toActivate, t.AtomID)
			}
			if err := g.activateAll(ctx, toActivate); err != nil {
				return err
			}
		}
	}

	if g.Config.LearningMode {
		catalog, ok := g.Store.(store.AtomCatalog)
		if !ok {
			return nil
		}
		refs, err := catalog.DescribeAtoms(ctx)
		if err != nil {
			return err
		}
		queryPredicates := make(map[string]bool, len(g.Predicates))
		for _, p := range g.Predicates {
			if p.IsQuery {
				queryPredicates[p.Name] = true
			}
		}
		var toActivate []uint64
		for id, ref := range refs {
			if queryPredicates[ref.Predicate] {
				toActivate = append(toActivate, id)
			}
		}
		if err := g.activateAll(ctx, toActivate); err != nil {
			return err
		}
	}

	return nil
}

func (g *Grounder) activateAll(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := g.Store.ActivateAtoms(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		g.active[lit.AtomID(id)] = true
	}
	return nil
}

// worthActivating decides whether grounding ls, a literal instance of
// tmpl, could still be violated under current evidence — the only
// groundings the closure keeps. A positive-weight (disjunctive) clause is
// violated when every literal is false, so every literal must be able to
// take its false-making value; a negative-weight clause is violated when
// it is satisfied, so every literal must be able to take its true-making
// value, and at least one of them must still be genuinely undetermined
// (not already evidence-fixed) or there would be nothing left to decide.
func (g *Grounder) worthActivating(ls []lit.Lit, tmpl model.ClauseTemplate, round int) bool {
	if g.Config.MarkAllAtomsActive && round == 0 {
		return true
	}

	if tmpl.Weight < 0 {
		mutable := false
		for _, m := range ls {
			if !g.couldBeTrue(m) {
				return false
			}
			if _, fixed := g.evidenceTruths[m.Var()]; !fixed {
				mutable = true
			}
		}
		return mutable
	}

	for _, m := range ls {
		if !g.couldBeFalse(m) {
			return false
		}
	}
	return true
}

// couldBeFalse reports whether the atom behind m could still evaluate to
// the value that makes m false: it is already active (mutable), evidence
// explicitly fixes it there, or its predicate isn't closed-world and it
// carries no evidence at all (an open predicate's silence is not a
// negative assertion).
func (g *Grounder) couldBeFalse(m lit.Lit) bool {
	a := m.Var()
	if g.active[a] {
		return true
	}
	if truth, fixed := g.evidenceTruths[a]; fixed {
		return truth != m.IsPos()
	}
	return !g.closedWorldAtom(a)
}

// couldBeTrue is couldBeFalse's mirror for the value that makes m true.
// The open-predicate-silence allowance only applies to the false-making
// direction (closed-world absence asserts false, never true), so an atom
// with no evidence and no activation can only be made true by sampling it
// once it is active.
func (g *Grounder) couldBeTrue(m lit.Lit) bool {
	a := m.Var()
	if g.active[a] {
		return true
	}
	truth, fixed := g.evidenceTruths[a]
	return fixed && truth == m.IsPos()
}

// simplifyEvidenceLiterals substitutes fixed evidence into ls: a literal
// whose atom's evidence truth makes it true satisfies the whole grounding
// (satisfied=true, ls discarded by the caller), a literal whose evidence
// truth makes it false contributes nothing and is dropped, and every other
// literal is kept unchanged. Only the atoms that survive this pass can ever
// be marked active by worthActivating — an atom fixed by evidence never
// needs a place in the active set, since no assignment to it is still open.
func (g *Grounder) simplifyEvidenceLiterals(ls []lit.Lit) (kept []lit.Lit, satisfied bool) {
	if len(g.evidenceTruths) == 0 {
		return ls, false
	}
	kept = ls[:0:0]
	for _, m := range ls {
		truth, fixed := g.evidenceTruths[m.Var()]
		if !fixed {
			kept = append(kept, m)
			continue
		}
		if truth == m.IsPos() {
			return nil, true
		}
	}
	return kept, false
}

func (g *Grounder) closedWorldAtom(a lit.AtomID) bool {
	cw, ok := g.closedWorldByAtom[a]
	if !ok {
		return true
	}
	return cw
}

// loadEvidenceAndCatalog populates evidenceTruths and closedWorldByAtom
// from the store's optional EvidenceSource and AtomCatalog capabilities, if
// it implements them; absent either, the corresponding map stays nil and
// worthActivating falls back to its conservative default for that check.
func (g *Grounder) loadEvidenceAndCatalog(ctx context.Context) error {
	if src, ok := g.Store.(store.EvidenceSource); ok {
		truths, err := src.EvidenceTruths(ctx)
		if err != nil {
			return err
		}
		g.evidenceTruths = make(map[lit.AtomID]bool, len(truths))
		for id, truth := range truths {
			g.evidenceTruths[lit.AtomID(id)] = truth
		}
	}

	catalog, ok := g.Store.(store.AtomCatalog)
	if !ok {
		return nil
	}
	refs, err := catalog.DescribeAtoms(ctx)
	if err != nil {
		return err
	}
	closedWorldByPredicate := make(map[string]bool, len(g.Predicates))
	for _, p := range g.Predicates {
		closedWorldByPredicate[p.Name] = p.ClosedWorld
	}
	g.closedWorldByAtom = make(map[lit.AtomID]bool, len(refs))
	for id, ref := range refs {
		g.closedWorldByAtom[lit.AtomID(id)] = closedWorldByPredicate[ref.Predicate]
	}
	return nil
}

func (g *Grounder) templateExhausted(id int) bool {
	n, ok := g.exhausted.Get(id)
	return ok && n == len(g.active)
}

// finalize re-grounds every template once the active set has converged,
// keeping only clauses whose every literal is now active, adds
// key-constraint and soft-evidence clauses, consolidates, checks size
// limits, and assembles the MRF with a dense atom numbering.
func (g *Grounder) finalize(ctx context.Context) (*mrf.MRF, error) {
	var raw []rawClause
	for _, tmpl := range g.Templates {
		groundings, err := g.Store.GroundClause(ctx, tmpl)
		if err != nil {
			return nil, err
		}
		for _, ls := range groundings {
			ls = filterSentinels(ls)
			if ls == nil {
				continue
			}
			var satisfied bool
			ls, satisfied = g.simplifyEvidenceLiterals(ls)
			if satisfied || len(ls) == 0 {
				continue
			}
			if !g.allActive(ls) {
				continue
			}
			raw = append(raw, rawClause{Lits: ls, Weight: tmpl.Weight})
		}
	}

	kc, err := g.keyConstraintClauses(ctx)
	if err != nil {
		return nil, err
	}
	raw = append(raw, kc...)

	se, err := g.softEvidenceClauses(ctx)
	if err != nil {
		return nil, err
	}
	raw = append(raw, se...)

	ev, err := g.evidenceClauses(ctx)
	if err != nil {
		return nil, err
	}
	raw = append(raw, ev...)

	consolidated := consolidate(raw)

	if g.Config.MaxGroundAtoms > 0 && int64(len(g.active)) > g.Config.MaxGroundAtoms {
		return nil, tuffyerr.Oversize(fmt.Sprintf("grounding produced %d atoms, exceeding the configured limit of %d", len(g.active), g.Config.MaxGroundAtoms))
	}
	if g.Config.MaxGroundClauses > 0 && int64(len(consolidated)) > g.Config.MaxGroundClauses {
		return nil, tuffyerr.Oversize(fmt.Sprintf("grounding produced %d clauses, exceeding the configured limit of %d", len(consolidated), g.Config.MaxGroundClauses))
	}

	atoms, remap := g.buildDenseAtoms()
	for i := range consolidated {
		for j, m := range consolidated[i].Lits {
			nv := remap[m.Var()]
			if m.IsPos() {
				consolidated[i].Lits[j] = nv.Pos()
			} else {
				consolidated[i].Lits[j] = nv.Neg()
			}
		}
	}

	m := mrf.New(atoms, consolidated)
	g.Metrics.SetGroundingCounts(int64(len(atoms)), int64(len(consolidated)), 0)
	return m, nil
}

func (g *Grounder) allActive(ls []lit.Lit) bool {
	for _, m := range ls {
		if !g.active[m.Var()] {
			return false
		}
	}
	return true
}

// buildDenseAtoms assigns every active atom a dense 0-based position and
// returns both the Atom slice and the old-id-to-new-id remap table the
// caller uses to rewrite clause literals.
func (g *Grounder) buildDenseAtoms() ([]mrf.Atom, map[lit.AtomID]lit.AtomID) {
	ids := make([]lit.AtomID, 0, len(g.active))
	for id := range g.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	atoms := make([]mrf.Atom, len(ids))
	remap := make(map[lit.AtomID]lit.AtomID, len(ids))
	g.AtomOrigin = make(map[lit.AtomID]uint64, len(ids))
	for i, old := range ids {
		remap[old] = lit.AtomID(i)
		atoms[i] = mrf.Atom{ID: uint64(i), IsActive: true, Prior: math.NaN(), Truth: g.forced[old]}
		g.AtomOrigin[lit.AtomID(i)] = uint64(old)
	}
	return atoms, remap
}

func dedupUint64(in []uint64) []uint64 {
	seen := make(map[uint64]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func predicateNames(t model.ClauseTemplate) string {
	s := ""
	for i, a := range t.Atoms {
		if i > 0 {
			s += ","
		}
		s += a.Predicate
	}
	return s
}
