// Package unitsolver defines the black-box unit-propagation/backbone
// oracle the grounder optionally consults during iterative unit
// propagation: given a CNF, return the literals forced true in every
// model, or report the CNF is unsatisfiable.
package unitsolver

import (
	"context"
	"errors"

	"tuffy/lit"
)

// ErrUnsat is returned by Units when the given CNF has no satisfying
// assignment.
var ErrUnsat = errors.New("unitsolver: unsatisfiable")

// Clause is one CNF clause: a plain disjunction of literals, with no
// notion of weight (UnitSolver only ever sees hard clauses).
type Clause []lit.Lit

// UnitSolver is the external or in-process oracle the grounder calls
// during IUP. Implementations must be pure functions of their input: same
// cnf in, same forced-literal set out, no hidden state carried between
// calls.
type UnitSolver interface {
	// Units returns every literal forced true by unit propagation (or, for
	// solvers that compute it, the full backbone) over cnf. Returns
	// ErrUnsat if cnf has no model.
	Units(ctx context.Context, cnf []Clause) ([]lit.Lit, error)
}
