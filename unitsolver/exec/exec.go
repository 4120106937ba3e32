// Package exec shells out to an external CDCL solver binary (e.g.
// glucose) for unit propagation/backbone computation, mirroring the
// original grounder's direct process invocation of glucose with
// -printunits or -printbackbone.
package exec

import (
	"bufio"
	"bytes"
	"context"
	osexec "os/exec"
	"strings"

	"tuffy/dimacs"
	"tuffy/lit"
	"tuffy/unitsolver"
)

// Mode selects which external flag is used, and therefore which output
// grammar is parsed: Units only reports atoms forced by propagation;
// Backbone additionally reports atoms with a single value across every
// model, found by the solver's own backbone computation.
type Mode int

const (
	ModeUnits Mode = iota
	ModeBackbone
)

// Solver shells out to path once per Units call, writing cnf as a
// temporary-free DIMACS stream on stdin and reading UNITS/BACKBONE lines
// from stdout.
type Solver struct {
	Path string
	Mode Mode
}

// New returns a Solver invoking the binary at path.
func New(path string, mode Mode) *Solver {
	return &Solver{Path: path, Mode: mode}
}

func (s *Solver) flag() string {
	if s.Mode == ModeBackbone {
		return "-printbackbone"
	}
	return "-printunits"
}

// Units writes cnf to the external binary's stdin and parses its forced
// literals from stdout. A nonzero exit or malformed output is reported as
// a plain error; the caller (ground.Grounder) is responsible for wrapping
// it as tuffyerr.SolverFailure and continuing without this IUP step.
func (s *Solver) Units(ctx context.Context, cnf []unitsolver.Clause) ([]lit.Lit, error) {
	maxVar := 0
	clauses := make([][]lit.Lit, len(cnf))
	for i, c := range cnf {
		clauses[i] = []lit.Lit(c)
		for _, m := range c {
			if v := int(m.Var()); v > maxVar {
				maxVar = v
			}
		}
	}

	var in bytes.Buffer
	if err := dimacs.WriteCNF(&in, maxVar, clauses); err != nil {
		return nil, err
	}

	cmd := osexec.CommandContext(ctx, s.Path, s.flag())
	cmd.Stdin = &in
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	var units []lit.Lit
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "UNITS") && !strings.Contains(line, "BACKBONE") {
			continue
		}
		var ls []lit.Lit
		var ok bool
		if s.Mode == ModeBackbone {
			ls, ok = dimacs.ParseBackboneLine(line)
		} else {
			ls, ok = dimacs.ParseUnitsLine(line)
		}
		if ok {
			units = append(units, ls...)
		}
	}
	return units, sc.Err()
}
