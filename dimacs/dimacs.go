// Package dimacs reads and writes the DIMACS CNF text format used to hand
// a ground clause set to an external CDCL solver, and parses that
// solver's unit/backbone output lines back into literals.
package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tuffy/lit"
)

// Adder receives one clause at a time while reading a CNF stream, mirroring
// the teacher's Add/Eof streaming-callback style instead of building a
// full in-memory clause list for callers that don't need one.
type Adder interface {
	Add(ls []lit.Lit)
	Eof()
}

// WriteCNF writes clauses as a DIMACS CNF file: a header line naming the
// variable and clause counts, then one "0"-terminated line per clause.
func WriteCNF(w io.Writer, numVars int, clauses [][]lit.Lit) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", numVars, len(clauses)); err != nil {
		return err
	}
	for _, c := range clauses {
		for _, m := range c {
			if _, err := fmt.Fprintf(bw, "%d ", m.Dimacs()); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("0\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCNF reads a DIMACS CNF stream, calling dst.Add once per clause and
// dst.Eof once at the end. Comment lines ("c ...") and the problem line
// ("p cnf ...") are skipped.
func ReadCNF(r io.Reader, dst Adder) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var cur []lit.Lit
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "c") || strings.HasPrefix(line, "p") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			d, err := strconv.Atoi(tok)
			if err != nil {
				return fmt.Errorf("dimacs: bad literal %q: %w", tok, err)
			}
			if d == 0 {
				dst.Add(cur)
				cur = nil
				continue
			}
			cur = append(cur, lit.Dimacs2Lit(d))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if len(cur) > 0 {
		dst.Add(cur)
	}
	dst.Eof()
	return nil
}

// ParseUnitsLine parses a glucose "UNITS l1 l2 ... ln" stdout line into
// literals. Lines not starting with the UNITS token return (nil, false).
func ParseUnitsLine(line string) ([]lit.Lit, bool) {
	return parsePrefixedLine(line, "UNITS")
}

// ParseBackboneLine parses a glucose "BACKBONE l1 l2 ... ln" stdout line
// into literals, the same grammar as ParseUnitsLine under a different
// token emitted by -printbackbone instead of -printunits.
func ParseBackboneLine(line string) ([]lit.Lit, bool) {
	return parsePrefixedLine(line, "BACKBONE")
}

func parsePrefixedLine(line, token string) ([]lit.Lit, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, token) {
		return nil, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, token))
	if rest == "" {
		return nil, true
	}
	var out []lit.Lit
	for _, tok := range strings.Fields(rest) {
		d, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if d == 0 {
			continue
		}
		out = append(out, lit.Dimacs2Lit(d))
	}
	return out, true
}
