package dimacs

import (
	"bytes"
	"testing"

	"tuffy/lit"
)

type collector struct {
	clauses [][]lit.Lit
	eof     bool
}

func (c *collector) Add(ls []lit.Lit) { c.clauses = append(c.clauses, append([]lit.Lit(nil), ls...)) }
func (c *collector) Eof()             { c.eof = true }

func TestWriteReadRoundTrip(t *testing.T) {
	clauses := [][]lit.Lit{
		{lit.AtomID(1).Pos(), lit.AtomID(2).Neg()},
		{lit.AtomID(3).Pos()},
	}
	var buf bytes.Buffer
	if err := WriteCNF(&buf, 3, clauses); err != nil {
		t.Fatalf("write: %v", err)
	}
	var c collector
	if err := ReadCNF(&buf, &c); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !c.eof {
		t.Errorf("expected Eof to be called")
	}
	if len(c.clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(c.clauses))
	}
	if c.clauses[0][0] != lit.AtomID(1).Pos() || c.clauses[0][1] != lit.AtomID(2).Neg() {
		t.Errorf("clause 0 mismatch: %v", c.clauses[0])
	}
}

func TestParseUnitsLine(t *testing.T) {
	ls, ok := ParseUnitsLine("UNITS 1 -2 3")
	if !ok {
		t.Fatalf("expected UNITS line to parse")
	}
	want := []lit.Lit{lit.AtomID(1).Pos(), lit.AtomID(2).Neg(), lit.AtomID(3).Pos()}
	if len(ls) != len(want) {
		t.Fatalf("want %v got %v", want, ls)
	}
	for i := range want {
		if ls[i] != want[i] {
			t.Errorf("index %d: want %v got %v", i, want[i], ls[i])
		}
	}
}

func TestParseBackboneLineRejectsOtherTokens(t *testing.T) {
	if _, ok := ParseBackboneLine("UNITS 1 2"); ok {
		t.Errorf("expected BACKBONE parser to reject a UNITS line")
	}
}
