package remote

import (
	"context"
	"net"
	"testing"

	"tuffy/lit"
	"tuffy/unitsolver"
	"tuffy/unitsolver/local"
)

func startServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(local.New(), nil)
	go srv.Serve(context.Background(), ln)
	return ln.Addr().String(), func() { ln.Close() }
}

func TestClientServerUnits(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()

	c, err := Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	a := lit.AtomID(1)
	b := lit.AtomID(2)
	cnf := []unitsolver.Clause{
		{a.Pos()},
		{a.Neg(), b.Pos()},
	}
	units, err := c.Units(context.Background(), cnf)
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	forced := map[lit.AtomID]bool{}
	for _, m := range units {
		forced[m.Var()] = true
	}
	if !forced[a] || !forced[b] {
		t.Errorf("expected both atoms forced, got %v", units)
	}
}

func TestClientServerUnsat(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()

	c, err := Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	a := lit.AtomID(1)
	cnf := []unitsolver.Clause{{a.Pos()}, {a.Neg()}}
	if _, err := c.Units(context.Background(), cnf); err != unitsolver.ErrUnsat {
		t.Fatalf("expected ErrUnsat, got %v", err)
	}
}
