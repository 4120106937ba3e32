package remote

import (
	"context"
	"net"

	"github.com/google/uuid"

	"tuffy/metrics"
	"tuffy/unitsolver"
)

// Server accepts connections and answers each Units request using a
// backend UnitSolver — normally unitsolver/local's in-process propagator,
// giving the same answers a local grounder would get, just over the wire
// for a deployment that wants to centralize IUP across many grounder
// processes.
type Server struct {
	Backend unitsolver.UnitSolver
	Metrics *metrics.Sink
}

// NewServer returns a Server answering requests with backend.
func NewServer(backend unitsolver.UnitSolver, sink *metrics.Sink) *Server {
	return &Server{Backend: backend, Metrics: sink}
}

// Serve accepts connections on ln until ln.Accept fails (typically because
// the listener was closed), handling each connection sequentially in its
// own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()
	s.Metrics.Infof("remote: connection %s opened from %s", connID, conn.RemoteAddr())
	wire := newWireCodec(conn)
	for {
		kind, err := wire.readKind()
		if err != nil {
			return
		}
		if kind != kindUnitsReq {
			s.Metrics.Warnf("remote: connection %s: unexpected request kind %d", connID, kind)
			return
		}

		var cnf []unitsolver.Clause
		for {
			cl, err := wire.recvLits()
			if err != nil {
				return
			}
			if len(cl) == 0 {
				break
			}
			cnf = append(cnf, unitsolver.Clause(cl))
		}

		units, err := s.Backend.Units(ctx, cnf)
		if err == unitsolver.ErrUnsat {
			if wire.writeKind(kindUnitsUnsat) != nil || wire.flush() != nil {
				return
			}
			continue
		}
		if err != nil {
			s.Metrics.Warnf("remote: connection %s: backend error: %v", connID, err)
			if wire.writeKind(kindUnitsUnsat) != nil || wire.flush() != nil {
				return
			}
			continue
		}
		if wire.writeKind(kindUnitsOk) != nil {
			return
		}
		if wire.sendLits(units) != nil {
			return
		}
		if wire.flush() != nil {
			return
		}
	}
}
