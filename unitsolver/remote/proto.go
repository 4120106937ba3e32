package remote

import (
	"context"
	"fmt"
	"net"

	"tuffy/lit"
	"tuffy/unitsolver"
)

// Wire message kinds. A request is always kindUnitsReq followed by zero or
// more clauses (each lit.Lit-terminated by 0) then an empty clause (a bare
// 0) marking end of message. A response is kindUnitsOk followed by the
// forced literals (0-terminated) or kindUnitsUnsat with no payload.
const (
	kindUnitsReq   = uint32(1)
	kindUnitsOk    = uint32(2)
	kindUnitsUnsat = uint32(3)
)

// Client dials a remote unit-solver server and implements
// unitsolver.UnitSolver by round-tripping one request per Units call.
// Connections are not pooled: callers needing many requests should keep
// reusing the same Client, which keeps a single persistent connection.
type Client struct {
	conn net.Conn
	wire *wireCodec
}

// Dial connects to a cmd/unitoracle server at addr ("tcp" or "unix"
// network, e.g. "tcp:localhost:9999" is expressed as network="tcp",
// addr="localhost:9999").
func Dial(network, addr string) (*Client, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s %s: %w", network, addr, err)
	}
	return &Client{conn: conn, wire: newWireCodec(conn)}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

var _ unitsolver.UnitSolver = (*Client)(nil)

// Units sends cnf as a single request and blocks for the response. ctx
// cancellation closes the underlying connection, matching the cooperative
// deadline-polling model the rest of the pipeline uses.
func (c *Client) Units(ctx context.Context, cnf []unitsolver.Clause) ([]lit.Lit, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	if err := c.wire.writeKind(kindUnitsReq); err != nil {
		return nil, err
	}
	for _, cl := range cnf {
		if err := c.wire.sendLits(cl); err != nil {
			return nil, err
		}
	}
	if err := c.wire.sendLits(nil); err != nil { // empty clause terminates the request
		return nil, err
	}
	if err := c.wire.flush(); err != nil {
		return nil, err
	}

	kind, err := c.wire.readKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindUnitsUnsat:
		return nil, unitsolver.ErrUnsat
	case kindUnitsOk:
		return c.wire.recvLits()
	default:
		return nil, fmt.Errorf("remote: unexpected response kind %d", kind)
	}
}
