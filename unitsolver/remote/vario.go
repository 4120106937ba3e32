package remote

import (
	"fmt"
	"io"

	"tuffy/lit"
)

// wireCodec streams the remote unit-solver protocol's two payload shapes —
// a bare kind word and a zero-terminated literal group — over an
// io.ReadWriter using a varuint32 encoding. One buffer serves both
// directions, since a request is always fully drained before its reply is
// built: not safe for concurrent use by multiple goroutines.
type wireCodec struct {
	rw   io.ReadWriter
	buf  []byte
	r, w int
}

const varUintMask = uint32((1 << 7) - 1)

func newWireCodec(rw io.ReadWriter) *wireCodec {
	return &wireCodec{rw: rw, buf: make([]byte, 1024)}
}

// writeKind sends a bare protocol kind word, e.g. kindUnitsReq.
func (c *wireCodec) writeKind(k uint32) error { return c.writeVarint(k) }

// readKind reads a bare protocol kind word.
func (c *wireCodec) readKind() (uint32, error) { return c.readVarint() }

// sendLits writes ms as a run of varuint32-encoded literals terminated by a
// zero word: the wire form of one clause, or of a response's forced-literal
// list.
func (c *wireCodec) sendLits(ms []lit.Lit) error {
	for _, m := range ms {
		if err := c.writeVarint(uint32(m)); err != nil {
			return err
		}
	}
	return c.writeVarint(0)
}

// recvLits reads literals up to the next zero terminator.
func (c *wireCodec) recvLits() ([]lit.Lit, error) {
	var dst []lit.Lit
	for {
		d, err := c.readVarint()
		if err != nil {
			return dst, err
		}
		if d == 0 {
			return dst, nil
		}
		dst = append(dst, lit.Lit(d))
	}
}

// writeVarint buffers d's 7-bit varuint32 encoding, flushing to rw only
// when the buffer fills.
func (c *wireCodec) writeVarint(d uint32) error {
	for {
		b := byte(d & varUintMask)
		d >>= 7
		if d > 0 {
			b |= 1 << 7
		}
		if c.r >= len(c.buf) {
			if err := c.flush(); err != nil {
				return err
			}
		}
		c.buf[c.r] = b
		c.r++
		if d == 0 {
			return nil
		}
	}
}

// readVarint decodes one 7-bit varuint32, pulling more bytes from rw via
// fill as the buffer empties.
func (c *wireCodec) readVarint() (uint32, error) {
	res := uint32(0)
	s := uint32(0)
	for i := 0; i < 5; i++ {
		if c.r >= c.w {
			if err := c.fill(); err != nil {
				return 0, err
			}
		}
		b := c.buf[c.r]
		c.r++
		res |= (uint32(b) & varUintMask) << s
		if b&(1<<7) == 0 {
			return res, nil
		}
		s += 7
	}
	return 0, fmt.Errorf("remote: varuint32 too long")
}

func (c *wireCodec) fill() error {
	if c.r > c.w {
		return fmt.Errorf("remote: fill without flush")
	}
	if c.r == c.w {
		c.r, c.w = 0, 0
	}
	for i := 0; i < 10; i++ {
		n, err := c.rw.Read(c.buf[c.w:])
		c.w += n
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("remote: too many zero-length reads without error")
}

func (c *wireCodec) flush() error {
	n, m := c.r, c.w
	k := 0
	for m < n {
		o, err := c.rw.Write(c.buf[m:n])
		m += o
		if o > 0 {
			k = 0
		}
		if err != nil {
			return err
		}
		k++
		if k >= 10 {
			return fmt.Errorf("remote: repeated zero-length writes without error")
		}
	}
	c.r, c.w = 0, 0
	return nil
}
