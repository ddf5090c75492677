package imagemeta

import (
	"encoding/binary"
)

// cursor walks an immutable byte slice. Every read checks that the requested
// width fits before touching the buffer.
type cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func newCursor(buf []byte, order binary.ByteOrder) *cursor {
	return &cursor{buf: buf, order: order}
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return ErrTruncated
	}
	c.pos = off
	return nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrTruncated
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (byte, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// at returns n bytes starting at an absolute offset without moving the cursor.
func (c *cursor) at(off uint32, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(c.buf)) {
		return nil, ErrTruncated
	}
	return c.buf[off:end], nil
}
