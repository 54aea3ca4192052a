package analysis

import "encoding/binary"

// byteCursor is a bounds-checked reader over a byte slice. Every read
// reports failure instead of indexing directly, so truncated or adversarial
// input degrades to a parse abort rather than an out-of-bounds panic.
type byteCursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte) *byteCursor {
	return &byteCursor{buf: buf}
}

func (c *byteCursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *byteCursor) u8() (uint8, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	v := c.buf[c.off]
	c.off++
	return v, true
}

func (c *byteCursor) u16() (uint16, bool) {
	if c.remaining() < 2 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, true
}

func (c *byteCursor) u24() (uint32, bool) {
	if c.remaining() < 3 {
		return 0, false
	}
	b := c.buf[c.off:]
	c.off += 3
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), true
}

func (c *byteCursor) skip(n int) bool {
	if n < 0 || c.remaining() < n {
		return false
	}
	c.off += n
	return true
}

func (c *byteCursor) bytes(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, true
}
