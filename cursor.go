package mobi

import "encoding/binary"

// byteCursor is a bounds-checked big-endian view over an immutable buffer.
// The *At methods read at explicit offsets; the remaining methods read at
// the current position and advance it.
type byteCursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *byteCursor {
	return &byteCursor{buf: buf}
}

// check reports whether n bytes starting at off are inside the buffer.
func (c *byteCursor) check(off, n int) error {
	if off < 0 || n < 0 || off > len(c.buf)-n {
		return &OutOfBoundsError{Offset: off, Length: n, Size: len(c.buf)}
	}
	return nil
}

func (c *byteCursor) u16At(off int) (uint16, error) {
	if err := c.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(c.buf[off:]), nil
}

func (c *byteCursor) i16At(off int) (int16, error) {
	v, err := c.u16At(off)
	return int16(v), err
}

func (c *byteCursor) u32At(off int) (uint32, error) {
	if err := c.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(c.buf[off:]), nil
}

// bytesAt returns a view of n bytes at off. The caller must not modify it.
func (c *byteCursor) bytesAt(off, n int) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return c.buf[off : off+n : off+n], nil
}

func (c *byteCursor) seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return &OutOfBoundsError{Offset: off, Size: len(c.buf)}
	}
	c.pos = off
	return nil
}

func (c *byteCursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *byteCursor) u16() (uint16, error) {
	v, err := c.u16At(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

func (c *byteCursor) u32() (uint32, error) {
	v, err := c.u32At(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

func (c *byteCursor) bytes(n int) ([]byte, error) {
	b, err := c.bytesAt(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}
