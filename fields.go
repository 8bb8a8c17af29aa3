package mobi

import (
	"fmt"
	"math"
)

// field describes one fixed-width big-endian integer of a header: its name,
// its offset relative to the header base, its width in bytes and where the
// value goes.
type field[T any] struct {
	name   string
	offset int
	width  int
	set    func(h *T, v uint32)
}

// decodeFields reads every field of table at base+offset into h.
func decodeFields[T any](c *byteCursor, base int, h *T, table []field[T]) error {
	return decodeFieldsWithin(c, base, math.MaxInt, h, table)
}

// decodeFieldsWithin is decodeFields restricted to fields that end within
// limit bytes of base. Fields beyond limit keep their zero value.
func decodeFieldsWithin[T any](c *byteCursor, base, limit int, h *T, table []field[T]) error {
	for _, f := range table {
		if f.offset+f.width > limit {
			continue
		}
		var v uint32
		switch f.width {
		case 2:
			x, err := c.u16At(base + f.offset)
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			v = uint32(x)
		case 4:
			x, err := c.u32At(base + f.offset)
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			v = x
		default:
			panic("mobi: unsupported field width")
		}
		f.set(h, v)
	}
	return nil
}
