package mobi

import "fmt"

// Extra data flags of the MOBI header.
const (
	extraMultibyte = 0x0001 // bit 0: multibyte character overlap
)

// trailingSize returns the number of bytes of trailing entries appended to a
// text record, as described by the MOBI extra data flags. Bits 1-15 each add
// one variable-length entry whose size is encoded backwards at the end of
// the record; bit 0 adds the multibyte overlap bytes, stored innermost.
func trailingSize(rec []byte, flags uint16) (int, error) {
	size := 0
	for f := flags >> 1; f != 0; f >>= 1 {
		if f&1 == 0 {
			continue
		}
		n := trailingEntrySize(rec[:len(rec)-size])
		if n > len(rec)-size {
			return 0, fmt.Errorf("trailing entry of %d bytes in %d byte record: %w", n, len(rec)-size, ErrMalformedRecord)
		}
		size += n
	}
	if flags&extraMultibyte != 0 {
		if size >= len(rec) {
			return 0, fmt.Errorf("multibyte trailer missing: %w", ErrMalformedRecord)
		}
		n := int(rec[len(rec)-size-1]&0x3) + 1
		if n > len(rec)-size {
			return 0, fmt.Errorf("multibyte trailer of %d bytes in %d byte record: %w", n, len(rec)-size, ErrMalformedRecord)
		}
		size += n
	}
	return size, nil
}

// trailingEntrySize decodes the backward variable-width integer at the end
// of rec. The high bit marks the first byte of the value; at most four bytes
// are consulted. The value includes the size bytes themselves.
func trailingEntrySize(rec []byte) int {
	tail := rec
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	n := 0
	for _, b := range tail {
		if b&0x80 != 0 {
			n = 0
		}
		n = n<<7 | int(b&0x7F)
	}
	return n
}

// stripTrailing removes the trailing entries from a text record.
func stripTrailing(rec []byte, flags uint16) ([]byte, error) {
	if flags == 0 {
		return rec, nil
	}
	n, err := trailingSize(rec, flags)
	if err != nil {
		return nil, err
	}
	return rec[:len(rec)-n], nil
}
