package mobi

import (
	"fmt"
	"strconv"
)

// Compression is the PalmDOC compression method code.
type Compression uint16

// Compression methods.
const (
	CompressionNone     Compression = 1
	CompressionPalmDOC  Compression = 2
	CompressionHuffCDIC Compression = 17480
)

// String returns a human-readable compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionPalmDOC:
		return "PalmDOC"
	case CompressionHuffCDIC:
		return "HUFF/CDIC"
	default:
		return "unknown (" + strconv.Itoa(int(c)) + ")"
	}
}

// Supported reports whether records with this compression can be decoded.
func (c Compression) Supported() bool {
	return c == CompressionNone || c == CompressionPalmDOC
}

const palmDocHeaderSize = 16

var palmDocFields = []field[PalmDocHeader]{
	{"compression", 0, 2, func(h *PalmDocHeader, v uint32) { h.Compression = Compression(v) }},
	{"text length", 4, 4, func(h *PalmDocHeader, v uint32) { h.TextLength = v }},
	{"record count", 8, 2, func(h *PalmDocHeader, v uint32) { h.RecordCount = uint16(v) }},
	{"record size", 10, 2, func(h *PalmDocHeader, v uint32) { h.RecordSize = uint16(v) }},
	{"encryption", 12, 2, func(h *PalmDocHeader, v uint32) { h.Encryption = EncryptionType(v) }},
}

// parsePalmDocHeader decodes the PalmDOC header at the start of record 0.
// span is the directory span returned by directorySpan.
func parsePalmDocHeader(c *byteCursor, span int) (PalmDocHeader, error) {
	base := record0Origin + span
	if err := c.check(base, palmDocHeaderSize); err != nil {
		return PalmDocHeader{}, fmt.Errorf("PalmDOC header at %d: %w", base, ErrTruncatedHeader)
	}
	var h PalmDocHeader
	if err := decodeFields(c, base, &h, palmDocFields); err != nil {
		return PalmDocHeader{}, err
	}
	return h, nil
}
