package mobi

import "fmt"

// decompress decodes one record payload according to the document's
// compression method. Uncompressed payloads are returned unchanged.
func decompress(src []byte, method Compression) ([]byte, error) {
	switch method {
	case CompressionNone:
		return src, nil
	case CompressionPalmDOC:
		return decompressPalmDOC(src)
	default:
		return nil, fmt.Errorf("%s: %w", method, ErrUnsupportedCompression)
	}
}

// decompressPalmDOC expands a PalmDOC (LZ77 variant) compressed record.
//
//	0x00        literal NUL
//	0x01-0x08   copy the next n bytes verbatim
//	0x09-0x7F   literal byte
//	0x80-0xBF   back-reference: 11-bit distance, 3-bit length (+3)
//	0xC0-0xFF   space followed by byte^0x80
func decompressPalmDOC(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)*2)
	for i := 0; i < len(src); {
		b := src[i]
		i++
		switch {
		case b == 0x00 || (b >= 0x09 && b <= 0x7F):
			out = append(out, b)

		case b <= 0x08:
			n := int(b)
			if i+n > len(src) {
				return nil, fmt.Errorf("literal run of %d at %d exceeds record: %w", n, i-1, ErrMalformedRecord)
			}
			out = append(out, src[i:i+n]...)
			i += n

		case b <= 0xBF:
			if i >= len(src) {
				return nil, fmt.Errorf("back-reference at %d missing second byte: %w", i-1, ErrMalformedRecord)
			}
			v := uint16(b)<<8 | uint16(src[i])
			i++
			distance := int(v>>3) & 0x07FF
			length := int(v&0x0007) + 3
			if distance == 0 || distance > len(out) {
				return nil, fmt.Errorf("distance %d with %d bytes produced at %d: %w",
					distance, len(out), i-2, ErrInvalidBackReference)
			}
			// Byte by byte: the source may overlap the bytes being written.
			start := len(out) - distance
			for k := 0; k < length; k++ {
				out = append(out, out[start+k])
			}

		default:
			out = append(out, ' ', b^0x80)
		}
	}
	return out, nil
}
