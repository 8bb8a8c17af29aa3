package mobi

import (
	"bytes"
	"errors"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is the MOBI text encoding code (a Windows code page number).
type TextEncoding uint32

// Text encodings defined by the MOBI header.
const (
	EncodingCP1252 TextEncoding = 1252
	EncodingUTF8   TextEncoding = 65001
)

var errInvalidUTF8 = errors.New("mobi: invalid UTF-8")

// String returns a human-readable encoding name.
func (e TextEncoding) String() string {
	switch e {
	case EncodingCP1252:
		return "CP1252"
	case EncodingUTF8:
		return "UTF-8"
	default:
		return "unknown (" + strconv.FormatUint(uint64(e), 10) + ")"
	}
}

// Known reports whether e is one of the encodings defined by the format.
func (e TextEncoding) Known() bool {
	return e == EncodingCP1252 || e == EncodingUTF8
}

// resolve maps unrecognised codes to the single-byte fallback.
func (e TextEncoding) resolve() TextEncoding {
	if e.Known() {
		return e
	}
	return EncodingCP1252
}

// decodeText strictly decodes b. Invalid UTF-8 is an error.
func decodeText(b []byte, enc TextEncoding) (string, error) {
	switch enc.resolve() {
	case EncodingUTF8:
		if !utf8.Valid(b) {
			return "", errInvalidUTF8
		}
		return string(b), nil
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// decodeTextFallback decodes b, falling back to one rune per byte (Latin-1)
// when the declared encoding cannot decode it. Trailing NUL padding is dropped.
func decodeTextFallback(b []byte, enc TextEncoding) string {
	b = bytes.TrimRight(b, "\x00")
	if s, err := decodeText(b, enc); err == nil {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// decodeTextLossy decodes b, replacing invalid sequences with U+FFFD.
func decodeTextLossy(b []byte, enc TextEncoding) string {
	var (
		out []byte
		err error
	)
	switch enc.resolve() {
	case EncodingUTF8:
		out, err = unicode.UTF8.NewDecoder().Bytes(b)
	default:
		out, err = charmap.Windows1252.NewDecoder().Bytes(b)
	}
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(out)
}
