package mobi

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the mobi package.
var (
	// ErrOutOfBounds indicates a read at an offset/length outside the buffer.
	// It is always fatal to the whole decode.
	ErrOutOfBounds = errors.New("mobi: read out of bounds")

	// ErrTruncatedHeader indicates a fixed-size header region does not fit
	// in the buffer.
	ErrTruncatedHeader = errors.New("mobi: truncated header")

	// ErrCorruptDirectory indicates the record directory offsets are not
	// strictly increasing or point past the end of the file.
	ErrCorruptDirectory = errors.New("mobi: corrupt record directory")

	// ErrInvalidBackReference indicates a PalmDOC back-reference whose
	// distance is zero or points before the start of the produced output.
	ErrInvalidBackReference = errors.New("mobi: invalid back-reference")

	// ErrUnsupportedCompression indicates a compression method other than
	// none (1) and PalmDOC (2), e.g. HUFF/CDIC.
	ErrUnsupportedCompression = errors.New("mobi: unsupported compression")

	// ErrMalformedMetadataRecord indicates an EXTH record whose declared
	// length is smaller than its own header or overruns the buffer.
	ErrMalformedMetadataRecord = errors.New("mobi: malformed EXTH record")

	// ErrMalformedRecord indicates a content record that ends in the middle
	// of a control sequence or carries inconsistent trailing entries.
	ErrMalformedRecord = errors.New("mobi: malformed record")

	// ErrDRMProtected indicates the text records are encrypted and cannot
	// be rendered as text.
	ErrDRMProtected = errors.New("mobi: file is DRM protected")

	// ErrRecordNotFound indicates a record index outside the directory.
	ErrRecordNotFound = errors.New("mobi: record not found")

	// ErrNoCover indicates no cover image could be located.
	ErrNoCover = errors.New("mobi: no cover image found")
)

// OutOfBoundsError describes a read that does not fit in the buffer.
type OutOfBoundsError struct {
	Offset int // requested start offset
	Length int // requested number of bytes
	Size   int // buffer length
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("mobi: read of %d bytes at offset %d exceeds buffer of %d bytes", e.Length, e.Offset, e.Size)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// RecordError reports a failure local to one record. Other records of the
// same document are unaffected.
type RecordError struct {
	Index int   // directory index of the record
	Err   error // underlying cause
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("mobi: record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
