package mobi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Book is a decoded MOBI or PalmDOC file. Use Open, NewReader or Parse to
// create one.
//
// A Book is immutable after parsing and safe for concurrent use. Slices
// returned by its methods that alias the file buffer (Record.Raw, Image.Data)
// must not be modified.
type Book struct {
	raw        []byte
	headers    Headers
	records    []Record
	start, end int
	encrypted  bool
	metadata   Metadata
	warnings   []string
}

// Open reads and decodes the file at path.
func Open(path string, opts ...Option) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mobi: open %s: %w", path, err)
	}
	return Parse(data, opts...)
}

// NewReader reads r to the end and decodes the result.
func NewReader(r io.Reader, opts ...Option) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mobi: read: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes a complete file held in data. The Book keeps a reference to
// data; the caller must not modify it afterwards.
//
// Failures in the mandatory headers are returned as errors. Failures local to
// the EXTH block or to a single record are recorded as warnings and leave a
// partial result.
func Parse(data []byte, opts ...Option) (*Book, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &warnings{log: cfg.logger}

	h, err := parseHeaders(data, w)
	if err != nil {
		return nil, err
	}

	b := &Book{
		raw:       data,
		headers:   h,
		encrypted: isEncrypted(&h),
	}
	b.records = buildRecords(data, h.PDB.Records)
	b.start, b.end = contentRange(&h, len(b.records))

	if b.encrypted {
		w.add("text records are encrypted; content is exposed as ciphertext",
			slog.String("encryption", h.PalmDoc.Encryption.String()))
	} else if !h.PalmDoc.Compression.Supported() {
		w.add("text records use an unsupported compression",
			slog.String("compression", h.PalmDoc.Compression.String()))
	}

	decodeRecords(b.records, b.start, b.end, newRecordDecoder(&h, cfg.stripTrailers), cfg.workers)
	if h.PalmDoc.Compression.Supported() || b.encrypted {
		for _, r := range b.records[b.start:b.end] {
			if r.Err != nil {
				w.add("record could not be decoded", slog.Int("record", r.Index), slog.Any("err", r.Err))
			}
		}
	}

	b.metadata = extractMetadata(&h)
	b.warnings = w.list
	cfg.logger.Debug("decoded book",
		slog.String("title", b.metadata.Title),
		slog.Int("records", len(b.records)),
		slog.Int("content_start", b.start),
		slog.Int("content_end", b.end),
		slog.String("compression", h.PalmDoc.Compression.String()),
		slog.String("encoding", h.MOBI.TextEncoding.resolve().String()))
	return b, nil
}

// ParseHeaders decodes only the database header, the record 0 headers and
// the EXTH block. Records are not decompressed.
func ParseHeaders(data []byte, opts ...Option) (Headers, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return parseHeaders(data, &warnings{log: cfg.logger})
}

// parseHeaders runs the fixed part of the decode: database header, then the
// PalmDOC and MOBI headers shifted by the directory span, then EXTH.
func parseHeaders(data []byte, w *warnings) (Headers, error) {
	c := newCursor(data)
	var h Headers

	pdb, err := parsePDBHeader(c)
	if err != nil {
		return Headers{}, fmt.Errorf("mobi: database header: %w", err)
	}
	h.PDB = pdb
	span := directorySpan(pdb.NumRecords)

	if len(pdb.Records) > 0 {
		if got, want := int(pdb.Records[0].Offset), record0Origin+span; got != want {
			w.add("record 0 does not start right after the directory",
				slog.Int("offset", got), slog.Int("expected", want))
		}
	}

	h.PalmDoc, err = parsePalmDocHeader(c, span)
	if err != nil {
		return Headers{}, fmt.Errorf("mobi: PalmDOC header: %w", err)
	}

	h.MOBI, err = parseMOBIHeader(c, span, pdb.record0End(len(data)))
	if err != nil {
		return Headers{}, fmt.Errorf("mobi: MOBI header: %w", err)
	}
	if !h.MOBI.Present {
		w.add("no MOBI header; treating file as plain PalmDOC", slog.String("identifier", h.MOBI.Magic()))
	} else if !h.MOBI.TextEncoding.Known() {
		w.add("unrecognised text encoding; using CP1252",
			slog.Uint64("encoding", uint64(h.MOBI.TextEncoding)))
	}
	if h.MOBI.FullNameLength > 0 && h.MOBI.FullName == "" {
		w.add("full name lies outside record 0",
			slog.Uint64("offset", uint64(h.MOBI.FullNameOffset)),
			slog.Uint64("length", uint64(h.MOBI.FullNameLength)))
	}
	if hasDRMBlock(&h.MOBI) && !isEncrypted(&h) {
		w.add("MOBI header declares a DRM block but text is not marked encrypted",
			slog.Uint64("drm_offset", uint64(h.MOBI.DRMOffset)))
	}

	h.EXTH = EXTHHeader{encoding: h.MOBI.TextEncoding}
	if h.MOBI.HasEXTH {
		exth, err := parseEXTH(c, h.MOBI.exthOffset(span), h.MOBI.TextEncoding)
		h.EXTH = exth
		if err != nil {
			w.add("EXTH block truncated",
				slog.Int("records", len(exth.Records)),
				slog.Uint64("declared", uint64(exth.RecordCount)),
				slog.Any("err", err))
		}
		if hasDRMSignature(&h.EXTH) {
			w.add("EXTH block carries DRM storefront identifiers")
		}
	}
	return h, nil
}

// warnings accumulates non-fatal parse problems and mirrors them to a logger.
type warnings struct {
	log  *slog.Logger
	list []string
}

func (w *warnings) add(msg string, attrs ...slog.Attr) {
	w.log.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
	var sb strings.Builder
	sb.WriteString(msg)
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	w.list = append(w.list, sb.String())
}

// Headers returns a copy of all decoded headers.
func (b *Book) Headers() Headers {
	h := b.headers
	h.PDB.Records = append([]RecordEntry(nil), b.headers.PDB.Records...)
	h.EXTH.Records = append([]EXTHRecord(nil), b.headers.EXTH.Records...)
	return h
}

// EXTH returns the extended metadata block. It is empty when the file has none.
func (b *Book) EXTH() EXTHHeader {
	return b.Headers().EXTH
}

// Metadata returns the bibliographic metadata.
func (b *Book) Metadata() Metadata {
	return copyMetadata(b.metadata)
}

// Title returns the book title: the EXTH updated title, the MOBI full name,
// or the database name, whichever is found first.
func (b *Book) Title() string {
	return b.metadata.Title
}

// Author returns the first EXTH author, or "" if none.
func (b *Book) Author() string {
	return first(b.metadata.Authors)
}

// Publisher returns the EXTH publisher, or "" if none.
func (b *Book) Publisher() string {
	return b.metadata.Publisher
}

// Description returns the EXTH description, or "" if none.
func (b *Book) Description() string {
	return b.metadata.Description
}

// ISBN returns the EXTH ISBN, or "" if none.
func (b *Book) ISBN() string {
	return b.metadata.ISBN
}

// PublishDate returns the raw EXTH publishing date, or "" if none.
func (b *Book) PublishDate() string {
	return b.metadata.PublishDate
}

// Contributor returns the first EXTH contributor, or "" if none.
func (b *Book) Contributor() string {
	return first(b.metadata.Contributors)
}

// Language returns the book language, or "" if unknown.
func (b *Book) Language() string {
	return b.metadata.Language
}

// TextEncoding returns the encoding used for text, with unrecognised codes
// resolved to CP1252.
func (b *Book) TextEncoding() TextEncoding {
	return b.headers.MOBI.TextEncoding.resolve()
}

// MOBIType returns the MOBI document type name, or "" if unknown.
func (b *Book) MOBIType() string {
	return b.headers.MOBI.TypeName()
}

// Compression returns the compression method of the text records.
func (b *Book) Compression() Compression {
	return b.headers.PalmDoc.Compression
}

// Encryption returns the encryption code of the text records.
func (b *Book) Encryption() EncryptionType {
	return b.headers.PalmDoc.Encryption
}

// Encrypted reports whether the text records are ciphertext.
func (b *Book) Encrypted() bool {
	return b.encrypted
}

// CreatedTime returns the raw creation timestamp of the database header.
func (b *Book) CreatedTime() uint32 {
	return b.headers.PDB.Created
}

// ModifiedTime returns the raw modification timestamp of the database header.
func (b *Book) ModifiedTime() uint32 {
	return b.headers.PDB.Modified
}

// Warnings returns the non-fatal problems found while parsing.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// Records returns every record of the directory in order.
func (b *Book) Records() []Record {
	return append([]Record(nil), b.records...)
}

// Record returns the record at directory index i.
func (b *Book) Record(i int) (Record, error) {
	if i < 0 || i >= len(b.records) {
		return Record{}, fmt.Errorf("mobi: index %d of %d: %w", i, len(b.records), ErrRecordNotFound)
	}
	return b.records[i], nil
}

// ContentRange returns the half-open directory range [start, end) of the
// text records.
func (b *Book) ContentRange() (start, end int) {
	return b.start, b.end
}

// Content returns the concatenated decoded bytes of the text records. For
// encrypted books this is the ciphertext.
func (b *Book) Content() []byte {
	n := 0
	for _, r := range b.records[b.start:b.end] {
		n += len(r.Data)
	}
	var buf bytes.Buffer
	buf.Grow(n)
	for _, r := range b.records[b.start:b.end] {
		buf.Write(r.Data)
	}
	return buf.Bytes()
}

// ContentString returns Content decoded with the book's text encoding.
// Invalid sequences are replaced with U+FFFD.
func (b *Book) ContentString() string {
	return decodeTextLossy(b.Content(), b.TextEncoding())
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
