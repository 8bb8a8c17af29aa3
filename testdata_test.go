package mobi

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// testMOBI describes a synthetic MOBI or PalmDOC file. Zero values select
// sensible defaults: a 232-byte MOBI header, UTF-8 text, no compression.
type testMOBI struct {
	name        string
	noMOBI      bool
	headerLen   uint32
	compression Compression
	encryption  EncryptionType
	encoding    TextEncoding
	fullName    string
	locale      uint32

	// exth is written as a well-formed EXTH block. exthRaw, when set, is
	// written verbatim instead.
	exth    []EXTHRecord
	exthRaw []byte

	// text holds the encoded text records; resources follow them.
	text      [][]byte
	resources [][]byte

	palmRecords  int    // PalmDOC record count; defaults to len(text)
	firstNonBook uint32 // defaults to the first resource
	firstImage   uint32 // defaults to the first resource, or none
	lastImage    uint16
	extraFlags   uint16
	drmOffset    uint32
	drmCount     uint32
}

func put16(b []byte, off int, v uint16) { binary.BigEndian.PutUint16(b[off:], v) }
func put32(b []byte, off int, v uint32) { binary.BigEndian.PutUint32(b[off:], v) }

// record0 assembles the PalmDOC header, the MOBI header, the EXTH block and
// the full name.
func (m testMOBI) record0(t testing.TB) []byte {
	t.Helper()
	palmRecords := m.palmRecords
	if palmRecords == 0 {
		palmRecords = len(m.text)
	}
	textLen := 0
	for _, r := range m.text {
		textLen += len(r)
	}

	pd := make([]byte, palmDocHeaderSize)
	comp := m.compression
	if comp == 0 {
		comp = CompressionNone
	}
	put16(pd, 0, uint16(comp))
	put32(pd, 4, uint32(textLen))
	put16(pd, 8, uint16(palmRecords))
	put16(pd, 10, 4096)
	put16(pd, 12, uint16(m.encryption))
	if m.noMOBI {
		return pd
	}

	hl := m.headerLen
	if hl == 0 {
		hl = 232
	}
	if hl < 8 {
		t.Fatalf("record0: header length %d too small", hl)
	}
	mh := make([]byte, hl)
	set32 := func(off int, v uint32) {
		if off+4 <= len(mh) {
			put32(mh, off, v)
		}
	}
	set16 := func(off int, v uint16) {
		if off+2 <= len(mh) {
			put16(mh, off, v)
		}
	}
	enc := m.encoding
	if enc == 0 {
		enc = EncodingUTF8
	}
	set32(0, mobiMagic)
	set32(4, hl)
	set32(8, 2)
	set32(12, uint32(enc))
	fnb := m.firstNonBook
	if fnb == 0 {
		fnb = uint32(1 + len(m.text))
	}
	set32(64, fnb)
	set32(76, m.locale)
	img := m.firstImage
	if img == 0 {
		img = noIndex
		if len(m.resources) > 0 {
			img = uint32(1 + len(m.text))
		}
	}
	set32(92, img)
	var exth []byte
	switch {
	case m.exthRaw != nil:
		exth = m.exthRaw
	case m.exth != nil:
		exth = buildEXTH(m.exth)
	}
	if exth != nil {
		set32(112, exthFlagPresent)
	}
	set32(152, m.drmOffset)
	set32(156, m.drmCount)
	set16(178, m.lastImage)
	set16(226, m.extraFlags)

	rec := append(pd, mh...)
	rec = append(rec, exth...)
	if m.fullName != "" {
		set32(68, uint32(len(rec)))
		set32(72, uint32(len(m.fullName)))
		copy(rec[palmDocHeaderSize:], mh)
		rec = append(rec, m.fullName...)
		rec = append(rec, 0, 0)
	}
	return rec
}

// buildEXTH encodes records as a well-formed EXTH block padded to four bytes.
func buildEXTH(records []EXTHRecord) []byte {
	body := make([]byte, 0, 64)
	for _, r := range records {
		var head [8]byte
		binary.BigEndian.PutUint32(head[0:], uint32(r.Type))
		binary.BigEndian.PutUint32(head[4:], uint32(len(r.Data)+exthRecordHeadSize))
		body = append(body, head[:]...)
		body = append(body, r.Data...)
	}
	out := make([]byte, exthPrologueSize, exthPrologueSize+len(body)+3)
	put32(out, 0, exthMagic)
	put32(out, 4, uint32(exthPrologueSize+len(body)))
	put32(out, 8, uint32(len(records)))
	out = append(out, body...)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out
}

func exthText(t EXTHType, s string) EXTHRecord {
	return EXTHRecord{Type: t, Data: []byte(s)}
}

func exthUint32(t EXTHType, v uint32) EXTHRecord {
	d := make([]byte, 4)
	binary.BigEndian.PutUint32(d, v)
	return EXTHRecord{Type: t, Data: d}
}

// buildMOBI lays out the database header, the record directory and all
// records. Every record must be non-empty so directory offsets increase.
func buildMOBI(t testing.TB, m testMOBI) []byte {
	t.Helper()
	records := [][]byte{m.record0(t)}
	records = append(records, m.text...)
	records = append(records, m.resources...)

	n := len(records)
	out := make([]byte, pdbHeaderSize+n*pdbEntrySize+2)
	name := m.name
	if name == "" {
		name = "Test_Book"
	}
	copy(out[0:pdbNameSize], name)
	put32(out, 36, 0x5F5E1000)
	put32(out, 40, 0x5F5E2000)
	copy(out[pdbTypeOffset:], "BOOK")
	copy(out[pdbCreatorOffset:], "MOBI")
	if m.noMOBI {
		copy(out[pdbTypeOffset:], "TEXt")
		copy(out[pdbCreatorOffset:], "REAd")
	}
	put16(out, pdbNumRecordsField, uint16(n))

	off := len(out)
	for i, r := range records {
		if len(r) == 0 {
			t.Fatalf("buildMOBI: record %d is empty", i)
		}
		put32(out, pdbHeaderSize+i*pdbEntrySize, uint32(off))
		put32(out, pdbHeaderSize+i*pdbEntrySize+4, uint32(2*i))
		off += len(r)
	}
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

// buildMOBIFile writes the synthetic file to a temporary directory and
// returns its path.
func buildMOBIFile(t testing.TB, m testMOBI) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mobi")
	if err := os.WriteFile(path, buildMOBI(t, m), 0o644); err != nil {
		t.Fatalf("buildMOBIFile: %v", err)
	}
	return path
}

// compressPalmDOC is a greedy reference encoder for the PalmDOC scheme.
func compressPalmDOC(src []byte) []byte {
	isLiteral := func(c byte) bool { return c == 0 || (c >= 0x09 && c <= 0x7F) }
	var out []byte
	for i := 0; i < len(src); {
		bestLen, bestDist := 0, 0
		for d := 1; d <= 2047 && d <= i; d++ {
			n := 0
			for n < 10 && i+n < len(src) && src[i+n] == src[i-d+n] {
				n++
			}
			if n > bestLen {
				bestLen, bestDist = n, d
			}
		}
		if bestLen >= 3 {
			v := uint16(0x8000 | bestDist<<3 | (bestLen - 3))
			out = append(out, byte(v>>8), byte(v))
			i += bestLen
			continue
		}

		c := src[i]
		if c == ' ' && i+1 < len(src) && src[i+1] >= 0x40 && src[i+1] <= 0x7F {
			out = append(out, src[i+1]^0x80)
			i += 2
			continue
		}
		if isLiteral(c) {
			out = append(out, c)
			i++
			continue
		}
		j := i
		for j < len(src) && j-i < 8 && !isLiteral(src[j]) {
			j++
		}
		out = append(out, byte(j-i))
		out = append(out, src[i:j]...)
		i = j
	}
	return out
}

// sampleBook returns a small MOBI with metadata and three text records.
func sampleBook() testMOBI {
	return testMOBI{
		fullName: "Sample Full Name",
		exth: []EXTHRecord{
			exthText(EXTHAuthor, "Jane Doe"),
			exthText(EXTHTitle, "Sample"),
			exthText(EXTHPublisher, "Acme Press"),
			exthText(EXTHISBN, "9780000000001"),
		},
		text: [][]byte{
			[]byte("<html><body><p>Hello, "),
			[]byte("world.</p><mbp:pagebreak/>"),
			[]byte("<p>Second page.</p></body></html>"),
		},
	}
}

// Minimal image payloads with valid magic numbers.
var (
	testJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	testPNG  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	testFLIS = []byte("FLIS\x00\x00\x00\x08")
)
