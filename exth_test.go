package mobi

import (
	"errors"
	"slices"
	"testing"
)

func TestParseEXTH(t *testing.T) {
	block := buildEXTH([]EXTHRecord{
		exthText(EXTHAuthor, "Jane Doe"),
		exthText(EXTHAuthor, "John Roe"),
		exthText(EXTHTitle, "Sample"),
		exthUint32(EXTHCoverOffset, 2),
		{Type: 9999, Data: []byte("vendor")},
	})
	h, err := parseEXTH(newCursor(block), 0, EncodingUTF8)
	if err != nil {
		t.Fatalf("parseEXTH() error = %v", err)
	}
	if h.RecordCount != 5 || len(h.Records) != 5 {
		t.Fatalf("RecordCount = %d, len(Records) = %d, want 5", h.RecordCount, len(h.Records))
	}

	if got, ok := h.Get(EXTHAuthor); !ok || got != "Jane Doe" {
		t.Errorf("Get(author) = %q, %v; want Jane Doe", got, ok)
	}
	if got := h.All(EXTHAuthor); !slices.Equal(got, []string{"Jane Doe", "John Roe"}) {
		t.Errorf("All(author) = %q", got)
	}
	if got, ok := h.Get(EXTHTitle); !ok || got != "Sample" {
		t.Errorf("Get(title) = %q, %v", got, ok)
	}
	if _, ok := h.Get(EXTHDRMServerID); ok {
		t.Error("Get(1) found a record that is not present")
	}
	if v, ok := h.Uint32(EXTHCoverOffset); !ok || v != 2 {
		t.Errorf("Uint32(cover offset) = %d, %v; want 2", v, ok)
	}
	if _, ok := h.Uint32(EXTHAuthor); ok {
		t.Error("Uint32(author) accepted an 8-byte record")
	}

	m := h.Map()
	if _, ok := m[9999]; ok {
		t.Error("Map() exposes an unknown record type")
	}
	if len(m[EXTHAuthor]) != 2 {
		t.Errorf("Map()[author] = %q", m[EXTHAuthor])
	}
	if h.Records[4].Type != 9999 || string(h.Records[4].Data) != "vendor" {
		t.Errorf("unknown record not retained: %+v", h.Records[4])
	}
}

func TestParseEXTH_Malformed(t *testing.T) {
	valid := buildEXTH([]EXTHRecord{
		exthText(EXTHAuthor, "Jane Doe"),
		exthText(EXTHPublisher, "Acme"),
	})

	tests := []struct {
		name        string
		block       []byte
		wantRecords int
		wantErr     error
	}{
		{
			name: "length below record header",
			block: func() []byte {
				b := append([]byte(nil), valid...)
				put32(b, exthPrologueSize+20, 4) // second record length
				return b
			}(),
			wantRecords: 1,
			wantErr:     ErrMalformedMetadataRecord,
		},
		{
			name: "length overruns buffer",
			block: func() []byte {
				b := append([]byte(nil), valid...)
				put32(b, exthPrologueSize+20, 1000)
				return b
			}(),
			wantRecords: 1,
			wantErr:     ErrMalformedMetadataRecord,
		},
		{
			name: "count exceeds records",
			block: func() []byte {
				b := append([]byte(nil), valid...)
				put32(b, 8, 7)
				return b[:exthPrologueSize+16+12]
			}(),
			wantRecords: 2,
			wantErr:     ErrMalformedMetadataRecord,
		},
		{
			name:    "truncated prologue",
			block:   valid[:8],
			wantErr: ErrTruncatedHeader,
		},
		{
			name: "bad identifier",
			block: func() []byte {
				b := append([]byte(nil), valid...)
				copy(b, "XXXX")
				return b
			}(),
			wantErr: ErrMalformedMetadataRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := parseEXTH(newCursor(tt.block), 0, EncodingUTF8)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseEXTH() error = %v, want %v", err, tt.wantErr)
			}
			if len(h.Records) != tt.wantRecords {
				t.Errorf("len(Records) = %d, want %d", len(h.Records), tt.wantRecords)
			}
			if tt.wantRecords > 0 {
				if got, _ := h.Get(EXTHAuthor); got != "Jane Doe" {
					t.Errorf("Get(author) = %q after truncation", got)
				}
			}
		})
	}
}

func TestParseEXTH_OffsetOutsideBuffer(t *testing.T) {
	_, err := parseEXTH(newCursor(make([]byte, 4)), 10, EncodingUTF8)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("parseEXTH() error = %v, want ErrOutOfBounds", err)
	}
}

func TestEXTH_TextDecoding(t *testing.T) {
	block := buildEXTH([]EXTHRecord{
		{Type: EXTHAuthor, Data: []byte("Ren\xe9e\x00\x00")},
		{Type: EXTHPublisher, Data: []byte("caf\xc3\xa9")},
	})

	cp, _ := parseEXTH(newCursor(block), 0, EncodingCP1252)
	if got, _ := cp.Get(EXTHAuthor); got != "Renée" {
		t.Errorf("CP1252 author = %q, want Renée", got)
	}

	utf, _ := parseEXTH(newCursor(block), 0, EncodingUTF8)
	if got, _ := utf.Get(EXTHPublisher); got != "café" {
		t.Errorf("UTF-8 publisher = %q, want café", got)
	}
	// Invalid UTF-8 falls back to one rune per byte.
	if got, _ := utf.Get(EXTHAuthor); got != "Renée" {
		t.Errorf("UTF-8 fallback author = %q, want Renée", got)
	}
}

func TestEXTHType_String(t *testing.T) {
	if got := EXTHAuthor.String(); got != "author" {
		t.Errorf("EXTHAuthor.String() = %q", got)
	}
	if got := EXTHType(9999).String(); got != "unknown (9999)" {
		t.Errorf("EXTHType(9999).String() = %q", got)
	}
	if EXTHType(9999).Known() {
		t.Error("EXTHType(9999).Known() = true")
	}
}
