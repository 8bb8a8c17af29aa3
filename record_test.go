package mobi

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestContentRange(t *testing.T) {
	tests := []struct {
		name      string
		h         Headers
		n         int
		wantStart int
		wantEnd   int
	}{
		{
			name:      "PalmDOC record count",
			h:         Headers{PalmDoc: PalmDocHeader{RecordCount: 5}},
			n:         6,
			wantStart: 1, wantEnd: 4,
		},
		{
			name: "first non-book index preferred",
			h: Headers{
				PalmDoc: PalmDocHeader{RecordCount: 5},
				MOBI:    MOBIHeader{Present: true, FirstNonBookIndex: 6},
			},
			n:         8,
			wantStart: 1, wantEnd: 6,
		},
		{
			name: "implausible first non-book index",
			h: Headers{
				PalmDoc: PalmDocHeader{RecordCount: 5},
				MOBI:    MOBIHeader{Present: true, FirstNonBookIndex: noIndex},
			},
			n:         8,
			wantStart: 1, wantEnd: 4,
		},
		{
			name:      "clamped to directory",
			h:         Headers{PalmDoc: PalmDocHeader{RecordCount: 50}},
			n:         3,
			wantStart: 1, wantEnd: 3,
		},
		{
			name:      "no text records",
			h:         Headers{PalmDoc: PalmDocHeader{RecordCount: 0}},
			n:         1,
			wantStart: 1, wantEnd: 1,
		},
		{
			name:      "empty directory",
			h:         Headers{},
			n:         0,
			wantStart: 0, wantEnd: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := contentRange(&tt.h, tt.n)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("contentRange() = [%d, %d), want [%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestBuildRecords(t *testing.T) {
	buf := []byte("0123456789")
	dir := []RecordEntry{{Offset: 0}, {Offset: 4}, {Offset: 7}}
	records := buildRecords(buf, dir)
	want := []string{"0123", "456", "789"}
	for i, r := range records {
		if string(r.Raw) != want[i] {
			t.Errorf("records[%d].Raw = %q, want %q", i, r.Raw, want[i])
		}
		if r.Index != i || r.End-r.Offset != len(want[i]) {
			t.Errorf("records[%d] = {Index: %d, Offset: %d, End: %d}", i, r.Index, r.Offset, r.End)
		}
	}
	if cap(records[0].Raw) != 4 {
		t.Errorf("cap(records[0].Raw) = %d, want 4", cap(records[0].Raw))
	}
}

func TestDecodeRecords_Isolation(t *testing.T) {
	records := []Record{
		{Raw: []byte("header")},
		{Raw: compressPalmDOC([]byte("first"))},
		{Raw: []byte{'a', 0x80, 0x00}},
		{Raw: compressPalmDOC([]byte("third"))},
	}
	d := recordDecoder{method: CompressionPalmDOC}
	decodeRecords(records, 1, 4, d, 1)

	if records[0].Content || records[0].Data != nil {
		t.Errorf("record 0 was decoded: %+v", records[0])
	}
	if string(records[1].Data) != "first" || string(records[3].Data) != "third" {
		t.Errorf("decoded = %q, %q", records[1].Data, records[3].Data)
	}
	var re *RecordError
	if !errors.As(records[2].Err, &re) || re.Index != 2 {
		t.Fatalf("records[2].Err = %v, want *RecordError for index 2", records[2].Err)
	}
	if !errors.Is(records[2].Err, ErrInvalidBackReference) {
		t.Errorf("records[2].Err = %v, want ErrInvalidBackReference", records[2].Err)
	}
	if records[2].Data == nil || len(records[2].Data) != 0 {
		t.Errorf("records[2].Data = %v, want empty", records[2].Data)
	}
}

func TestDecodeRecords_Workers(t *testing.T) {
	var texts [][]byte
	for i := range 40 {
		texts = append(texts, []byte(fmt.Sprintf("<p>record %d %s</p>", i, bytes.Repeat([]byte("abc "), i))))
	}
	build := func() []Record {
		records := []Record{{Raw: []byte("header")}}
		for _, txt := range texts {
			records = append(records, Record{Raw: compressPalmDOC(txt)})
		}
		return records
	}
	d := recordDecoder{method: CompressionPalmDOC}

	for _, workers := range []int{0, 1, 3, 100} {
		records := build()
		decodeRecords(records, 1, len(records), d, workers)
		for i, txt := range texts {
			r := records[i+1]
			if r.Err != nil || !bytes.Equal(r.Data, txt) {
				t.Fatalf("workers=%d: record %d = %q, %v; want %q", workers, i+1, r.Data, r.Err, txt)
			}
		}
	}
}

func TestRecordDecoder(t *testing.T) {
	tests := []struct {
		name string
		d    recordDecoder
		raw  []byte
		want []byte
	}{
		{"uncompressed", recordDecoder{method: CompressionNone}, []byte("text"), []byte("text")},
		{"trailing stripped", recordDecoder{method: CompressionNone, extraFlags: 0x0002}, []byte("text\x00\x82"), []byte("text")},
		{"encrypted passthrough", recordDecoder{method: CompressionPalmDOC, encrypted: true, extraFlags: 0x0002}, []byte{0x80, 0x00, 0x82}, []byte{0x80, 0x00, 0x82}},
		{"compressed", recordDecoder{method: CompressionPalmDOC}, compressPalmDOC([]byte("hello hello hello")), []byte("hello hello hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.decode(tt.raw)
			if err != nil {
				t.Fatalf("decode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRecordDecoder_ExtraFlagsRequireMOBI(t *testing.T) {
	h := Headers{
		PalmDoc: PalmDocHeader{Compression: CompressionPalmDOC},
		MOBI:    MOBIHeader{ExtraDataFlags: 0x0003},
	}
	if d := newRecordDecoder(&h, true); d.extraFlags != 0 {
		t.Errorf("extraFlags = %#x without a MOBI header", d.extraFlags)
	}
	h.MOBI.Present = true
	if d := newRecordDecoder(&h, true); d.extraFlags != 0x0003 {
		t.Errorf("extraFlags = %#x, want 0x3", d.extraFlags)
	}
	if d := newRecordDecoder(&h, false); d.extraFlags != 0 {
		t.Errorf("extraFlags = %#x with stripping disabled", d.extraFlags)
	}
}
