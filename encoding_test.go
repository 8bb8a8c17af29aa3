package mobi

import "testing"

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		enc     TextEncoding
		want    string
		wantErr bool
	}{
		{"utf-8", []byte("caf\xc3\xa9"), EncodingUTF8, "café", false},
		{"invalid utf-8", []byte("caf\xe9"), EncodingUTF8, "", true},
		{"cp1252", []byte("caf\xe9 \x93quoted\x94 \x80"), EncodingCP1252, "café “quoted” €", false},
		{"unknown falls back to cp1252", []byte("\xe9"), 932, "é", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.in, tt.enc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeTextLossy(t *testing.T) {
	if got := decodeTextLossy([]byte("ok\xffok"), EncodingUTF8); got != "ok�ok" {
		t.Errorf("decodeTextLossy() = %q", got)
	}
	if got := decodeTextLossy([]byte("\x80"), EncodingCP1252); got != "€" {
		t.Errorf("decodeTextLossy(cp1252) = %q", got)
	}
}

func TestTextEncoding(t *testing.T) {
	if EncodingUTF8.String() != "UTF-8" || EncodingCP1252.String() != "CP1252" {
		t.Errorf("String() = %q, %q", EncodingUTF8.String(), EncodingCP1252.String())
	}
	if got := TextEncoding(932).String(); got != "unknown (932)" {
		t.Errorf("TextEncoding(932).String() = %q", got)
	}
	if TextEncoding(932).Known() || TextEncoding(932).resolve() != EncodingCP1252 {
		t.Error("unknown encoding not resolved to CP1252")
	}
}
