package mobi

import (
	"bytes"
	"fmt"
)

// noIndex is the MOBI sentinel for an absent record index.
const noIndex = 0xFFFFFFFF

// imageSignatures maps leading magic bytes to media types.
var imageSignatures = []struct {
	magic     []byte
	mediaType string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("BM"), "image/bmp"},
}

// sniffImage returns the media type of data, or "" if it is not a
// recognised image.
func sniffImage(data []byte) string {
	for _, s := range imageSignatures {
		if bytes.HasPrefix(data, s.magic) {
			return s.mediaType
		}
	}
	return ""
}

// imageRange returns the half-open directory range that may hold images.
func (b *Book) imageRange() (start, end int) {
	m := &b.headers.MOBI
	n := len(b.records)
	if !m.Present || m.FirstImageIndex == noIndex || uint64(m.FirstImageIndex) >= uint64(n) {
		return n, n
	}
	start = int(m.FirstImageIndex)
	end = n
	if last := int(m.LastImageRecord); last >= start && last < n {
		end = last + 1
	}
	return start, end
}

// Images returns every image record in directory order. Non-image resources
// in the image range (fonts, FLIS/FCIS, end-of-file markers) are skipped.
func (b *Book) Images() []Image {
	start, end := b.imageRange()
	var out []Image
	for i := start; i < end; i++ {
		if img, ok := b.image(i); ok {
			out = append(out, img)
		}
	}
	return out
}

func (b *Book) image(i int) (Image, bool) {
	if i < 0 || i >= len(b.records) {
		return Image{}, false
	}
	raw := b.records[i].Raw
	mt := sniffImage(raw)
	if mt == "" {
		return Image{}, false
	}
	return Image{Index: i, MediaType: mt, Data: raw}, true
}

// imageByRecIndex resolves a 1-based recindex reference from the markup.
func (b *Book) imageByRecIndex(ri int) (Image, bool) {
	start, _ := b.imageRange()
	if start >= len(b.records) {
		return Image{}, false
	}
	return b.image(start + ri - 1)
}

// Cover returns the cover image. Strategies are tried in priority order:
//  1. EXTH cover offset (201), relative to the first image record
//  2. EXTH thumbnail offset (202)
//  3. first <img recindex> in the text
//
// Returns ErrNoCover if no strategy succeeds.
func (b *Book) Cover() (Image, error) {
	start, _ := b.imageRange()
	if start < len(b.records) {
		for _, t := range []EXTHType{EXTHCoverOffset, EXTHThumbOffset} {
			off, ok := b.headers.EXTH.Uint32(t)
			if !ok || off == noIndex {
				continue
			}
			if img, ok := b.image(start + int(off)); ok {
				return img, nil
			}
		}
	}

	if !b.encrypted {
		if ri := findFirstRecIndex(b.Content()); ri > 0 {
			if img, ok := b.imageByRecIndex(ri); ok {
				return img, nil
			}
		}
	}
	return Image{}, fmt.Errorf("mobi: %q: %w", b.metadata.Title, ErrNoCover)
}
