package mobi

import "strconv"

const (
	// mobiHeaderOrigin is where the MOBI header starts when the directory is
	// empty: right after the PalmDOC header in record 0.
	mobiHeaderOrigin = record0Origin + palmDocHeaderSize

	mobiMagic       = 0x4D4F4249 // "MOBI"
	exthFlagPresent = 0x40
)

// mobiFields lists the MOBI header fields relative to the start of the MOBI
// header. Identifier and header length are read separately.
var mobiFields = []field[MOBIHeader]{
	{"type", 8, 4, func(h *MOBIHeader, v uint32) { h.Type = v }},
	{"text encoding", 12, 4, func(h *MOBIHeader, v uint32) { h.TextEncoding = TextEncoding(v) }},
	{"unique id", 16, 4, func(h *MOBIHeader, v uint32) { h.UniqueID = v }},
	{"generator version", 20, 4, func(h *MOBIHeader, v uint32) { h.GeneratorVersion = v }},
	{"first non-book index", 64, 4, func(h *MOBIHeader, v uint32) { h.FirstNonBookIndex = v }},
	{"full name offset", 68, 4, func(h *MOBIHeader, v uint32) { h.FullNameOffset = v }},
	{"full name length", 72, 4, func(h *MOBIHeader, v uint32) { h.FullNameLength = v }},
	{"locale", 76, 4, func(h *MOBIHeader, v uint32) { h.Locale = v }},
	{"input language", 80, 4, func(h *MOBIHeader, v uint32) { h.InputLanguage = v }},
	{"output language", 84, 4, func(h *MOBIHeader, v uint32) { h.OutputLanguage = v }},
	{"format version", 88, 4, func(h *MOBIHeader, v uint32) { h.FormatVersion = v }},
	{"first image index", 92, 4, func(h *MOBIHeader, v uint32) { h.FirstImageIndex = v }},
	{"first huffman record", 96, 4, func(h *MOBIHeader, v uint32) { h.FirstHuffRecord = v }},
	{"huffman record count", 100, 4, func(h *MOBIHeader, v uint32) { h.HuffRecordCount = v }},
	{"first data record", 104, 4, func(h *MOBIHeader, v uint32) { h.FirstDataRecord = v }},
	{"data record count", 108, 4, func(h *MOBIHeader, v uint32) { h.DataRecordCount = v }},
	{"EXTH flags", 112, 4, func(h *MOBIHeader, v uint32) { h.EXTHFlags = v }},
	{"DRM offset", 152, 4, func(h *MOBIHeader, v uint32) { h.DRMOffset = v }},
	{"DRM count", 156, 4, func(h *MOBIHeader, v uint32) { h.DRMCount = v }},
	{"DRM size", 160, 4, func(h *MOBIHeader, v uint32) { h.DRMSize = v }},
	{"DRM flags", 164, 4, func(h *MOBIHeader, v uint32) { h.DRMFlags = v }},
	{"last image record", 178, 2, func(h *MOBIHeader, v uint32) { h.LastImageRecord = uint16(v) }},
	{"FCIS record", 184, 4, func(h *MOBIHeader, v uint32) { h.FCISRecord = v }},
	{"FLIS record", 192, 4, func(h *MOBIHeader, v uint32) { h.FLISRecord = v }},
	{"extra data flags", 226, 2, func(h *MOBIHeader, v uint32) { h.ExtraDataFlags = uint16(v) }},
}

// parseMOBIHeader decodes the MOBI header following the PalmDOC header.
// A file without the "MOBI" magic is plain PalmDOC; the returned header then
// has Present == false. The same holds when record 0 ends before the
// identifier. rec0End is the end offset of record 0; the full name must lie
// inside it.
func parseMOBIHeader(c *byteCursor, span, rec0End int) (MOBIHeader, error) {
	base := mobiHeaderOrigin + span
	if c.check(base, 8) != nil {
		return MOBIHeader{}, nil
	}
	ident, _ := c.u32At(base)
	length, _ := c.u32At(base + 4)
	if ident != mobiMagic {
		return MOBIHeader{Identifier: ident}, nil
	}

	h := MOBIHeader{
		Present:      true,
		Identifier:   ident,
		HeaderLength: length,
	}
	if err := decodeFieldsWithin(c, base, int(length), &h, mobiFields); err != nil {
		return MOBIHeader{}, err
	}
	h.HasEXTH = h.EXTHFlags&exthFlagPresent != 0

	// A full name outside record 0 leaves FullName empty.
	if h.FullNameLength > 0 {
		off := uint64(record0Origin+span) + uint64(h.FullNameOffset)
		if end := off + uint64(h.FullNameLength); end <= uint64(rec0End) {
			if name, err := c.bytesAt(int(off), int(h.FullNameLength)); err == nil {
				h.FullName = decodeTextFallback(name, h.TextEncoding)
			}
		}
	}
	return h, nil
}

// exthOffset returns the absolute offset of the EXTH block.
func (h MOBIHeader) exthOffset(span int) int {
	return mobiHeaderOrigin + span + int(h.HeaderLength)
}

var mobiTypeNames = map[uint32]string{
	2:   "Mobipocket Book",
	3:   "PalmDoc Book",
	4:   "Audio",
	232: "mobipocket? generated by kindlegen1.2",
	248: "KF8: generated by kindlegen2",
	257: "News",
	258: "News_Feed",
	259: "News_Magazine",
	513: "PICS",
	514: "WORD",
	515: "XLS",
	516: "PPT",
	517: "TEXT",
	518: "HTML",
}

// TypeName returns the name of the MOBI document type, or "" if unknown.
func (h MOBIHeader) TypeName() string {
	return mobiTypeNames[h.Type]
}

// Magic returns the header identifier as four characters.
func (h MOBIHeader) Magic() string {
	return fourCC(h.Identifier)
}

// localeLanguages maps the primary language id (low byte of the locale) to
// an ISO 639-1 code.
var localeLanguages = map[uint32]string{
	1: "ar", 2: "bg", 3: "ca", 4: "zh", 5: "cs", 6: "da", 7: "de", 8: "el",
	9: "en", 10: "es", 11: "fi", 12: "fr", 13: "he", 14: "hu", 15: "is",
	16: "it", 17: "ja", 18: "ko", 19: "nl", 20: "no", 21: "pl", 22: "pt",
	23: "rm", 24: "ro", 25: "ru", 26: "hr", 27: "sk", 28: "sq", 29: "sv",
	30: "th", 31: "tr", 32: "ur", 33: "id", 34: "uk", 35: "be", 36: "sl",
	37: "et", 38: "lv", 39: "lt", 41: "fa", 42: "vi", 43: "hy", 44: "az",
	45: "eu", 47: "mk", 54: "af", 55: "ka", 56: "fo", 57: "hi", 58: "mt",
	62: "ms", 63: "kk", 65: "sw", 67: "uz", 68: "tt", 69: "bn", 70: "pa",
	71: "gu", 72: "or", 73: "ta", 74: "te", 75: "kn", 76: "ml", 77: "as",
	78: "mr", 79: "sa", 97: "ne",
}

// LanguageTag returns the ISO 639-1 code for the locale, or "" if the
// locale is unset or unknown.
func (h MOBIHeader) LanguageTag() string {
	return localeLanguages[h.Locale&0xFF]
}

func fourCC(v uint32) string {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return "0x" + strconv.FormatUint(uint64(v), 16)
		}
	}
	return string(b)
}
