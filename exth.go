package mobi

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// EXTHType is the type code of an EXTH record.
type EXTHType uint32

// Known EXTH record types.
const (
	EXTHDRMServerID         EXTHType = 1
	EXTHDRMCommerceID       EXTHType = 2
	EXTHDRMEbookbaseBookID  EXTHType = 3
	EXTHAuthor              EXTHType = 100
	EXTHPublisher           EXTHType = 101
	EXTHImprint             EXTHType = 102
	EXTHDescription         EXTHType = 103
	EXTHISBN                EXTHType = 104
	EXTHSubject             EXTHType = 105
	EXTHPublishDate         EXTHType = 106
	EXTHReview              EXTHType = 107
	EXTHContributor         EXTHType = 108
	EXTHRights              EXTHType = 109
	EXTHSubjectCode         EXTHType = 110
	EXTHDocType             EXTHType = 111
	EXTHSource              EXTHType = 112
	EXTHASIN                EXTHType = 113
	EXTHVersionNumber       EXTHType = 114
	EXTHSample              EXTHType = 115
	EXTHStartReading        EXTHType = 116
	EXTHAdult               EXTHType = 117
	EXTHRetailPrice         EXTHType = 118
	EXTHRetailPriceCurrency EXTHType = 119
	EXTHKF8Boundary         EXTHType = 121
	EXTHFixedLayout         EXTHType = 122
	EXTHBookType            EXTHType = 123
	EXTHOrientationLock     EXTHType = 124
	EXTHResourceCount       EXTHType = 125
	EXTHOriginalResolution  EXTHType = 126
	EXTHDictShortName       EXTHType = 200
	EXTHCoverOffset         EXTHType = 201
	EXTHThumbOffset         EXTHType = 202
	EXTHHasFakeCover        EXTHType = 203
	EXTHCreatorSoftware     EXTHType = 204
	EXTHCreatorMajor        EXTHType = 205
	EXTHCreatorMinor        EXTHType = 206
	EXTHCreatorBuild        EXTHType = 207
	EXTHWatermark           EXTHType = 208
	EXTHTamperProofKeys     EXTHType = 209
	EXTHFontSignature       EXTHType = 300
	EXTHClippingLimit       EXTHType = 401
	EXTHPublisherLimit      EXTHType = 402
	EXTHTTSFlag             EXTHType = 404
	EXTHCDEType             EXTHType = 501
	EXTHLastUpdateTime      EXTHType = 502
	EXTHTitle               EXTHType = 503
	EXTHLanguage            EXTHType = 524
)

var exthTypeNames = map[EXTHType]string{
	EXTHDRMServerID:         "DRM server id",
	EXTHDRMCommerceID:       "DRM commerce id",
	EXTHDRMEbookbaseBookID:  "DRM ebookbase book id",
	EXTHAuthor:              "author",
	EXTHPublisher:           "publisher",
	EXTHImprint:             "imprint",
	EXTHDescription:         "description",
	EXTHISBN:                "isbn",
	EXTHSubject:             "subject",
	EXTHPublishDate:         "publishing date",
	EXTHReview:              "review",
	EXTHContributor:         "contributor",
	EXTHRights:              "rights",
	EXTHSubjectCode:         "subject code",
	EXTHDocType:             "type",
	EXTHSource:              "source",
	EXTHASIN:                "asin",
	EXTHVersionNumber:       "version number",
	EXTHSample:              "sample",
	EXTHStartReading:        "start reading",
	EXTHAdult:               "adult",
	EXTHRetailPrice:         "retail price",
	EXTHRetailPriceCurrency: "retail price currency",
	EXTHKF8Boundary:         "KF8 boundary offset",
	EXTHFixedLayout:         "fixed layout",
	EXTHBookType:            "book type",
	EXTHOrientationLock:     "orientation lock",
	EXTHResourceCount:       "resource count",
	EXTHOriginalResolution:  "original resolution",
	EXTHDictShortName:       "dictionary short name",
	EXTHCoverOffset:         "cover offset",
	EXTHThumbOffset:         "thumbnail offset",
	EXTHHasFakeCover:        "has fake cover",
	EXTHCreatorSoftware:     "creator software",
	EXTHCreatorMajor:        "creator major version",
	EXTHCreatorMinor:        "creator minor version",
	EXTHCreatorBuild:        "creator build",
	EXTHWatermark:           "watermark",
	EXTHTamperProofKeys:     "tamper proof keys",
	EXTHFontSignature:       "font signature",
	EXTHClippingLimit:       "clipping limit",
	EXTHPublisherLimit:      "publisher limit",
	EXTHTTSFlag:             "text to speech disabled",
	EXTHCDEType:             "CDE type",
	EXTHLastUpdateTime:      "last update time",
	EXTHTitle:               "updated title",
	EXTHLanguage:            "language",
}

// String returns the record type name, or its numeric code if unknown.
func (t EXTHType) String() string {
	if name, ok := exthTypeNames[t]; ok {
		return name
	}
	return "unknown (" + strconv.FormatUint(uint64(t), 10) + ")"
}

// Known reports whether t is part of the closed set of named record types.
func (t EXTHType) Known() bool {
	_, ok := exthTypeNames[t]
	return ok
}

const (
	exthMagic          = 0x45585448 // "EXTH"
	exthPrologueSize   = 12
	exthRecordHeadSize = 8
)

// parseEXTH decodes the EXTH block at off. It never fails the whole decode:
// on a malformed block it returns the records decoded so far together with
// an error describing why parsing stopped.
func parseEXTH(c *byteCursor, off int, enc TextEncoding) (EXTHHeader, error) {
	h := EXTHHeader{encoding: enc}
	if err := c.seek(off); err != nil {
		return h, fmt.Errorf("EXTH block at %d: %w", off, err)
	}
	if c.remaining() < exthPrologueSize {
		return h, fmt.Errorf("EXTH prologue at %d: %w", off, ErrTruncatedHeader)
	}
	h.Identifier, _ = c.u32()
	h.HeaderLength, _ = c.u32()
	h.RecordCount, _ = c.u32()
	if h.Identifier != exthMagic {
		return h, fmt.Errorf("EXTH identifier %s at %d: %w", fourCC(h.Identifier), off, ErrMalformedMetadataRecord)
	}

	for i := uint32(0); i < h.RecordCount; i++ {
		if c.remaining() < exthRecordHeadSize {
			return h, fmt.Errorf("EXTH record %d header: %w", i, ErrMalformedMetadataRecord)
		}
		typ, _ := c.u32()
		length, _ := c.u32()
		if length < exthRecordHeadSize {
			return h, fmt.Errorf("EXTH record %d declares length %d: %w", i, length, ErrMalformedMetadataRecord)
		}
		n := uint64(length - exthRecordHeadSize)
		if n > uint64(c.remaining()) {
			return h, fmt.Errorf("EXTH record %d of %d bytes overruns buffer: %w", i, length, ErrMalformedMetadataRecord)
		}
		data, _ := c.bytes(int(n))
		h.Records = append(h.Records, EXTHRecord{Type: EXTHType(typ), Data: data})
	}
	return h, nil
}

// Get returns the decoded text of the first record of type t.
func (h EXTHHeader) Get(t EXTHType) (string, bool) {
	for _, r := range h.Records {
		if r.Type == t {
			return decodeTextFallback(r.Data, h.encoding), true
		}
	}
	return "", false
}

// All returns the decoded text of every record of type t in file order.
func (h EXTHHeader) All(t EXTHType) []string {
	var out []string
	for _, r := range h.Records {
		if r.Type == t {
			out = append(out, decodeTextFallback(r.Data, h.encoding))
		}
	}
	return out
}

// Uint32 returns the first record of type t interpreted as a big-endian
// integer. Records of 1, 2 or 4 bytes are accepted.
func (h EXTHHeader) Uint32(t EXTHType) (uint32, bool) {
	for _, r := range h.Records {
		if r.Type != t {
			continue
		}
		switch len(r.Data) {
		case 1:
			return uint32(r.Data[0]), true
		case 2:
			return uint32(binary.BigEndian.Uint16(r.Data)), true
		case 4:
			return binary.BigEndian.Uint32(r.Data), true
		}
		return 0, false
	}
	return 0, false
}

// Map returns the decoded text of every known record type. Unknown types are
// omitted; they remain available through Records.
func (h EXTHHeader) Map() map[EXTHType][]string {
	m := make(map[EXTHType][]string)
	for _, r := range h.Records {
		if !r.Type.Known() {
			continue
		}
		m[r.Type] = append(m[r.Type], decodeTextFallback(r.Data, h.encoding))
	}
	return m
}
