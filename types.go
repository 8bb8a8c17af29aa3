package mobi

// PDBHeader is the Palm database header that starts every MOBI file,
// together with its record directory.
type PDBHeader struct {
	// Name is the database name with trailing NUL padding removed.
	Name string

	Attributes int16
	Version    int16

	// Raw Palm timestamps. Conversion to wall-clock time is left to callers.
	Created  uint32
	Modified uint32
	Backup   uint32
	ModNum   uint32

	AppInfoID  uint32
	SortInfoID uint32

	// Type and Creator are the four-character codes, e.g. "BOOK" and "MOBI"
	// for Mobipocket files or "TEXt" and "REAd" for plain PalmDOC.
	Type    string
	Creator string

	UniqueIDSeed     uint32
	NextRecordListID uint32

	// NumRecords is the number of entries in the record directory.
	NumRecords uint16

	// Records is the record directory in file order.
	Records []RecordEntry
}

// RecordEntry is one entry of the record directory.
type RecordEntry struct {
	// Offset is the absolute byte offset of the record data.
	Offset uint32

	// UniqueID holds the attribute byte (high 8 bits) and the 24-bit record id.
	UniqueID uint32
}

// Attributes returns the record attribute byte.
func (e RecordEntry) Attributes() uint8 {
	return uint8(e.UniqueID >> 24)
}

// ID returns the 24-bit unique record id.
func (e RecordEntry) ID() uint32 {
	return e.UniqueID & 0x00FFFFFF
}

// PalmDocHeader is the 16-byte header at the start of record 0 describing
// compression and text geometry.
type PalmDocHeader struct {
	Compression Compression

	// TextLength is the total length of the uncompressed text.
	TextLength uint32

	// RecordCount is the number of text records.
	RecordCount uint16

	// RecordSize is the maximum uncompressed size of a text record (usually 4096).
	RecordSize uint16

	Encryption EncryptionType
}

// MOBIHeader is the Mobipocket header that follows the PalmDOC header in
// record 0. Fields not covered by the declared header length are zero.
type MOBIHeader struct {
	// Present is false for plain PalmDOC files without a MOBI header; all
	// other fields are then zero.
	Present bool

	Identifier   uint32
	HeaderLength uint32
	Type         uint32
	TextEncoding TextEncoding
	UniqueID     uint32

	GeneratorVersion  uint32
	FirstNonBookIndex uint32

	// FullName is the embedded book title decoded with TextEncoding.
	FullName       string
	FullNameOffset uint32
	FullNameLength uint32

	Locale         uint32
	InputLanguage  uint32
	OutputLanguage uint32
	FormatVersion  uint32

	FirstImageIndex uint32
	FirstHuffRecord uint32
	HuffRecordCount uint32
	FirstDataRecord uint32
	DataRecordCount uint32

	EXTHFlags uint32

	// HasEXTH reports whether bit 0x40 of EXTHFlags is set.
	HasEXTH bool

	DRMOffset uint32
	DRMCount  uint32
	DRMSize   uint32
	DRMFlags  uint32

	LastImageRecord uint16
	FCISRecord      uint32
	FLISRecord      uint32

	// ExtraDataFlags describes the trailing entries appended to each text record.
	ExtraDataFlags uint16
}

// EXTHHeader is the optional extended metadata block.
type EXTHHeader struct {
	Identifier   uint32
	HeaderLength uint32

	// RecordCount is the self-reported number of records; len(Records) may be
	// smaller when the block was truncated.
	RecordCount uint32

	// Records holds every decoded record in file order, including unknown types.
	Records []EXTHRecord

	encoding TextEncoding
}

// EXTHRecord is a single tagged EXTH entry.
type EXTHRecord struct {
	Type EXTHType
	Data []byte
}

// Headers groups every header decoded from record 0 and the database header.
type Headers struct {
	PDB     PDBHeader
	PalmDoc PalmDocHeader
	MOBI    MOBIHeader
	EXTH    EXTHHeader
}

// Record is one directory-described chunk of the file.
type Record struct {
	// Index is the position in the record directory.
	Index int

	// Offset and End delimit the record in the file: [Offset, End).
	Offset int
	End    int

	// Raw is a view into the file buffer. It must not be modified.
	Raw []byte

	// Data is the decoded payload of a content record. It is nil for
	// records outside the content range and empty when Err is set.
	Data []byte

	// Content reports whether the record lies in the readable text range.
	Content bool

	// Err is the decode failure local to this record, if any.
	Err error
}

// Metadata holds the bibliographic metadata extracted from the EXTH block.
type Metadata struct {
	// Title is the EXTH updated title, falling back to the MOBI full name and
	// then to the database name.
	Title string

	// Authors contains all EXTH author (100) values.
	Authors []string

	Publisher   string
	Imprint     string
	Description string
	ISBN        string
	ASIN        string

	// PublishDate is the raw EXTH publishing date string.
	PublishDate string

	// Contributors contains all EXTH contributor (108) values.
	Contributors []string

	// Subjects contains all EXTH subject (105) values.
	Subjects []string

	Rights string
	Source string

	// Language is the EXTH language (524) value, or the tag derived from the
	// MOBI locale when absent.
	Language string
}

// Image is an image resource record.
type Image struct {
	// Index is the position in the record directory.
	Index int

	// MediaType is the sniffed MIME type (e.g., "image/jpeg").
	MediaType string

	// Data is a view of the image bytes inside the file buffer.
	Data []byte
}
