package mobi

import (
	"bytes"
	"fmt"
)

// Palm database layout.
const (
	pdbHeaderSize      = 78 // fixed header, directory follows immediately
	pdbEntrySize       = 8  // directory entry: offset + unique id
	pdbNameSize        = 32
	pdbTypeOffset      = 60
	pdbCreatorOffset   = 64
	pdbFourCCSize      = 4
	pdbNumRecordsField = 76

	// record0Origin is where record 0 starts when the directory is empty:
	// the fixed header plus two bytes of gap padding.
	record0Origin = pdbHeaderSize + 2
)

var pdbFields = []field[PDBHeader]{
	{"attributes", 32, 2, func(h *PDBHeader, v uint32) { h.Attributes = int16(uint16(v)) }},
	{"version", 34, 2, func(h *PDBHeader, v uint32) { h.Version = int16(uint16(v)) }},
	{"created", 36, 4, func(h *PDBHeader, v uint32) { h.Created = v }},
	{"modified", 40, 4, func(h *PDBHeader, v uint32) { h.Modified = v }},
	{"backup", 44, 4, func(h *PDBHeader, v uint32) { h.Backup = v }},
	{"modnum", 48, 4, func(h *PDBHeader, v uint32) { h.ModNum = v }},
	{"app info id", 52, 4, func(h *PDBHeader, v uint32) { h.AppInfoID = v }},
	{"sort info id", 56, 4, func(h *PDBHeader, v uint32) { h.SortInfoID = v }},
	{"unique id seed", 68, 4, func(h *PDBHeader, v uint32) { h.UniqueIDSeed = v }},
	{"next record list id", 72, 4, func(h *PDBHeader, v uint32) { h.NextRecordListID = v }},
	{"record count", pdbNumRecordsField, 2, func(h *PDBHeader, v uint32) { h.NumRecords = uint16(v) }},
}

// directorySpan is the number of bytes occupied by the record directory. It
// shifts the base offset of every header stored in record 0.
func directorySpan(numRecords uint16) int {
	return int(numRecords) * pdbEntrySize
}

// record0End returns the end offset of record 0 in a file of size bytes.
func (h *PDBHeader) record0End(size int) int {
	if len(h.Records) > 1 {
		return int(h.Records[1].Offset)
	}
	return size
}

// parsePDBHeader decodes the database header and the record directory.
func parsePDBHeader(c *byteCursor) (PDBHeader, error) {
	var h PDBHeader
	if len(c.buf) < pdbHeaderSize {
		return PDBHeader{}, fmt.Errorf("database header needs %d bytes, have %d: %w",
			pdbHeaderSize, len(c.buf), ErrTruncatedHeader)
	}
	if err := decodeFields(c, 0, &h, pdbFields); err != nil {
		return PDBHeader{}, err
	}

	name, err := c.bytesAt(0, pdbNameSize)
	if err != nil {
		return PDBHeader{}, err
	}
	h.Name = string(bytes.TrimRight(name, "\x00"))
	typ, err := c.bytesAt(pdbTypeOffset, pdbFourCCSize)
	if err != nil {
		return PDBHeader{}, err
	}
	h.Type = string(typ)
	creator, err := c.bytesAt(pdbCreatorOffset, pdbFourCCSize)
	if err != nil {
		return PDBHeader{}, err
	}
	h.Creator = string(creator)

	if need := pdbHeaderSize + directorySpan(h.NumRecords); len(c.buf) < need {
		return PDBHeader{}, fmt.Errorf("record directory of %d entries needs %d bytes, have %d: %w",
			h.NumRecords, need, len(c.buf), ErrTruncatedHeader)
	}

	records, err := parseDirectory(c, int(h.NumRecords))
	if err != nil {
		return PDBHeader{}, err
	}
	h.Records = records
	return h, nil
}

// parseDirectory reads n directory entries sequentially from offset 78 and
// checks that the offsets are strictly increasing and inside the file.
func parseDirectory(c *byteCursor, n int) ([]RecordEntry, error) {
	if err := c.seek(pdbHeaderSize); err != nil {
		return nil, err
	}
	records := make([]RecordEntry, 0, n)
	for i := 0; i < n; i++ {
		off, err := c.u32()
		if err != nil {
			return nil, err
		}
		id, err := c.u32()
		if err != nil {
			return nil, err
		}
		if uint64(off) > uint64(len(c.buf)) {
			return nil, fmt.Errorf("record %d offset %d beyond file size %d: %w", i, off, len(c.buf), ErrCorruptDirectory)
		}
		if i > 0 && off <= records[i-1].Offset {
			return nil, fmt.Errorf("record %d offset %d not after record %d offset %d: %w",
				i, off, i-1, records[i-1].Offset, ErrCorruptDirectory)
		}
		records = append(records, RecordEntry{Offset: off, UniqueID: id})
	}
	return records, nil
}
