package mobi

import (
	"runtime"
	"sync"
)

// buildRecords splits buf into the records described by the directory.
// Record i spans [dir[i].Offset, dir[i+1].Offset); the last record ends at
// the end of the buffer.
func buildRecords(buf []byte, dir []RecordEntry) []Record {
	records := make([]Record, len(dir))
	for i, e := range dir {
		start := int(e.Offset)
		end := len(buf)
		if i+1 < len(dir) {
			end = int(dir[i+1].Offset)
		}
		records[i] = Record{
			Index:  i,
			Offset: start,
			End:    end,
			Raw:    buf[start:end:end],
		}
	}
	return records
}

// contentRange returns the half-open directory range [start, end) of text
// records. Record 0 always holds the headers. The MOBI first non-book index
// marks the end of the text when it is plausible; otherwise the PalmDOC
// record count minus one is used.
func contentRange(h *Headers, n int) (start, end int) {
	start = min(1, n)
	if fnb := h.MOBI.FirstNonBookIndex; h.MOBI.Present && fnb > 1 && uint64(fnb) <= uint64(n) {
		end = int(fnb)
	} else {
		end = int(h.PalmDoc.RecordCount) - 1
	}
	return start, max(min(end, n), start)
}

// recordDecoder turns the raw bytes of one text record into plain bytes.
type recordDecoder struct {
	method     Compression
	extraFlags uint16
	encrypted  bool
}

func newRecordDecoder(h *Headers, stripTrailers bool) recordDecoder {
	d := recordDecoder{
		method:    h.PalmDoc.Compression,
		encrypted: isEncrypted(h),
	}
	if stripTrailers && h.MOBI.Present {
		d.extraFlags = h.MOBI.ExtraDataFlags
	}
	return d
}

func (d recordDecoder) decode(raw []byte) ([]byte, error) {
	if d.encrypted {
		return raw, nil
	}
	payload, err := stripTrailing(raw, d.extraFlags)
	if err != nil {
		return nil, err
	}
	return decompress(payload, d.method)
}

// decodeRecords decodes records[start:end] in place. Failures are stored on
// the record and do not affect other records. With more than one worker the
// records are decoded concurrently; each worker writes only its own records.
func decodeRecords(records []Record, start, end int, d recordDecoder, workers int) {
	apply := func(i int) {
		r := &records[i]
		r.Content = true
		data, err := d.decode(r.Raw)
		if err != nil {
			r.Data = []byte{}
			r.Err = &RecordError{Index: i, Err: err}
			return
		}
		r.Data = data
	}

	n := end - start
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := start; i < end; i++ {
			apply(i)
		}
		return
	}

	indices := make(chan int, n)
	for i := start; i < end; i++ {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				apply(i)
			}
		}()
	}
	wg.Wait()
}
