package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/simp-lee/mobi"
)

type reportOptions struct {
	records bool
	exth    bool
	content bool
	text    bool
}

type report struct {
	File      string         `json:"file" yaml:"file"`
	Database  databaseReport `json:"database" yaml:"database"`
	PalmDoc   palmDocReport  `json:"palmdoc" yaml:"palmdoc"`
	MOBI      *mobiReport    `json:"mobi,omitempty" yaml:"mobi,omitempty"`
	Metadata  metadataReport `json:"metadata" yaml:"metadata"`
	Encrypted bool           `json:"encrypted" yaml:"encrypted"`
	Content   contentReport  `json:"content" yaml:"content"`
	Images    []imageReport  `json:"images,omitempty" yaml:"images,omitempty"`
	Cover     string         `json:"cover,omitempty" yaml:"cover,omitempty"`
	Warnings  []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Records   []recordReport `json:"records,omitempty" yaml:"records,omitempty"`
	EXTH      []exthReport   `json:"exth,omitempty" yaml:"exth,omitempty"`
	Markup    string         `json:"markup,omitempty" yaml:"markup,omitempty"`
	Text      string         `json:"text,omitempty" yaml:"text,omitempty"`
}

type databaseReport struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	Creator    string `json:"creator" yaml:"creator"`
	Created    uint32 `json:"created" yaml:"created"`
	Modified   uint32 `json:"modified" yaml:"modified"`
	NumRecords int    `json:"num_records" yaml:"num_records"`
}

type palmDocReport struct {
	Compression string `json:"compression" yaml:"compression"`
	TextLength  uint32 `json:"text_length" yaml:"text_length"`
	RecordCount uint16 `json:"record_count" yaml:"record_count"`
	RecordSize  uint16 `json:"record_size" yaml:"record_size"`
	Encryption  string `json:"encryption" yaml:"encryption"`
}

type mobiReport struct {
	Identifier        string `json:"identifier" yaml:"identifier"`
	HeaderLength      uint32 `json:"header_length" yaml:"header_length"`
	Type              string `json:"type" yaml:"type"`
	Encoding          string `json:"encoding" yaml:"encoding"`
	FormatVersion     uint32 `json:"format_version" yaml:"format_version"`
	FullName          string `json:"full_name" yaml:"full_name"`
	Locale            uint32 `json:"locale" yaml:"locale"`
	FirstNonBookIndex uint32 `json:"first_non_book_index" yaml:"first_non_book_index"`
	FirstImageIndex   uint32 `json:"first_image_index" yaml:"first_image_index"`
	HasEXTH           bool   `json:"has_exth" yaml:"has_exth"`
	ExtraDataFlags    uint16 `json:"extra_data_flags" yaml:"extra_data_flags"`
}

type metadataReport struct {
	Title        string   `json:"title" yaml:"title"`
	Authors      []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Publisher    string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Imprint      string   `json:"imprint,omitempty" yaml:"imprint,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	ISBN         string   `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	ASIN         string   `json:"asin,omitempty" yaml:"asin,omitempty"`
	PublishDate  string   `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`
	Contributors []string `json:"contributors,omitempty" yaml:"contributors,omitempty"`
	Subjects     []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Rights       string   `json:"rights,omitempty" yaml:"rights,omitempty"`
	Source       string   `json:"source,omitempty" yaml:"source,omitempty"`
	Language     string   `json:"language,omitempty" yaml:"language,omitempty"`
}

type contentReport struct {
	Start  int `json:"start" yaml:"start"`
	End    int `json:"end" yaml:"end"`
	Length int `json:"length" yaml:"length"`
}

type imageReport struct {
	Index     int    `json:"index" yaml:"index"`
	MediaType string `json:"media_type" yaml:"media_type"`
	Size      int    `json:"size" yaml:"size"`
}

type recordReport struct {
	Index      int    `json:"index" yaml:"index"`
	Offset     int    `json:"offset" yaml:"offset"`
	Length     int    `json:"length" yaml:"length"`
	ID         uint32 `json:"id" yaml:"id"`
	Attributes uint8  `json:"attributes" yaml:"attributes"`
	Content    bool   `json:"content" yaml:"content"`
	Decoded    int    `json:"decoded,omitempty" yaml:"decoded,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type exthReport struct {
	Type  uint32 `json:"type" yaml:"type"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func buildReport(book *mobi.Book, opts reportOptions) report {
	h := book.Headers()
	md := book.Metadata()
	start, end := book.ContentRange()

	rep := report{
		Database: databaseReport{
			Name:       h.PDB.Name,
			Type:       h.PDB.Type,
			Creator:    h.PDB.Creator,
			Created:    h.PDB.Created,
			Modified:   h.PDB.Modified,
			NumRecords: len(h.PDB.Records),
		},
		PalmDoc: palmDocReport{
			Compression: h.PalmDoc.Compression.String(),
			TextLength:  h.PalmDoc.TextLength,
			RecordCount: h.PalmDoc.RecordCount,
			RecordSize:  h.PalmDoc.RecordSize,
			Encryption:  h.PalmDoc.Encryption.String(),
		},
		Metadata: metadataReport{
			Title:        md.Title,
			Authors:      md.Authors,
			Publisher:    md.Publisher,
			Imprint:      md.Imprint,
			Description:  md.Description,
			ISBN:         md.ISBN,
			ASIN:         md.ASIN,
			PublishDate:  md.PublishDate,
			Contributors: md.Contributors,
			Subjects:     md.Subjects,
			Rights:       md.Rights,
			Source:       md.Source,
			Language:     md.Language,
		},
		Encrypted: book.Encrypted(),
		Content: contentReport{
			Start:  start,
			End:    end,
			Length: len(book.Content()),
		},
		Warnings: book.Warnings(),
	}

	if m := h.MOBI; m.Present {
		rep.MOBI = &mobiReport{
			Identifier:        m.Magic(),
			HeaderLength:      m.HeaderLength,
			Type:              book.MOBIType(),
			Encoding:          m.TextEncoding.String(),
			FormatVersion:     m.FormatVersion,
			FullName:          m.FullName,
			Locale:            m.Locale,
			FirstNonBookIndex: m.FirstNonBookIndex,
			FirstImageIndex:   m.FirstImageIndex,
			HasEXTH:           m.HasEXTH,
			ExtraDataFlags:    m.ExtraDataFlags,
		}
	}

	for _, img := range book.Images() {
		rep.Images = append(rep.Images, imageReport{Index: img.Index, MediaType: img.MediaType, Size: len(img.Data)})
	}

	if opts.records {
		for i, r := range book.Records() {
			rr := recordReport{
				Index:   r.Index,
				Offset:  r.Offset,
				Length:  r.End - r.Offset,
				Content: r.Content,
				Decoded: len(r.Data),
			}
			if i < len(h.PDB.Records) {
				rr.ID = h.PDB.Records[i].ID()
				rr.Attributes = h.PDB.Records[i].Attributes()
			}
			if r.Err != nil {
				rr.Error = r.Err.Error()
			}
			rep.Records = append(rep.Records, rr)
		}
	}

	if opts.exth {
		for _, r := range h.EXTH.Records {
			rep.EXTH = append(rep.EXTH, exthReport{Type: uint32(r.Type), Name: r.Type.String(), Value: exthValue(r.Data)})
		}
	}

	if opts.content {
		markup, err := book.BodyHTML()
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("markup: %v", err))
		}
		rep.Markup = markup
	}
	if opts.text {
		text, err := book.TextContent()
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("text: %v", err))
		}
		rep.Text = text
	}
	return rep
}

// exthValue renders printable UTF-8 as text and everything else as hex.
func exthValue(data []byte) string {
	if utf8.Valid(data) && len(data) > 0 {
		printable := true
		for _, r := range string(data) {
			if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
				printable = false
				break
			}
		}
		if printable {
			return string(data)
		}
	}
	return "0x" + hex.EncodeToString(data)
}

type encoder func(io.Writer, report) error

func encoderFor(format string) (encoder, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return writeText, nil
	case "json":
		return writeJSON, nil
	case "yaml", "yml":
		return writeYAML, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func writeJSON(w io.Writer, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeYAML(w io.Writer, rep report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeText(w io.Writer, rep report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", rep.File)
	fmt.Fprintf(&b, "Database: %q (%s/%s), %d records\n", rep.Database.Name, rep.Database.Type, rep.Database.Creator, rep.Database.NumRecords)
	fmt.Fprintf(&b, "PalmDOC: compression=%s encryption=%s text_length=%d records=%d record_size=%d\n",
		rep.PalmDoc.Compression, rep.PalmDoc.Encryption, rep.PalmDoc.TextLength, rep.PalmDoc.RecordCount, rep.PalmDoc.RecordSize)
	if m := rep.MOBI; m != nil {
		fmt.Fprintf(&b, "MOBI: %s v%d, type=%s, encoding=%s, header_length=%d, exth=%t\n",
			m.Identifier, m.FormatVersion, m.Type, m.Encoding, m.HeaderLength, m.HasEXTH)
		fmt.Fprintf(&b, "  full name: %q\n", m.FullName)
		fmt.Fprintf(&b, "  first non-book: %d, first image: %d, extra data flags: 0x%04x\n",
			m.FirstNonBookIndex, m.FirstImageIndex, m.ExtraDataFlags)
	} else {
		b.WriteString("MOBI: not present\n")
	}

	b.WriteString("\nMetadata\n")
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-13s %s\n", name+":", value)
		}
	}
	field("Title", rep.Metadata.Title)
	field("Authors", strings.Join(rep.Metadata.Authors, "; "))
	field("Publisher", rep.Metadata.Publisher)
	field("Imprint", rep.Metadata.Imprint)
	field("ISBN", rep.Metadata.ISBN)
	field("ASIN", rep.Metadata.ASIN)
	field("Published", rep.Metadata.PublishDate)
	field("Contributors", strings.Join(rep.Metadata.Contributors, "; "))
	field("Subjects", strings.Join(rep.Metadata.Subjects, "; "))
	field("Rights", rep.Metadata.Rights)
	field("Source", rep.Metadata.Source)
	field("Language", rep.Metadata.Language)
	field("Description", rep.Metadata.Description)

	fmt.Fprintf(&b, "\nContent: records [%d, %d), %d bytes, encrypted=%t\n",
		rep.Content.Start, rep.Content.End, rep.Content.Length, rep.Encrypted)
	if len(rep.Images) > 0 {
		fmt.Fprintf(&b, "Images: %d\n", len(rep.Images))
		for _, img := range rep.Images {
			fmt.Fprintf(&b, "  #%-5d %-10s %d bytes\n", img.Index, img.MediaType, img.Size)
		}
	}
	if rep.Cover != "" {
		fmt.Fprintf(&b, "Cover written to %s\n", rep.Cover)
	}

	if len(rep.Records) > 0 {
		b.WriteString("\nRecords\n")
		for _, r := range rep.Records {
			fmt.Fprintf(&b, "  #%-5d offset=%-8d length=%-6d id=%-6d attr=0x%02x", r.Index, r.Offset, r.Length, r.ID, r.Attributes)
			if r.Content {
				fmt.Fprintf(&b, " text decoded=%d", r.Decoded)
			}
			if r.Error != "" {
				fmt.Fprintf(&b, " error=%q", r.Error)
			}
			b.WriteByte('\n')
		}
	}

	if len(rep.EXTH) > 0 {
		b.WriteString("\nEXTH\n")
		for _, e := range rep.EXTH {
			fmt.Fprintf(&b, "  %4d %-24s %s\n", e.Type, e.Name, e.Value)
		}
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("\nWarnings\n")
		for _, msg := range rep.Warnings {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}

	if rep.Markup != "" {
		b.WriteString("\n--- markup ---\n")
		b.WriteString(rep.Markup)
		b.WriteByte('\n')
	}
	if rep.Text != "" {
		b.WriteString("\n--- text ---\n")
		b.WriteString(rep.Text)
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
