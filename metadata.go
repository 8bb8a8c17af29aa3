package mobi

import (
	"strings"

	"golang.org/x/text/language"
)

// extractMetadata converts the decoded headers into the public Metadata struct.
func extractMetadata(h *Headers) Metadata {
	ex := &h.EXTH
	md := Metadata{
		Title:        extractTitle(h),
		Authors:      nonEmpty(ex.All(EXTHAuthor)),
		Publisher:    firstNonEmpty(ex.All(EXTHPublisher)),
		Imprint:      firstNonEmpty(ex.All(EXTHImprint)),
		Description:  firstNonEmpty(ex.All(EXTHDescription)),
		ISBN:         firstNonEmpty(ex.All(EXTHISBN)),
		ASIN:         firstNonEmpty(ex.All(EXTHASIN)),
		PublishDate:  firstNonEmpty(ex.All(EXTHPublishDate)),
		Contributors: nonEmpty(ex.All(EXTHContributor)),
		Subjects:     nonEmpty(ex.All(EXTHSubject)),
		Rights:       firstNonEmpty(ex.All(EXTHRights)),
		Source:       firstNonEmpty(ex.All(EXTHSource)),
	}

	// Language: EXTH 524 first, then the MOBI locale.
	if v := firstNonEmpty(ex.All(EXTHLanguage)); v != "" {
		md.Language = normalizeLanguage(v)
	} else {
		md.Language = h.MOBI.LanguageTag()
	}
	return md
}

// extractTitle prefers the EXTH updated title, then the MOBI full name, then
// the database name.
func extractTitle(h *Headers) string {
	if v := firstNonEmpty(h.EXTH.All(EXTHTitle)); v != "" {
		return v
	}
	if v := strings.TrimSpace(h.MOBI.FullName); v != "" {
		return v
	}
	return strings.TrimSpace(h.PDB.Name)
}

// normalizeLanguage canonicalises a language tag such as "en-us" to "en-US".
// Values that are not valid BCP 47 tags are returned trimmed but unchanged.
func normalizeLanguage(v string) string {
	tag, err := language.Parse(v)
	if err != nil {
		return v
	}
	return tag.String()
}

// nonEmpty returns the trimmed non-empty values of in.
func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// firstNonEmpty returns the first trimmed non-empty value of in.
func firstNonEmpty(in []string) string {
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func copyMetadata(in Metadata) Metadata {
	out := in
	out.Authors = append([]string(nil), in.Authors...)
	out.Contributors = append([]string(nil), in.Contributors...)
	out.Subjects = append([]string(nil), in.Subjects...)
	return out
}
