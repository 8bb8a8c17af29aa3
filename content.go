package mobi

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// gutenbergPatterns contains case-insensitive patterns that indicate a
// Project Gutenberg license section.
var gutenbergPatterns = []string{
	"project gutenberg license",
	"gutenberg.org/license",
	"start of the project gutenberg license",
	"end of the project gutenberg license",
	"start of this project gutenberg ebook",
	"end of this project gutenberg ebook",
}

// TextContent returns the plain text of the book. Block-level elements and
// page breaks produce line breaks; script and style content is skipped.
// It returns ErrDRMProtected when the text records are encrypted.
func (b *Book) TextContent() (string, error) {
	if b.encrypted {
		return "", ErrDRMProtected
	}
	return extractText([]byte(b.ContentString()))
}

// BodyHTML returns the inner HTML of the <body> element of the book markup.
// Images referenced through recindex attributes are inlined as data URIs.
// Script and style elements and event handler attributes are stripped.
// It returns ErrDRMProtected when the text records are encrypted.
func (b *Book) BodyHTML() (string, error) {
	if b.encrypted {
		return "", ErrDRMProtected
	}
	doc, err := html.Parse(strings.NewReader(b.ContentString()))
	if err != nil {
		return "", err
	}
	inlineImages(doc, b.imageByRecIndex)
	return extractBodyHTML(doc)
}

// HasGutenbergLicense reports whether the text contains a Project Gutenberg
// license section. Encrypted books always report false.
func (b *Book) HasGutenbergLicense() bool {
	text, err := b.TextContent()
	if err != nil {
		if b.encrypted {
			return false
		}
		text = string(bytes.ToLower(b.Content()))
	} else {
		text = strings.ToLower(text)
	}
	for _, pat := range gutenbergPatterns {
		if strings.Contains(text, pat) {
			return true
		}
	}
	return false
}
