// Package mobi provides a pure-Go library for reading Mobipocket (MOBI) and
// plain PalmDOC e-books.
//
// It decodes the Palm database header and record directory, the PalmDOC and
// MOBI headers stored in record 0, the EXTH metadata block, and the text
// records compressed with PalmDOC LZ77. Encrypted books are detected; their
// text is exposed as ciphertext and never decrypted.
//
// # Opening a book
//
// Use [Open] to read a file by path, [NewReader] to read from an [io.Reader],
// or [Parse] for a buffer already in memory:
//
//	book, err := mobi.Open("book.mobi")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Metadata
//
// The [Book.Metadata] method returns a [Metadata] struct built from the EXTH
// block. Shortcuts such as [Book.Title] and [Book.Author] return single values:
//
//	fmt.Println(book.Title(), book.Author())
//
// Raw EXTH records, including unknown types, are available from [Book.EXTH].
//
// # Content
//
// [Book.Content] returns the decoded bytes of the text records,
// [Book.ContentString] the same text as a Go string, [Book.TextContent]
// plain text without markup, and [Book.BodyHTML] sanitised body HTML with
// images inlined. Individual records, including failures local to one
// record, are available from [Book.Records].
//
// # Images
//
// [Book.Images] lists the image records and [Book.Cover] locates the cover:
//
//	cover, err := book.Cover()
//	if err == nil {
//	    os.WriteFile("cover.jpg", cover.Data, 0644)
//	}
//
// # Error Handling
//
// Failures in the mandatory headers are returned from [Parse] and wrap
// sentinel errors such as [ErrTruncatedHeader] or [ErrCorruptDirectory].
// Problems local to the EXTH block or a single record do not fail the decode;
// they are reported by [Book.Warnings] and, when [WithLogger] is set, logged.
package mobi
