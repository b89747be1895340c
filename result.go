package shamela

import (
	"io"

	"github.com/azizmrsh/shamela-go/internal/serializer"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// BookDocument is the extraction result. The canonical definition lives in
// pkg/book; the alias keeps call sites on this package.
type BookDocument = book.Document

// SaveOptions selects the serialization framing for Save and WriteFile.
type SaveOptions struct {
	// Compress wraps the output in gzip and appends .gz to the extension.
	Compress bool
	// Stream forces page-by-page encoding; books over 1000 pages stream
	// regardless, bounding peak memory.
	Stream bool
}

// Save encodes the document as JSON to w.
func Save(w io.Writer, doc *BookDocument, opts SaveOptions) error {
	return serializer.Encode(w, doc, serializer.Options{
		Compress: opts.Compress,
		Stream:   opts.Stream,
	})
}

// WriteFile writes the document to path, normalizing the extension to
// .json or .json.gz, and returns the final filename.
func WriteFile(path string, doc *BookDocument, opts SaveOptions) (string, error) {
	return serializer.WriteFile(path, doc, serializer.Options{
		Compress: opts.Compress,
		Stream:   opts.Stream,
	})
}

// ReadFile loads a document previously written by WriteFile.
func ReadFile(path string) (*BookDocument, error) {
	return serializer.ReadFile(path)
}
