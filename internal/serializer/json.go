// Package serializer emits a finished document as JSON, optionally gzip
// framed, optionally streaming the pages array element by element so a
// multi-thousand-page book never has to be encoded in one allocation.
package serializer

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/azizmrsh/shamela-go/pkg/book"
)

// StreamThreshold is the page count past which WriteFile switches to the
// streaming encoder.
const StreamThreshold = 1000

// Options selects the output framing.
type Options struct {
	Compress bool
	// Stream forces streaming mode; books over StreamThreshold pages
	// stream regardless.
	Stream bool
}

// Extension returns the file suffix for the options: ".json" or
// ".json.gz".
func (o Options) Extension() string {
	if o.Compress {
		return ".json.gz"
	}
	return ".json"
}

// Encode writes the document to w according to the options.
func Encode(w io.Writer, doc *book.Document, opts Options) error {
	var out io.Writer = w
	var gz *gzip.Writer
	if opts.Compress {
		gz = gzip.NewWriter(w)
		out = gz
	}

	var err error
	if opts.Stream || len(doc.Pages) > StreamThreshold {
		err = encodeStreaming(out, doc)
	} else {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	}
	if err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

// encodeStreaming writes the top-level object by hand: every scalar and
// small field eagerly through one marshal of a page-less copy, then the
// pages array one element at a time.
func encodeStreaming(w io.Writer, doc *book.Document) error {
	// The shadowed Pages field keeps the skeleton's null pages key out of
	// the head object; the real array is spliced in below.
	head := struct {
		*book.Document
		Pages any `json:"pages,omitempty"`
	}{Document: doc.Skeleton()}
	headJSON, err := json.Marshal(head)
	if err != nil {
		return err
	}

	// Reopen the head object: strip the closing brace and splice the
	// pages array in.
	trimmed := strings.TrimSuffix(strings.TrimSpace(string(headJSON)), "}")
	if _, err := io.WriteString(w, trimmed); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `,"pages":[`); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range doc.Pages {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		// Encoder.Encode appends a newline, which is harmless inside the
		// array and keeps elements line-separated for inspection.
		if err := enc.Encode(doc.Pages[i]); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "]}")
	return err
}

// WriteFile writes the document to path, fixing up the extension to match
// the options. The final name is returned.
func WriteFile(path string, doc *book.Document, opts Options) (string, error) {
	want := opts.Extension()
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".json")
	final := base + want

	if dir := filepath.Dir(final); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	f, err := os.Create(final)
	if err != nil {
		return "", err
	}
	if err := Encode(f, doc, opts); err != nil {
		f.Close()
		os.Remove(final)
		return "", fmt.Errorf("encoding %s: %w", final, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return final, nil
}

// Decode reads a document back, sniffing gzip framing off the magic bytes
// is unnecessary — the extension decides, matching WriteFile.
func Decode(r io.Reader, compressed bool) (*book.Document, error) {
	var in io.Reader = r
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		in = gz
	}
	var doc book.Document
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile loads a document written by WriteFile.
func ReadFile(path string) (*book.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, strings.HasSuffix(path, ".gz"))
}
