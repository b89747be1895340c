// Package shamela extracts complete books from the Shamela digital
// library's HTML reading interface.
//
// The site exposes no API: a book's structure has to be inferred from its
// landing page and the reading interface chrome, its two page-numbering
// schemes (internal crawler position and printed edition number) have to
// be reconciled, and hundreds to thousands of pages have to be fetched
// concurrently without hammering the origin. The package wraps all of that
// behind one call:
//
//	client := shamela.New()
//	doc, err := client.Extract(ctx, "43")
//	if err != nil {
//	    // *shamela.ExtractError carries the failure classification
//	}
//	fmt.Println(doc.Title, doc.PageCountInternal)
//
// Reliability is layered: every request passes through a classifying retry
// envelope with exponential backoff, a transport rebuild after sustained
// failure, and a two-tier response cache. Long extractions checkpoint to
// disk at intervals and can resume with WithResume; a failed run falls
// back to the newest complete backup when one exists.
//
// Documents serialize to a stable snake_case JSON layout (see pkg/book),
// with optional gzip framing and a streaming mode that bounds memory on
// very large books.
package shamela
