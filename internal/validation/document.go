package validation

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// Document-level thresholds.
const (
	// arabicPageRatio is the per-page bar: a page counts as Arabic when at
	// least this fraction of its runes are Arabic script.
	arabicPageRatio = 0.10

	// duplicatePrefixLen bounds the edit-distance comparison between
	// neighboring pages; full pages would make each comparison quadratic
	// in page length for no extra signal.
	duplicatePrefixLen = 200

	// duplicateSimilarity: neighbors closer than this are suspected
	// copies of the same served page.
	duplicateSimilarity = 0.95
)

// Config tunes the document audit.
type Config struct {
	// MaxEmptyFraction is the tolerated share of empty pages.
	MaxEmptyFraction float64
	// MinArabicFraction is the required share of Arabic pages.
	MinArabicFraction float64
	// VerifyIntegrity enables the neighbor-duplicate scan.
	VerifyIntegrity bool
}

// DefaultConfig matches the ultra-reliable extraction profile.
func DefaultConfig() Config {
	return Config{
		MaxEmptyFraction:  0.05,
		MinArabicFraction: 0.80,
		VerifyIntegrity:   true,
	}
}

// Report is the audit outcome the orchestrator logs.
type Report struct {
	Pages             int     `json:"pages"`
	EmptyPages        int     `json:"empty_pages"`
	ArabicPages       int     `json:"arabic_pages"`
	DuplicateSuspects []int   `json:"duplicate_suspects,omitempty"`
	EmptyFraction     float64 `json:"empty_fraction"`
	ArabicFraction    float64 `json:"arabic_fraction"`
	Score             float64 `json:"score"`
}

// QualityError reports which metric failed the audit.
type QualityError struct {
	Metric   string
	Observed float64
	Required float64
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("quality below threshold: %s observed %.3f, required %.3f", e.Metric, e.Observed, e.Required)
}

// CheckDocument audits the assembled book: a title must exist, at least
// one page must exist, empty pages must stay under the cap, and enough
// pages must actually be Arabic text. The report is returned alongside
// any error so callers can log it either way.
func CheckDocument(doc *book.Document, cfg Config) (Report, error) {
	var report Report

	if doc.Title == "" {
		return report, &QualityError{Metric: "title", Observed: 0, Required: 1}
	}
	report.Pages = len(doc.Pages)
	if report.Pages == 0 {
		return report, &QualityError{Metric: "pages", Observed: 0, Required: 1}
	}

	for _, p := range doc.Pages {
		if p.Content == "" {
			report.EmptyPages++
			continue
		}
		if text.ArabicRatio(p.Content) >= arabicPageRatio {
			report.ArabicPages++
		}
	}
	if cfg.VerifyIntegrity {
		report.DuplicateSuspects = duplicateSuspects(doc.Pages)
	}

	report.EmptyFraction = float64(report.EmptyPages) / float64(report.Pages)
	report.ArabicFraction = float64(report.ArabicPages) / float64(report.Pages)
	report.Score = (1 - report.EmptyFraction) * report.ArabicFraction

	if report.EmptyFraction > cfg.MaxEmptyFraction {
		return report, &QualityError{Metric: "empty_fraction", Observed: report.EmptyFraction, Required: cfg.MaxEmptyFraction}
	}
	if report.ArabicFraction < cfg.MinArabicFraction {
		return report, &QualityError{Metric: "arabic_fraction", Observed: report.ArabicFraction, Required: cfg.MinArabicFraction}
	}
	return report, nil
}

// duplicateSuspects flags pages whose content is nearly identical to the
// previous page — the site occasionally serves the same body for two
// consecutive internal indices. Comparison is over a bounded prefix.
func duplicateSuspects(pages []book.Page) []int {
	var suspects []int
	for i := 1; i < len(pages); i++ {
		a := prefix(pages[i-1].Content, duplicatePrefixLen)
		b := prefix(pages[i].Content, duplicatePrefixLen)
		if a == "" || b == "" {
			continue
		}
		dist := levenshtein.ComputeDistance(a, b)
		longer := max(len([]rune(a)), len([]rune(b)))
		if longer == 0 {
			continue
		}
		similarity := 1 - float64(dist)/float64(longer)
		if similarity >= duplicateSimilarity {
			suspects = append(suspects, pages[i].InternalIndex)
		}
	}
	return suspects
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
