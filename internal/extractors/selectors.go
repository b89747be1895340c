// Package extractors holds the pure HTML-to-value functions: every one
// takes a parsed document (or a selection inside one) and returns a typed
// value or reports absence. Nothing here fetches, retries, or mutates
// shared state; callers hand in a document they own.
package extractors

import "regexp"

// Selector cascades. Each extractor walks its list in order and the first
// selector producing a usable value wins, so the site-specific markup comes
// first and the generic fallbacks last.
var (
	titleSelectors = []string{
		"h1.book-title",
		"h1",
		".book-title",
		"title",
	}

	authorSelectors = []string{
		".book-author a",
		".author a",
		"a[href*='/author/']",
	}

	sectionSelectors = []string{
		".book-category a",
		".category a",
		".book-section a",
	}

	indexSelectors = []string{
		"div.betaka-index ul",
		".book-index ul",
		".index ul",
		"#book-index ul",
		".table-of-contents ul",
		".s-nav ul",
		"div.s-nav ul",
	}

	volumeDropdownSelectors = []string{
		"ul.dropdown-menu a[href*='#p1']",
		".dropdown-menu a",
		"select.volume-select option",
		".volumes a",
	}

	pageContainerSelectors = []string{
		"div.nass",
		"#book",
		"div#text",
		"article",
		"div.reader-text",
		"div.col-md-9",
		".book-content",
		".page-content",
		"main",
	}

	descriptionSelectors = []string{
		".book-description",
		".description",
		".nass",
		".book-card",
	}
)

// Label patterns scanned against the landing page's body text.
var (
	publisherLabels = []string{"الناشر:", "دار النشر:", "النشر:", "المطبعة:", "نشر:"}
	sectionLabels   = []string{"القسم:", "التصنيف:", "الموضوع:"}
	editionLabels   = []string{"الطبعة:", "ط:", "طبعة:"}

	// noEditionPrefixes mark edition statements that carry no usable
	// edition at all.
	noEditionPrefixes = []string{"بدون تاريخ", "بدون طبعة"}

	// originalPaginationMarkers declare the digital page boundaries
	// faithful to the print original.
	originalPaginationMarkers = []string{
		"ترقيم الكتاب موافق للمطبوع",
		"موافق للمطبوع",
		"ترقيم موافق للمطبوع",
		"الترقيم موافق للمطبوع",
	}

	// descriptionStartMarkers / descriptionEndMarkers delimit the book
	// card inside the landing page text.
	descriptionStartMarkers = []string{"بطاقة الكتاب", "والكتاب:", "الكتاب:"}
	descriptionEndMarkers   = []string{
		"فهرس الموضوعات",
		"فصول الكتاب",
		"مشاركة",
		"تحميل الكتاب",
		"قراءة الكتاب",
	}

	// publisherCities is the closed set of locations split off a publisher
	// string written as «name، city» or «name - city».
	publisherCities = []string{
		"بيروت",
		"القاهرة",
		"دمشق",
		"الرياض",
		"جدة",
		"مكة",
		"المدينة المنورة",
		"عمان",
		"الكويت",
		"بغداد",
		"تونس",
		"الدار البيضاء",
		"الإسكندرية",
		"حلب",
		"قطر",
	}
)

// uiPhrases are dropped from page text and descriptions wherever a line
// contains one. This is the minimum closed set from the site's chrome;
// additions are deliberate, not organic.
var uiPhrases = []string{
	"المكتبة الشاملة",
	"جميع الحقوق محفوظة",
	"تسجيل الدخول",
	"إنشاء حساب",
	"البحث في الكتاب",
	"مشاركة",
	"نسخ الرابط",
	"طباعة",
	"تحميل",
	"القائمة الرئيسية",
	"الصفحة الرئيسية",
	"فهرس الموضوعات",
	"اضغط هنا",
	"+ -",
}

// removedNodes is the denylist of descendants stripped from a page
// container before text extraction: scripts, chrome, controls.
const removedNodes = "script, style, nav, header, footer, aside, form, button, input, select, textarea, iframe, noscript, " +
	".share, .social, .social-share, .ads, .ad, .advert, .menu, .navbar, .sidebar, .side-menu, " +
	".modal, .dropdown-menu, .btn, .breadcrumb, .pagination, .page-nav, .s-nav, .tools, .search"

// Compiled patterns shared across extractors.
var (
	// bookPageHref captures the internal index N from /book/{id}/{N},
	// ignoring any #fragment or ?query tail.
	bookPageHrefRe = regexp.MustCompile(`/book/(\d+)/(\d+)(?:[#?]|$)`)

	// printedNumberRe finds the printed page token in a reading page
	// <title>: ص (or س as the OCR'd variant) then an optional colon and
	// the number in either digit system.
	printedNumberRe = regexp.MustCompile(`[صس]\s*[:：]?\s*([0-9\x{0660}-\x{0669}]+)`)

	hijriYearRe     = regexp.MustCompile(`(\d{4})\s*هـ`)
	gregorianYearRe = regexp.MustCompile(`(\d{4})\s*م`)

	// numberedLineRe matches list artifacts like "12 - something" that the
	// description cleaner drops.
	numberedLineRe = regexp.MustCompile(`^\s*\d+\s*-\s`)
	plusLineRe     = regexp.MustCompile(`^\s*\[\+\]`)
)
