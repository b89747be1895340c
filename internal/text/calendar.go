package text

// The Hijri/Gregorian conversion below is approximate by construction: the
// linear factor tracks the ~3% difference in year length and ignores month
// alignment entirely. It exists to fill in the missing calendar when a book
// card names only one, never to date anything precisely.

const hijriYearFactor = 1.030684

// ApproxHijriFromGregorian estimates the Hijri year for a Gregorian year.
func ApproxHijriFromGregorian(gregorian int) int {
	return int(float64(gregorian-622) * hijriYearFactor)
}

// ApproxGregorianFromHijri estimates the Gregorian year for a Hijri year.
func ApproxGregorianFromHijri(hijri int) int {
	return 622 + int(float64(hijri)/hijriYearFactor)
}

// EditionOrdinals maps the Arabic ordinal words that appear in edition
// statements ("الطبعة الأولى") to their numeric value. Ordinals past the
// tenth are written as digits on the site.
var EditionOrdinals = map[string]int{
	"الأولى":   1,
	"الثانية":  2,
	"الثالثة":  3,
	"الرابعة":  4,
	"الخامسة":  5,
	"السادسة":  6,
	"السابعة":  7,
	"الثامنة":  8,
	"التاسعة":  9,
	"العاشرة":  10,
}
