package extract

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinPageRunes is the threshold below which a page's native text layer
// is considered untrustworthy. It is a deliberately crude proxy for "scanned
// page with no embedded text": sparse-but-legitimate pages (signature pages,
// cover sheets) will be re-read via OCR too. Known limitation, not a bug.
const DefaultMinPageRunes = 50

// NeedsOCR reports whether a page's natively extracted text is too thin to
// trust. Pure function of the page text.
func NeedsOCR(pageText string, minRunes int) bool {
	if minRunes <= 0 {
		minRunes = DefaultMinPageRunes
	}
	return utf8.RuneCountInString(strings.TrimSpace(pageText)) < minRunes
}
