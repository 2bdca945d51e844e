package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	newlineRuns = regexp.MustCompile(`\n{3,}`)
	spaceRuns   = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize collapses runs of 3+ newlines to a blank line and runs of 2+
// horizontal whitespace to a single space. Idempotent: normalizing already
// normalized text is a no-op.
func Normalize(text string) string {
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// InferDocType derives a coarse document label from the display name. It is a
// best-effort tag, not a semantic classification.
func InferDocType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "rental"):
		return "Vehicle Rental Agreement"
	case strings.Contains(lower, "insurance"):
		return "Insurance Policy"
	default:
		return "Document"
	}
}

// Meta describes the document for the envelope header.
type Meta struct {
	Name        string
	Pages       int
	ProcessedAt time.Time
}

// BuildEnvelope assembles the canonical text artifact: header block, CONTENT
// marker, normalized body, end-of-document marker. The layout is stable for
// downstream readers; change it only with a migration plan for them.
func BuildEnvelope(meta Meta, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DOCUMENT: %s\n", meta.Name)
	fmt.Fprintf(&sb, "TYPE: %s\n", InferDocType(meta.Name))
	fmt.Fprintf(&sb, "PAGES: %d\n", meta.Pages)
	fmt.Fprintf(&sb, "PROCESSED: %s\n", meta.ProcessedAt.UTC().Format(time.RFC3339))
	sb.WriteString("\nCONTENT:\n")
	sb.WriteString(Normalize(body))
	sb.WriteString("\n\n--- END OF DOCUMENT ---\n")
	return sb.String()
}
