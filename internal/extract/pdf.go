package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageSource exposes a document's native text layer page by page.
type PageSource interface {
	PageCount() int
	// PageText returns the embedded text of the page at zero-based index i.
	// A scanned page typically yields an empty string, not an error.
	PageText(i int) (string, error)
}

// DocumentOpener turns raw document bytes into a PageSource.
type DocumentOpener interface {
	Open(data []byte) (PageSource, error)
}

// PDFOpener opens PDF bytes with the pure-Go pdf reader.
type PDFOpener struct{}

func (PDFOpener) Open(data []byte) (PageSource, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfSource{reader: reader}, nil
}

type pdfSource struct {
	reader *pdf.Reader
}

func (s *pdfSource) PageCount() int { return s.reader.NumPage() }

func (s *pdfSource) PageText(i int) (string, error) {
	page := s.reader.Page(i + 1) // reader pages are 1-based
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("read text layer of page %d: %w", i+1, err)
	}
	return text, nil
}
