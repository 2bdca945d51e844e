// Package ocr recovers text from rasterized PDF pages. Recognition runs
// behind the Engine interface so the pipeline can be tested without a
// Tesseract installation.
package ocr

import "context"

// Engine is the OCR provider contract: one encoded image in, plain text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}
