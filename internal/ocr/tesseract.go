package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with a local Tesseract installation via
// gosseract. A fresh client per call keeps the engine safe for reuse across
// runs; Tesseract clients are not goroutine-safe.
type TesseractEngine struct {
	lang string
}

// NewTesseractEngine builds an engine with a fixed recognition language.
func NewTesseractEngine(lang string) *TesseractEngine {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractEngine{lang: lang}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR over an encoded PNG/JPEG image.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(e.lang); err != nil {
		return "", fmt.Errorf("set language %q: %w", e.lang, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
