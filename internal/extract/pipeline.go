// Package extract turns an uploaded PDF into the normalized text artifact
// persisted on the contract record. Pages whose native text layer is too thin
// are re-read via OCR; a page that cannot be resolved fails the whole
// document, because a contract with one unreadable page is not reliably
// processed.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contracttext/internal/ocr"
	"contracttext/pkg/domain"
)

// Config tunes one pipeline instance. Zero values fall back to defaults.
type Config struct {
	MinPageRunes  int
	OCRAttempts   int           // total attempts per page, including the first
	OCRRetryDelay time.Duration // fixed delay between attempts
}

// Result is the transient outcome of one run, handed to the orchestrator for
// persistence and then discarded.
type Result struct {
	Text string
	Meta domain.ExtractionMeta
}

// Pipeline orchestrates native extraction, OCR fallback, and normalization
// across all pages of one document. It holds no per-run state; one instance
// serves all invocations.
type Pipeline struct {
	opener   DocumentOpener
	renderer ocr.Renderer
	engine   ocr.Engine
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

func NewPipeline(opener DocumentOpener, renderer ocr.Renderer, engine ocr.Engine, cfg Config, logger *slog.Logger) *Pipeline {
	if opener == nil {
		opener = PDFOpener{}
	}
	if cfg.MinPageRunes <= 0 {
		cfg.MinPageRunes = DefaultMinPageRunes
	}
	if cfg.OCRAttempts <= 0 {
		cfg.OCRAttempts = 2
	}
	if cfg.OCRRetryDelay <= 0 {
		cfg.OCRRetryDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opener:   opener,
		renderer: renderer,
		engine:   engine,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Extract resolves every page of the document in order and assembles the
// final envelope. Any page failure aborts the run; no partial artifact is
// returned.
func (p *Pipeline) Extract(ctx context.Context, data []byte, name string) (Result, error) {
	start := p.now()
	src, err := p.opener.Open(data)
	if err != nil {
		return Result{}, err
	}

	pages := src.PageCount()
	ocrPages := 0
	var body strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		native, err := src.PageText(i)
		if err != nil {
			return Result{}, err
		}
		resolved := native
		if NeedsOCR(native, p.cfg.MinPageRunes) {
			p.logger.Info("page appears scanned, using ocr", "document", name, "page", i+1)
			resolved, err = p.recoverPage(ctx, data, i)
			if err != nil {
				return Result{}, fmt.Errorf("ocr page %d: %w", i+1, err)
			}
			ocrPages++
			fmt.Fprintf(&body, "\n--- Page %d (OCR) ---\n%s", i+1, resolved)
			continue
		}
		fmt.Fprintf(&body, "\n--- Page %d ---\n%s", i+1, resolved)
	}

	meta := Meta{Name: name, Pages: pages, ProcessedAt: p.now()}
	text := BuildEnvelope(meta, body.String())
	method := "pdf-text"
	if ocrPages > 0 {
		method = "pdf-ocr"
	}
	return Result{
		Text: text,
		Meta: domain.ExtractionMeta{
			Pages:      pages,
			OCRPages:   ocrPages,
			DurationMS: p.now().Sub(start).Milliseconds(),
			Method:     method,
		},
	}, nil
}

// recoverPage rasterizes one page and recognizes it, retrying the whole
// render+recognize step under the bounded policy. The final attempt's error
// propagates to the caller.
func (p *Pipeline) recoverPage(ctx context.Context, data []byte, pageIndex int) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.OCRAttempts; attempt++ {
		if attempt > 1 {
			p.logger.Warn("retrying ocr", "page", pageIndex+1, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.cfg.OCRRetryDelay):
			}
		}
		img, err := p.renderer.Render(ctx, data, pageIndex)
		if err != nil {
			lastErr = err
			continue
		}
		text, err := p.engine.Recognize(ctx, img)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", lastErr
}
