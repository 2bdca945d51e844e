package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

// DefaultDPI balances recognition accuracy against per-page latency; higher
// values materially slow rasterization and OCR.
const DefaultDPI = 200

// Renderer rasterizes a single page of a PDF to an encoded image.
type Renderer interface {
	// Render returns the page at zero-based index pageIndex as PNG bytes.
	Render(ctx context.Context, pdfData []byte, pageIndex int) ([]byte, error)
}

// Runner abstracts command execution so rendering is testable without
// poppler installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// PopplerRenderer rasterizes pages with pdftoppm.
type PopplerRenderer struct {
	pdftoppm string
	dpi      int
	runner   Runner
}

// NewPopplerRenderer builds a renderer; empty binary means "pdftoppm" from
// PATH, non-positive dpi means DefaultDPI.
func NewPopplerRenderer(pdftoppm string, dpi int) *PopplerRenderer {
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PopplerRenderer{pdftoppm: pdftoppm, dpi: dpi, runner: execRunner{}}
}

// Render writes the document to a scratch dir and rasterizes one page.
func (r *PopplerRenderer) Render(ctx context.Context, pdfData []byte, pageIndex int) ([]byte, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("invalid page index %d", pageIndex)
	}
	tmpDir, err := os.MkdirTemp("", "ct-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(src, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	pageNum := strconv.Itoa(pageIndex + 1) // pdftoppm pages are 1-based
	outPrefix := filepath.Join(tmpDir, "page")
	_, stderr, err := r.runner.Run(ctx, r.pdftoppm,
		"-png",
		"-r", strconv.Itoa(r.dpi),
		"-f", pageNum,
		"-l", pageNum,
		src, outPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %s: %w: %s", pageNum, err, bytes.TrimSpace(stderr))
	}

	// pdftoppm zero-pads the page suffix depending on total page count, so
	// glob instead of guessing the exact name.
	matches, err := filepath.Glob(outPrefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output for page %s", pageNum)
	}
	sort.Strings(matches)
	img, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return img, nil
}
