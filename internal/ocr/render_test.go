package ocr

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

type fakeRunner struct {
	name   string
	args   []string
	output []byte // written to the out prefix when set
	stderr []byte
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return nil, f.stderr, f.err
	}
	if f.output != nil {
		// Last argument is the output prefix; mimic pdftoppm's page suffix.
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-01.png", f.output, 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestPopplerRendererInvokesPdftoppm(t *testing.T) {
	runner := &fakeRunner{output: []byte("png-bytes")}
	r := NewPopplerRenderer("/opt/poppler/pdftoppm", 150)
	r.runner = runner

	img, err := r.Render(context.Background(), []byte("%PDF-1.4"), 2)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(img) != "png-bytes" {
		t.Fatalf("Render() = %q, want rendered page bytes", img)
	}
	if runner.name != "/opt/poppler/pdftoppm" {
		t.Fatalf("binary = %q, want configured path", runner.name)
	}

	args := strings.Join(runner.args, " ")
	for _, want := range []string{"-png", "-r 150", "-f 3", "-l 3"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}

func TestPopplerRendererDefaults(t *testing.T) {
	r := NewPopplerRenderer("", 0)
	if r.pdftoppm != "pdftoppm" {
		t.Fatalf("pdftoppm = %q, want PATH lookup default", r.pdftoppm)
	}
	if r.dpi != DefaultDPI {
		t.Fatalf("dpi = %d, want %d", r.dpi, DefaultDPI)
	}
}

func TestPopplerRendererCommandFailure(t *testing.T) {
	r := NewPopplerRenderer("", 0)
	r.runner = &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("Syntax Error: corrupt xref\n")}

	_, err := r.Render(context.Background(), []byte("junk"), 0)
	if err == nil {
		t.Fatalf("Render() error = nil, want command failure")
	}
	if !strings.Contains(err.Error(), "corrupt xref") {
		t.Fatalf("Render() error = %q, want stderr included", err)
	}
}

func TestPopplerRendererNoOutput(t *testing.T) {
	r := NewPopplerRenderer("", 0)
	r.runner = &fakeRunner{}

	_, err := r.Render(context.Background(), []byte("%PDF-1.4"), 0)
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("Render() error = %v, want missing-output error", err)
	}
}

func TestPopplerRendererRejectsNegativePage(t *testing.T) {
	r := NewPopplerRenderer("", 0)
	r.runner = &fakeRunner{}

	if _, err := r.Render(context.Background(), []byte("%PDF-1.4"), -1); err == nil {
		t.Fatalf("Render() error = nil for negative page index, want error")
	}
}
