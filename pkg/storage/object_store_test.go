package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recordingFetcher struct {
	refs []string
	data []byte
}

func (f *recordingFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.refs = append(f.refs, ref)
	return f.data, nil
}

func TestHTTPFetcherDownloadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF-1.4 payload"))
	}))
	defer srv.Close()

	data, err := NewHTTPFetcher(5 * time.Second).Fetch(context.Background(), srv.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "%PDF-1.4 payload" {
		t.Fatalf("Fetch() = %q, want body bytes", data)
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("Fetch() error = %v, want 404 failure", err)
	}
}

func TestRouterDispatchesURLsToHTTP(t *testing.T) {
	httpFetcher := &recordingFetcher{data: []byte("via-http")}
	objects := &recordingFetcher{data: []byte("via-bucket")}
	r := &Router{Objects: objects, HTTP: httpFetcher}

	data, err := r.Fetch(context.Background(), "https://cdn.example.com/doc.pdf")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "via-http" || len(objects.refs) != 0 {
		t.Fatalf("URL reference not routed to HTTP fetcher")
	}

	data, err = r.Fetch(context.Background(), "uploads/doc.pdf")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "via-bucket" {
		t.Fatalf("bucket key not routed to object store")
	}
}

func TestRouterWithoutObjectStore(t *testing.T) {
	r := &Router{HTTP: &recordingFetcher{}}
	if _, err := r.Fetch(context.Background(), "uploads/doc.pdf"); err == nil {
		t.Fatalf("Fetch() error = nil for bucket key without object store, want error")
	}
}
