package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"contracttext/internal/app"
	"contracttext/internal/extract"
	"contracttext/pkg/domain"
	"contracttext/pkg/store"
)

type staticSource struct{ pages []string }

func (s *staticSource) PageCount() int { return len(s.pages) }
func (s *staticSource) PageText(i int) (string, error) { return s.pages[i], nil }

type staticOpener struct{ pages []string }

func (o staticOpener) Open(_ []byte) (extract.PageSource, error) {
	return &staticSource{pages: o.pages}, nil
}

type staticRenderer struct{}

func (staticRenderer) Render(_ context.Context, _ []byte, _ int) ([]byte, error) {
	return []byte("png"), nil
}

type staticEngine struct{}

func (staticEngine) Name() string { return "static" }

func (staticEngine) Recognize(_ context.Context, _ []byte) (string, error) { return "ocr", nil }

type staticFetcher struct{}

func (staticFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return []byte("pdf"), nil
}

func newTestServer(t *testing.T, contracts *store.MemoryStore, token string) *Server {
	t.Helper()
	pages := []string{strings.Repeat("native contract text ", 10)}
	pipeline := extract.NewPipeline(staticOpener{pages: pages}, staticRenderer{}, staticEngine{}, extract.Config{
		OCRRetryDelay: time.Millisecond,
	}, nil)
	appCore, err := app.New(app.Config{
		Store:    contracts,
		Blobs:    staticFetcher{},
		Pipeline: pipeline,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	return New(Config{App: appCore, WebhookToken: token})
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) triggerResponse {
	t.Helper()
	var resp triggerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestPing(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Message != "pong" {
		t.Fatalf("response = %+v, want pong", resp)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("body = %s, want healthy", rec.Body.String())
	}
}

func TestTriggerMissingContractID(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success {
		t.Fatalf("response = %+v, want failure", resp)
	}
}

func TestTriggerUnknownContract(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"contract_id":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.ContractID != "nope" {
		t.Fatalf("contract_id = %q, want nope", resp.ContractID)
	}
}

func TestTriggerJSONBodySuccess(t *testing.T) {
	contracts := store.NewMemoryStore()
	contracts.Put(domain.Contract{
		ID:           "c1",
		FileName:     "insurance.pdf",
		StoragePath:  "uploads/insurance.pdf",
		UploadStatus: domain.StatusProcessing,
	})
	s := newTestServer(t, contracts, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"contract_id":"c1","upload_status":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.TextLength == 0 {
		t.Fatalf("response = %+v, want success with text_length > 0", resp)
	}
	c, _, _ := contracts.GetContract(context.Background(), "c1")
	if c.UploadStatus != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", c.UploadStatus)
	}
}

func TestTriggerFormBody(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	form := url.Values{"contract_id": {"form-id"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.Router().ServeHTTP(rec, req)

	if resp := decodeResponse(t, rec); resp.ContractID != "form-id" {
		t.Fatalf("contract_id = %q, want form-id", resp.ContractID)
	}
}

func TestTriggerQueryParams(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/?contract_id=query-id&upload_status=completed", nil)
	s.Router().ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	if resp.ContractID != "query-id" {
		t.Fatalf("contract_id = %q, want query-id", resp.ContractID)
	}
	// Hint says completed, so this is a skip, not a lookup failure.
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d resp = %+v, want skip", rec.Code, resp)
	}
}

func TestTriggerJSONTakesPriorityOverQuery(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/?contract_id=query-id", strings.NewReader(`{"contract_id":"json-id"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(rec, req)

	if resp := decodeResponse(t, rec); resp.ContractID != "json-id" {
		t.Fatalf("contract_id = %q, want json-id", resp.ContractID)
	}
}

func TestTriggerHintSkip(t *testing.T) {
	contracts := store.NewMemoryStore()
	contracts.Put(domain.Contract{ID: "c1", StoragePath: "x", UploadStatus: domain.StatusProcessing})
	s := newTestServer(t, contracts, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"contract_id":"c1","upload_status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || !strings.Contains(resp.Message, "completed") {
		t.Fatalf("response = %+v, want hint skip naming the status", resp)
	}
}

func TestTriggerRejectsBadToken(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "s3cret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/?contract_id=c1", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/?contract_id=c1", nil)
	req.Header.Set("X-Webhook-Token", "s3cret")
	s.Router().ServeHTTP(rec, req)
	if rec.Code == http.StatusUnauthorized {
		t.Fatalf("valid token rejected")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestUnknownPath(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(), "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
