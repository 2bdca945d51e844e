// Package server is the thin HTTP adapter in front of the extraction core:
// webhook trigger, ping, and health endpoints.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"contracttext/internal/app"
	"contracttext/internal/util"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// WebhookToken, when set, must match the X-Webhook-Token header on POST
	// triggers. Empty disables the check (e.g. behind a trusted proxy).
	WebhookToken string
}

// Server exposes the webhook endpoints.
type Server struct {
	app          *app.App
	webhookToken string
	mux          *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:          cfg.App,
		webhookToken: cfg.WebhookToken,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware stack applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		// Ping short-circuit: liveness for webhook configuration checks.
		writeJSON(w, http.StatusOK, triggerResponse{Success: true, Message: "pong"})
	case http.MethodPost:
		s.handleTrigger(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if s.webhookToken != "" && r.Header.Get("X-Webhook-Token") != s.webhookToken {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	trig := parseTrigger(r)
	logger := util.LoggerFromContext(r.Context())
	logger.Info("webhook trigger received", "contract_id", trig.ContractID, "status_hint", trig.StatusHint)

	outcome := s.app.ProcessContract(r.Context(), trig)
	writeOutcome(w, outcome)
}

// parseTrigger flattens the webhook payload. Field sources in priority
// order: JSON body, form fields, query parameters.
func parseTrigger(r *http.Request) app.Trigger {
	var trig app.Trigger

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			ContractID   string `json:"contract_id"`
			UploadStatus string `json:"upload_status"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err == nil {
			trig.ContractID = body.ContractID
			trig.StatusHint = body.UploadStatus
		}
	} else if err := r.ParseForm(); err == nil {
		trig.ContractID = r.PostForm.Get("contract_id")
		trig.StatusHint = r.PostForm.Get("upload_status")
	}

	if trig.ContractID == "" {
		query := r.URL.Query()
		trig.ContractID = query.Get("contract_id")
		if trig.StatusHint == "" {
			trig.StatusHint = query.Get("upload_status")
		}
	}
	return trig
}

// triggerResponse is the envelope reported back to the webhook caller.
type triggerResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeOutcome(w http.ResponseWriter, o app.Outcome) {
	resp := triggerResponse{
		Success:    o.Success(),
		Message:    o.Message,
		ContractID: o.ContractID,
		TextLength: o.TextLength,
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	writeJSON(w, statusFor(o.Kind), resp)
}

func statusFor(kind app.OutcomeKind) int {
	switch kind {
	case app.OutcomeBadRequest:
		return http.StatusBadRequest
	case app.OutcomeNotFound:
		return http.StatusNotFound
	case app.OutcomeExtractionFailed, app.OutcomePersistenceFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, triggerResponse{Success: false, Error: msg})
}
