package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cwygoda/grabber/internal/domain"
)

// maxBodyBytes caps webhook request bodies.
const maxBodyBytes = 64 << 10

// Server is the HTTP adapter through which producers enqueue downloads.
type Server struct {
	svc    *domain.JobService
	mux    *http.ServeMux
	server *http.Server
	secret string
	logger *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(svc *domain.JobService, addr string, secret string, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		mux:    http.NewServeMux(),
		secret: secret,
		logger: logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// webhookRequest is the request body for POST /webhook.
type webhookRequest struct {
	URL string `json:"url"`
}

// jobResponse is the JSON response for job endpoints.
type jobResponse struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
	RequestedAt string  `json:"requested_at"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if s.secret != "" {
		if err := s.verifySignature(r, body); err != nil {
			s.logger.Warn("webhook verification failed", "remote", r.RemoteAddr, "error", err)
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	var req webhookRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	job, err := s.svc.Submit(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			s.writeError(w, http.StatusBadRequest, "invalid URL")
			return
		}
		s.logger.Error("submit failed", "url", req.URL, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("job submitted", "job_id", job.ID.String(), "url", job.URL)
	s.writeJSON(w, http.StatusCreated, jobToResponse(job))
}

const maxTimestampSkew = 5 * time.Minute

func (s *Server) verifySignature(r *http.Request, body []byte) error {
	timestamp := r.Header.Get("X-Timestamp")
	if timestamp == "" {
		return fmt.Errorf("missing X-Timestamp header")
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fmt.Errorf("invalid X-Timestamp: must be ISO8601/RFC3339 format")
	}

	skew := time.Since(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxTimestampSkew {
		return fmt.Errorf("X-Timestamp too far from current time (skew: %v, max: %v)", skew.Truncate(time.Second), maxTimestampSkew)
	}

	signature := r.Header.Get("X-Signature")
	if signature == "" {
		return fmt.Errorf("missing X-Signature header")
	}

	if !hmac.Equal([]byte(signature), []byte(Sign(timestamp, body, s.secret))) {
		return fmt.Errorf("invalid signature")
	}

	return nil
}

// Sign returns the hex SHA-256 of "timestamp\nbody\nsecret", the value
// expected in X-Signature.
func Sign(timestamp string, body []byte, secret string) string {
	payload := fmt.Sprintf("%s\n%s\n%s", timestamp, string(body), secret)
	hash := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(hash[:])
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidJobID):
			s.writeError(w, http.StatusBadRequest, "invalid job ID")
		case errors.Is(err, domain.ErrJobNotFound):
			s.writeError(w, http.StatusNotFound, "job not found")
		default:
			s.logger.Error("get job failed", "job_id", r.PathValue("id"), "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	jobs, err := s.svc.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list jobs failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, jobToResponse(&jobs[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func jobToResponse(job *domain.Job) jobResponse {
	return jobResponse{
		ID:          job.ID.String(),
		URL:         job.URL,
		Status:      string(job.Status()),
		Error:       job.ErrorMessage(),
		RequestedAt: job.RequestedAt.UTC().Format(time.RFC3339),
		StartedAt:   formatOptional(job.StartedAt),
		CompletedAt: formatOptional(job.CompletedAt),
	}
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
