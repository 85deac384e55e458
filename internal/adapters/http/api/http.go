// Package api declares HTTP contracts and route registration helpers.
//
// The chat-platform bridge runs out of process and feeds the engine through
// these endpoints: member messages arrive as submissions, registrations link
// members to external handles, and session control is for administrators.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/scheduler"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit routes raw message text into the current session.
	Submit(ctx context.Context, member model.MemberID, text string) (model.TargetID, bool)

	// Register links a member to an external handle.
	Register(ctx context.Context, member model.MemberID, handle string) error

	// RegistryEntry returns a member's registration, if any.
	RegistryEntry(ctx context.Context, member model.MemberID) (model.RegistryEntry, bool)

	// OpenSession and CloseSession drive the window on demand.
	OpenSession(ctx context.Context) error
	CloseSession(ctx context.Context) error

	// SchedulerStatus exposes the state machine for observability.
	SchedulerStatus() scheduler.Status

	// Diagnose runs a live resolve-and-fetch for a handle.
	Diagnose(ctx context.Context, handle string) (Diagnosis, error)
}

// Diagnosis reports what a live gateway probe found for a handle.
type Diagnosis struct {
	NumericID string `json:"numeric_id"`
	Replies   int    `json:"replies_found"`
}

// Server wires HTTP routes for the session API.
type Server struct {
	deps       Dependencies
	adminToken string

	healthHandler *HealthHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAdminToken gates the session-control endpoints. Empty means ungated,
// for local single-operator deployments.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// NewServer creates a new API server over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.handleStatus, "status"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.handleSubmission, "submissions"))
	mux.HandleFunc("/registrations", MetricsMiddleware(s.handleRegister, "registrations"))
	mux.HandleFunc("/registrations/", MetricsMiddleware(s.handleGetRegistration, "registrations"))
	mux.HandleFunc("/session/open", MetricsMiddleware(s.requireAdmin(s.handleOpen), "session_open"))
	mux.HandleFunc("/session/close", MetricsMiddleware(s.requireAdmin(s.handleClose), "session_close"))
	mux.HandleFunc("/diagnose", MetricsMiddleware(s.handleDiagnose, "diagnose"))
}

// requireAdmin rejects requests without the configured bearer token.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.adminToken {
				writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
