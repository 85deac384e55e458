package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/scheduler"
)

// submissionRequest mirrors the body of POST /submissions.
type submissionRequest struct {
	Member string `json:"member"`
	Text   string `json:"text"`
}

type submissionResponse struct {
	Target   string `json:"target,omitempty"`
	Recorded bool   `json:"recorded"`
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req submissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Member) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing member"))
		return
	}
	target, recorded := s.deps.Submit(r.Context(), model.MemberID(req.Member), req.Text)
	writeJSON(w, http.StatusOK, submissionResponse{Target: string(target), Recorded: recorded})
}

// registerRequest mirrors the body of POST /registrations.
type registerRequest struct {
	Member string `json:"member"`
	Handle string `json:"handle"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
	if strings.TrimSpace(req.Member) == "" || handle == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing member or handle"))
		return
	}
	if err := s.deps.Register(r.Context(), model.MemberID(req.Member), handle); err != nil {
		writeError(w, http.StatusInternalServerError, "register_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"member": req.Member, "handle": handle})
}

type registrationResponse struct {
	Member    string `json:"member"`
	Handle    string `json:"handle"`
	NumericID string `json:"numeric_id,omitempty"`
}

func (s *Server) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	member := strings.TrimPrefix(r.URL.Path, "/registrations/")
	if member == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing member id"))
		return
	}
	entry, ok := s.deps.RegistryEntry(r.Context(), model.MemberID(member))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", errors.New("member not registered"))
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{
		Member:    member,
		Handle:    entry.Handle,
		NumericID: string(entry.NumericID),
	})
}

type statusResponse struct {
	State        string    `json:"state"`
	SessionID    string    `json:"session_id,omitempty"`
	OpenedAt     time.Time `json:"opened_at"`
	Targets      int       `json:"targets"`
	Participants int       `json:"participants"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	st := s.deps.SchedulerStatus()
	writeJSON(w, http.StatusOK, statusResponse{
		State:        st.State.String(),
		SessionID:    st.SessionID,
		OpenedAt:     st.OpenedAt,
		Targets:      st.Targets,
		Participants: st.Participants,
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := s.deps.OpenSession(r.Context()); err != nil {
		writeError(w, conflictOr500(err), "open_rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := s.deps.CloseSession(r.Context()); err != nil {
		writeError(w, conflictOr500(err), "close_rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	handle := strings.TrimPrefix(strings.TrimSpace(r.URL.Query().Get("handle")), "@")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing handle"))
		return
	}
	diag, err := s.deps.Diagnose(r.Context(), handle)
	if err != nil {
		writeError(w, http.StatusBadGateway, "diagnose_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, diag)
}

// conflictOr500 maps state-machine rejections to 409 and anything else to 500.
func conflictOr500(err error) int {
	if errors.Is(err, scheduler.ErrSessionActive) || errors.Is(err, scheduler.ErrNoActiveSession) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
