package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepai-dev/prepai/pkg/gateway/apierror"
	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/store"
)

type createSessionRequest struct {
	InterviewType string `json:"interview_type"`
	CandidateName string `json:"candidate_name"`
	ResumeSummary string `json:"resume_summary,omitempty"`
}

type sessionResponse struct {
	SessionID     string `json:"session_id"`
	InterviewType string `json:"interview_type"`
	CandidateName string `json:"candidate_name"`
	CreatedAt     string `json:"created_at"`
	Status        string `json:"status"`
}

// SessionsHandler creates sessions and serves their current state.
type SessionsHandler struct {
	Config config.Config
	Store  store.Store
	Now    func() time.Time
}

func (h SessionsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSONBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.InterviewType) == "" {
		writeError(w, r, apierror.Invalid("interview_type is required", "interview_type"))
		return
	}
	if strings.TrimSpace(req.CandidateName) == "" {
		writeError(w, r, apierror.Invalid("candidate_name is required", "candidate_name"))
		return
	}

	now := h.now()
	s := &store.Session{
		ID:            uuid.NewString(),
		InterviewType: req.InterviewType,
		CandidateName: req.CandidateName,
		ResumeSummary: req.ResumeSummary,
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
		Transcript:    []store.Message{},
	}
	if err := h.Store.SaveSession(r.Context(), s); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:     s.ID,
		InterviewType: s.InterviewType,
		CandidateName: s.CandidateName,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		Status:        s.Status,
	})
}

func (h SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:     s.ID,
		InterviewType: s.InterviewType,
		CandidateName: s.CandidateName,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		Status:        s.Status,
	})
}

// InterviewsHandler serves the transcript and closes out interviews.
type InterviewsHandler struct {
	Store store.Store
	Now   func() time.Time
}

func (h InterviewsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h InterviewsHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	type transcriptResponse struct {
		SessionID  string          `json:"session_id"`
		Transcript []store.Message `json:"transcript"`
	}
	transcript := s.Transcript
	if transcript == nil {
		transcript = []store.Message{}
	}
	writeJSON(w, http.StatusOK, transcriptResponse{SessionID: s.ID, Transcript: transcript})
}

func (h InterviewsHandler) End(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now()
	s.Status = "completed"
	s.EndedAt = &now
	s.UpdatedAt = now
	if err := h.Store.SaveSession(r.Context(), s); err != nil {
		writeError(w, r, err)
		return
	}

	type endResponse struct {
		SessionID string  `json:"session_id"`
		Status    string  `json:"status"`
		ReportURL *string `json:"report_url"`
	}
	writeJSON(w, http.StatusOK, endResponse{SessionID: s.ID, Status: s.Status, ReportURL: nil})
}
