package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/store"
)

func testConfig() config.Config {
	return config.Config{MaxBodyBytes: 1 << 20}
}

func newSessionsMux(st store.Store, now func() time.Time) *http.ServeMux {
	sessions := SessionsHandler{Config: testConfig(), Store: st, Now: now}
	interviews := InterviewsHandler{Store: st, Now: now}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", sessions.Create)
	mux.HandleFunc("GET /api/sessions/{session_id}", sessions.Get)
	mux.HandleFunc("GET /api/interviews/{session_id}/transcript", interviews.Transcript)
	mux.HandleFunc("POST /api/interviews/{session_id}/end", interviews.End)
	return mux
}

func TestCreateSession(t *testing.T) {
	st := store.NewMemory()
	mux := newSessionsMux(st, nil)

	body := `{"interview_type":"google_sde","candidate_name":"Priya"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	if resp.Status != "active" {
		t.Fatalf("status = %q, want active", resp.Status)
	}
	if resp.InterviewType != "google_sde" || resp.CandidateName != "Priya" {
		t.Fatalf("unexpected echo: %+v", resp)
	}

	s, err := st.GetSession(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if s.Transcript == nil || len(s.Transcript) != 0 {
		t.Fatalf("expected empty transcript, got %v", s.Transcript)
	}
}

func TestCreateSession_Rejects(t *testing.T) {
	mux := newSessionsMux(store.NewMemory(), nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing interview_type", `{"candidate_name":"Priya"}`},
		{"missing candidate_name", `{"interview_type":"google_sde"}`},
		{"invalid json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetSession_NotFound(t *testing.T) {
	mux := newSessionsMux(store.NewMemory(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not_found_error") {
		t.Fatalf("expected not_found_error envelope, got %s", rec.Body.String())
	}
}

func TestTranscript(t *testing.T) {
	st := store.NewMemory()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed := &store.Session{
		ID:            "sess_1",
		InterviewType: "google_sde",
		CandidateName: "Priya",
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
		Transcript: []store.Message{
			{Role: "assistant", Content: "Hello Priya", Timestamp: now},
			{Role: "user", Content: "Hi", Timestamp: now},
		},
	}
	if err := st.SaveSession(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mux := newSessionsMux(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/interviews/sess_1/transcript", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		SessionID  string          `json:"session_id"`
		Transcript []store.Message `json:"transcript"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess_1" {
		t.Fatalf("session_id = %q", resp.SessionID)
	}
	if len(resp.Transcript) != 2 || resp.Transcript[0].Role != "assistant" || resp.Transcript[1].Content != "Hi" {
		t.Fatalf("unexpected transcript: %+v", resp.Transcript)
	}
}

func TestEndInterview(t *testing.T) {
	st := store.NewMemory()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	seed := &store.Session{
		ID:            "sess_1",
		InterviewType: "google_sde",
		CandidateName: "Priya",
		Status:        "active",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if err := st.SaveSession(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mux := newSessionsMux(st, func() time.Time { return ended })

	req := httptest.NewRequest(http.MethodPost, "/api/interviews/sess_1/end", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"report_url":null`) {
		t.Fatalf("expected null report_url, got %s", rec.Body.String())
	}

	s, err := st.GetSession(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Status != "completed" {
		t.Fatalf("status = %q, want completed", s.Status)
	}
	if s.EndedAt == nil || !s.EndedAt.Equal(ended) {
		t.Fatalf("ended_at = %v, want %v", s.EndedAt, ended)
	}
}
