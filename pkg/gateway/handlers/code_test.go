package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/store"
)

type fakeExecutor struct {
	result *codeexec.ExecResult
	err    error

	lastReq codeexec.ExecRequest
}

func (f *fakeExecutor) Execute(_ context.Context, req codeexec.ExecRequest) (*codeexec.ExecResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newCodeMux(st store.Store, exec codeexec.Executor) *http.ServeMux {
	h := CodeHandler{
		Config:   testConfig(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:    st,
		Executor: exec,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/code/execute", h.Execute)
	mux.HandleFunc("GET /api/code/{session_id}/submissions", h.Submissions)
	mux.HandleFunc("GET /api/code/{session_id}/submissions/{submission_id}", h.Submission)
	mux.HandleFunc("GET /api/code/{session_id}/quality-summary", h.QualitySummary)
	return mux
}

func seedCodeSession(t *testing.T, st store.Store) {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := st.SaveSession(context.Background(), &store.Session{
		ID:            "sess_1",
		InterviewType: "coding_practice",
		CandidateName: "Priya",
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestExecuteCode_RecordsSubmission(t *testing.T) {
	st := store.NewMemory()
	seedCodeSession(t, st)
	exec := &fakeExecutor{result: &codeexec.ExecResult{
		Success: true,
		TestResults: []codeexec.TestCaseResult{
			{TestCase: 1, Passed: true, Input: "[1,2]", Expected: "3", Actual: "3"},
		},
		AllTestsPassed: true,
		ExecutionTime:  0.12,
	}}
	mux := newCodeMux(st, exec)

	body := `{"sessionId":"sess_1","code":"def solution(a, b):\n    return a + b","testCases":[{"input":"[1,2]","expected":"3"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/code/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp executeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || !resp.AllTestsPassed {
		t.Fatalf("unexpected verdict: %+v", resp)
	}
	if resp.SubmissionID == "" {
		t.Fatalf("expected a submission id")
	}
	if resp.QualityMetrics == nil || resp.QualityMetrics.LinesOfCode == 0 {
		t.Fatalf("expected quality metrics, got %+v", resp.QualityMetrics)
	}

	if exec.lastReq.Language != "python" {
		t.Fatalf("language = %q, want default python", exec.lastReq.Language)
	}
	if exec.lastReq.FunctionName != "solution" {
		t.Fatalf("function name = %q, want default solution", exec.lastReq.FunctionName)
	}

	s, err := st.GetSession(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(s.CodeSubmissions) != 1 {
		t.Fatalf("submissions = %d, want 1", len(s.CodeSubmissions))
	}
	if s.CodeSubmissions[0].SubmissionID != resp.SubmissionID {
		t.Fatalf("stored submission id mismatch")
	}
}

func TestExecuteCode_WithoutSessionStillRuns(t *testing.T) {
	exec := &fakeExecutor{result: &codeexec.ExecResult{Success: true, AllTestsPassed: true}}
	mux := newCodeMux(store.NewMemory(), exec)

	body := `{"code":"def solution():\n    return 1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/code/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp executeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SubmissionID != "" {
		t.Fatalf("expected no submission id without a session")
	}
}

func TestExecuteCode_Rejects(t *testing.T) {
	mux := newCodeMux(store.NewMemory(), &fakeExecutor{})

	req := httptest.NewRequest(http.MethodPost, "/api/code/execute", strings.NewReader(`{"code":"  "}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExecuteCode_SandboxError(t *testing.T) {
	mux := newCodeMux(store.NewMemory(), &fakeExecutor{err: errors.New("lambda timed out")})

	body := `{"code":"def solution():\n    return 1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/code/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "lambda timed out") {
		t.Fatalf("sandbox error leaked to client: %s", rec.Body.String())
	}
}

func TestSubmissions(t *testing.T) {
	st := store.NewMemory()
	seedCodeSession(t, st)
	s, _ := st.GetSession(context.Background(), "sess_1")
	s.CodeSubmissions = []codeexec.Submission{
		{SubmissionID: "sub_1", SessionID: "sess_1", Language: "python", AllTestsPassed: true, ExecutionTime: 0.1},
		{SubmissionID: "sub_2", SessionID: "sess_1", Language: "python", AllTestsPassed: false, ExecutionTime: 0.3},
	}
	if err := st.SaveSession(context.Background(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
	mux := newCodeMux(st, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/api/code/sess_1/submissions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Success     bool                  `json:"success"`
		SessionID   string                `json:"sessionId"`
		Submissions []codeexec.Submission `json:"submissions"`
		Summary     codeexec.Summary      `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Submissions) != 2 {
		t.Fatalf("submissions = %d, want 2", len(resp.Submissions))
	}
	if resp.Summary.TotalSubmissions != 2 || resp.Summary.TotalPassed != 1 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}
	if !resp.Summary.FirstAttemptSuccess {
		t.Fatalf("first attempt passed, summary says otherwise")
	}
}

func TestSubmission_NotFound(t *testing.T) {
	st := store.NewMemory()
	seedCodeSession(t, st)
	mux := newCodeMux(st, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/api/code/sess_1/submissions/sub_x", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestQualitySummary_EmptySession(t *testing.T) {
	st := store.NewMemory()
	seedCodeSession(t, st)
	mux := newCodeMux(st, &fakeExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/api/code/sess_1/quality-summary", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total_submissions":0`) {
		t.Fatalf("expected empty summary, got %s", rec.Body.String())
	}
}
