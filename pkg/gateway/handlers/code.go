package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/gateway/apierror"
	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/gateway/metrics"
	"github.com/prepai-dev/prepai/pkg/store"
)

type executeRequest struct {
	SessionID    string              `json:"sessionId"`
	Code         string              `json:"code"`
	Language     string              `json:"language"`
	TestCases    []codeexec.TestCase `json:"testCases"`
	FunctionName string              `json:"functionName"`
}

type executeResponse struct {
	Success        bool                      `json:"success"`
	TestResults    []codeexec.TestCaseResult `json:"testResults"`
	AllTestsPassed bool                      `json:"allTestsPassed"`
	ExecutionTime  float64                   `json:"executionTime"`
	QualityMetrics *codeexec.QualityMetrics  `json:"qualityMetrics,omitempty"`
	SubmissionID   string                    `json:"submissionId,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

// CodeHandler runs candidate submissions through the sandbox and serves the
// per-session submission history.
type CodeHandler struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    store.Store
	Executor codeexec.Executor
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (h CodeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h CodeHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h CodeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSONBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, r, apierror.Invalid("code is required", "code"))
		return
	}
	if req.Language == "" {
		req.Language = "python"
	}
	if req.FunctionName == "" {
		req.FunctionName = "solution"
	}

	res, err := h.Executor.Execute(r.Context(), codeexec.ExecRequest{
		Code:         req.Code,
		Language:     req.Language,
		TestCases:    req.TestCases,
		FunctionName: req.FunctionName,
	})
	if err != nil {
		h.Metrics.CodeExecuted(req.Language, false)
		h.logger().Error("code execution failed", "error", err, "session_id", req.SessionID)
		writeError(w, r, err)
		return
	}
	h.Metrics.CodeExecuted(req.Language, res.Success)

	quality := codeexec.AnalyzeQuality(req.Code, req.Language)

	resp := executeResponse{
		Success:        res.Success,
		TestResults:    res.TestResults,
		AllTestsPassed: res.AllTestsPassed,
		ExecutionTime:  res.ExecutionTime,
		QualityMetrics: &quality,
		Error:          res.Error,
	}
	if resp.TestResults == nil {
		resp.TestResults = []codeexec.TestCaseResult{}
	}

	// Submissions are only recorded against an existing session. Ad-hoc
	// executions without a sessionId still return their results.
	if req.SessionID != "" {
		sub := codeexec.Submission{
			SubmissionID:   uuid.NewString(),
			SessionID:      req.SessionID,
			Timestamp:      h.now().Format(time.RFC3339),
			Code:           req.Code,
			Language:       req.Language,
			FunctionName:   req.FunctionName,
			TestResults:    resp.TestResults,
			AllTestsPassed: res.AllTestsPassed,
			ExecutionTime:  res.ExecutionTime,
			QualityMetrics: &quality,
			Error:          res.Error,
		}
		if err := h.appendSubmission(r, req.SessionID, sub); err != nil {
			h.logger().Warn("failed to record submission", "error", err, "session_id", req.SessionID)
		} else {
			resp.SubmissionID = sub.SubmissionID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h CodeHandler) appendSubmission(r *http.Request, sessionID string, sub codeexec.Submission) error {
	s, err := h.Store.GetSession(r.Context(), sessionID)
	if err != nil {
		return err
	}
	s.CodeSubmissions = append(s.CodeSubmissions, sub)
	s.UpdatedAt = h.now()
	return h.Store.SaveSession(r.Context(), s)
}

func (h CodeHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	subs := s.CodeSubmissions
	if subs == nil {
		subs = []codeexec.Submission{}
	}

	type submissionsResponse struct {
		Success     bool                  `json:"success"`
		SessionID   string                `json:"sessionId"`
		Submissions []codeexec.Submission `json:"submissions"`
		Summary     codeexec.Summary      `json:"summary"`
	}
	writeJSON(w, http.StatusOK, submissionsResponse{
		Success:     true,
		SessionID:   s.ID,
		Submissions: subs,
		Summary:     codeexec.Summarize(subs),
	})
}

func (h CodeHandler) Submission(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	submissionID := r.PathValue("submission_id")
	for i := range s.CodeSubmissions {
		if s.CodeSubmissions[i].SubmissionID == submissionID {
			type submissionResponse struct {
				Success    bool                `json:"success"`
				Submission codeexec.Submission `json:"submission"`
			}
			writeJSON(w, http.StatusOK, submissionResponse{Success: true, Submission: s.CodeSubmissions[i]})
			return
		}
	}

	writeError(w, r, &apierror.Error{Type: apierror.ErrNotFound, Message: "submission not found"})
}

func (h CodeHandler) QualitySummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSession(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	type qualitySummaryResponse struct {
		Success   bool             `json:"success"`
		SessionID string           `json:"sessionId"`
		Summary   codeexec.Summary `json:"summary"`
	}
	writeJSON(w, http.StatusOK, qualitySummaryResponse{
		Success:   true,
		SessionID: s.ID,
		Summary:   codeexec.Summarize(s.CodeSubmissions),
	})
}
