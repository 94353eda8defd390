// Package server wires the HTTP surface: routes, middleware, dependencies.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prepai-dev/prepai/pkg/agent"
	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/gateway/handlers"
	"github.com/prepai-dev/prepai/pkg/gateway/lifecycle"
	"github.com/prepai-dev/prepai/pkg/gateway/metrics"
	"github.com/prepai-dev/prepai/pkg/gateway/mw"
	"github.com/prepai-dev/prepai/pkg/gateway/ratelimit"
	"github.com/prepai-dev/prepai/pkg/interview"
	"github.com/prepai-dev/prepai/pkg/store"
	"github.com/prepai-dev/prepai/pkg/voice/stt"
	"github.com/prepai-dev/prepai/pkg/voice/tts"
)

// Dependencies are the domain services the server routes requests to.
type Dependencies struct {
	Store       store.Store
	Agent       agent.Agent
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Executor    codeexec.Executor
	Catalog     interview.Catalog
	Metrics     *metrics.Metrics
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	deps      Dependencies
	limiter   *ratelimit.Limiter
	lifecycle *lifecycle.Lifecycle
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = interview.DefaultCatalog()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		deps:   deps,
		limiter: ratelimit.New(ratelimit.Config{
			RPS:                   cfg.LimitRPS,
			Burst:                 cfg.LimitBurst,
			MaxConcurrentSessions: cfg.LimitMaxSessionsPerClient,
		}),
		lifecycle: &lifecycle.Lifecycle{},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.lifecycle})
	s.mux.Handle("/metrics", s.deps.Metrics.Handler())

	sessions := handlers.SessionsHandler{Config: s.cfg, Store: s.deps.Store}
	s.mux.HandleFunc("POST /api/sessions", sessions.Create)
	s.mux.HandleFunc("GET /api/sessions/{session_id}", sessions.Get)

	interviews := handlers.InterviewsHandler{Store: s.deps.Store}
	s.mux.HandleFunc("GET /api/interviews/{session_id}/transcript", interviews.Transcript)
	s.mux.HandleFunc("POST /api/interviews/{session_id}/end", interviews.End)

	code := handlers.CodeHandler{
		Config:   s.cfg,
		Logger:   s.logger,
		Store:    s.deps.Store,
		Executor: s.deps.Executor,
		Metrics:  s.deps.Metrics,
	}
	s.mux.HandleFunc("POST /api/code/execute", code.Execute)
	s.mux.HandleFunc("GET /api/code/{session_id}/submissions", code.Submissions)
	s.mux.HandleFunc("GET /api/code/{session_id}/submissions/{submission_id}", code.Submission)
	s.mux.HandleFunc("GET /api/code/{session_id}/quality-summary", code.QualitySummary)

	analytics := handlers.AnalyticsHandler{Store: s.deps.Store}
	s.mux.HandleFunc("GET /api/analytics/aggregate", analytics.Aggregate)
	s.mux.HandleFunc("GET /api/analytics/benchmarks/{interview_type}", analytics.Benchmarks)
	s.mux.HandleFunc("GET /api/analytics/trends", analytics.Trends)
	s.mux.HandleFunc("GET /api/analytics/candidate/{candidate_name}/history", analytics.CandidateHistory)

	s.mux.Handle("GET /ws/interview/{session_id}", handlers.LiveHandler{
		Config:      s.cfg,
		Logger:      s.logger,
		Store:       s.deps.Store,
		Agent:       s.deps.Agent,
		Transcriber: s.deps.Transcriber,
		Synthesizer: s.deps.Synthesizer,
		Catalog:     s.deps.Catalog,
		Metrics:     s.deps.Metrics,
		Limiter:     s.limiter,
		Lifecycle:   s.lifecycle,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

// SetDraining stops new live session upgrades and flips readiness.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

// WaitLiveSessions blocks until running interviews end or ctx expires. It
// reports whether every session drained in time.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.lifecycle.WaitSessions(ctx)
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.RateLimit(s.cfg, s.limiter, s.deps.Metrics, h)
	h = mw.Auth(s.cfg, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, s.deps.Metrics, h)
	h = mw.RequestID(h)
	return h
}
