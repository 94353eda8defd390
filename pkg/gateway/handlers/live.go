package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prepai-dev/prepai/pkg/agent"
	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/gateway/lifecycle"
	"github.com/prepai-dev/prepai/pkg/gateway/live/session"
	"github.com/prepai-dev/prepai/pkg/gateway/metrics"
	"github.com/prepai-dev/prepai/pkg/gateway/mw"
	"github.com/prepai-dev/prepai/pkg/gateway/principal"
	"github.com/prepai-dev/prepai/pkg/gateway/ratelimit"
	"github.com/prepai-dev/prepai/pkg/interview"
	"github.com/prepai-dev/prepai/pkg/store"
	"github.com/prepai-dev/prepai/pkg/voice/stt"
	"github.com/prepai-dev/prepai/pkg/voice/tts"
)

// LiveHandler upgrades /ws/interview/{session_id} to a websocket and runs
// the live interview session on it.
type LiveHandler struct {
	Config      config.Config
	Logger      *slog.Logger
	Store       store.Store
	Agent       agent.Agent
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Catalog     interview.Catalog
	Metrics     *metrics.Metrics
	Limiter     *ratelimit.Limiter
	Lifecycle   *lifecycle.Lifecycle
}

func (h LiveHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if strings.TrimSpace(sessionID) == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}
	if !h.originAllowed(r) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return
	}
	if h.Lifecycle.IsDraining() {
		http.Error(w, "gateway is draining", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		// Origin was checked above against the configured allowlist.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	reqID, _ := mw.RequestIDFrom(r.Context())

	caller := principal.Resolve(r, h.Config)
	if h.Limiter != nil {
		dec := h.Limiter.AcquireSession(caller.Key, time.Now())
		if !dec.Allowed {
			h.Metrics.RateLimitHit("session")
			h.closeWithError(conn, websocket.ClosePolicyViolation, "too many active interview sessions")
			return
		}
		defer dec.Permit.Release()
	}

	s, err := session.New(session.Dependencies{
		Conn:        conn,
		Logger:      h.Logger,
		Store:       h.Store,
		Agent:       h.Agent,
		Transcriber: h.Transcriber,
		Synthesizer: h.Synthesizer,
		Catalog:     h.Catalog,
		Metrics:     h.Metrics,
		SessionID:   sessionID,
		RequestID:   reqID,
		Config: session.Config{
			MaxJSONMessageBytes:        h.Config.LiveMaxJSONMessageBytes,
			LiveMaxAudioFPS:            h.Config.LiveMaxAudioFPS,
			LiveMaxAudioBytesPerSecond: h.Config.LiveMaxAudioBytesPerSecond,
			LiveInboundBurstSeconds:    h.Config.LiveInboundBurstSeconds,
			PingInterval:               h.Config.LiveWSPingInterval,
			WriteTimeout:               h.Config.LiveWSWriteTimeout,
			ReadTimeout:                h.Config.LiveWSReadTimeout,
			MaxSessionDuration:         h.Config.LiveMaxSessionDuration,
			TurnTimeout:                h.Config.LiveTurnTimeout,
			OutboundQueueSize:          128,
		},
	})
	if err != nil {
		h.logger().Error("failed to initialize live session", "session_id", sessionID, "request_id", reqID, "error", err)
		h.closeWithError(conn, websocket.CloseInternalServerErr, "failed to initialize session")
		return
	}

	h.Lifecycle.SessionStarted()
	defer h.Lifecycle.SessionEnded()

	if err := s.Run(); err != nil {
		h.logger().Warn("live session ended with error", "session_id", sessionID, "request_id", reqID, "error", err)
	}
}

func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func (h LiveHandler) closeWithError(conn *websocket.Conn, code int, message string) {
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, message), deadline)
}
