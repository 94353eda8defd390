// Package session runs one live voice interview over a websocket.
//
// A session owns the socket for its lifetime. A dedicated read goroutine
// feeds inbound frames to the main loop, a writer goroutine owns all
// outbound writes, and at most one turn pipeline runs at a time. A turn that
// arrives while another is in flight is dropped, not queued.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prepai-dev/prepai/pkg/agent"
	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/gateway/live/protocol"
	"github.com/prepai-dev/prepai/pkg/gateway/metrics"
	"github.com/prepai-dev/prepai/pkg/interview"
	"github.com/prepai-dev/prepai/pkg/store"
	"github.com/prepai-dev/prepai/pkg/voice/stt"
	"github.com/prepai-dev/prepai/pkg/voice/tts"
)

const (
	// Binary frames below this size are treated as capture noise.
	noiseFloorBytes = 1000

	apologyText = "I apologize, but I encountered an error processing your response."
)

type Config struct {
	MaxJSONMessageBytes        int64
	LiveMaxAudioFPS            int
	LiveMaxAudioBytesPerSecond int64
	LiveInboundBurstSeconds    int
	PingInterval               time.Duration
	WriteTimeout               time.Duration
	ReadTimeout                time.Duration
	MaxSessionDuration         time.Duration
	TurnTimeout                time.Duration
	OutboundQueueSize          int
}

type Dependencies struct {
	Conn        *websocket.Conn
	Logger      *slog.Logger
	Store       store.Store
	Agent       agent.Agent
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Catalog     interview.Catalog
	Metrics     *metrics.Metrics
	SessionID   string
	RequestID   string
	Config      Config
	Now         func() time.Time
}

type LiveSession struct {
	conn        *websocket.Conn
	logger      *slog.Logger
	store       store.Store
	agent       agent.Agent
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer
	catalog     interview.Catalog
	metrics     *metrics.Metrics
	sessionID   string
	requestID   string
	cfg         Config
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	outboundPriority chan outboundFrame
	outboundNormal   chan outboundFrame

	// processing is the turn mutex. Set with CompareAndSwap at pipeline
	// entry so concurrent triggers are dropped instead of queued.
	processing atomic.Bool
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

func New(deps Dependencies) (*LiveSession, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if deps.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if deps.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if deps.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = interview.DefaultCatalog()
	}
	if deps.Config.OutboundQueueSize <= 0 {
		deps.Config.OutboundQueueSize = 128
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &LiveSession{
		conn:             deps.Conn,
		logger:           deps.Logger.With(slog.String("session_id", deps.SessionID)),
		store:            deps.Store,
		agent:            deps.Agent,
		transcriber:      deps.Transcriber,
		synthesizer:      deps.Synthesizer,
		catalog:          deps.Catalog,
		metrics:          deps.Metrics,
		sessionID:        deps.SessionID,
		requestID:        deps.RequestID,
		cfg:              deps.Config,
		now:              deps.Now,
		ctx:              ctx,
		cancel:           cancel,
		outboundPriority: make(chan outboundFrame, 8),
		outboundNormal:   make(chan outboundFrame, deps.Config.OutboundQueueSize),
	}, nil
}

func (s *LiveSession) Run() error {
	defer s.cancel()

	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()

	if s.cfg.MaxJSONMessageBytes > 0 {
		s.conn.SetReadLimit(s.cfg.MaxJSONMessageBytes)
	}
	if s.cfg.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		})
	}

	readCh := make(chan inboundFrame, 64)
	writerErrCh := make(chan error, 1)
	go s.readLoop(readCh)
	go func() {
		w := outboundWriter{
			ws:       s.conn,
			ctx:      s.ctx,
			cfg:      s.cfg,
			priority: s.outboundPriority,
			normal:   s.outboundNormal,
		}
		writerErrCh <- w.Run()
		close(writerErrCh)
	}()

	limiter := newInboundAudioLimiter(s.now, s.cfg.LiveMaxAudioFPS, s.cfg.LiveMaxAudioBytesPerSecond, s.cfg.LiveInboundBurstSeconds)

	var sessionDeadline <-chan time.Time
	if s.cfg.MaxSessionDuration > 0 {
		timer := time.NewTimer(s.cfg.MaxSessionDuration)
		defer timer.Stop()
		sessionDeadline = timer.C
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	var (
		interviewStarted bool
		streamingActive  bool
		capturedChunks   [][]byte
		capturedBytes    int
	)

	for {
		select {
		case err := <-writerErrCh:
			s.cancel()
			return err

		case <-sessionDeadline:
			s.logger.Info("session duration limit reached")
			s.sendPriorityJSON(protocol.NewError("session time limit reached"))
			s.cancel()
			return nil

		case frame, ok := <-readCh:
			if !ok {
				s.cancel()
				return nil
			}
			if frame.err != nil {
				s.cancel()
				if websocket.IsCloseError(frame.err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					s.logger.Info("client disconnected")
					return nil
				}
				s.logger.Warn("websocket read failed", slog.String("error", frame.err.Error()))
				return frame.err
			}

			switch frame.messageType {
			case websocket.TextMessage:
				msg, err := protocol.DecodeClientMessage(frame.data)
				if err != nil {
					s.logger.Warn("ignoring malformed control frame", slog.String("error", err.Error()))
					continue
				}
				switch m := msg.(type) {
				case protocol.ClientInterviewReady:
					if interviewStarted {
						continue
					}
					interviewStarted = true
					s.logger.Info("client ready, sending introduction")
					s.startTurn(&wg, "introduction", s.runIntroduction)

				case protocol.ClientSpeechStart:
					streamingActive = true
					capturedChunks = nil
					capturedBytes = 0

				case protocol.ClientSpeechEnd:
					streamingActive = false
					if len(capturedChunks) == 0 {
						continue
					}
					combined := make([]byte, 0, capturedBytes)
					for _, chunk := range capturedChunks {
						combined = append(combined, chunk...)
					}
					capturedChunks = nil
					capturedBytes = 0
					s.startTurn(&wg, "voice", func(ctx context.Context) {
						s.runVoiceTurn(ctx, combined)
					})

				case protocol.ClientCodeSubmission:
					s.logSubmission(&wg, m)
					s.startTurn(&wg, "code_feedback", func(ctx context.Context) {
						s.runCodeFeedback(ctx, m)
					})
				}

			case websocket.BinaryMessage:
				if len(frame.data) < noiseFloorBytes {
					continue
				}
				if !limiter.Allow(len(frame.data)) {
					s.logger.Warn("inbound audio over rate limit, frame dropped",
						slog.Int("bytes", len(frame.data)))
					continue
				}
				s.metrics.AudioReceived(len(frame.data))
				if streamingActive {
					capturedChunks = append(capturedChunks, frame.data)
					capturedBytes += len(frame.data)
				} else {
					// No open capture window: treat the frame as one
					// complete utterance.
					data := frame.data
					s.startTurn(&wg, "voice", func(ctx context.Context) {
						s.runVoiceTurn(ctx, data)
					})
				}
			}
		}
	}
}

// startTurn runs fn on its own goroutine if no turn is in flight. The
// trigger is dropped otherwise.
func (s *LiveSession) startTurn(wg *sync.WaitGroup, kind string, fn func(ctx context.Context)) {
	if !s.processing.CompareAndSwap(false, true) {
		s.logger.Debug("turn dropped, pipeline busy", slog.String("kind", kind))
		s.metrics.TurnDropped(kind)
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.processing.Store(false)

		start := s.now()
		ctx := s.ctx
		if s.cfg.TurnTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(s.ctx, s.cfg.TurnTimeout)
			defer cancel()
		}
		fn(ctx)
		s.metrics.TurnCompleted(kind, s.now().Sub(start))
	}()
}

// logSubmission records a code submission in the transcript regardless of
// whether a feedback turn can start.
func (s *LiveSession) logSubmission(wg *sync.WaitGroup, m protocol.ClientCodeSubmission) {
	passed, failed := splitResults(m.TestResults)
	status := "failed some tests"
	if m.AllTestsPassed {
		status = "passed all tests"
	}
	summary := fmt.Sprintf("Candidate submitted %s code that %s. Tests: %d passed, %d failed.",
		m.Language, status, passed, failed)
	s.logger.Info("code submission received", slog.String("summary", summary))

	msg := store.Message{
		Role:        "system",
		Content:     summary,
		Timestamp:   s.now().UTC(),
		Code:        m.Code,
		TestResults: m.TestResults,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.store.AppendTranscript(s.ctx, s.sessionID, msg); err != nil {
			s.logger.Warn("failed to persist code submission", slog.String("error", err.Error()))
		}
	}()
}

func (s *LiveSession) readLoop(ch chan<- inboundFrame) {
	defer close(ch)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case ch <- inboundFrame{err: err}:
			case <-s.ctx.Done():
			}
			return
		}
		if s.cfg.ReadTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		select {
		case ch <- inboundFrame{messageType: messageType, data: data}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *LiveSession) sendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode outbound frame", slog.String("error", err.Error()))
		return
	}
	s.enqueue(outboundFrame{textPayload: payload})
}

func (s *LiveSession) sendBinary(data []byte) {
	s.enqueue(outboundFrame{binaryPayload: data})
}

func (s *LiveSession) sendPriorityJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.outboundPriority <- outboundFrame{textPayload: payload}:
	case <-s.ctx.Done():
	}
}

func (s *LiveSession) enqueue(frame outboundFrame) {
	select {
	case s.outboundNormal <- frame:
	case <-s.ctx.Done():
	}
}

func splitResults(results []codeexec.TestCaseResult) (passed, failed int) {
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
