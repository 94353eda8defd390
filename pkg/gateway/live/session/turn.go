package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepai-dev/prepai/pkg/agent"
	"github.com/prepai-dev/prepai/pkg/audio"
	"github.com/prepai-dev/prepai/pkg/gateway/live/protocol"
	"github.com/prepai-dev/prepai/pkg/interview"
	"github.com/prepai-dev/prepai/pkg/store"
)

// runIntroduction opens the interview with a fixed greeting. The greeting is
// not generated by the agent so the first exchange is fast and predictable.
func (s *LiveSession) runIntroduction(ctx context.Context) {
	candidateName := "candidate"
	interviewType := "Technical Interview"
	if sess, err := s.store.GetSession(ctx, s.sessionID); err == nil {
		if sess.CandidateName != "" {
			candidateName = sess.CandidateName
		}
		if sess.InterviewType != "" {
			interviewType = sess.InterviewType
		}
	} else {
		s.logger.Warn("could not load session for introduction", slog.String("error", err.Error()))
	}

	greeting := interview.Greeting(candidateName, interviewType)
	s.sendJSON(protocol.NewLLMChunk(greeting))
	s.speak(ctx, greeting)
	s.sendJSON(protocol.NewAssistantComplete(greeting))
	s.persistAsync(store.Message{Role: "assistant", Content: greeting, Timestamp: s.now().UTC()})
}

// runVoiceTurn is the full speech-to-speech pipeline for one utterance.
func (s *LiveSession) runVoiceTurn(ctx context.Context, audioData []byte) {
	transcript, err := s.transcriber.Transcribe(ctx, audioData)
	if err != nil {
		s.logger.Warn("transcription failed", slog.String("error", err.Error()))
		return
	}
	if transcript == "" {
		// Nothing intelligible in the clip. The turn ends without any
		// frames so the client UI stays untouched.
		return
	}
	s.logger.Info("transcript", slog.String("text", transcript))
	s.sendJSON(protocol.NewTranscript(transcript))

	// Snapshot before the async persist below so the turn count never
	// includes the utterance being processed.
	sess, err := s.store.GetSession(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("could not load session for turn context", slog.String("error", err.Error()))
		sess = &store.Session{ID: s.sessionID}
	}
	s.persistAsync(store.Message{Role: "user", Content: transcript, Timestamp: s.now().UTC()})
	cfg := s.catalog.Lookup(sess.InterviewType)
	candidateName := sess.CandidateName
	if candidateName == "" {
		candidateName = "candidate"
	}
	turns := countUserTurns(sess.Transcript)
	phase := interview.PhaseForTurn(cfg.PhaseList(), turns)

	input := interview.TurnInput(cfg, candidateName, phase, transcript)
	attrs := interview.SessionAttributes(sess.InterviewType, candidateName, sess.ResumeSummary, phase, turns)

	response, streamErr := s.streamResponse(ctx, input, attrs)
	if streamErr != nil {
		s.logger.Error("agent invocation failed", slog.String("error", streamErr.Error()))
		s.sendJSON(protocol.NewError(fmt.Sprintf("AI processing error: %v", streamErr)))
		response = apologyText
	}

	validated := interview.ValidateAndTruncate(response)
	if validated != response {
		s.logger.Info("response truncated to conversational length")
	}
	s.sendJSON(protocol.NewAssistantComplete(validated))

	if interview.IsCodingQuestion(validated) {
		s.logger.Info("coding question detected")
		q := interview.NewCodingQuestion(validated)
		s.sendJSON(protocol.NewCodingQuestion(q.Question, q.Language, q.TestCases, q.InitialCode))
	}

	if err := s.store.AppendTranscript(ctx, s.sessionID, store.Message{
		Role: "assistant", Content: validated, Timestamp: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to persist assistant message", slog.String("error", err.Error()))
	}
}

// runCodeFeedback asks the agent to react to a code submission the way an
// interviewer would, without revealing a full solution.
func (s *LiveSession) runCodeFeedback(ctx context.Context, m protocol.ClientCodeSubmission) {
	sess, err := s.store.GetSession(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("could not load session for code feedback", slog.String("error", err.Error()))
		sess = &store.Session{ID: s.sessionID}
	}
	candidateName := sess.CandidateName
	if candidateName == "" {
		candidateName = "candidate"
	}

	_, failed := splitResults(m.TestResults)
	input := interview.CodeFeedbackInput(candidateName, m.Language, len(m.TestResults), failed, m.Error)

	response, streamErr := s.streamResponse(ctx, input, nil)
	if streamErr != nil {
		s.logger.Error("code feedback failed", slog.String("error", streamErr.Error()))
		s.sendJSON(protocol.NewError(fmt.Sprintf("Failed to generate feedback: %v", streamErr)))
		return
	}

	validated := interview.ValidateAndTruncate(response)
	s.sendJSON(protocol.NewAssistantComplete(validated))

	if err := s.store.AppendTranscript(ctx, s.sessionID, store.Message{
		Role: "assistant", Content: validated, Timestamp: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to persist assistant message", slog.String("error", err.Error()))
	}
}

// streamResponse invokes the agent and voices the reply sentence by
// sentence as chunks arrive, so playback starts before the model finishes.
func (s *LiveSession) streamResponse(ctx context.Context, input string, attrs map[string]string) (string, error) {
	var buffer string
	full, err := s.agent.Stream(ctx, agent.Request{
		SessionID:         s.sessionID,
		InputText:         input,
		SessionAttributes: attrs,
	}, func(text string) error {
		s.sendJSON(protocol.NewLLMChunk(text))
		buffer += text
		complete, rest := interview.SentenceSegments(buffer)
		for _, sentence := range complete {
			s.speak(ctx, sentence)
		}
		buffer = rest
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(buffer) != "" {
		s.speak(ctx, buffer)
	}
	return full, nil
}

// speak synthesizes one sentence and ships it as a binary frame. Synthesis
// failures degrade the turn to text only.
func (s *LiveSession) speak(ctx context.Context, sentence string) {
	cleaned := interview.Clean(strings.TrimSpace(sentence))
	if cleaned == "" {
		return
	}
	wav, err := s.synthesizer.Synthesize(ctx, cleaned)
	if err != nil {
		s.logger.Warn("speech synthesis failed", slog.String("error", err.Error()))
		return
	}
	if !audio.HasAudio(wav) {
		return
	}
	s.metrics.AudioSent(len(wav))
	s.sendBinary(wav)
}

func (s *LiveSession) persistAsync(msg store.Message) {
	go func() {
		if err := s.store.AppendTranscript(s.ctx, s.sessionID, msg); err != nil {
			s.logger.Warn("failed to persist transcript message",
				slog.String("role", msg.Role), slog.String("error", err.Error()))
		}
	}()
}

func countUserTurns(transcript []store.Message) int {
	n := 0
	for _, m := range transcript {
		if m.Role == "user" {
			n++
		}
	}
	return n
}
