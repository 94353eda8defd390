// Package store persists interview sessions and their transcripts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/prepai-dev/prepai/pkg/codeexec"
)

// ErrNotFound is returned when a session id has no stored record.
var ErrNotFound = errors.New("session not found")

// Message is one transcript entry. Role is "user", "assistant", or "system".
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Set only for code submission entries.
	Code        string                    `json:"code,omitempty"`
	TestResults []codeexec.TestCaseResult `json:"testResults,omitempty"`
}

// Session is the durable record of one interview.
type Session struct {
	ID            string     `json:"session_id"`
	InterviewType string     `json:"interview_type"`
	CandidateName string     `json:"candidate_name"`
	ResumeSummary string     `json:"resume_summary,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Transcript    []Message  `json:"transcript"`

	CodeSubmissions []codeexec.Submission `json:"code_submissions,omitempty"`
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// SaveSession writes the full session record, replacing any previous
	// version.
	SaveSession(ctx context.Context, s *Session) error

	// GetSession returns the session for id, or ErrNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)

	// AppendTranscript appends one message to the session's transcript and
	// bumps UpdatedAt. Returns ErrNotFound if the session does not exist.
	AppendTranscript(ctx context.Context, id string, msg Message) error

	// ListSessions returns every stored session.
	ListSessions(ctx context.Context) ([]*Session, error)

	// SaveRecording stores a WAV capture for the session and returns its
	// storage location.
	SaveRecording(ctx context.Context, sessionID string, wav []byte) (string, error)
}
