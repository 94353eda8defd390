package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store for tests and local development.
type Memory struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	recordings map[string][][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions:   make(map[string]*Session),
		recordings: make(map[string][][]byte),
	}
}

func cloneSession(s *Session) *Session {
	c := *s
	c.Transcript = make([]Message, len(s.Transcript))
	copy(c.Transcript, s.Transcript)
	if len(s.CodeSubmissions) > 0 {
		c.CodeSubmissions = append(c.CodeSubmissions[:0:0], s.CodeSubmissions...)
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (m *Memory) SaveSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *Memory) AppendTranscript(_ context.Context, id string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Transcript = append(s.Transcript, msg)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ListSessions(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SaveRecording(_ context.Context, sessionID string, wav []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(wav))
	copy(buf, wav)
	m.recordings[sessionID] = append(m.recordings[sessionID], buf)
	return fmt.Sprintf("memory://recordings/%s/%d", sessionID, len(m.recordings[sessionID])-1), nil
}
