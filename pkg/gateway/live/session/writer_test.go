package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recordedWrite struct {
	messageType int
	data        string
}

type fakeWSWriter struct {
	mu     sync.Mutex
	writes []recordedWrite
}

func (f *fakeWSWriter) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeWSWriter) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, recordedWrite{messageType: messageType, data: string(data)})
	return nil
}

func (f *fakeWSWriter) WriteControl(messageType int, data []byte, deadline time.Time) error {
	_ = deadline
	return f.WriteMessage(messageType, data)
}

func (f *fakeWSWriter) Close() error { return nil }

func (f *fakeWSWriter) snapshot() []recordedWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

func TestOutboundWriter_PriorityBeatsNormal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	priority := make(chan outboundFrame, 1)
	normal := make(chan outboundFrame, 1)

	normal <- outboundFrame{textPayload: []byte(`{"type":"llm_chunk","text":"Tell me"}`)}
	priority <- outboundFrame{textPayload: []byte(`{"type":"error","message":"session closing"}`)}
	close(priority)
	close(normal)

	ws := &fakeWSWriter{}
	w := outboundWriter{
		ws:       ws,
		ctx:      ctx,
		cfg:      Config{PingInterval: time.Hour, WriteTimeout: time.Second},
		priority: priority,
		normal:   normal,
	}

	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	writes := ws.snapshot()
	if len(writes) == 0 {
		t.Fatalf("expected at least one write")
	}
	if !strings.Contains(writes[0].data, `"type":"error"`) {
		t.Fatalf("first write was not the priority frame: %q", writes[0].data)
	}
}

func TestOutboundWriter_NormalFramesKeepOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	priority := make(chan outboundFrame)
	normal := make(chan outboundFrame, 8)

	normal <- outboundFrame{textPayload: []byte(`{"type":"transcript","text":"hi","role":"user","is_final":true}`)}
	normal <- outboundFrame{textPayload: []byte(`{"type":"llm_chunk","text":"Hello"}`)}
	normal <- outboundFrame{binaryPayload: []byte{0x52, 0x49, 0x46, 0x46}}
	normal <- outboundFrame{textPayload: []byte(`{"type":"assistant_complete","text":"Hello","role":"assistant"}`)}
	close(priority)
	close(normal)

	ws := &fakeWSWriter{}
	w := outboundWriter{
		ws:       ws,
		ctx:      ctx,
		cfg:      Config{PingInterval: time.Hour, WriteTimeout: time.Second},
		priority: priority,
		normal:   normal,
	}

	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	writes := ws.snapshot()
	if len(writes) != 4 {
		t.Fatalf("expected 4 writes, got %d: %+v", len(writes), writes)
	}
	if !strings.Contains(writes[0].data, `"type":"transcript"`) {
		t.Fatalf("transcript must come first: %q", writes[0].data)
	}
	if writes[2].messageType != websocket.BinaryMessage {
		t.Fatalf("third write type=%d, want BinaryMessage", writes[2].messageType)
	}
	if !strings.Contains(writes[3].data, `"type":"assistant_complete"`) {
		t.Fatalf("assistant_complete must come last: %q", writes[3].data)
	}
}

func TestOutboundWriter_FlushesPriorityOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	priority := make(chan outboundFrame, 1)
	normal := make(chan outboundFrame, 1)

	priority <- outboundFrame{textPayload: []byte(`{"type":"error","message":"shutting down"}`)}
	close(priority)
	close(normal)

	ws := &fakeWSWriter{}
	w := outboundWriter{
		ws:       ws,
		ctx:      ctx,
		cfg:      Config{PingInterval: time.Hour, WriteTimeout: time.Second},
		priority: priority,
		normal:   normal,
	}

	cancel()
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	writes := ws.snapshot()
	if len(writes) == 0 || !strings.Contains(writes[0].data, `"type":"error"`) {
		t.Fatalf("expected priority error to flush on shutdown, writes=%+v", writes)
	}
}
