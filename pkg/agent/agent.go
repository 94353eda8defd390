// Package agent invokes the conversational interviewer model.
package agent

import "context"

// Request is one agent invocation. SessionAttributes carry interview state
// the agent keeps across turns.
type Request struct {
	SessionID         string
	InputText         string
	SessionAttributes map[string]string
}

// Agent streams a reply to one candidate input.
type Agent interface {
	// Stream invokes the agent and calls onChunk once per text fragment, in
	// stream order, before returning. It returns the concatenated full
	// response. A non-nil error from onChunk aborts the stream.
	Stream(ctx context.Context, req Request, onChunk func(text string) error) (string, error)
}
