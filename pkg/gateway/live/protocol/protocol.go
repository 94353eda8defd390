// Package protocol defines the live interview wire format. Client control
// frames are JSON text messages; captured audio arrives as binary frames.
// Server frames are JSON except synthesized speech, which is sent as raw
// WAV binary frames.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prepai-dev/prepai/pkg/codeexec"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// Client control frame types.
const (
	TypeInterviewReady = "interview_ready"
	TypeSpeechStart    = "speech_start"
	TypeSpeechEnd      = "speech_end"
	TypeCodeSubmission = "code_submission"
)

// ClientInterviewReady signals the client is ready for the interviewer's
// introduction.
type ClientInterviewReady struct {
	Type string `json:"type"`
}

// ClientSpeechStart opens an utterance capture window.
type ClientSpeechStart struct {
	Type string `json:"type"`
}

// ClientSpeechEnd closes the capture window and requests a turn.
type ClientSpeechEnd struct {
	Type string `json:"type"`
}

// ClientCodeSubmission reports the outcome of running the candidate's code
// in the client-side editor flow.
type ClientCodeSubmission struct {
	Type           string                    `json:"type"`
	Code           string                    `json:"code"`
	Language       string                    `json:"language"`
	AllTestsPassed bool                      `json:"allTestsPassed"`
	TestResults    []codeexec.TestCaseResult `json:"testResults"`
	Error          string                    `json:"error,omitempty"`
}

// DecodeClientMessage parses one inbound text frame. Unknown types decode
// to an error so the session can log and ignore them.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case TypeInterviewReady:
		return ClientInterviewReady{Type: typ}, nil
	case TypeSpeechStart:
		return ClientSpeechStart{Type: typ}, nil
	case TypeSpeechEnd:
		return ClientSpeechEnd{Type: typ}, nil
	case TypeCodeSubmission:
		var msg ClientCodeSubmission
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid code_submission", "")
		}
		if strings.TrimSpace(msg.Language) == "" {
			msg.Language = "unknown"
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ServerTranscript carries the finalized candidate transcript for a turn.
type ServerTranscript struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Role    string `json:"role"`
	IsFinal bool   `json:"is_final"`
}

// ServerLLMChunk is one streamed fragment of interviewer text.
type ServerLLMChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ServerAssistantComplete closes a turn with the validated full response.
type ServerAssistantComplete struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Role string `json:"role"`
}

// ServerCodingQuestion tells the client to open its code editor.
type ServerCodingQuestion struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Language    string   `json:"language"`
	TestCases   []string `json:"testCases"`
	InitialCode string   `json:"initialCode"`
}

// ServerErrorFrame reports a recoverable failure to the client.
type ServerErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewTranscript(text string) ServerTranscript {
	return ServerTranscript{Type: "transcript", Text: text, Role: "user", IsFinal: true}
}

func NewLLMChunk(text string) ServerLLMChunk {
	return ServerLLMChunk{Type: "llm_chunk", Text: text}
}

func NewAssistantComplete(text string) ServerAssistantComplete {
	return ServerAssistantComplete{Type: "assistant_complete", Text: text, Role: "assistant"}
}

func NewCodingQuestion(question, language string, testCases []string, initialCode string) ServerCodingQuestion {
	if testCases == nil {
		testCases = []string{}
	}
	return ServerCodingQuestion{
		Type:        "coding_question",
		Question:    question,
		Language:    language,
		TestCases:   testCases,
		InitialCode: initialCode,
	}
}

func NewError(message string) ServerErrorFrame {
	return ServerErrorFrame{Type: "error", Message: message}
}
