package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest/interfaces"

	"github.com/prepai-dev/prepai/pkg/audio"
)

const defaultListenURL = "https://api.deepgram.com/v1/listen"

// Deepgram transcribes buffered utterances with the pre-recorded listen API.
type Deepgram struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// DeepgramOption adjusts a Deepgram transcriber.
type DeepgramOption func(*Deepgram)

// WithListenURL overrides the API endpoint, for tests.
func WithListenURL(u string) DeepgramOption {
	return func(d *Deepgram) { d.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DeepgramOption {
	return func(d *Deepgram) { d.httpClient = c }
}

// WithModel selects the transcription model.
func WithModel(model string) DeepgramOption {
	return func(d *Deepgram) { d.model = model }
}

// NewDeepgram returns a transcriber using the given API key.
func NewDeepgram(apiKey string, opts ...DeepgramOption) *Deepgram {
	d := &Deepgram{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultListenURL,
		model:      "nova-2",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Transcribe sends the utterance for transcription and returns the first
// alternative of the first channel. The container is sniffed from the bytes:
// RIFF means WAV, anything else is treated as webm.
func (d *Deepgram) Transcribe(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return "", fmt.Errorf("listen url: %w", err)
	}
	q := u.Query()
	q.Set("model", d.model)
	q.Set("smart_format", "true")
	q.Set("language", "en-US")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	if audio.IsWAV(data) {
		req.Header.Set("Content-Type", "audio/wav")
	} else {
		req.Header.Set("Content-Type", "audio/webm")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcribe request: status %d: %s", resp.StatusCode, body)
	}

	var parsed api.PreRecordedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	if parsed.Results == nil || len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript), nil
}
