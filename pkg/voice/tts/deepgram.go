package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultSpeakURL = "https://api.deepgram.com/v1/speak"

// Deepgram synthesizes speech with the Aura speak API, requesting WAV
// output directly so clips can be streamed to the client as-is.
type Deepgram struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	voice      string
	sampleRate int
}

// DeepgramOption adjusts a Deepgram synthesizer.
type DeepgramOption func(*Deepgram)

// WithSpeakURL overrides the API endpoint, for tests.
func WithSpeakURL(u string) DeepgramOption {
	return func(d *Deepgram) { d.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DeepgramOption {
	return func(d *Deepgram) { d.httpClient = c }
}

// WithVoice selects the Aura voice model.
func WithVoice(voice string) DeepgramOption {
	return func(d *Deepgram) { d.voice = voice }
}

// NewDeepgram returns a synthesizer using the given API key.
func NewDeepgram(apiKey string, opts ...DeepgramOption) *Deepgram {
	d := &Deepgram{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultSpeakURL,
		voice:      "aura-orion-en",
		sampleRate: 16000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Deepgram) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("speak url: %w", err)
	}
	q := u.Query()
	q.Set("model", d.voice)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(d.sampleRate))
	q.Set("container", "wav")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encode speak request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build speak request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speak request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speak request: status %d: %s", resp.StatusCode, msg)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speak response: %w", err)
	}
	return wav, nil
}
