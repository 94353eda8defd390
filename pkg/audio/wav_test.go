package audio

import (
	"bytes"
	"testing"
)

func TestEncodeWAV_HeaderAndSize(t *testing.T) {
	samples := []int16{0, 100, -100, 32000}
	data, err := EncodeWAV(samples, 22050)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != WAVHeaderSize+len(samples)*2 {
		t.Fatalf("len=%d, want %d", len(data), WAVHeaderSize+len(samples)*2)
	}
	if !IsWAV(data) {
		t.Fatalf("expected RIFF signature")
	}
	if !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("expected WAVE format tag, got %q", data[8:12])
	}
	if !HasAudio(data) {
		t.Fatalf("expected sample data beyond header")
	}
}

func TestEncodeWAV_RejectsEmptyAndBadRate(t *testing.T) {
	if _, err := EncodeWAV(nil, 22050); err == nil {
		t.Fatalf("expected error for empty samples")
	}
	if _, err := EncodeWAV([]int16{1}, 0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestHasAudio_HeaderOnlyIsSilent(t *testing.T) {
	if HasAudio(make([]byte, WAVHeaderSize)) {
		t.Fatalf("header-only buffer should not count as audio")
	}
	if HasAudio(nil) {
		t.Fatalf("nil should not count as audio")
	}
}

func TestIsWAV(t *testing.T) {
	if IsWAV([]byte{0x1a, 0x45, 0xdf, 0xa3}) {
		t.Fatalf("webm signature should not be WAV")
	}
	if !IsWAV([]byte("RIFFxxxx")) {
		t.Fatalf("RIFF prefix should be WAV")
	}
}
