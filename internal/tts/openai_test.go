package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAISynthesize(t *testing.T) {
	var gotReq struct {
		Model          string `json:"model"`
		Input          string `json:"input"`
		Voice          string `json:"voice"`
		ResponseFormat string `json:"response_format"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path = %q, want /v1/audio/speech", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-audio"))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("test-key", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("NewOpenAIClient() = %v, want nil", err)
	}

	result, err := client.Synthesize(context.Background(), "مرحبا.", VoiceConfig{
		VoiceID:      DefaultOpenAIVoice,
		OutputFormat: FormatMP3,
	})
	if err != nil {
		t.Fatalf("Synthesize() = %v, want nil", err)
	}

	if string(result.Audio) != "mp3-audio" {
		t.Errorf("audio = %q, want %q", result.Audio, "mp3-audio")
	}
	if gotReq.Model != "tts-1" {
		t.Errorf("model = %q, want tts-1", gotReq.Model)
	}
	if gotReq.Input != "مرحبا." {
		t.Errorf("input = %q, want the chunk text", gotReq.Input)
	}
	if gotReq.Voice != "alloy" {
		t.Errorf("voice = %q, want alloy", gotReq.Voice)
	}
	if gotReq.ResponseFormat != "mp3" {
		t.Errorf("response format = %q, want mp3", gotReq.ResponseFormat)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", ""); err == nil {
		t.Error("NewOpenAIClient with empty key = nil, want error")
	}
}
