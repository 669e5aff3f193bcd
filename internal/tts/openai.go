package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIVoice is used when no voice is chosen for the openai backend.
var DefaultOpenAIVoice = string(openai.VoiceAlloy)

// OpenAIClient synthesizes speech through an OpenAI-compatible audio API.
type OpenAIClient struct {
	api *openai.Client
}

// NewOpenAIClient builds a client for the given key. baseURL overrides the
// default API host, which lets the backend talk to any compatible service.
func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend requires OPENAI_API_KEY to be set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg)}, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Result, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice.VoiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %v", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio stream: %v", err)
	}
	return &Result{Audio: audio}, nil
}
