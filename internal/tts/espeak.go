package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// MinAudioSize rejects espeak output too small to be real audio. espeak can
// exit zero while writing little more than a RIFF header for degenerate
// input.
const MinAudioSize = 1024

// EspeakClient synthesizes speech with a local espeak-ng or espeak binary,
// capturing WAV audio from --stdout. It needs no credentials and works
// offline.
type EspeakClient struct {
	binary string

	// run executes the binary; replaced in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewEspeakClient locates espeak-ng on PATH, falling back to espeak.
func NewEspeakClient() (*EspeakClient, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return &EspeakClient{binary: path, run: runCommand}, nil
		}
	}
	return nil, fmt.Errorf("espeak backend requires espeak-ng or espeak on PATH")
}

func (c *EspeakClient) Name() string { return "espeak" }

func (c *EspeakClient) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Result, error) {
	out, err := c.run(ctx, c.binary, "-v", espeakVoice(voice.VoiceID), "--stdout", text)
	if err != nil {
		return nil, fmt.Errorf("espeak failed: %v", err)
	}
	if len(out) < MinAudioSize {
		return nil, fmt.Errorf("espeak produced %d bytes, below the %d byte minimum", len(out), MinAudioSize)
	}
	return &Result{Audio: out}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// espeakVoice reduces a service voice name such as ar-EG-SalmaNeural to the
// language code espeak expects.
func espeakVoice(voiceID string) string {
	if voiceID == "" {
		return "ar"
	}
	lang, _, _ := strings.Cut(voiceID, "-")
	return strings.ToLower(lang)
}
