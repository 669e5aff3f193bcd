package tts

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// DefaultMaxAttempts is how many times a chunk is synthesized before giving
// up.
const DefaultMaxAttempts = 3

// Writer drives a Synthesizer with retries and writes the audio to disk.
// Rate limit rejections wait (attempt+1)*5s and consume an attempt; other
// failures wait (attempt+1)*2s, and the failure of the final attempt is
// returned to the caller.
type Writer struct {
	synth       Synthesizer
	voice       VoiceConfig
	maxAttempts int

	// wait pauses between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewWriter wraps synth with the retry policy. maxAttempts values below one
// fall back to DefaultMaxAttempts.
func NewWriter(synth Synthesizer, voice VoiceConfig, maxAttempts int) *Writer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Writer{
		synth:       synth,
		voice:       voice,
		maxAttempts: maxAttempts,
		wait:        sleepContext,
	}
}

// SynthesizeToFile converts text to audio and writes it to outputPath. It
// returns nil once the file is written. ErrNoResult is returned without
// retrying when the service produces no audio and no error.
func (w *Writer) SynthesizeToFile(ctx context.Context, text, outputPath string) error {
	var lastErr error

	for attempt := 0; attempt < w.maxAttempts; attempt++ {
		log.Printf("[TTS] Converting text chunk (%d characters)...", utf8.RuneCountInString(text))

		result, err := w.synth.Synthesize(ctx, text, w.voice)
		if err == nil {
			if result == nil || len(result.Audio) == 0 {
				log.Printf("[TTS] No result from speech synthesis")
				return ErrNoResult
			}
			if err = w.writeAudio(outputPath, result.Audio); err == nil {
				return nil
			}
		}

		lastErr = err

		if IsRateLimited(err) {
			waitTime := time.Duration(attempt+1) * 5 * time.Second
			log.Printf("[TTS] Rate limit detected, waiting %v before retry...", waitTime)
			if werr := w.wait(ctx, waitTime); werr != nil {
				return werr
			}
			continue
		}

		log.Printf("[TTS] Attempt %d failed: %v", attempt+1, err)
		if attempt == w.maxAttempts-1 {
			return fmt.Errorf("speech synthesis failed after %d attempts: %w", w.maxAttempts, err)
		}

		waitTime := time.Duration(attempt+1) * 2 * time.Second
		log.Printf("[TTS] Retrying in %v...", waitTime)
		if werr := w.wait(ctx, waitTime); werr != nil {
			return werr
		}
	}

	return fmt.Errorf("speech synthesis failed after %d attempts: %w", w.maxAttempts, lastErr)
}

func (w *Writer) writeAudio(outputPath string, audio []byte) error {
	if err := os.WriteFile(outputPath, audio, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %v", outputPath, err)
	}
	sizeMB := float64(len(audio)) / (1024 * 1024)
	log.Printf("[TTS] Successfully created: %s (%.2f MB)", filepath.Base(outputPath), sizeMB)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
