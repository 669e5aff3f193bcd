package tts

import (
	"context"
	"errors"
	"strings"
)

// Synthesizer turns a chunk of text into audio. Implementations wrap one
// synthesis service each; retries and file handling live in Writer.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Result, error)
}

// Result is the audio produced for one chunk of text.
type Result struct {
	Audio []byte
}

// VoiceConfig selects the voice and output encoding. It is fixed for the
// lifetime of a conversion run.
type VoiceConfig struct {
	VoiceID      string
	OutputFormat OutputFormat
}

// OutputFormat names an output encoding using the speech service format
// identifiers.
type OutputFormat string

const (
	// FormatMP3 is 48 kHz 192 kbit/s mono MP3.
	FormatMP3 OutputFormat = "audio-48khz-192kbitrate-mono-mp3"
	// FormatWAV is 24 kHz 16-bit mono PCM in a RIFF container.
	FormatWAV OutputFormat = "riff-24khz-16bit-mono-pcm"
)

// Ext returns the file extension for audio in this format.
func (f OutputFormat) Ext() string {
	if strings.HasPrefix(string(f), "riff-") {
		return "wav"
	}
	return "mp3"
}

// ErrNoResult reports that the synthesis service returned neither audio nor
// an error. Retrying cannot help, so Writer gives up immediately.
var ErrNoResult = errors.New("no result from speech synthesis")

// IsRateLimited reports whether err looks like a quota or rate limit
// rejection. Services word these errors differently, so this is a substring
// check over the error text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate")
}

// Voice describes a synthesis voice as reported by the speech service.
type Voice struct {
	Name      string `json:"Name"`
	ShortName string `json:"ShortName"`
	Gender    string `json:"Gender"`
	Locale    string `json:"Locale"`
	LocalName string `json:"LocalName"`
}

// DefaultVoice is the voice used when none is chosen.
const DefaultVoice = "ar-EG-SalmaNeural"

// KnownVoices are the Egyptian Arabic neural voices the converter is tuned
// for. The live service catalogue is much longer; these are the names the
// CLI validates against.
var KnownVoices = []Voice{
	{ShortName: "ar-EG-SalmaNeural", Gender: "Female", Locale: "ar-EG"},
	{ShortName: "ar-EG-ShakirNeural", Gender: "Male", Locale: "ar-EG"},
}

// IsKnownVoice reports whether name is one of KnownVoices.
func IsKnownVoice(name string) bool {
	for _, v := range KnownVoices {
		if v.ShortName == name {
			return true
		}
	}
	return false
}

// KnownVoiceNames returns the short names of KnownVoices.
func KnownVoiceNames() []string {
	names := make([]string, 0, len(KnownVoices))
	for _, v := range KnownVoices {
		names = append(names, v.ShortName)
	}
	return names
}
