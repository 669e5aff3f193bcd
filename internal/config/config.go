package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries credentials and endpoints for the speech backends. Values
// come from the environment, with a .env file loaded first when one exists.
type Config struct {
	SpeechKey      string // Azure Speech resource key
	SpeechEndpoint string // e.g. https://westeurope.tts.speech.microsoft.com
	OpenAIKey      string
	OpenAIBaseURL  string // optional override for OpenAI-compatible servers
}

// Load reads the configuration from the environment. A missing .env file is
// not an error, and variables already exported take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SpeechKey:      os.Getenv("SPEECH_KEY"),
		SpeechEndpoint: firstEnv("SPEECH_ENDPOINT", "ENDPOINT"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
	}
}

// firstEnv returns the first non-empty variable, letting older setups that
// exported ENDPOINT keep working.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
