package tts

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// AzureClient synthesizes speech through the Azure Cognitive Services REST
// API.
type AzureClient struct {
	client   *resty.Client
	endpoint string
	key      string
}

// NewAzureClient builds a client for the given subscription key and regional
// endpoint. Both are required; they normally come from SPEECH_KEY and
// SPEECH_ENDPOINT.
func NewAzureClient(key, endpoint string) (*AzureClient, error) {
	if key == "" || endpoint == "" {
		return nil, fmt.Errorf("azure speech requires SPEECH_KEY and SPEECH_ENDPOINT to be set")
	}
	return &AzureClient{
		client:   resty.New(),
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
	}, nil
}

func (c *AzureClient) Name() string { return "azure" }

// Synthesize posts an SSML document and returns the raw audio bytes in the
// requested output format.
func (c *AzureClient) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*Result, error) {
	apiURL := fmt.Sprintf("%s/cognitiveservices/v1", c.endpoint)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/ssml+xml").
		SetHeader("X-Microsoft-OutputFormat", string(voice.OutputFormat)).
		SetHeader("Ocp-Apim-Subscription-Key", c.key).
		SetBody(buildSSML(text, voice.VoiceID)).
		Post(apiURL)
	if err != nil {
		return nil, fmt.Errorf("POST failed: %v", err)
	}
	// 429 must surface as a rate limit error so the retry policy backs off
	// instead of burning attempts.
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded: %s - Body: %s", resp.Status(), resp.String())
	}
	if resp.IsError() {
		return nil, fmt.Errorf("synthesis API error: %s - Body: %s", resp.Status(), resp.String())
	}

	return &Result{Audio: resp.Body()}, nil
}

// ListVoices fetches the voice catalogue from the service, optionally
// filtered to locales starting with localePrefix.
func (c *AzureClient) ListVoices(ctx context.Context, localePrefix string) ([]Voice, error) {
	apiURL := fmt.Sprintf("%s/cognitiveservices/voices/list", c.endpoint)

	var voices []Voice
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.key).
		SetResult(&voices).
		Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("GET failed: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("voices API error: %s - Body: %s", resp.Status(), resp.String())
	}

	if localePrefix == "" {
		return voices, nil
	}
	var filtered []Voice
	for _, v := range voices {
		if strings.HasPrefix(v.Locale, localePrefix) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// buildSSML wraps text in the minimal SSML envelope the service expects.
func buildSSML(text, voiceID string) string {
	lang := langFromVoice(voiceID)
	return fmt.Sprintf("<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>",
		lang, lang, voiceID, ssmlEscaper.Replace(text))
}

// langFromVoice extracts the locale from a voice name such as
// ar-EG-SalmaNeural.
func langFromVoice(voiceID string) string {
	parts := strings.SplitN(voiceID, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "ar-EG"
}
