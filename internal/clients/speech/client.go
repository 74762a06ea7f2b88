// Package speech synthesizes narration audio through the Azure Cognitive
// Services text-to-speech REST endpoint.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"assessment-service/internal/apperr"
)

// Synthesizer converts plain text to encoded audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceName, rate, pitch string) ([]byte, error)
}

// VoiceProfile bundles a voice name with its prosody adjustments.
type VoiceProfile struct {
	Name  string
	Rate  string
	Pitch string
}

// MultilingualVoices maps a language code to the neural voice used when
// narrating content translated into that language. English falls back to the
// configured default profiles.
var MultilingualVoices = map[string]string{
	"en": "en-US-JennyMultilingualNeural",
	"vi": "vi-VN-HoaiMyNeural",
	"es": "es-ES-ElviraNeural",
	"fr": "fr-FR-DeniseNeural",
	"de": "de-DE-KatjaNeural",
	"ja": "ja-JP-NanamiNeural",
	"ko": "ko-KR-SunHiNeural",
	"zh": "zh-CN-XiaoxiaoNeural",
	"pt": "pt-BR-FranciscaNeural",
	"it": "it-IT-ElsaNeural",
}

// VoiceForLanguage returns the multilingual voice for language, or
// fallback when no dedicated voice exists.
func VoiceForLanguage(language, fallback string) string {
	if v, ok := MultilingualVoices[language]; ok {
		return v
	}
	return fallback
}

const outputFormat = "audio-16khz-32kbitrate-mono-mp3"

type Client struct {
	client       *http.Client
	endpoint     string
	subscription string
}

func NewClient(subscriptionKey, region string) *Client {
	return &Client{
		client:       &http.Client{Timeout: 30 * time.Second},
		endpoint:     fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		subscription: subscriptionKey,
	}
}

// Synthesize renders text with the given voice and prosody, returning mp3
// bytes.
func (c *Client) Synthesize(ctx context.Context, text, voiceName, rate, pitch string) ([]byte, error) {
	ssml := BuildSSML(text, voiceName, rate, pitch)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscription)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "assessment-service")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Collaborator("speech request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Collaborator("failed to read speech response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Collaborator(
			fmt.Sprintf("speech api error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", string(body)),
		)
	}
	return body, nil
}

// BuildSSML wraps cleaned text in a speak/voice/prosody document.
func BuildSSML(text, voiceName, rate, pitch string) string {
	if rate == "" {
		rate = "0%"
	}
	if pitch == "" {
		pitch = "0%"
	}
	lang := xmlLangFromVoice(voiceName)
	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`+
			`<voice name="%s"><prosody rate="%s" pitch="%s">%s</prosody></voice></speak>`,
		lang, voiceName, rate, pitch, CleanText(text),
	)
}

// xmlLangFromVoice derives the xml:lang attribute from the voice name, which
// is conventionally "{lang}-{REGION}-{Speaker}Neural".
func xmlLangFromVoice(voiceName string) string {
	parts := strings.SplitN(voiceName, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML markup, escapes XML metacharacters, and collapses
// whitespace so arbitrary question text is safe inside SSML.
func CleanText(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, " ")
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	text = replacer.Replace(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
