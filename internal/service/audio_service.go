package service

import (
	"context"
	"fmt"
	"strings"

	"assessment-service/internal/apperr"
	"assessment-service/internal/audiocache"
	"assessment-service/internal/clients/llm"
	"assessment-service/internal/clients/speech"
	"assessment-service/internal/clients/translator"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
)

const (
	// Provider limit on synthesis input; longer text is truncated.
	maxSpeechChars = 10000
	// Rough narration speed used for duration estimates.
	wordsPerMinute = 175

	VoiceTypePrimary   = "primary"
	VoiceTypeSecondary = "secondary"
)

// AudioService orchestrates narration: translate when needed, consult the
// artifact cache, synthesize on a miss.
type AudioService struct {
	log        *logger.Logger
	cache      *audiocache.Cache
	synth      speech.Synthesizer
	translator translator.Translator
	// scripter rewrites question text into a narration-friendly script;
	// nil falls back to the labeled-options script.
	scripter llm.Completer

	primary   speech.VoiceProfile
	secondary speech.VoiceProfile
}

func NewAudioService(
	log *logger.Logger,
	cache *audiocache.Cache,
	synth speech.Synthesizer,
	tr translator.Translator,
	scripter llm.Completer,
	primary, secondary speech.VoiceProfile,
) *AudioService {
	return &AudioService{
		log:        log,
		cache:      cache,
		synth:      synth,
		translator: tr,
		scripter:   scripter,
		primary:    primary,
		secondary:  secondary,
	}
}

// GenerateAudio renders arbitrary text with explicit voice settings. Empty
// voice fields fall back to the primary profile.
func (s *AudioService) GenerateAudio(ctx context.Context, req models.AudioRequest) (*models.AudioResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.Validation("text is required")
	}
	voice := req.VoiceName
	if voice == "" {
		voice = s.primary.Name
	}
	rate := req.SpeechRate
	if rate == "" {
		rate = s.primary.Rate
	}
	pitch := req.SpeechPitch
	if pitch == "" {
		pitch = s.primary.Pitch
	}
	return s.render(ctx, req.Text, voice, rate, pitch, "en")
}

// QuestionAudio narrates a question and its options with the primary voice,
// translating both when the target language is not English.
func (s *AudioService) QuestionAudio(ctx context.Context, questionText string, answers []string, language string) (*models.AudioResponse, error) {
	translatedQuestion := s.translate(ctx, questionText, language)
	translatedAnswers := make([]string, len(answers))
	for i, answer := range answers {
		translatedAnswers[i] = s.translate(ctx, answer, language)
	}

	fullText := buildQuestionScript(translatedQuestion, translatedAnswers)
	voice := speech.VoiceForLanguage(language, s.primary.Name)

	resp, err := s.render(ctx, fullText, voice, s.primary.Rate, s.primary.Pitch, language)
	if err != nil {
		return nil, err
	}
	resp.TranslatedText = fullText
	resp.TranslatedQuestion = translatedQuestion
	resp.TranslatedAnswers = translatedAnswers
	return resp, nil
}

// FeedbackAudio narrates grading feedback with the secondary voice. The
// "Correct!" / "Incorrect." prefix can be skipped for neutral narration.
func (s *AudioService) FeedbackAudio(ctx context.Context, feedbackText string, isCorrect bool, language string, skipPrefix bool) (*models.AudioResponse, error) {
	text := feedbackText
	if !skipPrefix {
		if isCorrect {
			text = "Correct! " + feedbackText
		} else {
			text = "Incorrect. " + feedbackText
		}
	}

	text = s.translate(ctx, text, language)
	voice := s.secondary.Name
	if language != "en" {
		voice = speech.VoiceForLanguage(language, s.secondary.Name)
	}

	resp, err := s.render(ctx, text, voice, s.secondary.Rate, s.secondary.Pitch, language)
	if err != nil {
		return nil, err
	}
	resp.TranslatedText = text
	return resp, nil
}

const audioScriptSystemPrompt = "You are an expert at creating natural, clear audio scripts for educational content."

// EnhancedQuestionAudio narrates a question with a script rewritten for
// speech by the scripter. Scripter failures fall back to the plain labeled
// script; narration never depends on the text-generation provider being up.
func (s *AudioService) EnhancedQuestionAudio(ctx context.Context, question *models.Question, voiceName string) (*models.AudioResponse, error) {
	if question == nil || strings.TrimSpace(question.Text) == "" {
		return nil, apperr.Validation("question text is required")
	}

	script := basicQuestionScript(question)
	if s.scripter != nil {
		enhanced, err := s.scripter.Complete(ctx, audioScriptSystemPrompt, buildAudioScriptPrompt(question))
		if err != nil {
			s.log.Warn("audio script generation failed, narrating basic script",
				"question_id", question.ID, "error", err)
		} else if enhanced = strings.TrimSpace(enhanced); enhanced != "" {
			script = enhanced
		}
	}

	voice := voiceName
	if voice == "" {
		voice = s.primary.Name
	}
	return s.render(ctx, script, voice, s.primary.Rate, s.primary.Pitch, "en")
}

// MultilingualAudio narrates arbitrary text in the requested language with
// either voice profile.
func (s *AudioService) MultilingualAudio(ctx context.Context, text, language, voiceType string) (*models.AudioResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text is required")
	}

	translated := s.translate(ctx, text, language)

	profile := s.primary
	if voiceType == VoiceTypeSecondary {
		profile = s.secondary
	}
	voice := profile.Name
	if language != "en" || voiceType != VoiceTypeSecondary {
		voice = speech.VoiceForLanguage(language, profile.Name)
	}

	resp, err := s.render(ctx, translated, voice, profile.Rate, profile.Pitch, language)
	if err != nil {
		return nil, err
	}
	resp.TranslatedText = translated
	return resp, nil
}

// CacheStats exposes the artifact cache footprint.
func (s *AudioService) CacheStats() audiocache.Stats {
	return s.cache.Stats()
}

// ClearCache drops every cached artifact and returns how many were removed.
func (s *AudioService) ClearCache() int {
	return s.cache.Clear()
}

// AudioPath resolves a cache key to its on-disk artifact.
func (s *AudioService) AudioPath(key string) string {
	return s.cache.Path(key)
}

// Voices describes the configured profiles and the per-language voice table.
func (s *AudioService) Voices() map[string]interface{} {
	return map[string]interface{}{
		"primary": map[string]string{
			"voice_name":   s.primary.Name,
			"speech_rate":  s.primary.Rate,
			"speech_pitch": s.primary.Pitch,
		},
		"secondary": map[string]string{
			"voice_name":   s.secondary.Name,
			"speech_rate":  s.secondary.Rate,
			"speech_pitch": s.secondary.Pitch,
		},
		"multilingual": speech.MultilingualVoices,
	}
}

// render is the shared cache-first synthesis path.
func (s *AudioService) render(ctx context.Context, text, voice, rate, pitch, language string) (*models.AudioResponse, error) {
	if len(text) > maxSpeechChars {
		s.log.Warn("truncating text for synthesis", "chars", len(text), "limit", maxSpeechChars)
		text = text[:maxSpeechChars] + "..."
	}

	key := audiocache.Fingerprint(text, voice, rate, pitch, language)
	if _, err := s.cache.GetOrSynthesize(key, func() ([]byte, error) {
		return s.synth.Synthesize(ctx, text, voice, rate, pitch)
	}); err != nil {
		return nil, err
	}

	return &models.AudioResponse{
		AudioURL:        fmt.Sprintf("/api/v1/audio-files/%s.mp3", key),
		DurationSeconds: estimateDuration(text),
		CacheKey:        key,
	}, nil
}

// translate renders text in language, falling back to the input when the
// translator fails: narration in the wrong language beats no narration.
func (s *AudioService) translate(ctx context.Context, text, language string) string {
	if language == "" || language == "en" || s.translator == nil {
		return text
	}
	translated, err := s.translator.Translate(ctx, text, "en", language)
	if err != nil {
		s.log.Warn("translation failed, narrating original text", "language", language, "error", err)
		return text
	}
	return translated
}

// buildQuestionScript labels options A through F; anything past six options
// is dropped from narration.
func buildQuestionScript(questionText string, answers []string) string {
	var b strings.Builder
	b.WriteString(questionText)
	b.WriteString("\n\n")

	labels := []string{"A", "B", "C", "D", "E", "F"}
	for i, answer := range answers {
		if i >= len(labels) {
			break
		}
		fmt.Fprintf(&b, "Option %s: %s\n", labels[i], answer)
	}
	return b.String()
}

// basicQuestionScript is the no-provider narration of a full question:
// "Question: ... The answer options are: Option A: ... Option B: ...".
func basicQuestionScript(question *models.Question) string {
	return fmt.Sprintf("Question: %s. The answer options are: %s", question.Text, labeledOptions(question))
}

func buildAudioScriptPrompt(question *models.Question) string {
	return fmt.Sprintf(`Convert this Microsoft certification practice question into a clear, natural audio script for text-to-speech.

Question: %s
Answers: %s

Create a script that:
1. Presents the question clearly
2. Lists all answer options with proper pacing
3. Uses natural speech patterns
4. Includes appropriate pauses
5. Pronounces technical terms correctly

Format for audio narration, not written text.`, question.Text, labeledOptions(question))
}

func labeledOptions(question *models.Question) string {
	var b strings.Builder
	labels := []string{"A", "B", "C", "D", "E", "F"}
	for i, answer := range question.Answers {
		if i >= len(labels) {
			break
		}
		fmt.Fprintf(&b, "Option %s: %s. ", labels[i], answer.Text)
	}
	return b.String()
}

func estimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / wordsPerMinute * 60
}
