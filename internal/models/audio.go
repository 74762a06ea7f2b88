package models

// AudioRequest is a text-to-speech conversion request.
type AudioRequest struct {
	Text        string `json:"text" binding:"required"`
	VoiceName   string `json:"voice_name,omitempty"`
	SpeechRate  string `json:"speech_rate,omitempty"`
	SpeechPitch string `json:"speech_pitch,omitempty"`
}

// AudioResponse points at a synthesized artifact. Translated fields carry the
// exact text being spoken so the frontend can display it progressively.
type AudioResponse struct {
	AudioURL           string   `json:"audio_url"`
	DurationSeconds    float64  `json:"duration_seconds,omitempty"`
	CacheKey           string   `json:"cache_key,omitempty"`
	TranslatedText     string   `json:"translated_text,omitempty"`
	TranslatedQuestion string   `json:"translated_question,omitempty"`
	TranslatedAnswers  []string `json:"translated_answers,omitempty"`
}
