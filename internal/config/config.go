package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. All thresholds that encode policy
// (pool rotation, cache capacity, session reaping) live here rather than as
// constants in the packages that apply them.
type Config struct {
	Port    string
	GinMode string
	LogMode string

	RabbitMQURI      string
	RabbitMQExchange string

	// Text-generation provider (OpenAI-compatible chat completions API).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Speech-synthesis provider.
	SpeechKey    string
	SpeechRegion string

	// Translation provider.
	TranslatorKey      string
	TranslatorEndpoint string
	TranslatorRegion   string

	// Audio artifact cache.
	AudioCacheDir      string
	AudioCacheMaxBytes int64

	// Dual voice configuration: the primary voice reads questions, the
	// secondary voice delivers feedback and results.
	PrimaryVoiceName    string
	PrimaryVoiceRate    string
	PrimaryVoicePitch   string
	SecondaryVoiceName  string
	SecondaryVoiceRate  string
	SecondaryVoicePitch string

	SupportedLanguages []string

	// Session flow.
	QuestionsPerSession int
	SessionMaxIdle      time.Duration

	// Question pool rotation.
	PoolSessionMaxAge time.Duration
	PoolLowWaterMark  float64
	PoolMinRemaining  int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	return &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		LogMode: getEnvOrDefault("LOG_MODE", "dev"),

		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange: os.Getenv("RABBITMQ_EXCHANGE"),

		LLMBaseURL: getEnvOrDefault("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   getEnvOrDefault("LLM_MODEL", "gpt-4o"),

		SpeechKey:    os.Getenv("SPEECH_KEY"),
		SpeechRegion: getEnvOrDefault("SPEECH_REGION", "eastus"),

		TranslatorKey:      os.Getenv("TRANSLATOR_KEY"),
		TranslatorEndpoint: getEnvOrDefault("TRANSLATOR_ENDPOINT", "https://api.cognitive.microsofttranslator.com"),
		TranslatorRegion:   getEnvOrDefault("TRANSLATOR_REGION", "global"),

		AudioCacheDir:      getEnvOrDefault("AUDIO_CACHE_DIR", "./audio_cache"),
		AudioCacheMaxBytes: getEnvInt64("AUDIO_CACHE_MAX_MB", 500) * 1024 * 1024,

		PrimaryVoiceName:    getEnvOrDefault("SPEECH_VOICE_PRIMARY", "en-US-JennyMultilingualNeural"),
		PrimaryVoiceRate:    getEnvOrDefault("SPEECH_RATE_PRIMARY", "-10%"),
		PrimaryVoicePitch:   getEnvOrDefault("SPEECH_PITCH_PRIMARY", "0%"),
		SecondaryVoiceName:  getEnvOrDefault("SPEECH_VOICE_SECONDARY", "en-US-AriaNeural"),
		SecondaryVoiceRate:  getEnvOrDefault("SPEECH_RATE_SECONDARY", "-5%"),
		SecondaryVoicePitch: getEnvOrDefault("SPEECH_PITCH_SECONDARY", "+5%"),

		SupportedLanguages: splitList(getEnvOrDefault("SUPPORTED_LANGUAGES", "en,es,fr,de,it,pt,ja,ko,zh,ar,hi,ru")),

		QuestionsPerSession: getEnvInt("QUESTIONS_PER_SESSION", 50),
		SessionMaxIdle:      getEnvDuration("SESSION_MAX_IDLE", 24*time.Hour),

		PoolSessionMaxAge: getEnvDuration("POOL_SESSION_MAX_AGE", 24*time.Hour),
		PoolLowWaterMark:  getEnvFloat("POOL_LOW_WATER_MARK", 0.2),
		PoolMinRemaining:  getEnvInt("POOL_MIN_REMAINING", 30),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
