package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"assessment-service/internal/audiocache"
	"assessment-service/internal/clients/llm"
	"assessment-service/internal/clients/speech"
	"assessment-service/internal/clients/translator"
	"assessment-service/internal/config"
	"assessment-service/internal/event"
	"assessment-service/internal/generator"
	"assessment-service/internal/handlers"
	"assessment-service/internal/pkg/logger"
	"assessment-service/internal/randomizer"
	"assessment-service/internal/service"
	"assessment-service/internal/store"
	"assessment-service/internal/tracker"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQURI != "" && cfg.RabbitMQExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(log, cfg.RabbitMQURI, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", "error", err)
		}
		defer publisher.Close()
	} else {
		log.Info("RabbitMQ not configured, events will not be published")
	}

	// Collaborator clients
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	speechClient := speech.NewClient(cfg.SpeechKey, cfg.SpeechRegion)
	var translatorClient translator.Translator
	if cfg.TranslatorKey != "" {
		translatorClient = translator.NewClient(cfg.TranslatorEndpoint, cfg.TranslatorKey, cfg.TranslatorRegion)
	} else {
		log.Info("Translator not configured, narration stays in English")
	}

	// Core components
	audioCache, err := audiocache.New(log, cfg.AudioCacheDir, cfg.AudioCacheMaxBytes)
	if err != nil {
		log.Fatal("Failed to open audio cache", "error", err)
	}

	rnd := randomizer.New(log, randomizer.Config{
		SessionMaxAge: cfg.PoolSessionMaxAge,
		LowWaterMark:  cfg.PoolLowWaterMark,
		MinRemaining:  cfg.PoolMinRemaining,
	})

	gen := generator.New(log, llmClient, cfg.QuestionsPerSession)
	assessmentStore := store.NewAssessmentStore(log, gen, tracker.New())

	sessionService := service.NewSessionService(log, rnd, llmClient, cfg.QuestionsPerSession, cfg.SessionMaxIdle)
	audioService := service.NewAudioService(log, audioCache, speechClient, translatorClient, llmClient,
		speech.VoiceProfile{Name: cfg.PrimaryVoiceName, Rate: cfg.PrimaryVoiceRate, Pitch: cfg.PrimaryVoicePitch},
		speech.VoiceProfile{Name: cfg.SecondaryVoiceName, Rate: cfg.SecondaryVoiceRate, Pitch: cfg.SecondaryVoicePitch},
	)

	assessmentHandler := handlers.NewAssessmentHandler(assessmentStore)
	sessionHandler := handlers.NewSessionHandler(sessionService, assessmentStore)
	audioHandler := handlers.NewAudioHandler(audioService)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	assessments := r.Group("/api/v1/assessments")
	{
		assessments.GET("/certifications", assessmentHandler.ListCertifications)
		assessments.GET("/:code", assessmentHandler.GetAssessment)
		assessments.POST("/:code/generate", func(c *gin.Context) {
			assessmentHandler.GenerateAssessment(c)
			if publisher != nil {
				publisher.Publish(event.TypeGenerationStarted, gin.H{"certification_code": c.Param("code")})
			}
		})
		assessments.GET("/:code/generate/status", assessmentHandler.GenerationStatus)
		assessments.GET("/:code/sample", assessmentHandler.SampleAssessment)
		assessments.DELETE("/:code/cache", assessmentHandler.InvalidateAssessment)
	}

	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("/start", func(c *gin.Context) {
			sessionHandler.StartSession(c)
			if publisher != nil {
				publisher.Publish(event.TypeSessionStarted, nil)
			}
		})
		sessions.GET("/active", sessionHandler.ActiveSessions)
		sessions.GET("/:id/current-question", sessionHandler.CurrentQuestion)
		sessions.POST("/:id/submit-answer", func(c *gin.Context) {
			sessionHandler.SubmitAnswer(c)
			if publisher != nil {
				publisher.Publish(event.TypeAnswerSubmitted, gin.H{"session_id": c.Param("id")})
			}
		})
		sessions.POST("/:id/next-question", sessionHandler.NextQuestion)
		sessions.GET("/:id/progress", sessionHandler.Progress)
		sessions.GET("/:id/summary", sessionHandler.Summary)
		sessions.GET("/:id/answers", sessionHandler.Answers)
		sessions.PUT("/:id/settings", sessionHandler.UpdateSettings)
		sessions.POST("/:id/end", func(c *gin.Context) {
			sessionHandler.EndSession(c)
			if publisher != nil {
				publisher.Publish(event.TypeSessionCompleted, gin.H{"session_id": c.Param("id")})
			}
		})
	}

	audio := r.Group("/api/v1/audio")
	{
		audio.POST("/generate", audioHandler.GenerateAudio)
		audio.POST("/generate/question", audioHandler.QuestionAudio)
		audio.POST("/generate/question/enhanced", audioHandler.EnhancedQuestionAudio)
		audio.POST("/generate/feedback", audioHandler.FeedbackAudio)
		audio.POST("/generate/multilingual", audioHandler.MultilingualAudio)
		audio.POST("/stream", audioHandler.StreamAudio)
		audio.GET("/voices", audioHandler.Voices)
		audio.GET("/cache/stats", audioHandler.CacheStats)
		audio.DELETE("/cache", audioHandler.ClearCache)
	}

	r.GET("/api/v1/audio-files/:filename", audioHandler.ServeAudioFile)

	log.Info("assessment service listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
