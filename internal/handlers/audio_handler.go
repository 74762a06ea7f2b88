package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/models"
	"assessment-service/internal/service"
)

type AudioHandler struct {
	Service *service.AudioService
}

func NewAudioHandler(s *service.AudioService) *AudioHandler {
	return &AudioHandler{Service: s}
}

// GenerateAudio renders arbitrary text with explicit voice settings.
func (h *AudioHandler) GenerateAudio(c *gin.Context) {
	var req models.AudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.Service.GenerateAudio(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QuestionAudio narrates a question with labeled options, optionally
// translated.
func (h *AudioHandler) QuestionAudio(c *gin.Context) {
	var req struct {
		QuestionText string   `json:"question_text" binding:"required"`
		Answers      []string `json:"answers" binding:"required"`
		LanguageCode string   `json:"language_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en"
	}

	resp, err := h.Service.QuestionAudio(c.Request.Context(), req.QuestionText, req.Answers, req.LanguageCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FeedbackAudio narrates grading feedback with the secondary voice.
func (h *AudioHandler) FeedbackAudio(c *gin.Context) {
	var req struct {
		FeedbackText string `json:"feedback_text" binding:"required"`
		IsCorrect    *bool  `json:"is_correct" binding:"required"`
		LanguageCode string `json:"language_code"`
		SkipPrefix   bool   `json:"skip_prefix"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en"
	}

	resp, err := h.Service.FeedbackAudio(c.Request.Context(), req.FeedbackText, *req.IsCorrect, req.LanguageCode, req.SkipPrefix)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MultilingualAudio narrates text in a target language with either voice.
func (h *AudioHandler) MultilingualAudio(c *gin.Context) {
	var req struct {
		Text         string `json:"text" binding:"required"`
		LanguageCode string `json:"language_code"`
		VoiceType    string `json:"voice_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en"
	}
	if req.VoiceType == "" {
		req.VoiceType = service.VoiceTypePrimary
	}

	resp, err := h.Service.MultilingualAudio(c.Request.Context(), req.Text, req.LanguageCode, req.VoiceType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EnhancedQuestionAudio narrates a full question through a
// narration-optimized script. The voice can be overridden per request.
func (h *AudioHandler) EnhancedQuestionAudio(c *gin.Context) {
	var req struct {
		Question  models.Question `json:"question" binding:"required"`
		VoiceName string          `json:"voice_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.Service.EnhancedQuestionAudio(c.Request.Context(), &req.Question, req.VoiceName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StreamAudio synthesizes and returns the mp3 bytes in one round trip
// instead of handing back a URL.
func (h *AudioHandler) StreamAudio(c *gin.Context) {
	var req models.AudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.Service.GenerateAudio(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.File(h.Service.AudioPath(resp.CacheKey))
}

func (h *AudioHandler) Voices(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Voices())
}

func (h *AudioHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.CacheStats())
}

func (h *AudioHandler) ClearCache(c *gin.Context) {
	removed := h.Service.ClearCache()
	c.JSON(http.StatusOK, gin.H{
		"message":       "Audio cache cleared",
		"files_removed": removed,
	})
}

var audioFilePattern = regexp.MustCompile(`^[0-9a-f]{64}\.mp3$`)

// ServeAudioFile streams a cached artifact by filename. Names are validated
// against the fingerprint format so the handler cannot traverse paths.
func (h *AudioHandler) ServeAudioFile(c *gin.Context) {
	filename := c.Param("filename")
	if !audioFilePattern.MatchString(filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid audio file name"})
		return
	}

	path := h.Service.AudioPath(filename[:len(filename)-len(".mp3")])
	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}
