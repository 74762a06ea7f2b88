package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/generator"
	"assessment-service/internal/store"
)

type AssessmentHandler struct {
	Store *store.AssessmentStore
}

func NewAssessmentHandler(s *store.AssessmentStore) *AssessmentHandler {
	return &AssessmentHandler{Store: s}
}

// ListCertifications returns the full certification catalog.
func (h *AssessmentHandler) ListCertifications(c *gin.Context) {
	c.JSON(http.StatusOK, generator.Catalog())
}

// GetAssessment returns the cached assessment for a certification code.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	assessment, err := h.Store.Get(code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// GenerateAssessment starts background generation and returns immediately
// with a status the caller can poll.
func (h *AssessmentHandler) GenerateAssessment(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if _, ok := generator.TitleFor(code); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Certification " + code + " not found"})
		return
	}

	status, started := h.Store.StartBackgroundGeneration(code)
	if !started {
		c.JSON(http.StatusOK, gin.H{
			"message": "Question generation already in progress for " + code,
			"status":  status,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":            "Started generating practice assessment for " + code,
		"certification_code": code,
		"status_url":         "/api/v1/assessments/" + code + "/generate/status",
	})
}

// SampleAssessment generates a fresh assessment on the spot without caching
// it, for previewing question quality before committing to a full run.
func (h *AssessmentHandler) SampleAssessment(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	assessment, err := h.Store.Sample(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// GenerationStatus reports progress of a running or finished generation.
func (h *AssessmentHandler) GenerationStatus(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	status, ok := h.Store.GenerationStatus(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No generation status for " + code})
		return
	}
	c.JSON(http.StatusOK, status)
}

// InvalidateAssessment drops the cached assessment so the next generation
// starts from scratch.
func (h *AssessmentHandler) InvalidateAssessment(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if err := h.Store.Invalidate(code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assessment cache cleared for " + code})
}
