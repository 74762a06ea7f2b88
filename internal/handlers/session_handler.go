package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/service"
	"assessment-service/internal/store"
)

type SessionHandler struct {
	Service *service.SessionService
	Store   *store.AssessmentStore
}

func NewSessionHandler(s *service.SessionService, st *store.AssessmentStore) *SessionHandler {
	return &SessionHandler{Service: s, Store: st}
}

// StartSession opens a session against an already-generated assessment.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req struct {
		CertificationCode string `json:"certification_code" binding:"required"`
		AutoProgression   *bool  `json:"auto_progression"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	code := strings.ToUpper(req.CertificationCode)
	assessment, err := h.Store.Get(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Practice assessment for " + code + " not found. Please generate the assessment first.",
		})
		return
	}

	autoProgression := true
	if req.AutoProgression != nil {
		autoProgression = *req.AutoProgression
	}

	session, err := h.Service.StartSession(assessment, autoProgression)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CurrentQuestion returns the question at the session pointer, or a
// completion marker once the set is exhausted.
func (h *SessionHandler) CurrentQuestion(c *gin.Context) {
	question, done, err := h.Service.CurrentQuestion(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if done {
		c.JSON(http.StatusOK, gin.H{
			"completed": true,
			"message":   "No more questions. The assessment is complete.",
		})
		return
	}
	c.JSON(http.StatusOK, question)
}

// SubmitAnswer grades a selection and returns the result with pacing.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID        string   `json:"question_id" binding:"required"`
		SelectedAnswerIDs []string `json:"selected_answer_ids" binding:"required"`
		TimeSpentSeconds  int      `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.SubmitAnswer(c.Param("id"), req.QuestionID, req.SelectedAnswerIDs, req.TimeSpentSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// NextQuestion advances the session pointer.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	question, done, err := h.Service.Advance(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if done {
		c.JSON(http.StatusOK, gin.H{
			"completed": true,
			"message":   "Assessment completed!",
		})
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *SessionHandler) Progress(c *gin.Context) {
	progress, err := h.Service.Progress(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *SessionHandler) Summary(c *gin.Context) {
	summary, err := h.Service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SessionHandler) Answers(c *gin.Context) {
	answers, err := h.Service.Answers(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// UpdateSettings toggles auto progression mid-session.
func (h *SessionHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		AutoProgression *bool `json:"auto_progression" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.Service.UpdateSettings(c.Param("id"), *req.AutoProgression); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}

// EndSession returns a final summary and releases the session. Ending an
// unknown session is not an error.
func (h *SessionHandler) EndSession(c *gin.Context) {
	summary := h.Service.EndSession(c.Request.Context(), c.Param("id"))
	if summary == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Session already ended"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SessionHandler) ActiveSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.ActiveSessions())
}
