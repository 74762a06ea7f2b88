// Package generator produces practice assessments for certification exams by
// prompting a language model and parsing its structured output.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"assessment-service/internal/apperr"
	"assessment-service/internal/clients/llm"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
)

const estimatedMinutesPerQuestion = 2

type Generator struct {
	log           *logger.Logger
	llm           llm.Completer
	questionCount int
	newID         func() string
	now           func() time.Time
}

func New(log *logger.Logger, completer llm.Completer, questionCount int) *Generator {
	return &Generator{
		log:           log,
		llm:           completer,
		questionCount: questionCount,
		newID: func() string {
			return "question_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
		now: time.Now,
	}
}

// GenerateAssessment builds a fresh assessment for a certification code.
// Unknown codes fail as not found; an upstream failure or a fully
// unparseable response fails as a collaborator error so callers can retry.
func (g *Generator) GenerateAssessment(ctx context.Context, code string) (*models.Assessment, error) {
	code = strings.ToUpper(code)
	title, ok := TitleFor(code)
	if !ok {
		return nil, apperr.NotFound("unknown certification code: %s", code)
	}

	g.log.Info("generating practice assessment", "certification", code, "questions", g.questionCount)

	response, err := g.llm.Complete(ctx, systemPrompt, buildPrompt(code, title, g.questionCount))
	if err != nil {
		return nil, err
	}

	questions := parseQuestions(g.log, response, g.newID)
	if len(questions) == 0 {
		return nil, apperr.Collaborator("generation produced no parseable questions", nil)
	}
	if len(questions) < g.questionCount {
		g.log.Warn("generated fewer questions than requested",
			"certification", code, "got", len(questions), "want", g.questionCount)
	}

	now := g.now()
	assessment, err := models.NewAssessment(models.Assessment{
		ID:                       fmt.Sprintf("assessment_%s_%s", strings.ToLower(code), strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		CertificationCode:        code,
		Title:                    "Practice Assessment - " + title,
		Description:              "AI-generated practice questions for " + title,
		Questions:                questions,
		TotalQuestions:           len(questions),
		EstimatedDurationMinutes: len(questions) * estimatedMinutesPerQuestion,
		CreatedAt:                now,
		UpdatedAt:                now,
	})
	if err != nil {
		return nil, err
	}

	g.log.Info("generated practice assessment", "certification", code, "questions", len(questions))
	return &assessment, nil
}
