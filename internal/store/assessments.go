// Package store keeps generated assessments in memory. Content lives only
// for the lifetime of the process; regeneration is cheap enough that nothing
// is persisted.
package store

import (
	"context"
	"sync"
	"time"

	"assessment-service/internal/apperr"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
	"assessment-service/internal/tracker"
)

// AssessmentGenerator produces a fresh assessment for a certification code.
type AssessmentGenerator interface {
	GenerateAssessment(ctx context.Context, code string) (*models.Assessment, error)
}

type AssessmentStore struct {
	log       *logger.Logger
	generator AssessmentGenerator
	tracker   *tracker.Tracker

	mu          sync.RWMutex
	assessments map[string]*models.Assessment
}

func NewAssessmentStore(log *logger.Logger, generator AssessmentGenerator, tr *tracker.Tracker) *AssessmentStore {
	return &AssessmentStore{
		log:         log,
		generator:   generator,
		tracker:     tr,
		assessments: make(map[string]*models.Assessment),
	}
}

// Get returns the cached assessment for a certification code.
func (s *AssessmentStore) Get(code string) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assessment, ok := s.assessments[code]
	if !ok {
		return nil, apperr.NotFound("no assessment generated for %s", code)
	}
	return assessment, nil
}

// GetOrGenerate returns the cached assessment, generating it synchronously
// on a miss. The caller blocks for the duration of generation.
func (s *AssessmentStore) GetOrGenerate(ctx context.Context, code string) (*models.Assessment, error) {
	if assessment, err := s.Get(code); err == nil {
		return assessment, nil
	}

	started, _ := s.tracker.BeginOrObserve(code)
	if !started {
		// Another caller is already generating; surface that instead of
		// racing a second generation.
		return nil, apperr.Validation("generation for %s is already in progress", code)
	}

	assessment, err := s.generate(ctx, code)
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// StartBackgroundGeneration kicks off generation in a goroutine unless one
// is already running. It returns the tracker status the caller can poll and
// whether this call started a new job.
func (s *AssessmentStore) StartBackgroundGeneration(code string) (tracker.Status, bool) {
	started, status := s.tracker.BeginOrObserve(code)
	if !started {
		return status, false
	}

	go func() {
		// Detach from the request; background jobs have their own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.generate(ctx, code); err != nil {
			s.log.Error("background generation failed", "certification", code, "error", err)
		}
	}()
	return status, true
}

// generate runs one generation attempt under an already-claimed tracker
// slot and records its outcome.
func (s *AssessmentStore) generate(ctx context.Context, code string) (*models.Assessment, error) {
	s.tracker.UpdateProgress(code, 10, 0)

	assessment, err := s.generator.GenerateAssessment(ctx, code)
	if err != nil {
		s.tracker.Fail(code, err.Error())
		return nil, err
	}
	s.tracker.UpdateProgress(code, 50, len(assessment.Questions))

	s.mu.Lock()
	s.assessments[code] = assessment
	s.mu.Unlock()

	s.tracker.Complete(code, len(assessment.Questions))
	s.log.Info("assessment stored", "certification", code, "questions", len(assessment.Questions))
	return assessment, nil
}

// Sample generates a throwaway assessment without caching it or claiming a
// tracker slot, for previewing question quality. The caller blocks for the
// duration of generation.
func (s *AssessmentStore) Sample(ctx context.Context, code string) (*models.Assessment, error) {
	return s.generator.GenerateAssessment(ctx, code)
}

// GenerationStatus returns the tracker entry for a certification code.
func (s *AssessmentStore) GenerationStatus(code string) (tracker.Status, bool) {
	return s.tracker.Get(code)
}

// Invalidate drops the cached assessment and its generation status so the
// next request regenerates from scratch.
func (s *AssessmentStore) Invalidate(code string) error {
	s.mu.Lock()
	_, ok := s.assessments[code]
	delete(s.assessments, code)
	s.mu.Unlock()

	s.tracker.Clear(code)
	if !ok {
		return apperr.NotFound("no assessment generated for %s", code)
	}
	s.log.Info("assessment invalidated", "certification", code)
	return nil
}

// Codes lists certification codes with a cached assessment.
func (s *AssessmentStore) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.assessments))
	for code := range s.assessments {
		codes = append(codes, code)
	}
	return codes
}
