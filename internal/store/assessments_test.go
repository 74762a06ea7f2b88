package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/apperr"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
	"assessment-service/internal/tracker"
)

type stubGenerator struct {
	assessment *models.Assessment
	err        error
	delay      time.Duration
	calls      int
}

func (g *stubGenerator) GenerateAssessment(ctx context.Context, code string) (*models.Assessment, error) {
	g.calls++
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.assessment, nil
}

func testAssessment(code string) *models.Assessment {
	return &models.Assessment{
		ID:                "assessment_test",
		CertificationCode: code,
		Title:             "Practice Assessment",
		Questions:         []models.Question{{ID: "q1"}},
		TotalQuestions:    1,
	}
}

func TestGetOrGenerateCachesResult(t *testing.T) {
	gen := &stubGenerator{assessment: testAssessment("AZ-900")}
	s := NewAssessmentStore(logger.NewNop(), gen, tracker.New())

	first, err := s.GetOrGenerate(context.Background(), "AZ-900")
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	second, err := s.GetOrGenerate(context.Background(), "AZ-900")
	if err != nil {
		t.Fatalf("GetOrGenerate (cached): %v", err)
	}
	if first != second {
		t.Fatal("second call should return the cached assessment")
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generation, got %d", gen.calls)
	}

	status, ok := s.GenerationStatus("AZ-900")
	if !ok || status.State != tracker.StateCompleted || status.ProgressPercentage != 100 {
		t.Fatalf("unexpected final status: %+v", status)
	}
}

func TestGetMissReturnsNotFound(t *testing.T) {
	s := NewAssessmentStore(logger.NewNop(), &stubGenerator{}, tracker.New())
	if _, err := s.Get("AZ-900"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerationFailureRecordedAndRetryable(t *testing.T) {
	gen := &stubGenerator{err: apperr.Collaborator("llm down", errors.New("dial refused"))}
	s := NewAssessmentStore(logger.NewNop(), gen, tracker.New())

	if _, err := s.GetOrGenerate(context.Background(), "AZ-900"); !apperr.IsCollaborator(err) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	status, ok := s.GenerationStatus("AZ-900")
	if !ok || status.State != tracker.StateFailed || len(status.Errors) != 1 {
		t.Fatalf("failure not recorded: %+v", status)
	}

	// Failed state must not wedge the slot.
	gen.err = nil
	gen.assessment = testAssessment("AZ-900")
	if _, err := s.GetOrGenerate(context.Background(), "AZ-900"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestStartBackgroundGenerationSingleJob(t *testing.T) {
	gen := &stubGenerator{assessment: testAssessment("AZ-900"), delay: 50 * time.Millisecond}
	s := NewAssessmentStore(logger.NewNop(), gen, tracker.New())

	_, started := s.StartBackgroundGeneration("AZ-900")
	if !started {
		t.Fatal("first call should start the job")
	}
	status, started := s.StartBackgroundGeneration("AZ-900")
	if started {
		t.Fatal("second call should observe the running job")
	}
	if status.State != tracker.StateInProgress {
		t.Fatalf("expected in_progress, got %s", status.State)
	}

	deadline := time.After(2 * time.Second)
	for {
		if st, ok := s.GenerationStatus("AZ-900"); ok && st.State == tracker.StateCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background generation never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, err := s.Get("AZ-900"); err != nil {
		t.Fatalf("assessment should be stored after completion: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generation, got %d", gen.calls)
	}
}

func TestInvalidateForcesRegeneration(t *testing.T) {
	gen := &stubGenerator{assessment: testAssessment("AZ-900")}
	s := NewAssessmentStore(logger.NewNop(), gen, tracker.New())

	if _, err := s.GetOrGenerate(context.Background(), "AZ-900"); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate("AZ-900"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if _, ok := s.GenerationStatus("AZ-900"); ok {
		t.Fatal("invalidation should also clear generation status")
	}
	if _, err := s.GetOrGenerate(context.Background(), "AZ-900"); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected regeneration after invalidate, got %d calls", gen.calls)
	}
}

func TestSampleGeneratesWithoutCaching(t *testing.T) {
	gen := &stubGenerator{assessment: testAssessment("AZ-900")}
	s := NewAssessmentStore(logger.NewNop(), gen, tracker.New())

	if _, err := s.Sample(context.Background(), "AZ-900"); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if _, err := s.Get("AZ-900"); !apperr.IsNotFound(err) {
		t.Fatalf("sample must not populate the store, got %v", err)
	}
	if _, ok := s.GenerationStatus("AZ-900"); ok {
		t.Fatal("sample must not claim a tracker slot")
	}

	if _, err := s.Sample(context.Background(), "AZ-900"); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 2 {
		t.Fatalf("every sample call should generate fresh, got %d calls", gen.calls)
	}
}

func TestInvalidateUnknownCode(t *testing.T) {
	s := NewAssessmentStore(logger.NewNop(), &stubGenerator{}, tracker.New())
	if err := s.Invalidate("AZ-900"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
