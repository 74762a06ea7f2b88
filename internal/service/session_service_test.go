package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"assessment-service/internal/apperr"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
	"assessment-service/internal/randomizer"
)

func testQuestion(id string, difficulty models.DifficultyLevel, topics ...string) models.Question {
	return models.Question{
		ID:   id,
		Text: "question " + id,
		Type: models.QuestionTypeMultipleChoice,
		Answers: []models.Answer{
			{ID: "answer_a", Text: "right", IsCorrect: true},
			{ID: "answer_b", Text: "wrong"},
		},
		CorrectAnswerIDs: []string{"answer_a"},
		Explanation:      "because",
		Difficulty:       difficulty,
		Topics:           topics,
	}
}

func testPool(n int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = testQuestion(fmt.Sprintf("q%03d", i), models.DifficultyIntermediate, "topic")
	}
	return questions
}

func newTestService(t *testing.T, questionsPerSession int) *SessionService {
	t.Helper()
	rnd := randomizer.NewSeeded(logger.NewNop(), randomizer.DefaultConfig(), 1, time.Now)
	return NewSessionService(logger.NewNop(), rnd, nil, questionsPerSession, 24*time.Hour)
}

// stubAdvisor fakes the study tips completer.
type stubAdvisor struct {
	calls int
	tips  string
	err   error
}

func (s *stubAdvisor) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.tips, nil
}

func startSession(t *testing.T, s *SessionService, pool []models.Question, auto bool) models.UserSession {
	t.Helper()
	assessment := &models.Assessment{
		ID:             "assessment_test",
		Title:          "Practice Assessment - Test",
		Questions:      pool,
		TotalQuestions: len(pool),
	}
	session, err := s.StartSession(assessment, auto)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return session
}

func TestStartSessionEmptyAssessment(t *testing.T) {
	s := newTestService(t, 50)
	_, err := s.StartSession(&models.Assessment{ID: "empty"}, true)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionFlowToCompletion(t *testing.T) {
	s := newTestService(t, 3)
	session := startSession(t, s, testPool(3), false)

	for i := 0; i < 3; i++ {
		q, done, err := s.CurrentQuestion(session.SessionID)
		if err != nil || done {
			t.Fatalf("question %d: done=%v err=%v", i, done, err)
		}
		result, err := s.SubmitAnswer(session.SessionID, q.ID, q.CorrectAnswerIDs, 30)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if !result.IsCorrect {
			t.Fatalf("correct selection graded incorrect on question %d", i)
		}
		if i < 2 {
			if result.NextAction.Action != models.ActionManualAdvance {
				t.Fatalf("expected manual_advance, got %s", result.NextAction.Action)
			}
			if _, done, err := s.Advance(session.SessionID); err != nil || done {
				t.Fatalf("Advance %d: done=%v err=%v", i, done, err)
			}
		} else if result.NextAction.Action != models.ActionCompleteAssessment {
			t.Fatalf("last answer should complete, got %s", result.NextAction.Action)
		}
	}

	if _, done, err := s.Advance(session.SessionID); err != nil || !done {
		t.Fatalf("advance past end: done=%v err=%v", done, err)
	}
	if _, done, err := s.CurrentQuestion(session.SessionID); err != nil || !done {
		t.Fatalf("terminal current question: done=%v err=%v", done, err)
	}

	progress, err := s.Progress(session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if progress.PercentageComplete != 100 || progress.ScorePercentage != 100 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
}

func TestSubmitAnswerSetEquality(t *testing.T) {
	multi := models.Question{
		ID:   "multi",
		Text: "pick two",
		Type: models.QuestionTypeMultipleSelect,
		Answers: []models.Answer{
			{ID: "answer_a", IsCorrect: true},
			{ID: "answer_b", IsCorrect: true},
			{ID: "answer_c"},
		},
		CorrectAnswerIDs: []string{"answer_a", "answer_b"},
	}

	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact order", []string{"answer_a", "answer_b"}, true},
		{"reversed order", []string{"answer_b", "answer_a"}, true},
		{"duplicates ignored", []string{"answer_a", "answer_a", "answer_b"}, true},
		{"subset", []string{"answer_a"}, false},
		{"superset", []string{"answer_a", "answer_b", "answer_c"}, false},
		{"wrong set", []string{"answer_c"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, 1)
			session := startSession(t, s, []models.Question{multi}, false)
			result, err := s.SubmitAnswer(session.SessionID, "multi", tt.selected, 10)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if result.IsCorrect != tt.want {
				t.Fatalf("IsCorrect = %v, want %v", result.IsCorrect, tt.want)
			}
		})
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	s := newTestService(t, 1)
	session := startSession(t, s, testPool(1), false)

	if _, err := s.SubmitAnswer(session.SessionID, "q000", nil, 0); !apperr.IsValidation(err) {
		t.Fatalf("empty selection should be a validation error, got %v", err)
	}
	if _, err := s.SubmitAnswer(session.SessionID, "missing", []string{"answer_a"}, 0); !apperr.IsNotFound(err) {
		t.Fatalf("unknown question should be not found, got %v", err)
	}
	if _, err := s.SubmitAnswer("no-such-session", "q000", []string{"answer_a"}, 0); !apperr.IsNotFound(err) {
		t.Fatalf("unknown session should be not found, got %v", err)
	}
}

func TestResubmissionCountedOnce(t *testing.T) {
	s := newTestService(t, 2)
	session := startSession(t, s, testPool(2), false)

	q, _, _ := s.CurrentQuestion(session.SessionID)
	if _, err := s.SubmitAnswer(session.SessionID, q.ID, []string{"answer_b"}, 10); err != nil {
		t.Fatal(err)
	}
	// Second submission on the same question is recorded but must not change
	// the score or the answered count.
	if _, err := s.SubmitAnswer(session.SessionID, q.ID, []string{"answer_a"}, 10); err != nil {
		t.Fatal(err)
	}

	progress, _ := s.Progress(session.SessionID)
	if progress.AnsweredQuestions != 1 {
		t.Fatalf("resubmission inflated answered count: %d", progress.AnsweredQuestions)
	}
	if progress.CorrectAnswers != 0 {
		t.Fatalf("late correct resubmission must not score: %d", progress.CorrectAnswers)
	}

	answers, _ := s.Answers(session.SessionID)
	if len(answers) != 2 {
		t.Fatalf("answer history is append-only, want 2 records, got %d", len(answers))
	}
}

func TestPacingDelays(t *testing.T) {
	tests := []struct {
		name        string
		explanation string
		qType       models.QuestionType
		correct     bool
		want        int
	}{
		// Reading time is chars/1000 minutes, scaled to seconds, floor 3s.
		{"short explanation correct", "short", models.QuestionTypeMultipleChoice, true, 6},
		{"short explanation incorrect", "short", models.QuestionTypeMultipleChoice, false, 8},
		{"no explanation", "", models.QuestionTypeMultipleChoice, true, 3},
		{"hundred char explanation", strings.Repeat("x", 100), models.QuestionTypeMultipleChoice, true, 9},
		{"long explanation clamps", strings.Repeat("x", 7000), models.QuestionTypeMultipleChoice, true, 15},
		{"incorrect case study with 1000 char explanation hits ceiling", strings.Repeat("x", 1000), models.QuestionTypeCaseStudy, false, 15},
		{"drag drop", "short", models.QuestionTypeDragDrop, true, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := models.Question{Explanation: tt.explanation, Type: tt.qType}
			if got := autoAdvanceDelay(&q, tt.correct); got != tt.want {
				t.Fatalf("delay = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextActionAutoAdvance(t *testing.T) {
	s := newTestService(t, 2)
	session := startSession(t, s, testPool(2), true)

	q, _, _ := s.CurrentQuestion(session.SessionID)
	result, err := s.SubmitAnswer(session.SessionID, q.ID, q.CorrectAnswerIDs, 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.NextAction.Action != models.ActionAutoAdvance {
		t.Fatalf("expected auto_advance, got %s", result.NextAction.Action)
	}
	if result.NextAction.DelaySeconds < 3 || result.NextAction.DelaySeconds > 15 {
		t.Fatalf("delay out of bounds: %d", result.NextAction.DelaySeconds)
	}
}

func TestSummaryRecommendations(t *testing.T) {
	pool := []models.Question{
		testQuestion("q1", models.DifficultyAdvanced, "Networking"),
		testQuestion("q2", models.DifficultyAdvanced, "Networking"),
		testQuestion("q3", models.DifficultyBeginner, "Storage"),
		testQuestion("q4", models.DifficultyBeginner, "Storage"),
	}
	s := newTestService(t, 4)
	session := startSession(t, s, pool, false)

	// Networking (advanced) both wrong, Storage both right: 50% overall.
	submit := func(id string, correct bool) {
		selected := []string{"answer_b"}
		if correct {
			selected = []string{"answer_a"}
		}
		if _, err := s.SubmitAnswer(session.SessionID, id, selected, 60); err != nil {
			t.Fatal(err)
		}
	}
	submit("q1", false)
	submit("q2", false)
	submit("q3", true)
	submit("q4", true)

	summary, err := s.Summary(context.Background(), session.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	if got := summary.TopicPerformance["Networking"]; got.Total != 2 || got.Correct != 0 || got.Percentage != 0 {
		t.Fatalf("networking stats wrong: %+v", got)
	}
	if got := summary.DifficultyPerformance["beginner"]; got.Percentage != 100 {
		t.Fatalf("beginner stats wrong: %+v", got)
	}
	if summary.TotalTimeSpentMinutes != 4 {
		t.Fatalf("expected 4 minutes spent, got %v", summary.TotalTimeSpentMinutes)
	}

	recs := summary.Recommendations
	if len(recs) != 5 {
		t.Fatalf("expected recommendation list capped at 5, got %d: %v", len(recs), recs)
	}
	if !strings.Contains(recs[0], "Consider additional study") {
		t.Fatalf("50%% score should produce the low band first: %v", recs)
	}
	if !strings.Contains(recs[1], "Networking") {
		t.Fatalf("weak topic missing from second slot: %v", recs)
	}
	if !strings.Contains(recs[2], "advanced-level") {
		t.Fatalf("advanced warning missing from third slot: %v", recs)
	}
}

func TestSummaryHighScoreBand(t *testing.T) {
	s := newTestService(t, 2)
	session := startSession(t, s, testPool(2), false)
	for _, id := range []string{"q000", "q001"} {
		if _, err := s.SubmitAnswer(session.SessionID, id, []string{"answer_a"}, 10); err != nil {
			t.Fatal(err)
		}
	}

	summary, _ := s.Summary(context.Background(), session.SessionID)
	if !strings.Contains(summary.Recommendations[0], "Excellent work") {
		t.Fatalf("100%% score should produce the top band: %v", summary.Recommendations)
	}
}

func TestEndSessionRemovesState(t *testing.T) {
	s := newTestService(t, 1)
	session := startSession(t, s, testPool(1), false)

	summary := s.EndSession(context.Background(), session.SessionID)
	if summary == nil {
		t.Fatal("ending a live session should return its summary")
	}
	if _, err := s.Progress(session.SessionID); !apperr.IsNotFound(err) {
		t.Fatalf("session should be gone, got %v", err)
	}
	if again := s.EndSession(context.Background(), session.SessionID); again != nil {
		t.Fatal("ending twice must be a silent no-op")
	}
}

func TestUpdateSettings(t *testing.T) {
	s := newTestService(t, 2)
	session := startSession(t, s, testPool(2), false)

	if err := s.UpdateSettings(session.SessionID, true); err != nil {
		t.Fatal(err)
	}
	q, _, _ := s.CurrentQuestion(session.SessionID)
	result, err := s.SubmitAnswer(session.SessionID, q.ID, q.CorrectAnswerIDs, 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.NextAction.Action != models.ActionAutoAdvance {
		t.Fatalf("settings update should enable auto advance, got %s", result.NextAction.Action)
	}

	if err := s.UpdateSettings("missing", true); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActiveSessions(t *testing.T) {
	s := newTestService(t, 1)
	first := startSession(t, s, testPool(1), false)
	second := startSession(t, s, testPool(1), true)

	infos := s.ActiveSessions()
	if len(infos) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(infos))
	}
	ids := map[string]bool{infos[0].SessionID: true, infos[1].SessionID: true}
	if !ids[first.SessionID] || !ids[second.SessionID] {
		t.Fatalf("listing missing a session: %v", infos)
	}
	if infos[0].Progress == nil {
		t.Fatal("listing should include progress snapshots")
	}
}

func TestIdleSessionReaped(t *testing.T) {
	s := newTestService(t, 1)
	current := time.Now()
	s.now = func() time.Time { return current }

	session := startSession(t, s, testPool(1), false)

	current = current.Add(25 * time.Hour)
	if _, err := s.Progress(session.SessionID); !apperr.IsNotFound(err) {
		t.Fatalf("idle session should be reaped on access, got %v", err)
	}
}

func TestSummaryStudyTips(t *testing.T) {
	advisor := &stubAdvisor{tips: "Review virtual network peering on Microsoft Learn."}
	rnd := randomizer.NewSeeded(logger.NewNop(), randomizer.DefaultConfig(), 1, time.Now)
	s := NewSessionService(logger.NewNop(), rnd, advisor, 4, 24*time.Hour)
	session := startSession(t, s, testPool(4), false)

	for _, id := range []string{"q000", "q001", "q002", "q003"} {
		if _, err := s.SubmitAnswer(session.SessionID, id, []string{"answer_a"}, 10); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := s.Summary(context.Background(), session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.AIStudyTips != advisor.tips {
		t.Fatalf("study tips = %q, want %q", summary.AIStudyTips, advisor.tips)
	}
	if advisor.calls != 1 {
		t.Fatalf("expected 1 advisor call, got %d", advisor.calls)
	}
}

func TestSummaryStudyTipsNeedEnoughAnswers(t *testing.T) {
	advisor := &stubAdvisor{tips: "unused"}
	rnd := randomizer.NewSeeded(logger.NewNop(), randomizer.DefaultConfig(), 1, time.Now)
	s := NewSessionService(logger.NewNop(), rnd, advisor, 4, 24*time.Hour)
	session := startSession(t, s, testPool(4), false)

	// Three answers is below the threshold; the advisor is not consulted.
	for _, id := range []string{"q000", "q001", "q002"} {
		if _, err := s.SubmitAnswer(session.SessionID, id, []string{"answer_a"}, 10); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := s.Summary(context.Background(), session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.AIStudyTips != "" {
		t.Fatalf("tips should be omitted with too few answers, got %q", summary.AIStudyTips)
	}
	if advisor.calls != 0 {
		t.Fatalf("advisor should not be called, got %d calls", advisor.calls)
	}
}

func TestSummaryStudyTipsFallbackOnAdvisorFailure(t *testing.T) {
	advisor := &stubAdvisor{err: errors.New("provider down")}
	rnd := randomizer.NewSeeded(logger.NewNop(), randomizer.DefaultConfig(), 1, time.Now)
	s := NewSessionService(logger.NewNop(), rnd, advisor, 4, 24*time.Hour)
	session := startSession(t, s, testPool(4), false)

	for _, id := range []string{"q000", "q001", "q002", "q003"} {
		if _, err := s.SubmitAnswer(session.SessionID, id, []string{"answer_a"}, 10); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := s.Summary(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("advisor failure must not fail the summary: %v", err)
	}
	if summary.AIStudyTips != studyTipsFallback {
		t.Fatalf("expected generic fallback tips, got %q", summary.AIStudyTips)
	}
}

func TestBuildStudyTipsPrompt(t *testing.T) {
	questions := []models.Question{
		testQuestion("q1", models.DifficultyAdvanced, "Networking"),
		testQuestion("q2", models.DifficultyBeginner, "Storage"),
	}
	prompt := buildStudyTipsPrompt(questions)
	if !strings.Contains(prompt, "Topics covered: Networking, Storage") {
		t.Fatalf("topics missing or unsorted:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Difficulty levels: advanced, beginner") {
		t.Fatalf("difficulty levels missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Total questions: 2") {
		t.Fatalf("question count missing:\n%s", prompt)
	}

	if got := buildStudyTipsPrompt(nil); !strings.Contains(got, "Various Microsoft certification topics") {
		t.Fatalf("empty topic set should use the generic label:\n%s", got)
	}
}

func TestProgressTimeEstimate(t *testing.T) {
	s := newTestService(t, 4)
	session := startSession(t, s, testPool(4), false)

	progress, _ := s.Progress(session.SessionID)
	if progress.EstimatedTimeRemainingMinutes != 8 {
		t.Fatalf("default estimate should be 120s per question: got %d", progress.EstimatedTimeRemainingMinutes)
	}

	q, _, _ := s.CurrentQuestion(session.SessionID)
	if _, err := s.SubmitAnswer(session.SessionID, q.ID, []string{"answer_a"}, 60); err != nil {
		t.Fatal(err)
	}
	progress, _ = s.Progress(session.SessionID)
	// 3 remaining at 60s average.
	if progress.EstimatedTimeRemainingMinutes != 3 {
		t.Fatalf("estimate should track running average: got %d", progress.EstimatedTimeRemainingMinutes)
	}
}
