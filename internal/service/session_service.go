// Package service implements the practice-exam flows: session lifecycle,
// grading, pacing, and audio orchestration.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assessment-service/internal/apperr"
	"assessment-service/internal/clients/llm"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
	"assessment-service/internal/randomizer"
)

const defaultSecondsPerQuestion = 120

// sessionEntry bundles one session's state with its own lock, so operations
// on different sessions never contend.
type sessionEntry struct {
	mu        sync.Mutex
	session   models.UserSession
	questions []models.Question
	title     string
	answers   []models.UserAnswer
}

type SessionService struct {
	log        *logger.Logger
	randomizer *randomizer.Randomizer
	// advisor generates study tips for summaries; nil disables them.
	advisor llm.Completer

	questionsPerSession int
	maxIdle             time.Duration
	now                 func() time.Time
	newID               func() string

	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

func NewSessionService(log *logger.Logger, rnd *randomizer.Randomizer, advisor llm.Completer, questionsPerSession int, maxIdle time.Duration) *SessionService {
	return &SessionService{
		log:                 log,
		randomizer:          rnd,
		advisor:             advisor,
		questionsPerSession: questionsPerSession,
		maxIdle:             maxIdle,
		now:                 time.Now,
		newID:               uuid.NewString,
		entries:             make(map[string]*sessionEntry),
	}
}

// StartSession allocates a session over a personalized subset of the
// assessment's question pool.
func (s *SessionService) StartSession(assessment *models.Assessment, autoProgression bool) (models.UserSession, error) {
	if assessment == nil || len(assessment.Questions) == 0 {
		return models.UserSession{}, apperr.NotFound("assessment has no questions")
	}

	sessionID := s.newID()
	count := s.questionsPerSession
	if count > len(assessment.Questions) {
		count = len(assessment.Questions)
	}
	questions := s.randomizer.SelectForSession(assessment.Questions, sessionID, count, true)

	now := s.now()
	session := models.UserSession{
		SessionID:              sessionID,
		AssessmentID:           assessment.ID,
		StartTime:              now,
		LastActivity:           now,
		AutoProgressionEnabled: autoProgression,
	}

	s.mu.Lock()
	s.entries[sessionID] = &sessionEntry{
		session:   session,
		questions: questions,
		title:     assessment.Title,
	}
	s.mu.Unlock()

	s.log.Info("session started",
		"session_id", sessionID,
		"assessment_id", assessment.ID,
		"questions", len(questions),
		"auto_progression", autoProgression)
	return session, nil
}

// CurrentQuestion returns the question at the session's index. Running past
// the end marks the session completed and reports done=true; that is a normal
// terminal state, not an error.
func (s *SessionService) CurrentQuestion(sessionID string) (*models.Question, bool, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, false, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.LastActivity = s.now()

	if entry.session.CurrentQuestionIndex >= len(entry.questions) {
		entry.session.IsCompleted = true
		return nil, true, nil
	}
	q := entry.questions[entry.session.CurrentQuestionIndex]
	return &q, false, nil
}

// SubmitAnswer grades by set equality between the selection and the correct
// ids. Every submission appends an answer record; score increments only the
// first time a question id is answered.
func (s *SessionService) SubmitAnswer(sessionID, questionID string, selectedAnswerIDs []string, timeSpentSeconds int) (*models.AnswerResult, error) {
	if len(selectedAnswerIDs) == 0 {
		return nil, apperr.Validation("no answers selected")
	}

	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.LastActivity = s.now()

	question := findQuestion(entry.questions, questionID)
	if question == nil {
		return nil, apperr.NotFound("question %s not found in session", questionID)
	}

	isCorrect := setEqual(selectedAnswerIDs, question.CorrectAnswerIDs)

	entry.answers = append(entry.answers, models.UserAnswer{
		SessionID:         sessionID,
		QuestionID:        questionID,
		SelectedAnswerIDs: append([]string(nil), selectedAnswerIDs...),
		IsCorrect:         isCorrect,
		TimeSpentSeconds:  timeSpentSeconds,
		AnsweredAt:        s.now(),
	})

	if !contains(entry.session.AnsweredQuestionIDs, questionID) {
		entry.session.AnsweredQuestionIDs = append(entry.session.AnsweredQuestionIDs, questionID)
		if isCorrect {
			entry.session.Score++
		}
	}

	progress := s.progressLocked(entry)
	result := &models.AnswerResult{
		IsCorrect:        isCorrect,
		CorrectAnswerIDs: append([]string(nil), question.CorrectAnswerIDs...),
		Explanation:      question.Explanation,
		ReferenceLinks:   append([]string(nil), question.ReferenceLinks...),
		NextAction:       s.nextActionLocked(entry, question, isCorrect),
		Progress:         progress,
	}
	return result, nil
}

// Advance moves the session pointer forward. Completion is one-way: once the
// list is exhausted the index stops changing.
func (s *SessionService) Advance(sessionID string) (*models.Question, bool, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, false, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.LastActivity = s.now()

	if entry.session.IsCompleted || entry.session.CurrentQuestionIndex >= len(entry.questions)-1 {
		entry.session.IsCompleted = true
		if entry.session.CurrentQuestionIndex < len(entry.questions) {
			entry.session.CurrentQuestionIndex = len(entry.questions)
		}
		return nil, true, nil
	}

	entry.session.CurrentQuestionIndex++
	q := entry.questions[entry.session.CurrentQuestionIndex]
	return &q, false, nil
}

// Progress derives a snapshot; nothing is stored.
func (s *SessionService) Progress(sessionID string) (*models.SessionProgress, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.progressLocked(entry), nil
}

// Summary aggregates per-topic and per-difficulty accuracy and produces up
// to five ranked recommendations, plus generated study tips when an advisor
// is wired and the session has enough answers to say anything useful.
func (s *SessionService) Summary(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	summary := s.summaryLocked(entry)
	questions := append([]models.Question(nil), entry.questions...)
	entry.mu.Unlock()

	// The advisor call leaves the lock so a slow provider never stalls the
	// session's answer flow.
	if s.advisor != nil && len(summary.DetailedAnswers) > 3 {
		summary.AIStudyTips = s.studyTips(ctx, questions)
	}
	return summary, nil
}

// EndSession captures a final summary and removes the session. Unknown ids
// are a silent no-op that returns a nil summary.
func (s *SessionService) EndSession(ctx context.Context, sessionID string) *models.SessionSummary {
	s.mu.Lock()
	entry, ok := s.entries[sessionID]
	delete(s.entries, sessionID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	entry.mu.Lock()
	summary := s.summaryLocked(entry)
	questions := append([]models.Question(nil), entry.questions...)
	entry.mu.Unlock()

	if s.advisor != nil && len(summary.DetailedAnswers) > 3 {
		summary.AIStudyTips = s.studyTips(ctx, questions)
	}

	s.randomizer.Forget(sessionID)
	s.log.Info("session ended", "session_id", sessionID, "score", summary.Progress.CorrectAnswers)
	return summary
}

// UpdateSettings toggles auto progression for a running session.
func (s *SessionService) UpdateSettings(sessionID string, autoProgression bool) error {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.AutoProgressionEnabled = autoProgression
	entry.session.LastActivity = s.now()
	return nil
}

// Answers returns the session's full submission history.
func (s *SessionService) Answers(sessionID string) ([]models.UserAnswer, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return append([]models.UserAnswer(nil), entry.answers...), nil
}

// ActiveSessions lists every live session with a progress snapshot.
func (s *SessionService) ActiveSessions() []models.ActiveSessionInfo {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	infos := make([]models.ActiveSessionInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		infos = append(infos, models.ActiveSessionInfo{
			SessionID:    e.session.SessionID,
			AssessmentID: e.session.AssessmentID,
			StartTime:    e.session.StartTime,
			LastActivity: e.session.LastActivity,
			IsCompleted:  e.session.IsCompleted,
			Progress:     s.progressLocked(e),
		})
		e.mu.Unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartTime.Before(infos[j].StartTime) })
	return infos
}

// Question returns a question from the session's set by id, for callers that
// need its text outside the answer flow (audio narration).
func (s *SessionService) Question(sessionID, questionID string) (*models.Question, error) {
	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	q := findQuestion(entry.questions, questionID)
	if q == nil {
		return nil, apperr.NotFound("question %s not found in session", questionID)
	}
	out := *q
	return &out, nil
}

// lookup resolves a session entry, reaping it instead when it has been idle
// past the configured maximum.
func (s *SessionService) lookup(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("session %s not found", sessionID)
	}

	entry.mu.Lock()
	stale := s.now().Sub(entry.session.LastActivity) > s.maxIdle
	entry.mu.Unlock()
	if stale {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		s.randomizer.Forget(sessionID)
		s.log.Info("reaped idle session", "session_id", sessionID)
		return nil, apperr.NotFound("session %s not found", sessionID)
	}
	return entry, nil
}

func (s *SessionService) progressLocked(entry *sessionEntry) *models.SessionProgress {
	total := len(entry.questions)
	answered := len(entry.session.AnsweredQuestionIDs)

	var percentageComplete, scorePercentage float64
	if total > 0 {
		percentageComplete = float64(answered) / float64(total) * 100
	}
	if answered > 0 {
		scorePercentage = float64(entry.session.Score) / float64(answered) * 100
	}

	// Estimate remaining time from the running average per answer; fall back
	// to a flat default before any answers arrive.
	avgSeconds := float64(defaultSecondsPerQuestion)
	if len(entry.answers) > 0 {
		var totalSpent int
		for _, a := range entry.answers {
			totalSpent += a.TimeSpentSeconds
		}
		avgSeconds = float64(totalSpent) / float64(len(entry.answers))
	}
	remaining := total - answered

	return &models.SessionProgress{
		SessionID:                     entry.session.SessionID,
		TotalQuestions:                total,
		AnsweredQuestions:             answered,
		CorrectAnswers:                entry.session.Score,
		CurrentQuestionIndex:          entry.session.CurrentQuestionIndex,
		PercentageComplete:            percentageComplete,
		ScorePercentage:               scorePercentage,
		EstimatedTimeRemainingMinutes: int(avgSeconds * float64(remaining) / 60),
	}
}

func (s *SessionService) summaryLocked(entry *sessionEntry) *models.SessionSummary {
	topicPerf := bucketize(entry.answers, entry.questions, func(q *models.Question) []string {
		return q.Topics
	})
	difficultyPerf := bucketize(entry.answers, entry.questions, func(q *models.Question) []string {
		if q.Difficulty == "" {
			return nil
		}
		return []string{string(q.Difficulty)}
	})

	var totalSpent int
	for _, a := range entry.answers {
		totalSpent += a.TimeSpentSeconds
	}

	status := "in_progress"
	if entry.session.IsCompleted {
		status = "completed"
	}

	return &models.SessionSummary{
		SessionID:             entry.session.SessionID,
		AssessmentTitle:       entry.title,
		CompletionStatus:      status,
		TotalTimeSpentMinutes: float64(totalSpent) / 60,
		Progress:              s.progressLocked(entry),
		TopicPerformance:      topicPerf,
		DifficultyPerformance: difficultyPerf,
		Recommendations:       buildRecommendations(entry.session, topicPerf, difficultyPerf),
		DetailedAnswers:       append([]models.UserAnswer(nil), entry.answers...),
	}
}

// nextActionLocked implements the pacing directive. The last question always
// completes; otherwise auto progression computes a bounded delay sized to
// the explanation, correctness, and question type.
func (s *SessionService) nextActionLocked(entry *sessionEntry, question *models.Question, isCorrect bool) models.NextAction {
	if entry.session.CurrentQuestionIndex >= len(entry.questions)-1 {
		return models.NextAction{
			Action:  models.ActionCompleteAssessment,
			Message: "Assessment completed!",
		}
	}
	if !entry.session.AutoProgressionEnabled {
		return models.NextAction{
			Action:  models.ActionManualAdvance,
			Message: "Click 'Next Question' to continue.",
		}
	}

	delay := autoAdvanceDelay(question, isCorrect)
	return models.NextAction{
		Action:       models.ActionAutoAdvance,
		DelaySeconds: delay,
		Message:      fmt.Sprintf("Automatically advancing to next question in %d seconds...", delay),
	}
}

// autoAdvanceDelay: 3s base, plus reading time for the explanation at 200
// words per minute assuming ~5 characters per word (at least 3s when there
// is one), plus 2s after an incorrect answer, plus 3s for question types
// that take longer to digest. Capped at 15s.
func autoAdvanceDelay(question *models.Question, isCorrect bool) int {
	delay := 3
	if question.Explanation != "" {
		// chars / (words per minute * chars per word) is minutes; scale to
		// seconds before applying the floor.
		readingSeconds := float64(len(question.Explanation)) / (200 * 5) * 60
		if readingSeconds < 3 {
			readingSeconds = 3
		}
		delay += int(readingSeconds)
	}
	if !isCorrect {
		delay += 2
	}
	if question.Type == models.QuestionTypeCaseStudy || question.Type == models.QuestionTypeDragDrop {
		delay += 3
	}
	if delay > 15 {
		delay = 15
	}
	return delay
}

// buildRecommendations emits up to five entries ranked by priority: overall
// band, weak topics, advanced-difficulty warning, then two generic tips.
func buildRecommendations(session models.UserSession, topicPerf, difficultyPerf map[string]models.BucketStats) []string {
	var recs []string

	if answered := len(session.AnsweredQuestionIDs); answered > 0 {
		scorePercentage := float64(session.Score) / float64(answered) * 100
		switch {
		case scorePercentage >= 80:
			recs = append(recs, "Excellent work! You're well-prepared for this certification exam.")
		case scorePercentage >= 60:
			recs = append(recs, "Good progress! Review the topics where you had incorrect answers.")
		default:
			recs = append(recs, "Consider additional study before taking the actual exam.")
		}
	}

	var weakTopics []string
	for topic, stats := range topicPerf {
		if stats.Percentage < 60 && stats.Total >= 2 {
			weakTopics = append(weakTopics, topic)
		}
	}
	// Weakest first; names break ties so the output is stable.
	sort.Slice(weakTopics, func(i, j int) bool {
		a, b := topicPerf[weakTopics[i]], topicPerf[weakTopics[j]]
		if a.Percentage != b.Percentage {
			return a.Percentage < b.Percentage
		}
		return weakTopics[i] < weakTopics[j]
	})
	if len(weakTopics) > 0 {
		if len(weakTopics) > 3 {
			weakTopics = weakTopics[:3]
		}
		recs = append(recs, "Focus on these topics: "+strings.Join(weakTopics, ", "))
	}

	if advanced, ok := difficultyPerf[string(models.DifficultyAdvanced)]; ok && advanced.Percentage < 50 {
		recs = append(recs, "Practice more advanced-level questions to improve your expertise.")
	}

	recs = append(recs,
		"Review the reference links provided with incorrect answers.",
		"Take the practice assessment multiple times to reinforce learning.")

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

// bucketize aggregates answers into correct/total counts per bucket key.
func bucketize(answers []models.UserAnswer, questions []models.Question, keys func(*models.Question) []string) map[string]models.BucketStats {
	stats := make(map[string]models.BucketStats)
	for _, answer := range answers {
		question := findQuestion(questions, answer.QuestionID)
		if question == nil {
			continue
		}
		for _, key := range keys(question) {
			b := stats[key]
			b.Total++
			if answer.IsCorrect {
				b.Correct++
			}
			stats[key] = b
		}
	}
	for key, b := range stats {
		if b.Total > 0 {
			b.Percentage = float64(b.Correct) / float64(b.Total) * 100
		}
		stats[key] = b
	}
	return stats
}

func findQuestion(questions []models.Question, id string) *models.Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}

func setEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
