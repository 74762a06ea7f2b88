package models

import "time"

// UserSession tracks one practice run. CurrentQuestionIndex only grows and
// IsCompleted is a one-way flag: operations on a completed session are still
// accepted, the index simply stops changing.
type UserSession struct {
	SessionID               string    `json:"session_id"`
	AssessmentID            string    `json:"assessment_id"`
	CurrentQuestionIndex    int       `json:"current_question_index"`
	AnsweredQuestionIDs     []string  `json:"answered_questions"`
	Score                   int       `json:"score"`
	StartTime               time.Time `json:"start_time"`
	LastActivity            time.Time `json:"last_activity"`
	IsCompleted             bool      `json:"is_completed"`
	AutoProgressionEnabled  bool      `json:"auto_progression_enabled"`
}

// UserAnswer is one submitted answer. Append-only; IsCorrect is computed at
// submission time and never recomputed.
type UserAnswer struct {
	SessionID         string    `json:"session_id"`
	QuestionID        string    `json:"question_id"`
	SelectedAnswerIDs []string  `json:"selected_answer_ids"`
	IsCorrect         bool      `json:"is_correct"`
	TimeSpentSeconds  int       `json:"time_spent_seconds,omitempty"`
	AnsweredAt        time.Time `json:"answered_at"`
}

type NextActionType string

const (
	ActionCompleteAssessment NextActionType = "complete_assessment"
	ActionAutoAdvance        NextActionType = "auto_advance"
	ActionManualAdvance      NextActionType = "manual_advance"
)

// NextAction tells the caller how to proceed after an answer.
type NextAction struct {
	Action       NextActionType `json:"action"`
	DelaySeconds int            `json:"delay_seconds,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// AnswerResult is the full response to a submitted answer.
type AnswerResult struct {
	IsCorrect        bool             `json:"is_correct"`
	CorrectAnswerIDs []string         `json:"correct_answer_ids"`
	Explanation      string           `json:"explanation,omitempty"`
	ReferenceLinks   []string         `json:"reference_links,omitempty"`
	NextAction       NextAction       `json:"next_action"`
	Progress         *SessionProgress `json:"progress,omitempty"`
}

// SessionProgress is a derived snapshot; it holds no state of its own.
type SessionProgress struct {
	SessionID                     string  `json:"session_id"`
	TotalQuestions                int     `json:"total_questions"`
	AnsweredQuestions             int     `json:"answered_questions"`
	CorrectAnswers                int     `json:"correct_answers"`
	CurrentQuestionIndex          int     `json:"current_question_index"`
	PercentageComplete            float64 `json:"percentage_complete"`
	ScorePercentage               float64 `json:"score_percentage"`
	EstimatedTimeRemainingMinutes int     `json:"estimated_time_remaining_minutes"`
}

// BucketStats aggregates correctness within one topic or difficulty bucket.
type BucketStats struct {
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"`
}

// SessionSummary is the end-of-session report with per-bucket accuracy and
// up to five ranked recommendations.
type SessionSummary struct {
	SessionID             string                 `json:"session_id"`
	AssessmentTitle       string                 `json:"assessment_title"`
	CompletionStatus      string                 `json:"completion_status"`
	TotalTimeSpentMinutes float64                `json:"total_time_spent_minutes"`
	Progress              *SessionProgress       `json:"progress,omitempty"`
	TopicPerformance      map[string]BucketStats `json:"topic_performance"`
	DifficultyPerformance map[string]BucketStats `json:"difficulty_performance"`
	Recommendations       []string               `json:"recommendations"`
	AIStudyTips           string                 `json:"ai_study_tips,omitempty"`
	DetailedAnswers       []UserAnswer           `json:"detailed_answers"`
}

// ActiveSessionInfo is the per-session line of the active-sessions listing.
type ActiveSessionInfo struct {
	SessionID    string           `json:"session_id"`
	AssessmentID string           `json:"assessment_id"`
	StartTime    time.Time        `json:"start_time"`
	LastActivity time.Time        `json:"last_activity"`
	IsCompleted  bool             `json:"is_completed"`
	Progress     *SessionProgress `json:"progress,omitempty"`
}
