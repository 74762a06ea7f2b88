package models

import "fmt"

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeMultipleSelect QuestionType = "multiple_select"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeDragDrop       QuestionType = "drag_drop"
	QuestionTypeCaseStudy      QuestionType = "case_study"
	QuestionTypeHotspot        QuestionType = "hotspot"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// Answer is a single selectable option of a question.
type Answer struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is immutable once built. CorrectAnswerIDs reference answer ids,
// never positions, so reordering Answers for display is always safe.
type Question struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Type             QuestionType    `json:"question_type"`
	Answers          []Answer        `json:"answers"`
	CorrectAnswerIDs []string        `json:"correct_answer_ids"`
	Explanation      string          `json:"explanation,omitempty"`
	Difficulty       DifficultyLevel `json:"difficulty,omitempty"`
	Topics           []string        `json:"topics,omitempty"`
	ReferenceLinks   []string        `json:"reference_links,omitempty"`
	// LowConfidence marks questions whose correct answer could not be read
	// from the generation output and was filled in heuristically. Callers
	// may discount such content.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// NewQuestion validates that every correct answer id exists among the
// answers before the question becomes visible to anyone.
func NewQuestion(q Question) (Question, error) {
	answerIDs := make(map[string]struct{}, len(q.Answers))
	for _, a := range q.Answers {
		answerIDs[a.ID] = struct{}{}
	}
	for _, id := range q.CorrectAnswerIDs {
		if _, ok := answerIDs[id]; !ok {
			return Question{}, fmt.Errorf("correct answer id %q not found in answers", id)
		}
	}
	return q, nil
}

// WithAnswers returns a copy of q whose answer list is replaced. Used by the
// randomizer to change display order without touching the original.
func (q Question) WithAnswers(answers []Answer) Question {
	out := q
	out.Answers = answers
	return out
}
