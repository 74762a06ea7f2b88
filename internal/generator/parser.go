package generator

import (
	"fmt"
	"strings"

	"assessment-service/internal/apperr"
	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
)

// answerPrefixes are the option labels the model is asked to emit. Parsing
// tolerates up to six options even though the prompt asks for four.
var answerPrefixes = []string{"A)", "B)", "C)", "D)", "E)", "F)"}

// parseQuestions splits raw model output on "QUESTION" markers and parses
// each block independently. Malformed blocks are logged and skipped; one bad
// block never discards the rest of the batch.
func parseQuestions(log *logger.Logger, raw string, newID func() string) []models.Question {
	blocks := strings.Split(raw, "QUESTION")
	questions := make([]models.Question, 0, len(blocks))

	for i, block := range blocks[1:] {
		q, err := parseQuestionBlock(block, newID)
		if err != nil {
			log.Warn("skipping malformed question block", "block", i+1, "error", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// parseQuestionBlock parses one "QUESTION n:" block. Lines carry a known
// prefix or continue the preceding field, so multi-line question texts and
// explanations survive intact.
func parseQuestionBlock(block string, newID func() string) (models.Question, error) {
	var (
		text        strings.Builder
		explanation strings.Builder
		answers     []models.Answer
		correct     string
		difficulty  = models.DifficultyIntermediate
		topics      []string
	)

	// Tracks which field an unprefixed line continues.
	const (
		fieldNone = iota
		fieldText
		fieldAnswer
		fieldExplanation
	)
	current := fieldNone

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Text:"):
			text.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "Text:")))
			current = fieldText
		case isAnswerLine(line):
			letter := strings.ToLower(line[:1])
			answers = append(answers, models.Answer{
				ID:   "answer_" + letter,
				Text: strings.TrimSpace(line[2:]),
			})
			current = fieldAnswer
		case strings.HasPrefix(line, "Correct:"):
			correct = normalizeCorrect(strings.TrimPrefix(line, "Correct:"))
			current = fieldNone
		case strings.HasPrefix(line, "Explanation:"):
			explanation.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "Explanation:")))
			current = fieldExplanation
		case strings.HasPrefix(line, "Difficulty:"):
			if d, ok := parseDifficulty(strings.TrimPrefix(line, "Difficulty:")); ok {
				difficulty = d
			}
			current = fieldNone
		case strings.HasPrefix(line, "Topics:"):
			topics = splitTopics(strings.TrimPrefix(line, "Topics:"))
			current = fieldNone
		default:
			// Continuation of a multi-line field.
			switch current {
			case fieldText:
				text.WriteString(" " + line)
			case fieldExplanation:
				explanation.WriteString(" " + line)
			case fieldAnswer:
				answers[len(answers)-1].Text += " " + line
			}
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return models.Question{}, apperr.Parse("missing question text", nil)
	}
	if len(answers) < 2 {
		return models.Question{}, apperr.Parse(fmt.Sprintf("only %d answer options", len(answers)), nil)
	}

	// A Correct line that names a real option marks it; otherwise fall back
	// to the first option and flag the question as low confidence so callers
	// can treat it accordingly.
	lowConfidence := true
	correctID := answers[0].ID
	if correct != "" {
		wanted := "answer_" + strings.ToLower(correct)
		for i := range answers {
			if answers[i].ID == wanted {
				correctID = wanted
				lowConfidence = false
				break
			}
		}
	}
	for i := range answers {
		answers[i].IsCorrect = answers[i].ID == correctID
	}

	return models.NewQuestion(models.Question{
		ID:               newID(),
		Text:             strings.TrimSpace(text.String()),
		Type:             models.QuestionTypeMultipleChoice,
		Answers:          answers,
		CorrectAnswerIDs: []string{correctID},
		Explanation:      strings.TrimSpace(explanation.String()),
		Difficulty:       difficulty,
		Topics:           topics,
		LowConfidence:    lowConfidence,
	})
}

func isAnswerLine(line string) bool {
	for _, prefix := range answerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// normalizeCorrect extracts the option letter from forms like "B",
// "B) Azure Monitor", or "Answer B".
func normalizeCorrect(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ANSWER")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	letter := s[:1]
	if letter < "A" || letter > "F" {
		return ""
	}
	return letter
}

func parseDifficulty(s string) (models.DifficultyLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(models.DifficultyBeginner):
		return models.DifficultyBeginner, true
	case string(models.DifficultyIntermediate):
		return models.DifficultyIntermediate, true
	case string(models.DifficultyAdvanced):
		return models.DifficultyAdvanced, true
	default:
		return "", false
	}
}

func splitTopics(s string) []string {
	var topics []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
