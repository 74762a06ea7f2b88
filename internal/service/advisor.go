package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"assessment-service/internal/models"
)

const studyTipsSystemPrompt = "You are an expert Microsoft certification study advisor who provides practical, actionable study guidance."

// studyTipsFallback stands in when the advisor call fails; generic advice
// beats an empty field in the summary.
const studyTipsFallback = "Focus on Microsoft documentation and hands-on practice with Azure services."

// studyTips asks the advisor for personalized study guidance based on the
// session's question set. Never fails: provider errors degrade to a generic
// tip.
func (s *SessionService) studyTips(ctx context.Context, questions []models.Question) string {
	tips, err := s.advisor.Complete(ctx, studyTipsSystemPrompt, buildStudyTipsPrompt(questions))
	if err != nil {
		s.log.Warn("study tips generation failed", "error", err)
		return studyTipsFallback
	}
	return strings.TrimSpace(tips)
}

// buildStudyTipsPrompt summarizes the question set's topics, difficulty
// levels, and types. Lists are sorted so identical sessions produce
// identical prompts.
func buildStudyTipsPrompt(questions []models.Question) string {
	topicSet := make(map[string]struct{})
	difficultySet := make(map[string]struct{})
	typeSet := make(map[string]struct{})
	for _, q := range questions {
		for _, topic := range q.Topics {
			topicSet[topic] = struct{}{}
		}
		if q.Difficulty != "" {
			difficultySet[string(q.Difficulty)] = struct{}{}
		}
		typeSet[string(q.Type)] = struct{}{}
	}

	topics := sortedJoin(topicSet)
	if topics == "" {
		topics = "Various Microsoft certification topics"
	}

	return fmt.Sprintf(`You are a Microsoft certification study advisor. Based on this practice assessment data, provide personalized study recommendations.

Topics covered: %s
Difficulty levels: %s
Question types: %s
Total questions: %d

Please provide:
1. Key study areas to focus on
2. Recommended study resources (Microsoft Learn paths, documentation)
3. Practice strategies for the exam
4. Time management tips
5. Common pitfalls to avoid

Make the advice practical and specific to Microsoft certification preparation.`,
		topics, sortedJoin(difficultySet), sortedJoin(typeSet), len(questions))
}

func sortedJoin(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
