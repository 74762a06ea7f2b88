package models

import (
	"fmt"
	"time"
)

// Assessment is a question pool for one certification. Owned by the
// assessment store, created once per certification code, replaced only by
// explicit invalidation.
type Assessment struct {
	ID                       string     `json:"id"`
	CertificationCode        string     `json:"certification_code"`
	Title                    string     `json:"title"`
	Description              string     `json:"description,omitempty"`
	Questions                []Question `json:"questions"`
	TotalQuestions           int        `json:"total_questions"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// NewAssessment enforces that TotalQuestions matches the question list.
func NewAssessment(a Assessment) (Assessment, error) {
	if a.TotalQuestions != len(a.Questions) {
		return Assessment{}, fmt.Errorf("total_questions (%d) does not match question count (%d)",
			a.TotalQuestions, len(a.Questions))
	}
	return a, nil
}

// CertificationInfo describes one certification exam in the catalog.
type CertificationInfo struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Level    string `json:"level,omitempty"`
	URL      string `json:"url,omitempty"`
}
