package model

import (
	"github.com/google/uuid"
)

// QuestionScore is the per-question line of a ScoreBreakdown.
type QuestionScore struct {
	QuestionID uuid.UUID `json:"question_id"`
	Earned     float64   `json:"earned_points"`
	Possible   int       `json:"possible_points"`
	Answered   bool      `json:"answered"`
}

// ScoreBreakdown is the scoring engine's verdict for a completed session.
type ScoreBreakdown struct {
	PerQuestion  []QuestionScore `json:"per_question"`
	EarnedPoints float64         `json:"earned_points"`
	TotalPoints  int             `json:"total_points"`
	Percentage   float64         `json:"percentage"`
	Passed       bool            `json:"passed"`
}
