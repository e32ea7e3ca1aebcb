package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates the possible states of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "DRAFT"
	AssessmentStatusPublished AssessmentStatus = "PUBLISHED"
	AssessmentStatusArchived  AssessmentStatus = "ARCHIVED"
)

// IntegrityPolicy decides what happens when a session crosses the tab-switch
// threshold: flag it for manual review, or force an automatic submission.
type IntegrityPolicy string

const (
	IntegrityReview     IntegrityPolicy = "review"
	IntegrityAutosubmit IntegrityPolicy = "autosubmit"
)

// Assessment is a published question set candidates can attempt.
type Assessment struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	AuthorID         int              `json:"author_id"`
	DurationMinutes  int              `json:"duration_minutes"`
	PassingThreshold float64          `json:"passing_threshold"`
	MaxTabSwitches   int              `json:"max_tab_switches"`
	IntegrityPolicy  IntegrityPolicy  `json:"integrity_policy"`
	QuestionCount    int              `json:"question_count"`
	Status           AssessmentStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CreateAssessmentRequest is the payload for creating a new assessment.
type CreateAssessmentRequest struct {
	Title            string   `json:"title" binding:"required,min=3,max=255"`
	Description      string   `json:"description" binding:"omitempty,max=4000"`
	DurationMinutes  int      `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingThreshold *float64 `json:"passing_threshold" binding:"omitempty,min=0,max=100"`
	MaxTabSwitches   *int     `json:"max_tab_switches" binding:"omitempty,min=0"`
	IntegrityPolicy  string   `json:"integrity_policy" binding:"omitempty,integrity_policy"`
}

// UpdateAssessmentRequest is the payload for updating a draft assessment.
type UpdateAssessmentRequest struct {
	Title            string   `json:"title" binding:"omitempty,min=3,max=255"`
	Description      *string  `json:"description" binding:"omitempty,max=4000"`
	DurationMinutes  int      `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingThreshold *float64 `json:"passing_threshold" binding:"omitempty,min=0,max=100"`
	MaxTabSwitches   *int     `json:"max_tab_switches" binding:"omitempty,min=0"`
	IntegrityPolicy  string   `json:"integrity_policy" binding:"omitempty,integrity_policy"`
}

// AssessmentPayload is the Redis-cached payload sent to candidates
// (no correct answers).
type AssessmentPayload struct {
	AssessmentID    uuid.UUID              `json:"assessment_id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	DurationMinutes int                    `json:"duration_minutes"`
	Questions       []QuestionForCandidate `json:"questions"`
}
