package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMcq       QuestionType = "mcq"
	QuestionTypeCoding    QuestionType = "coding"
	QuestionTypeVideo     QuestionType = "video"
	QuestionTypeOpenEnded QuestionType = "open_ended"
)

// ResponseKind returns the response variant a question of this type accepts.
func (t QuestionType) ResponseKind() ResponseKind {
	switch t {
	case QuestionTypeMcq:
		return ResponseKindMcq
	case QuestionTypeCoding:
		return ResponseKindCode
	case QuestionTypeVideo, QuestionTypeOpenEnded:
		return ResponseKindMedia
	}
	return ResponseKind("")
}

// Question is a single catalog entry. Immutable once the assessment is published.
type Question struct {
	ID           uuid.UUID    `json:"id"`
	AssessmentID uuid.UUID    `json:"assessment_id"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text"`
	Difficulty   string       `json:"difficulty"`
	Points       int          `json:"points"`
	OrderNum     int          `json:"order_num"`

	// mcq
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`

	// coding
	StarterCode     string   `json:"starter_code,omitempty"`
	TestCases       []string `json:"test_cases,omitempty"`
	LanguageOptions []string `json:"language_options,omitempty"`
}

// AddQuestionRequest is the payload for adding a question to an assessment.
type AddQuestionRequest struct {
	Type            string   `json:"type" binding:"required,question_type"`
	Text            string   `json:"text" binding:"required,min=1,max=4000"`
	Difficulty      string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points          int      `json:"points" binding:"min=0"`
	OrderNum        int      `json:"order_num" binding:"min=0"`
	Options         []string `json:"options" binding:"omitempty,dive,min=1"`
	CorrectAnswer   string   `json:"correct_answer" binding:"omitempty,max=500"`
	StarterCode     string   `json:"starter_code" binding:"omitempty"`
	TestCases       []string `json:"test_cases" binding:"omitempty"`
	LanguageOptions []string `json:"language_options" binding:"omitempty"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an assessment's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}

// QuestionForCandidate is a question stripped of grading material, sent to candidates.
type QuestionForCandidate struct {
	ID              uuid.UUID    `json:"id"`
	Type            QuestionType `json:"type"`
	Text            string       `json:"text"`
	Difficulty      string       `json:"difficulty"`
	Points          int          `json:"points"`
	OrderNum        int          `json:"order_num"`
	Options         []string     `json:"options,omitempty"`
	StarterCode     string       `json:"starter_code,omitempty"`
	TestCases       []string     `json:"test_cases,omitempty"`
	LanguageOptions []string     `json:"language_options,omitempty"`
}
