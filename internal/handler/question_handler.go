package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
	"github.com/hirelens/hirelens-backend/internal/validator"
)

// QuestionHandler handles recruiter-facing question authoring endpoints.
type QuestionHandler struct {
	assessmentService *service.AssessmentService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(assessmentService *service.AssessmentService) *QuestionHandler {
	return &QuestionHandler{assessmentService: assessmentService}
}

// List godoc
// GET /api/v1/recruiter/assessments/:id/questions
// Returns the full question set including grading material.
func (h *QuestionHandler) List(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.assessmentService.ListQuestions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Replace godoc
// PUT /api/v1/recruiter/assessments/:id/questions
// Atomically swaps the full question set of a draft assessment.
func (h *QuestionHandler) Replace(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		if fields := validateQuestionShape(&q); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
		questions[i] = model.Question{
			Type:            model.QuestionType(q.Type),
			Text:            q.Text,
			Difficulty:      q.Difficulty,
			Points:          q.Points,
			OrderNum:        q.OrderNum,
			Options:         q.Options,
			CorrectAnswer:   q.CorrectAnswer,
			StarterCode:     q.StarterCode,
			TestCases:       q.TestCases,
			LanguageOptions: q.LanguageOptions,
		}
	}

	if err := h.assessmentService.ReplaceQuestions(c.Request.Context(), id, claims.UserID, questions); err != nil {
		serviceErrorStatus(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}

// validateQuestionShape enforces the per-type structural rules that binding
// tags cannot express.
func validateQuestionShape(q *model.AddQuestionRequest) map[string]string {
	switch model.QuestionType(q.Type) {
	case model.QuestionTypeMcq:
		if len(q.Options) < 2 {
			return map[string]string{"options": "mcq questions need at least two options"}
		}
		if q.CorrectAnswer == "" {
			return map[string]string{"correct_answer": "mcq questions need a correct answer"}
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return map[string]string{"correct_answer": "correct answer must be one of the options"}
		}
	case model.QuestionTypeCoding:
		if len(q.LanguageOptions) == 0 {
			return map[string]string{"language_options": "coding questions need at least one language"}
		}
	}
	return nil
}
