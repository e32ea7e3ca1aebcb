package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/engine"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
)

// CandidatePortalHandler handles candidate-facing endpoints (lobby, session
// lifecycle, stepper).
type CandidatePortalHandler struct {
	sessionService    *service.SessionService
	assessmentService *service.AssessmentService
}

// NewCandidatePortalHandler creates a new CandidatePortalHandler.
func NewCandidatePortalHandler(
	sessionService *service.SessionService,
	assessmentService *service.AssessmentService,
) *CandidatePortalHandler {
	return &CandidatePortalHandler{
		sessionService:    sessionService,
		assessmentService: assessmentService,
	}
}

// GetLobby godoc
// GET /api/v1/candidate/lobby
// Returns published assessments with the candidate's progress overlaid.
func (h *CandidatePortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if lobby == nil {
		lobby = []service.LobbyAssessment{}
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": lobby})
}

// StartSession godoc
// POST /api/v1/candidate/assessments/:assessment_id/start
// Begins or resumes the candidate's attempt and starts the countdown.
func (h *CandidatePortalHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.StartSession(c.Request.Context(), claims.UserID, assessmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotAvailable):
			response.Fail(c, http.StatusNotFound, response.ErrAssessmentNotAvailable)
		case errors.Is(err, engine.ErrNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetPaper godoc
// GET /api/v1/candidate/assessments/:assessment_id/paper
// Returns the cached question payload (no grading material).
func (h *CandidatePortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.assessmentService.GetAssessmentPayload(c.Request.Context(), assessmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAssessmentNotAvailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": payload})
}

// GetState godoc
// GET /api/v1/candidate/assessments/:assessment_id/state
// Returns the full resumable session state plus the stepper projection.
func (h *CandidatePortalHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), claims.UserID, assessmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotAvailable) {
			response.Fail(c, http.StatusNotFound, response.ErrAssessmentNotAvailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetResult godoc
// GET /api/v1/candidate/assessments/:assessment_id/result
// Returns the candidate's verdict for a completed attempt.
func (h *CandidatePortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	breakdown, err := h.sessionService.GetResult(c.Request.Context(), claims.UserID, assessmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": breakdown})
}
