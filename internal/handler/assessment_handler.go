package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
	"github.com/hirelens/hirelens-backend/internal/validator"
)

// AssessmentHandler handles recruiter-facing assessment endpoints.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	sessionService    *service.SessionService
	resultRepo        *repository.ResultRepository
	responseRepo      *repository.ResponseRepository
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(
	assessmentService *service.AssessmentService,
	sessionService *service.SessionService,
	resultRepo *repository.ResultRepository,
	responseRepo *repository.ResponseRepository,
) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		sessionService:    sessionService,
		resultRepo:        resultRepo,
		responseRepo:      responseRepo,
	}
}

func serviceErrorStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAssessmentAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssessmentAuthor)
	case errors.Is(err, service.ErrAssessmentNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotDraft)
	case errors.Is(err, service.ErrAssessmentNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/recruiter/assessments?page=&per_page=
func (h *AssessmentHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	assessments, pagination, err := h.assessmentService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"assessments": assessments}, pagination)
}

// Get godoc
// GET /api/v1/recruiter/assessments/:id
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": assessment})
}

// Create godoc
// POST /api/v1/recruiter/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assessment := &model.Assessment{
		Title:           req.Title,
		Description:     req.Description,
		AuthorID:        claims.UserID,
		DurationMinutes: req.DurationMinutes,
		IntegrityPolicy: model.IntegrityPolicy(req.IntegrityPolicy),
	}
	if req.PassingThreshold != nil {
		assessment.PassingThreshold = *req.PassingThreshold
	}
	if req.MaxTabSwitches != nil {
		assessment.MaxTabSwitches = *req.MaxTabSwitches
	}

	if err := h.assessmentService.Create(c.Request.Context(), assessment); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assessment": assessment})
}

// Update godoc
// PUT /api/v1/recruiter/assessments/:id
func (h *AssessmentHandler) Update(c *gin.Context) {
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

	var req model.UpdateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	// Patch semantics: unset request fields keep the stored value.
	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.DurationMinutes > 0 {
		existing.DurationMinutes = req.DurationMinutes
	}
	if req.PassingThreshold != nil {
		existing.PassingThreshold = *req.PassingThreshold
	}
	if req.MaxTabSwitches != nil {
		existing.MaxTabSwitches = *req.MaxTabSwitches
	}
	if req.IntegrityPolicy != "" {
		existing.IntegrityPolicy = model.IntegrityPolicy(req.IntegrityPolicy)
	}

	if err := h.assessmentService.Update(c.Request.Context(), claims.UserID, existing); err != nil {
		serviceErrorStatus(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": existing})
}

// Delete godoc
// DELETE /api/v1/recruiter/assessments/:id
func (h *AssessmentHandler) Delete(c *gin.Context) {
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

	if err := h.assessmentService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		serviceErrorStatus(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/recruiter/assessments/:id/publish
// Warms the Redis payload + answer key caches and flips status to PUBLISHED.
func (h *AssessmentHandler) Publish(c *gin.Context) {
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

	if err := h.assessmentService.Publish(c.Request.Context(), id, claims.UserID); err != nil {
		serviceErrorStatus(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.AssessmentStatusPublished})
}

// Archive godoc
// POST /api/v1/recruiter/assessments/:id/archive
func (h *AssessmentHandler) Archive(c *gin.Context) {
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

	if err := h.assessmentService.Archive(c.Request.Context(), id, claims.UserID); err != nil {
		serviceErrorStatus(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.AssessmentStatusArchived})
}

// ListResults godoc
// GET /api/v1/recruiter/assessments/:id/results?page=&per_page=
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, total, err := h.sessionService.GetResults(c.Request.Context(), id, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []repository.SessionResult{}
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: (int(total) + perPage - 1) / perPage,
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetCandidateResult godoc
// GET /api/v1/recruiter/assessments/:id/results/:candidate_id
// Returns the stored breakdown plus the candidate's individual responses for
// manual review.
func (h *AssessmentHandler) GetCandidateResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	candidateID, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	breakdown, err := h.resultRepo.GetBreakdown(c.Request.Context(), candidateID, id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	// Response review is best-effort; the verdict is the primary payload.
	reviewed, err := h.responseRepo.ListForReview(c.Request.Context(), id, candidateID)
	if err != nil {
		reviewed = nil
	}

	response.Success(c, http.StatusOK, gin.H{
		"result":    breakdown,
		"responses": reviewed,
	})
}
