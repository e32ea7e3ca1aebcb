package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
	"github.com/hirelens/hirelens-backend/internal/validator"
)

// CandidateManagementHandler handles recruiter-facing candidate management.
type CandidateManagementHandler struct {
	candidateService *service.CandidateService
}

// NewCandidateManagementHandler creates a new CandidateManagementHandler.
func NewCandidateManagementHandler(candidateService *service.CandidateService) *CandidateManagementHandler {
	return &CandidateManagementHandler{candidateService: candidateService}
}

// List godoc
// GET /api/v1/recruiter/candidates?page=&per_page=
func (h *CandidateManagementHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	candidates, pagination, err := h.candidateService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"candidates": candidates}, pagination)
}

// Create godoc
// POST /api/v1/recruiter/candidates
func (h *CandidateManagementHandler) Create(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// ResetLogin godoc
// POST /api/v1/recruiter/candidates/:candidate_id/reset-login
// Clears the candidate's single-device login so they can sign in again.
func (h *CandidateManagementHandler) ResetLogin(c *gin.Context) {
	candidateID, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.candidateService.ResetLogin(c.Request.Context(), candidateID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
