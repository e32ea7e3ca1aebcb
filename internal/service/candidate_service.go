package service

import (
	"context"
	"fmt"

	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/hirelens/hirelens-backend/internal/response"
)

// CandidateService handles recruiter-facing candidate management.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	authService   *AuthService
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidateRepo *repository.CandidateRepository, authService *AuthService) *CandidateService {
	return &CandidateService{candidateRepo: candidateRepo, authService: authService}
}

// Create registers a candidate with a hashed password.
func (s *CandidateService) Create(ctx context.Context, req *model.CreateCandidateRequest) (*model.Candidate, error) {
	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	candidate := &model.Candidate{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
	}
	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// List retrieves candidates with pagination.
func (s *CandidateService) List(ctx context.Context, page, perPage int) ([]model.Candidate, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	candidates, total, err := s.candidateRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return candidates, pagination, nil
}

// ResetLogin clears a candidate's single-device login so they can sign in
// again on a new device.
func (s *CandidateService) ResetLogin(ctx context.Context, candidateID int) error {
	return s.authService.ResetCandidateLogin(ctx, candidateID)
}
