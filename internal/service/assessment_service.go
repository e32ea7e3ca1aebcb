package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNotAssessmentAuthor    = errors.New("not the author of this assessment")
	ErrNoQuestions            = errors.New("assessment has no questions, cannot publish")
	ErrAssessmentNotDraft     = errors.New("assessment status is not DRAFT")
	ErrAssessmentNotPublished = errors.New("assessment status is not PUBLISHED")
)

// AssessmentService handles assessment business logic and Redis caching.
type AssessmentService struct {
	assessmentRepo *repository.AssessmentRepository
	questionRepo   *repository.QuestionRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	assessmentRepo *repository.AssessmentRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		questionRepo:   questionRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "assessment_service").Logger(),
	}
}

// GetByID retrieves an assessment by its UUID.
func (s *AssessmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return s.assessmentRepo.GetByID(ctx, id)
}

// ListByAuthor retrieves assessments, filtered by author if non-zero.
func (s *AssessmentService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Assessment, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	assessments, total, err := s.assessmentRepo.ListByAuthorPaginated(ctx, authorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if assessments == nil {
		assessments = []model.Assessment{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return assessments, pagination, nil
}

// Create inserts a new assessment as DRAFT, filling policy gaps from defaults.
func (s *AssessmentService) Create(ctx context.Context, assessment *model.Assessment) error {
	assessment.Status = model.AssessmentStatusDraft
	return s.assessmentRepo.Create(ctx, assessment)
}

// Update modifies an existing draft assessment.
func (s *AssessmentService) Update(ctx context.Context, authorID int, assessment *model.Assessment) error {
	existing, err := s.assessmentRepo.GetByID(ctx, assessment.ID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if existing.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}
	return s.assessmentRepo.Update(ctx, assessment)
}

// Delete removes a draft assessment.
func (s *AssessmentService) Delete(ctx context.Context, id uuid.UUID, authorID int) error {
	existing, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if existing.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}
	return s.assessmentRepo.Delete(ctx, id)
}

// ReplaceQuestions swaps the question set of a draft assessment.
func (s *AssessmentService) ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, authorID int, questions []model.Question) error {
	existing, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if existing.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}
	return s.questionRepo.ReplaceForAssessment(ctx, assessmentID, questions)
}

// ListQuestions returns the full question set including grading material.
// Recruiter only.
func (s *AssessmentService) ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.FetchQuestions(ctx, assessmentID)
}

// Publish changes assessment status to PUBLISHED and caches the candidate
// payload in Redis. An assessment without questions cannot be published.
func (s *AssessmentService) Publish(ctx context.Context, assessmentID uuid.UUID, authorID int) error {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("get assessment: %w", err)
	}

	if authorID != 0 && assessment.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if assessment.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}

	count, err := s.questionRepo.CountByAssessment(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count == 0 {
		return ErrNoQuestions
	}

	if err := s.WarmAssessmentCache(ctx, assessment); err != nil {
		return err
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, assessmentID, model.AssessmentStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("assessment_id", assessmentID.String()).Msg("Assessment published")
	return nil
}

// Archive retires a published assessment so no new sessions can start.
func (s *AssessmentService) Archive(ctx context.Context, assessmentID uuid.UUID, authorID int) error {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("get assessment: %w", err)
	}
	if authorID != 0 && assessment.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if assessment.Status != model.AssessmentStatusPublished {
		return ErrAssessmentNotPublished
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, assessmentID, model.AssessmentStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	// Drop the candidate-facing cache so the lobby stops serving it.
	if err := s.rdb.Del(ctx, config.CacheKey.AssessmentPayloadKey(assessmentID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("assessment_id", assessmentID.String()).Msg("Failed to drop cache")
	}

	s.log.Info().Str("assessment_id", assessmentID.String()).Msg("Assessment archived")
	return nil
}

// WarmAssessmentCache loads an assessment's candidate payload from PostgreSQL
// into Redis. Used by Publish and PrewarmAllCaches.
func (s *AssessmentService) WarmAssessmentCache(ctx context.Context, assessment *model.Assessment) error {
	questions, err := s.questionRepo.FetchQuestions(ctx, assessment.ID)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	// Build candidate-facing payload (without grading material).
	candidateQuestions := make([]model.QuestionForCandidate, len(questions))
	for i, q := range questions {
		candidateQuestions[i] = model.QuestionForCandidate{
			ID:              q.ID,
			Type:            q.Type,
			Text:            q.Text,
			Difficulty:      q.Difficulty,
			Points:          q.Points,
			OrderNum:        q.OrderNum,
			Options:         q.Options,
			StarterCode:     q.StarterCode,
			TestCases:       q.TestCases,
			LanguageOptions: q.LanguageOptions,
		}
	}

	payload := model.AssessmentPayload{
		AssessmentID:    assessment.ID,
		Title:           assessment.Title,
		Description:     assessment.Description,
		DurationMinutes: assessment.DurationMinutes,
		Questions:       candidateQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.AssessmentPayloadKey(assessment.ID.String()), payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("assessment_id", assessment.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published assessments into Redis on startup.
// This prevents lazy-loading race conditions under thundering herd traffic.
func (s *AssessmentService) PrewarmAllCaches(ctx context.Context) error {
	assessments, err := s.assessmentRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published assessments: %w", err)
	}

	if len(assessments) == 0 {
		s.log.Info().Msg("No published assessments to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(assessments)).Msg("Prewarming published assessments...")

	warmed := 0
	for i := range assessments {
		if err := s.WarmAssessmentCache(ctx, &assessments[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("assessment_id", assessments[i].ID.String()).
				Msg("Failed to warm assessment, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(assessments)).
		Msg("Prewarming complete")
	return nil
}

// GetAssessmentPayload retrieves the cached candidate payload from Redis.
func (s *AssessmentService) GetAssessmentPayload(ctx context.Context, assessmentID uuid.UUID) (*model.AssessmentPayload, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.AssessmentPayloadKey(assessmentID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("assessment not published or payload not cached")
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.AssessmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}
