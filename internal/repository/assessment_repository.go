package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssessmentRepository handles assessment data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, title, description, author_id, duration_minutes,
	passing_threshold, max_tab_switches, integrity_policy, status, created_at, updated_at`

func scanAssessment(row interface{ Scan(dest ...any) error }, a *model.Assessment) error {
	return row.Scan(&a.ID, &a.Title, &a.Description, &a.AuthorID, &a.DurationMinutes,
		&a.PassingThreshold, &a.MaxTabSwitches, &a.IntegrityPolicy, &a.Status,
		&a.CreatedAt, &a.UpdatedAt)
}

// GetByID retrieves an assessment by its UUID, including its question count.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a := &model.Assessment{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`,
		        (SELECT COUNT(*) FROM questions q WHERE q.assessment_id = assessments.id)
		 FROM assessments WHERE id = $1`, id)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.AuthorID, &a.DurationMinutes,
		&a.PassingThreshold, &a.MaxTabSwitches, &a.IntegrityPolicy, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.QuestionCount); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByAuthorPaginated retrieves assessments filtered by author with pagination.
// Pass authorID=0 to list all assessments.
func (r *AssessmentRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.Assessment, int, error) {
	countQuery := `SELECT COUNT(*) FROM assessments`
	var countArgs []any
	if authorID > 0 {
		countQuery += ` WHERE author_id = $1`
		countArgs = append(countArgs, authorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + assessmentColumns + ` FROM assessments`
	var args []any
	argIdx := 1
	if authorID > 0 {
		query += ` WHERE author_id = $1`
		args = append(args, authorID)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := scanAssessment(rows, &a); err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, a)
	}
	return assessments, total, rows.Err()
}

// Create inserts a new draft assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (title, description, author_id, duration_minutes,
		                          passing_threshold, max_tab_switches, integrity_policy, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		a.Title, a.Description, a.AuthorID, a.DurationMinutes,
		a.PassingThreshold, a.MaxTabSwitches, a.IntegrityPolicy, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update rewrites the mutable fields of a draft assessment.
func (r *AssessmentRepository) Update(ctx context.Context, a *model.Assessment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments
		 SET title = $1, description = $2, duration_minutes = $3,
		     passing_threshold = $4, max_tab_switches = $5, integrity_policy = $6,
		     updated_at = NOW()
		 WHERE id = $7`,
		a.Title, a.Description, a.DurationMinutes,
		a.PassingThreshold, a.MaxTabSwitches, a.IntegrityPolicy, a.ID)
	return err
}

// UpdateStatus updates an assessment's status.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssessmentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes a draft assessment and its questions.
func (r *AssessmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	return err
}

// ListPublished returns all assessments with PUBLISHED status.
// Used for cache prewarming on application startup.
func (r *AssessmentRepository) ListPublished(ctx context.Context) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE status = $1
		 ORDER BY created_at DESC`, model.AssessmentStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := scanAssessment(rows, &a); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
