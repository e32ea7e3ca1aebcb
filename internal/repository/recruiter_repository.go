package repository

import (
	"context"

	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecruiterRepository handles recruiter data access.
type RecruiterRepository struct {
	pool *pgxpool.Pool
}

// NewRecruiterRepository creates a new RecruiterRepository.
func NewRecruiterRepository(pool *pgxpool.Pool) *RecruiterRepository {
	return &RecruiterRepository{pool: pool}
}

// GetByEmail retrieves a recruiter by email for login.
func (r *RecruiterRepository) GetByEmail(ctx context.Context, email string) (*model.Recruiter, error) {
	rec := &model.Recruiter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, permissions, created_at
		 FROM recruiters WHERE email = $1`, email,
	).Scan(&rec.ID, &rec.Email, &rec.Name, &rec.PasswordHash, &rec.Permissions, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID retrieves a recruiter by ID.
func (r *RecruiterRepository) GetByID(ctx context.Context, id int) (*model.Recruiter, error) {
	rec := &model.Recruiter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, permissions, created_at
		 FROM recruiters WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Email, &rec.Name, &rec.PasswordHash, &rec.Permissions, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a new recruiter with the given permission set.
func (r *RecruiterRepository) Create(ctx context.Context, rec *model.Recruiter) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO recruiters (email, name, password_hash, permissions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rec.Email, rec.Name, rec.PasswordHash, rec.Permissions,
	).Scan(&rec.ID, &rec.CreatedAt)
}
