package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/engine"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles session data access. It satisfies
// engine.SessionStore and is the source of truth the engine resumes from.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, assessment_id, candidate_id, current_index, responses,
	started_at, time_remaining, tab_switch_count, flagged, completed, completed_at, final_score`

func scanSession(row pgx.Row, s *model.Session) error {
	return row.Scan(&s.ID, &s.AssessmentID, &s.CandidateID, &s.CurrentIndex, &s.Responses,
		&s.StartedAt, &s.TimeRemaining, &s.TabSwitchCount, &s.Flagged,
		&s.Completed, &s.CompletedAt, &s.FinalScore)
}

// LoadIncomplete fetches the incomplete session for a (candidate, assessment)
// pair, or (nil, nil) when none exists.
func (r *SessionRepository) LoadIncomplete(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE candidate_id = $1 AND assessment_id = $2 AND NOT completed`,
		candidateID, assessmentID)
	if err := scanSession(row, s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Create inserts a fresh session. The partial unique index on incomplete
// (assessment_id, candidate_id) pairs turns a concurrent double-create into
// engine.ErrDuplicateSession so the caller can refetch.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (assessment_id, candidate_id, current_index, responses,
		                       started_at, time_remaining, tab_switch_count, flagged, completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		s.AssessmentID, s.CandidateID, s.CurrentIndex, s.Responses,
		s.StartedAt, s.TimeRemaining, s.TabSwitchCount, s.Flagged,
	).Scan(&s.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.ErrDuplicateSession
	}
	return err
}

// Save persists the full session snapshot, responses included.
func (r *SessionRepository) Save(ctx context.Context, s *model.Session) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET current_index = $1, responses = $2, time_remaining = $3,
		     tab_switch_count = $4, flagged = $5, completed = $6,
		     completed_at = $7, final_score = $8, updated_at = NOW()
		 WHERE id = $9`,
		s.CurrentIndex, s.Responses, s.TimeRemaining,
		s.TabSwitchCount, s.Flagged, s.Completed,
		s.CompletedAt, s.FinalScore, s.ID)
	return err
}

// GetByPair fetches the latest session for a pair regardless of completion.
// Used by the results view.
func (r *SessionRepository) GetByPair(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE candidate_id = $1 AND assessment_id = $2
		 ORDER BY started_at DESC LIMIT 1`,
		candidateID, assessmentID)
	if err := scanSession(row, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SessionResult combines candidate data with their session outcome for the
// recruiter results listing.
type SessionResult struct {
	CandidateID    int        `json:"candidate_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	Completed      bool       `json:"completed"`
	Flagged        bool       `json:"flagged"`
	TabSwitchCount int        `json:"tab_switch_count"`
	FinalScore     *float64   `json:"final_score"`
}

// ListByAssessment retrieves all candidate sessions for an assessment with pagination.
func (r *SessionRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID, page, perPage int) ([]SessionResult, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE assessment_id = $1`, assessmentID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.email, s.started_at, s.completed_at, s.completed,
		        s.flagged, s.tab_switch_count, s.final_score
		 FROM sessions s
		 JOIN candidates c ON s.candidate_id = c.id
		 WHERE s.assessment_id = $1
		 ORDER BY c.name ASC
		 LIMIT $2 OFFSET $3`,
		assessmentID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.CandidateID, &sr.Name, &sr.Email, &sr.StartedAt,
			&sr.CompletedAt, &sr.Completed, &sr.Flagged, &sr.TabSwitchCount,
			&sr.FinalScore); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
