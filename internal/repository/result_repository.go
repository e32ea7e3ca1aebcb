package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ResultQueuePayload is the wire format of the persist results queue.
type ResultQueuePayload struct {
	CandidateID  int                  `json:"candidate_id"`
	AssessmentID string               `json:"assessment_id"`
	Breakdown    model.ScoreBreakdown `json:"breakdown"`
}

// ResultQueue hands sealed verdicts to the result worker through Redis.
// Satisfies engine.ResultStore so finalization never waits on PostgreSQL.
type ResultQueue struct {
	rdb *redis.Client
}

// NewResultQueue creates a new ResultQueue.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb}
}

// SaveResult enqueues the breakdown for asynchronous persistence.
func (q *ResultQueue) SaveResult(ctx context.Context, candidateID int, assessmentID uuid.UUID, breakdown model.ScoreBreakdown) error {
	payload, err := json.Marshal(ResultQueuePayload{
		CandidateID:  candidateID,
		AssessmentID: assessmentID.String(),
		Breakdown:    breakdown,
	})
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err()
}

// ResultRepository reads persisted score breakdowns for recruiters.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetBreakdown fetches the stored per-question breakdown for a pair.
func (r *ResultRepository) GetBreakdown(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*model.ScoreBreakdown, error) {
	var breakdown model.ScoreBreakdown
	err := r.pool.QueryRow(ctx,
		`SELECT breakdown FROM assessment_results
		 WHERE candidate_id = $1 AND assessment_id = $2`,
		candidateID, assessmentID,
	).Scan(&breakdown)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}
