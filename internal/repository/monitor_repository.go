package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// MonitorRepository provides data access for the live assessment monitor.
// It combines PostgreSQL (session state) and Redis (live autosave buffers).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// GetInProgressCandidateIDs returns all candidate IDs with an incomplete
// session for the given assessment.
func (r *MonitorRepository) GetInProgressCandidateIDs(ctx context.Context, assessmentID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id FROM sessions WHERE assessment_id = $1 AND NOT completed`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAnsweredCounts returns the count of answered questions for every
// candidate who has at least one response recorded in the given assessment.
func (r *MonitorRepository) GetAnsweredCounts(ctx context.Context, assessmentID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, COUNT(*)
		 FROM session_responses
		 WHERE assessment_id = $1
		 GROUP BY candidate_id`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var cid int
		var count int64
		if err := rows.Scan(&cid, &count); err != nil {
			return nil, err
		}
		counts[cid] = count
	}
	return counts, rows.Err()
}

// GetIntegrityCounts returns the number of integrity events recorded for each
// candidate in the given assessment.
func (r *MonitorRepository) GetIntegrityCounts(ctx context.Context, assessmentID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, COUNT(*)
		 FROM integrity_events
		 WHERE assessment_id = $1
		 GROUP BY candidate_id`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var cid int
		var count int64
		if err := rows.Scan(&cid, &count); err != nil {
			return nil, err
		}
		counts[cid] = count
	}
	return counts, rows.Err()
}

// GetFlaggedCandidateIDs returns candidates whose session crossed the
// tab-switch threshold for the given assessment.
func (r *MonitorRepository) GetFlaggedCandidateIDs(ctx context.Context, assessmentID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id FROM sessions WHERE assessment_id = $1 AND flagged`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
