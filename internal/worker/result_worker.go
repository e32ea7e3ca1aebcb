package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ResultWorker consumes the persist results queue, stores score breakdowns in
// PostgreSQL and clears the autosave buffers of finished sessions.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*repository.ResultQueuePayload, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
					time.Sleep(3 * time.Second)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p repository.ResultQueuePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*repository.ResultQueuePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("Bulk result upsert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).
					Int("candidate_id", p.CandidateID).
					Str("assessment_id", p.AssessmentID).
					Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// After successful persistence the autosave buffers are obsolete.
	w.bulkClearAutosaveBuffers(ctx, batch)
}

// bulkUpsert stores the whole batch in one UNNEST statement. Duplicate
// verdicts for a pair keep the latest breakdown.
func (w *ResultWorker) bulkUpsert(ctx context.Context, batch []*repository.ResultQueuePayload) error {
	n := len(batch)

	assessmentIDs := make([]uuid.UUID, 0, n)
	candidateIDs := make([]int, 0, n)
	breakdowns := make([]string, 0, n)
	scores := make([]float64, 0, n)
	passed := make([]bool, 0, n)

	for _, p := range batch {
		aID, err := uuid.Parse(p.AssessmentID)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(p.Breakdown)
		if err != nil {
			return err
		}
		assessmentIDs = append(assessmentIDs, aID)
		candidateIDs = append(candidateIDs, p.CandidateID)
		breakdowns = append(breakdowns, string(raw))
		scores = append(scores, p.Breakdown.Percentage)
		passed = append(passed, p.Breakdown.Passed)
	}

	_, err := w.pool.Exec(ctx, `
		INSERT INTO assessment_results (assessment_id, candidate_id, breakdown, percentage, passed)
		SELECT u.assessment_id, u.candidate_id, u.breakdown::jsonb, u.percentage, u.passed
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::text[],
			$4::float8[],
			$5::bool[]
		) AS u (assessment_id, candidate_id, breakdown, percentage, passed)
		ON CONFLICT (assessment_id, candidate_id) DO UPDATE
		SET breakdown = EXCLUDED.breakdown,
		    percentage = EXCLUDED.percentage,
		    passed = EXCLUDED.passed,
		    recorded_at = NOW()`,
		assessmentIDs, candidateIDs, breakdowns, scores, passed)
	return err
}

func (w *ResultWorker) persistSingle(ctx context.Context, p *repository.ResultQueuePayload) error {
	aID, err := uuid.Parse(p.AssessmentID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(p.Breakdown)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO assessment_results (assessment_id, candidate_id, breakdown, percentage, passed)
		 VALUES ($1, $2, $3::jsonb, $4, $5)
		 ON CONFLICT (assessment_id, candidate_id) DO UPDATE
		 SET breakdown = EXCLUDED.breakdown,
		     percentage = EXCLUDED.percentage,
		     passed = EXCLUDED.passed,
		     recorded_at = NOW()`,
		aID, p.CandidateID, string(raw), p.Breakdown.Percentage, p.Breakdown.Passed)
	return err
}

func (w *ResultWorker) bulkClearAutosaveBuffers(ctx context.Context, batch []*repository.ResultQueuePayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.SessionResponsesKey(p.AssessmentID, p.CandidateID))
	}
	_, _ = pipe.Exec(ctx)
}
