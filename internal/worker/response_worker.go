package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ResponseWorker consumes the persist responses queue and upserts autosaved
// answers into PostgreSQL in batches.
type ResponseWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResponseWorker creates a new ResponseWorker.
func NewResponseWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResponseWorker {
	return &ResponseWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "response_worker").Logger(),
	}
}

type responsePayload struct {
	CandidateID  int             `json:"candidate_id"`
	AssessmentID string          `json:"assessment_id"`
	QuestionID   string          `json:"question_id"`
	Response     json.RawMessage `json:"response"`
	SavedAt      int64           `json:"saved_at"`
}

// Start begins the worker loop. Call in a goroutine.
func (w *ResponseWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResponseWorker started")

	batch := make([]*responsePayload, 0, BatchSize)
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
			item, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistResponsesQueue).Result()
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

			var p responsePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				// Malformed JSON cannot be retried. Log and discard.
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// flushSafe attempts the bulk upsert, then falls back to row-by-row with
// requeue on failure.
func (w *ResponseWorker) flushSafe(ctx context.Context, batch []*responsePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk upsert failed, attempting row-by-row recovery")
		w.fallbackUpsert(ctx, batch)
	}
}

// bulkUpsert writes the whole batch in one statement. A plain COPY cannot
// upsert, so the batch goes through UNNEST with ON CONFLICT.
func (w *ResponseWorker) bulkUpsert(ctx context.Context, batch []*responsePayload) error {
	n := len(batch)

	assessmentIDs := make([]uuid.UUID, 0, n)
	candidateIDs := make([]int, 0, n)
	questionIDs := make([]uuid.UUID, 0, n)
	responses := make([]string, 0, n)
	savedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		aID, err := uuid.Parse(p.AssessmentID)
		if err != nil {
			return err
		}
		qID, err := uuid.Parse(p.QuestionID)
		if err != nil {
			return err
		}
		assessmentIDs = append(assessmentIDs, aID)
		candidateIDs = append(candidateIDs, p.CandidateID)
		questionIDs = append(questionIDs, qID)
		responses = append(responses, string(p.Response))
		savedAts = append(savedAts, time.Unix(p.SavedAt, 0))
	}

	_, err := w.pool.Exec(ctx, `
		INSERT INTO session_responses (assessment_id, candidate_id, question_id, response, saved_at)
		SELECT u.assessment_id, u.candidate_id, u.question_id, u.response::jsonb, u.saved_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::uuid[],
			$4::text[],
			$5::timestamptz[]
		) AS u (assessment_id, candidate_id, question_id, response, saved_at)
		ON CONFLICT (assessment_id, candidate_id, question_id) DO UPDATE
		SET response = EXCLUDED.response, saved_at = EXCLUDED.saved_at`,
		assessmentIDs, candidateIDs, questionIDs, responses, savedAts)
	return err
}

func (w *ResponseWorker) fallbackUpsert(ctx context.Context, batch []*responsePayload) {
	requeueList := make([]*responsePayload, 0)

	for _, p := range batch {
		aID, errA := uuid.Parse(p.AssessmentID)
		qID, errQ := uuid.Parse(p.QuestionID)
		if errA != nil || errQ != nil {
			w.log.Error().
				Str("assessment_id", p.AssessmentID).
				Str("question_id", p.QuestionID).
				Msg("Dropping response with invalid UUID")
			continue
		}

		_, err := w.pool.Exec(ctx,
			`INSERT INTO session_responses (assessment_id, candidate_id, question_id, response, saved_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5)
			 ON CONFLICT (assessment_id, candidate_id, question_id) DO UPDATE
			 SET response = EXCLUDED.response, saved_at = EXCLUDED.saved_at`,
			aID, p.CandidateID, qID, string(p.Response), time.Unix(p.SavedAt, 0))
		if err != nil {
			w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Upsert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ResponseWorker) requeue(ctx context.Context, items []*responsePayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistResponsesQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue responses. Data loss occurred.")
		return
	}

	w.log.Info().Int("count", len(items)).Msg("Requeued failed responses back to Redis")
	// Avoid thrashing while the database is down.
	time.Sleep(2 * time.Second)
}
