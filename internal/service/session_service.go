package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/engine"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrAssessmentNotAvailable = errors.New("assessment is not available")
	ErrNoResultYet            = errors.New("no result available for this session")
)

// SessionService drives candidate sessions through the engine and fans state
// changes out to Redis for the async persistence workers and the live monitor.
type SessionService struct {
	manager        *engine.Manager
	assessmentRepo *repository.AssessmentRepository
	sessionRepo    *repository.SessionRepository
	resultRepo     *repository.ResultRepository
	cfg            *config.Config
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	manager *engine.Manager,
	assessmentRepo *repository.AssessmentRepository,
	sessionRepo *repository.SessionRepository,
	resultRepo *repository.ResultRepository,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		manager:        manager,
		assessmentRepo: assessmentRepo,
		sessionRepo:    sessionRepo,
		resultRepo:     resultRepo,
		cfg:            cfg,
		rdb:            rdb,
		log:            log.With().Str("component", "session_service").Logger(),
	}
}

// LobbyAssessment is an assessment as displayed in the candidate lobby.
type LobbyAssessment struct {
	model.Assessment
	Completed  bool     `json:"completed"`
	InProgress bool     `json:"in_progress"`
	FinalScore *float64 `json:"final_score,omitempty"`
}

// GetLobby returns all published assessments with the candidate's own
// progress overlaid.
func (s *SessionService) GetLobby(ctx context.Context, candidateID int) ([]LobbyAssessment, error) {
	assessments, err := s.assessmentRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}

	lobby := make([]LobbyAssessment, 0, len(assessments))
	for i := range assessments {
		entry := LobbyAssessment{Assessment: assessments[i]}
		sess, err := s.sessionRepo.GetByPair(ctx, candidateID, assessments[i].ID)
		if err == nil && sess != nil {
			entry.Completed = sess.Completed
			entry.InProgress = !sess.Completed
			entry.FinalScore = sess.FinalScore
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// sessionConfig derives the engine policy from the assessment, falling back
// to the server defaults where the assessment leaves a field unset.
func (s *SessionService) sessionConfig(a *model.Assessment) engine.SessionConfig {
	cfg := engine.SessionConfig{
		DurationMinutes:  a.DurationMinutes,
		PassingThreshold: a.PassingThreshold,
		MaxTabSwitches:   a.MaxTabSwitches,
		IntegrityPolicy:  a.IntegrityPolicy,
	}
	if cfg.PassingThreshold <= 0 {
		cfg.PassingThreshold = s.cfg.PassingThreshold
	}
	if cfg.MaxTabSwitches <= 0 {
		cfg.MaxTabSwitches = s.cfg.MaxTabSwitches
	}
	if cfg.IntegrityPolicy == "" {
		cfg.IntegrityPolicy = model.IntegrityPolicy(s.cfg.IntegrityPolicy)
	}
	return cfg
}

// active returns the live engine handle for the pair, resuming from storage
// if the session is not in memory. The assessment must be published.
func (s *SessionService) active(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*engine.ActiveSession, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, ErrAssessmentNotAvailable
	}
	if assessment.Status != model.AssessmentStatusPublished {
		return nil, ErrAssessmentNotAvailable
	}

	return s.manager.Start(ctx, candidateID, assessmentID, s.sessionConfig(assessment))
}

// StartSession begins or resumes the candidate's attempt and starts the
// countdown. A completed prior attempt does not block the call: the engine
// opens a fresh session for the pair, so a retake is just another start.
func (s *SessionService) StartSession(ctx context.Context, candidateID int, assessmentID uuid.UUID) (model.Session, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return model.Session{}, err
	}

	// Idempotent: only an idle clock starts counting.
	as.StartClock(context.Background())

	return as.Snapshot(), nil
}

// WatchExpiry ensures the countdown is running for the pair and returns the
// channel closed when the timer seals the session. The stream handler uses
// it to resume the clock on connect and push the expiry to the client.
func (s *SessionService) WatchExpiry(ctx context.Context, candidateID int, assessmentID uuid.UUID) (<-chan struct{}, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return nil, err
	}
	as.StartClock(context.Background())
	return as.Expired(), nil
}

// Park suspends the candidate's live session when the stream drops: the
// countdown stops and the snapshot is persisted, so the disconnected time is
// not charged. The next StartSession resumes from where the clock stopped.
func (s *SessionService) Park(ctx context.Context, candidateID int, assessmentID uuid.UUID) {
	s.manager.Park(ctx, candidateID, assessmentID)
}

// Autosave records a response, mirrors it into the Redis autosave buffer and
// enqueues it for asynchronous persistence.
func (s *SessionService) Autosave(ctx context.Context, candidateID int, assessmentID, questionID uuid.UUID, resp model.Response) error {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return err
	}

	if err := as.RecordResponse(ctx, questionID, resp); err != nil {
		return err
	}

	raw, err := model.MarshalResponse(resp)
	if err != nil {
		return err
	}

	// Mirror to Redis and enqueue for the response worker. Both are
	// best-effort: the engine snapshot already holds the answer.
	queueItem, _ := json.Marshal(responseQueuePayload{
		CandidateID:  candidateID,
		AssessmentID: assessmentID.String(),
		QuestionID:   questionID.String(),
		Response:     raw,
		SavedAt:      time.Now().Unix(),
	})

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.SessionResponsesKey(assessmentID.String(), candidateID), questionID.String(), raw)
	pipe.RPush(ctx, config.WorkerKey.PersistResponsesQueue, queueItem)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).
			Int("candidate_id", candidateID).
			Str("assessment_id", assessmentID.String()).
			Msg("Autosave fanout failed")
	}

	s.publishMonitorEvent(ctx, assessmentID, monitorEvent{
		Type:        "autosave",
		CandidateID: candidateID,
		QuestionID:  questionID.String(),
	})

	return nil
}

// responseQueuePayload is the wire format of the persist responses queue.
type responseQueuePayload struct {
	CandidateID  int             `json:"candidate_id"`
	AssessmentID string          `json:"assessment_id"`
	QuestionID   string          `json:"question_id"`
	Response     json.RawMessage `json:"response"`
	SavedAt      int64           `json:"saved_at"`
}

// integrityQueuePayload is the wire format of the persist integrity queue.
type integrityQueuePayload struct {
	CandidateID  int    `json:"candidate_id"`
	AssessmentID string `json:"assessment_id"`
	EventType    string `json:"event_type"`
	Timestamp    int64  `json:"timestamp"`
}

// monitorEvent is published on the assessment's monitor channel.
type monitorEvent struct {
	Type        string `json:"type"`
	CandidateID int    `json:"candidate_id"`
	QuestionID  string `json:"question_id,omitempty"`
	Count       int    `json:"count,omitempty"`
	Flagged     bool   `json:"flagged,omitempty"`
}

func (s *SessionService) publishMonitorEvent(ctx context.Context, assessmentID uuid.UUID, ev monitorEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.AssessmentMonitorChannel(assessmentID.String()), data).Err(); err != nil {
		s.log.Warn().Err(err).Str("assessment_id", assessmentID.String()).Msg("Monitor publish failed")
	}
}

// RecordBlur counts a tab-switch event, enqueues it for persistence and
// notifies the live monitor. Under the autosubmit policy the session may come
// back finalized.
func (s *SessionService) RecordBlur(ctx context.Context, candidateID int, assessmentID uuid.UUID) (engine.IntegritySignal, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return engine.IntegritySignal{}, err
	}

	signal := as.RecordTabSwitch(ctx)

	queueItem, _ := json.Marshal(integrityQueuePayload{
		CandidateID:  candidateID,
		AssessmentID: assessmentID.String(),
		EventType:    "tab_switch",
		Timestamp:    time.Now().Unix(),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, queueItem).Err(); err != nil {
		s.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Integrity enqueue failed")
	}

	s.publishMonitorEvent(ctx, assessmentID, monitorEvent{
		Type:        "integrity",
		CandidateID: candidateID,
		Count:       signal.Count,
		Flagged:     signal.Flagged,
	})

	return signal, nil
}

// Advance moves the cursor forward if the current question's response passes
// validation.
func (s *SessionService) Advance(ctx context.Context, candidateID int, assessmentID uuid.UUID) (engine.NavResult, model.Session, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return engine.NavResult{}, model.Session{}, err
	}
	nav := as.Advance(ctx)
	return nav, as.Snapshot(), nil
}

// Retreat moves the cursor backward. Always allowed above index zero.
func (s *SessionService) Retreat(ctx context.Context, candidateID int, assessmentID uuid.UUID) (model.Session, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return model.Session{}, err
	}
	as.Retreat(ctx)
	return as.Snapshot(), nil
}

// Submit finalizes the session with a manual finish and returns the verdict.
// Safe to call repeatedly; later calls return the sealed result.
func (s *SessionService) Submit(ctx context.Context, candidateID int, assessmentID uuid.UUID) (model.ScoreBreakdown, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return model.ScoreBreakdown{}, err
	}

	breakdown, err := as.Finalize(ctx, model.FinishManual)
	if err != nil {
		return model.ScoreBreakdown{}, err
	}

	s.publishMonitorEvent(ctx, assessmentID, monitorEvent{
		Type:        "submitted",
		CandidateID: candidateID,
	})

	return breakdown, nil
}

// SessionState is the full state a reconnecting client needs to resume.
type SessionState struct {
	Session       model.Session     `json:"session"`
	TimeRemaining int               `json:"time_remaining_seconds"`
	Steps         []engine.StepInfo `json:"steps"`
}

// GetState returns the candidate's current session state and stepper
// projection.
func (s *SessionService) GetState(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*SessionState, error) {
	as, err := s.active(ctx, candidateID, assessmentID)
	if err != nil {
		return nil, err
	}

	snap := as.Snapshot()
	return &SessionState{
		Session:       snap,
		TimeRemaining: snap.TimeRemaining,
		Steps:         engine.Steps(as.Stage()),
	}, nil
}

// GetResult returns the verdict for the candidate's completed attempt. It
// prefers the live engine result and falls back to the persisted breakdown.
func (s *SessionService) GetResult(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*model.ScoreBreakdown, error) {
	sess, err := s.sessionRepo.GetByPair(ctx, candidateID, assessmentID)
	if err != nil || sess == nil || !sess.Completed {
		return nil, ErrNoResultYet
	}

	breakdown, err := s.resultRepo.GetBreakdown(ctx, candidateID, assessmentID)
	if err != nil {
		return nil, ErrNoResultYet
	}
	return breakdown, nil
}

// GetResults retrieves paginated session outcomes for a recruiter.
func (s *SessionService) GetResults(ctx context.Context, assessmentID uuid.UUID, page, perPage int) ([]repository.SessionResult, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return s.sessionRepo.ListByAssessment(ctx, assessmentID, page, perPage)
}
