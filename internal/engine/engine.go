// Package engine implements the assessment session engine: a timed, resumable,
// auto-saving, integrity-monitored test-taking session over an ordered question
// catalog, reduced to a ScoreBreakdown on finalization.
//
// The engine owns no storage or transport. It is driven through narrow
// collaborator interfaces so it can be exercised with in-memory fakes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNoQuestions      = errors.New("assessment has no questions")
	ErrSessionCompleted = errors.New("session is already completed")
	ErrUnknownQuestion  = errors.New("question is not part of this assessment")
	ErrResponseMismatch = errors.New("response variant does not match question type")

	// ErrDuplicateSession is returned by SessionStore.Create when an incomplete
	// session already exists for the (candidate, assessment) pair.
	ErrDuplicateSession = errors.New("incomplete session already exists")
)

// Catalog provides read-only access to an assessment's ordered question set.
type Catalog interface {
	FetchQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error)
}

// SessionStore persists session records. LoadIncomplete returns (nil, nil)
// when no incomplete session exists for the pair.
type SessionStore interface {
	LoadIncomplete(ctx context.Context, candidateID int, assessmentID uuid.UUID) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	Save(ctx context.Context, s *model.Session) error
}

// ResultStore receives the sealed verdict of a finalized session.
type ResultStore interface {
	SaveResult(ctx context.Context, candidateID int, assessmentID uuid.UUID, breakdown model.ScoreBreakdown) error
}

// Grader supplies the confidence factor (0..1) applied to answered free-form
// questions. Automated correctness grading is out of scope for the engine;
// this is the seam where an external evaluator plugs in.
type Grader interface {
	Confidence(ctx context.Context, q model.Question, r model.Response) float64
}

// SessionConfig carries the per-assessment policy the engine enforces.
// It comes from the assessment configuration, not from the engine.
type SessionConfig struct {
	DurationMinutes  int
	PassingThreshold float64
	MaxTabSwitches   int
	IntegrityPolicy  model.IntegrityPolicy
}

// Manager creates, resumes and mediates all mutation of active sessions.
// Every active session is guarded by its own mutex; the three async activity
// sources (clock ticks, integrity events, candidate input) all funnel through
// it.
type Manager struct {
	catalog   Catalog
	store     SessionStore
	results   ResultStore
	grader    Grader
	tickEvery time.Duration
	saveEvery time.Duration
	log       zerolog.Logger

	mu     sync.Mutex
	active map[pairKey]*ActiveSession
}

type pairKey struct {
	candidateID  int
	assessmentID uuid.UUID
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTickInterval overrides the countdown tick period (default 1s).
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tickEvery = d }
}

// WithSaveInterval overrides the clock persistence throttle (default 30s).
func WithSaveInterval(d time.Duration) Option {
	return func(m *Manager) { m.saveEvery = d }
}

// NewManager creates a session Manager.
func NewManager(catalog Catalog, store SessionStore, results ResultStore, grader Grader, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		catalog:   catalog,
		store:     store,
		results:   results,
		grader:    grader,
		tickEvery: time.Second,
		saveEvery: 30 * time.Second,
		log:       log.With().Str("component", "session_engine").Logger(),
		active:    make(map[pairKey]*ActiveSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start returns the candidate's session for the assessment, resuming an
// existing incomplete one or creating a fresh one. Creation is idempotent by
// (candidate, assessment) pair: concurrent duplicate calls converge on a
// single session.
func (m *Manager) Start(ctx context.Context, candidateID int, assessmentID uuid.UUID, cfg SessionConfig) (*ActiveSession, error) {
	key := pairKey{candidateID: candidateID, assessmentID: assessmentID}

	m.mu.Lock()
	if as, ok := m.active[key]; ok {
		m.mu.Unlock()
		return as, nil
	}
	m.mu.Unlock()

	questions, err := m.catalog.FetchQuestions(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	session, err := m.loadOrCreate(ctx, candidateID, assessmentID, cfg)
	if err != nil {
		return nil, err
	}

	// Rehydrated snapshots can predate question-set edits; keep the cursor valid.
	if session.CurrentIndex > len(questions)-1 {
		session.CurrentIndex = len(questions) - 1
	}
	if session.CurrentIndex < 0 {
		session.CurrentIndex = 0
	}
	if session.Responses == nil {
		session.Responses = make(model.ResponseMap)
	}

	as := &ActiveSession{
		mgr:        m,
		cfg:        cfg,
		session:    session,
		questions:  questions,
		clockState: ClockIdle,
		clockStop:  make(chan struct{}),
		expired:    make(chan struct{}),
	}

	m.mu.Lock()
	if existing, ok := m.active[key]; ok {
		// Another Start won the race; use its handle.
		m.mu.Unlock()
		return existing, nil
	}
	m.active[key] = as
	m.mu.Unlock()

	return as, nil
}

// loadOrCreate resumes the incomplete session for the pair or inserts a new
// one, resolving a concurrent create by re-reading the winner's row.
func (m *Manager) loadOrCreate(ctx context.Context, candidateID int, assessmentID uuid.UUID, cfg SessionConfig) (*model.Session, error) {
	existing, err := m.store.LoadIncomplete(ctx, candidateID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if existing != nil {
		m.log.Debug().
			Str("session_id", existing.ID.String()).
			Int("current_index", existing.CurrentIndex).
			Int("time_remaining", existing.TimeRemaining).
			Msg("Resuming session")
		return existing, nil
	}

	session := &model.Session{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		CandidateID:   candidateID,
		CurrentIndex:  0,
		Responses:     make(model.ResponseMap),
		StartedAt:     time.Now(),
		TimeRemaining: cfg.DurationMinutes * 60,
	}

	if err := m.store.Create(ctx, session); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			winner, loadErr := m.store.LoadIncomplete(ctx, candidateID, assessmentID)
			if loadErr != nil {
				return nil, fmt.Errorf("concurrent create detected, reload failed: %w", loadErr)
			}
			if winner == nil {
				return nil, fmt.Errorf("concurrent create detected, winner not found")
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Park suspends an active session without sealing it: the countdown stops,
// the snapshot is persisted and the handle is dropped, so a later Start
// resumes from the saved remaining time. Time spent parked is not charged to
// the candidate. Parking an unknown or already-sealed pair is a no-op.
func (m *Manager) Park(ctx context.Context, candidateID int, assessmentID uuid.UUID) {
	key := pairKey{candidateID: candidateID, assessmentID: assessmentID}
	m.mu.Lock()
	as, ok := m.active[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	as.park(ctx)
}

// release drops a sealed session from the active map. A retake creates a
// brand-new Session.
func (m *Manager) release(as *ActiveSession) {
	key := pairKey{candidateID: as.session.CandidateID, assessmentID: as.session.AssessmentID}
	m.mu.Lock()
	if m.active[key] == as {
		delete(m.active, key)
	}
	m.mu.Unlock()
}

// persist writes a session snapshot best-effort: storage failures are logged,
// never surfaced to the candidate mid-test.
func (m *Manager) persist(ctx context.Context, snap model.Session) {
	if err := m.store.Save(ctx, &snap); err != nil {
		m.log.Warn().
			Err(err).
			Str("session_id", snap.ID.String()).
			Msg("Session save failed, continuing")
	}
}
