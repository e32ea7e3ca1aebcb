package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/rs/zerolog"
)

// ─── In-memory collaborator fakes ───────────────────────────────────

type fakeCatalog struct {
	questions map[uuid.UUID][]model.Question
}

func (c *fakeCatalog) FetchQuestions(_ context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	return c.questions[assessmentID], nil
}

type storeKey struct {
	candidateID  int
	assessmentID uuid.UUID
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[storeKey]*model.Session
	saves    int
	failSave bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[storeKey]*model.Session)}
}

func (st *fakeStore) LoadIncomplete(_ context.Context, candidateID int, assessmentID uuid.UUID) (*model.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[storeKey{candidateID, assessmentID}]
	if !ok || s.Completed {
		return nil, nil
	}
	clone := s.Clone()
	return &clone, nil
}

func (st *fakeStore) Create(_ context.Context, s *model.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	key := storeKey{s.CandidateID, s.AssessmentID}
	if existing, ok := st.sessions[key]; ok && !existing.Completed {
		return ErrDuplicateSession
	}
	clone := s.Clone()
	st.sessions[key] = &clone
	return nil
}

func (st *fakeStore) Save(_ context.Context, s *model.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failSave {
		return errors.New("storage offline")
	}
	st.saves++
	clone := s.Clone()
	st.sessions[storeKey{s.CandidateID, s.AssessmentID}] = &clone
	return nil
}

func (st *fakeStore) saved(candidateID int, assessmentID uuid.UUID) *model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[storeKey{candidateID, assessmentID}]
}

type fakeResults struct {
	mu    sync.Mutex
	saved []model.ScoreBreakdown
}

func (r *fakeResults) SaveResult(_ context.Context, _ int, _ uuid.UUID, b model.ScoreBreakdown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, b)
	return nil
}

type fixedGrader struct{ factor float64 }

func (g fixedGrader) Confidence(context.Context, model.Question, model.Response) float64 {
	return g.factor
}

// ─── Fixture helpers ────────────────────────────────────────────────

func mcqQuestion(points int, options []string, correct string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Type:          model.QuestionTypeMcq,
		Text:          "pick one",
		Points:        points,
		Options:       options,
		CorrectAnswer: correct,
	}
}

func codingQuestion(points int) model.Question {
	return model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeCoding,
		Text:   "implement it",
		Points: points,
	}
}

func openQuestion(points int) model.Question {
	return model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeOpenEnded,
		Text:   "tell us about a time",
		Points: points,
	}
}

type fixture struct {
	mgr     *Manager
	catalog *fakeCatalog
	store   *fakeStore
	results *fakeResults
}

func newFixture(questions []model.Question, opts ...Option) (*fixture, uuid.UUID) {
	assessmentID := uuid.New()
	for i := range questions {
		questions[i].AssessmentID = assessmentID
		questions[i].OrderNum = i
	}
	f := &fixture{
		catalog: &fakeCatalog{questions: map[uuid.UUID][]model.Question{assessmentID: questions}},
		store:   newFakeStore(),
		results: &fakeResults{},
	}
	f.mgr = NewManager(f.catalog, f.store, f.results, fixedGrader{factor: 0.8}, zerolog.Nop(), opts...)
	return f, assessmentID
}

func defaultConfig() SessionConfig {
	return SessionConfig{
		DurationMinutes:  30,
		PassingThreshold: 70,
		MaxTabSwitches:   3,
		IntegrityPolicy:  model.IntegrityReview,
	}
}

func shortTick() Option { return WithTickInterval(time.Millisecond) }
