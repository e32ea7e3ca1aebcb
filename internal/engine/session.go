package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
)

// ActiveSession is the in-memory handle for one candidate's in-progress
// attempt. The embedded mutex serializes clock ticks, integrity events and
// candidate input; the in-memory session value is the single source of truth
// between persistence writes.
type ActiveSession struct {
	mgr *Manager
	cfg SessionConfig

	mu        sync.Mutex
	session   *model.Session
	questions []model.Question
	result    *model.ScoreBreakdown

	clockState    ClockState
	clockStop     chan struct{}
	clockStopOnce sync.Once
	lastClockSave time.Time

	expired     chan struct{}
	expiredOnce sync.Once
}

// NavResult reports the outcome of a navigation attempt. A blocked move is
// normal control flow, not an error.
type NavResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// IntegritySignal reports the state of the anti-cheat counter after an event.
type IntegritySignal struct {
	Count   int                   `json:"count"`
	Flagged bool                  `json:"flagged"`
	Action  model.IntegrityPolicy `json:"action,omitempty"`
}

// Snapshot returns a copy of the session record for read-only use.
func (as *ActiveSession) Snapshot() model.Session {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.session.Clone()
}

// Questions returns the ordered catalog backing this session.
func (as *ActiveSession) Questions() []model.Question {
	out := make([]model.Question, len(as.questions))
	copy(out, as.questions)
	return out
}

// Config returns the policy this session runs under.
func (as *ActiveSession) Config() SessionConfig { return as.cfg }

// RecordResponse type-checks and upserts a response for a question, then
// schedules a persistence write. A variant/type mismatch is a contract
// violation and leaves the session untouched.
func (as *ActiveSession) RecordResponse(ctx context.Context, questionID uuid.UUID, r model.Response) error {
	as.mu.Lock()
	if as.session.Completed {
		as.mu.Unlock()
		return ErrSessionCompleted
	}

	q, ok := as.findQuestion(questionID)
	if !ok {
		as.mu.Unlock()
		return ErrUnknownQuestion
	}
	if r == nil || r.Kind() != q.Type.ResponseKind() {
		as.mu.Unlock()
		return ErrResponseMismatch
	}

	as.session.Responses[questionID] = r
	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.persist(ctx, snap)
	return nil
}

// Advance validates the response for the current question and moves the
// cursor forward, capped at the last index. A failed validation blocks the
// move and reports the reason without mutating state.
func (as *ActiveSession) Advance(ctx context.Context) NavResult {
	as.mu.Lock()
	if as.session.Completed {
		as.mu.Unlock()
		return NavResult{OK: false, Reason: "session is already completed"}
	}

	q := as.questions[as.session.CurrentIndex]
	if ok, reason := ValidateResponse(q, as.session.Responses[q.ID]); !ok {
		as.mu.Unlock()
		return NavResult{OK: false, Reason: reason}
	}

	if as.session.CurrentIndex < len(as.questions)-1 {
		as.session.CurrentIndex++
	}
	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.persist(ctx, snap)
	return NavResult{OK: true}
}

// Retreat moves the cursor back one question. Backward navigation needs no
// validation: the step was already reached.
func (as *ActiveSession) Retreat(ctx context.Context) {
	as.mu.Lock()
	if as.session.Completed || as.session.CurrentIndex == 0 {
		as.mu.Unlock()
		return
	}
	as.session.CurrentIndex--
	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.persist(ctx, snap)
}

// RecordTabSwitch counts one visibility-loss event and persists immediately:
// integrity signals must survive a crash. Crossing the configured threshold
// raises the flag; under the autosubmit policy it also forces finalization.
// The monitor never blocks candidate input.
func (as *ActiveSession) RecordTabSwitch(ctx context.Context) IntegritySignal {
	as.mu.Lock()
	if as.session.Completed {
		signal := IntegritySignal{Count: as.session.TabSwitchCount, Flagged: as.session.Flagged}
		as.mu.Unlock()
		return signal
	}

	as.session.TabSwitchCount++
	signal := IntegritySignal{Count: as.session.TabSwitchCount}
	if as.session.TabSwitchCount > as.cfg.MaxTabSwitches {
		signal.Flagged = true
		signal.Action = as.cfg.IntegrityPolicy
		if as.cfg.IntegrityPolicy == model.IntegrityReview {
			as.session.Flagged = true
		}
	}
	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.persist(ctx, snap)

	if signal.Flagged && signal.Action == model.IntegrityAutosubmit {
		if _, err := as.Finalize(ctx, model.FinishTimeout); err != nil {
			as.mgr.log.Warn().Err(err).Msg("Integrity auto-submit failed")
		}
	}
	return signal
}

// Finalize seals the session exactly once: scores the captured responses,
// stamps completion and persists. Racing triggers (manual submit vs timer
// expiry) resolve to the first caller; later calls observe completed=true and
// get the stored breakdown back.
func (as *ActiveSession) Finalize(ctx context.Context, reason model.FinishReason) (model.ScoreBreakdown, error) {
	as.mu.Lock()
	if as.session.Completed {
		if as.result != nil {
			breakdown := *as.result
			as.mu.Unlock()
			return breakdown, nil
		}
		as.mu.Unlock()
		return model.ScoreBreakdown{}, ErrSessionCompleted
	}

	breakdown := Score(ctx, as.questions, as.session.Responses, as.cfg.PassingThreshold, as.mgr.grader)

	now := time.Now()
	as.session.Completed = true
	as.session.CompletedAt = &now
	score := breakdown.Percentage
	as.session.FinalScore = &score
	as.result = &breakdown

	if reason == model.FinishTimeout {
		as.clockState = ClockExpired
		as.expiredOnce.Do(func() { close(as.expired) })
	} else {
		as.clockState = ClockStopped
	}
	as.clockStopOnce.Do(func() { close(as.clockStop) })

	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.log.Info().
		Str("session_id", snap.ID.String()).
		Str("reason", string(reason)).
		Float64("percentage", breakdown.Percentage).
		Bool("passed", breakdown.Passed).
		Msg("Session finalized")

	// The sealing write and result hand-off are best-effort like every other
	// persistence call; the in-memory verdict is already authoritative.
	as.mgr.persist(ctx, snap)
	if err := as.mgr.results.SaveResult(ctx, snap.CandidateID, snap.AssessmentID, breakdown); err != nil {
		as.mgr.log.Warn().
			Err(err).
			Str("session_id", snap.ID.String()).
			Msg("Result save failed")
	}

	as.mgr.release(as)
	return breakdown, nil
}

// Expired is closed when the countdown seals the session server-side.
// Listeners use it to push the verdict to a client that never submitted.
func (as *ActiveSession) Expired() <-chan struct{} { return as.expired }

// park suspends the session without sealing it: the clock stops, the
// snapshot is persisted and the handle leaves the active map. The next
// Start rehydrates from the saved remaining time, so time spent parked is
// never charged. Sealed sessions are left to Finalize's cleanup.
func (as *ActiveSession) park(ctx context.Context) {
	as.mu.Lock()
	if as.session.Completed {
		as.mu.Unlock()
		return
	}
	as.clockState = ClockStopped
	as.clockStopOnce.Do(func() { close(as.clockStop) })
	snap := as.session.Clone()
	as.mu.Unlock()

	as.mgr.log.Debug().
		Str("session_id", snap.ID.String()).
		Int("time_remaining", snap.TimeRemaining).
		Msg("Session parked")

	as.mgr.persist(ctx, snap)
	as.mgr.release(as)
}

// Result returns the stored breakdown for a finalized session.
func (as *ActiveSession) Result() (model.ScoreBreakdown, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.result == nil {
		return model.ScoreBreakdown{}, false
	}
	return *as.result, true
}

// Stage reports the workflow step this session is at.
func (as *ActiveSession) Stage() Step {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.session.Completed {
		return StepResults
	}
	return StepInProgress
}

func (as *ActiveSession) findQuestion(id uuid.UUID) (model.Question, bool) {
	for _, q := range as.questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.Question{}, false
}
