package engine

import (
	"context"
	"time"

	"github.com/hirelens/hirelens-backend/internal/model"
)

// ClockState is the timer controller's state machine:
// Idle → Running → {Expired | Stopped}.
type ClockState string

const (
	ClockIdle    ClockState = "IDLE"
	ClockRunning ClockState = "RUNNING"
	ClockExpired ClockState = "EXPIRED"
	ClockStopped ClockState = "STOPPED"
)

// StartClock begins the countdown. The authoritative remaining value is the
// in-memory one, decremented once per tick; persistence is throttled to the
// manager's save interval to avoid write amplification. Reaching zero forces
// finalization regardless of the current question's validation state.
//
// A resumed session continues from the last persisted remaining value, not
// from wall-clock elapsed time: time lost offline beyond the last save point
// is deliberately not charged to the candidate.
func (as *ActiveSession) StartClock(ctx context.Context) {
	as.mu.Lock()
	if as.clockState != ClockIdle || as.session.Completed {
		as.mu.Unlock()
		return
	}
	as.clockState = ClockRunning
	as.lastClockSave = time.Now()
	as.mu.Unlock()

	go as.runClock(ctx)
}

// ClockState reports the timer controller's current state.
func (as *ActiveSession) ClockState() ClockState {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.clockState
}

func (as *ActiveSession) runClock(ctx context.Context) {
	ticker := time.NewTicker(as.mgr.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-as.clockStop:
			return
		case <-ticker.C:
			if as.tick(ctx) {
				return
			}
		}
	}
}

// tick applies one countdown decrement. Returns true when the clock should
// stop, either because the session was sealed elsewhere or because the
// countdown just expired and forced finalization.
func (as *ActiveSession) tick(ctx context.Context) bool {
	as.mu.Lock()
	if as.session.Completed || as.clockState != ClockRunning {
		as.mu.Unlock()
		return true
	}

	if as.session.TimeRemaining > 0 {
		as.session.TimeRemaining--
	}
	expired := as.session.TimeRemaining == 0

	var snap model.Session
	persistNow := !expired && time.Since(as.lastClockSave) >= as.mgr.saveEvery
	if persistNow {
		as.lastClockSave = time.Now()
		snap = as.session.Clone()
	}
	as.mu.Unlock()

	if persistNow {
		as.mgr.persist(ctx, snap)
	}

	if expired {
		// Timeout overrides validation on the current question.
		if _, err := as.Finalize(ctx, model.FinishTimeout); err != nil {
			as.mgr.log.Warn().Err(err).Msg("Timeout finalization failed")
		}
		return true
	}
	return false
}
