package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hirelens/hirelens-backend/internal/model"
)

func TestTickDecrementsAuthoritativeValue(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	as.mu.Lock()
	as.clockState = ClockRunning
	as.lastClockSave = time.Now()
	as.mu.Unlock()

	before := as.Snapshot().TimeRemaining
	for i := 0; i < 5; i++ {
		as.tick(context.Background())
	}
	if got := as.Snapshot().TimeRemaining; got != before-5 {
		t.Fatalf("time remaining = %d, want %d", got, before-5)
	}
}

func TestTickThrottlesPersistence(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, WithSaveInterval(time.Hour))

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	as.mu.Lock()
	as.clockState = ClockRunning
	as.lastClockSave = time.Now()
	as.mu.Unlock()

	f.store.mu.Lock()
	savesBefore := f.store.saves
	f.store.mu.Unlock()

	for i := 0; i < 10; i++ {
		as.tick(context.Background())
	}

	f.store.mu.Lock()
	savesAfter := f.store.saves
	f.store.mu.Unlock()

	if savesAfter != savesBefore {
		t.Fatalf("ticks persisted %d times inside the throttle window, want 0", savesAfter-savesBefore)
	}
}

func TestClockRunsToExpiry(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, shortTick())

	cfg := defaultConfig()
	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, cfg)

	// Shrink the countdown so the millisecond ticker expires it quickly.
	as.mu.Lock()
	as.session.TimeRemaining = 3
	as.mu.Unlock()

	as.StartClock(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		if as.Snapshot().Completed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("clock never expired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if as.ClockState() != ClockExpired {
		t.Fatalf("clock state = %s, want EXPIRED", as.ClockState())
	}
	snap := as.Snapshot()
	if snap.TimeRemaining != 0 {
		t.Fatalf("time remaining = %d, want 0", snap.TimeRemaining)
	}
	if snap.FinalScore == nil {
		t.Fatal("timeout must produce a final score")
	}
}

func TestManualFinalizeStopsClock(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, shortTick())

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	as.StartClock(context.Background())

	if err := as.RecordResponse(context.Background(), as.Questions()[0].ID, model.CodeResponse{Code: "x", Language: "go"}); err != nil {
		t.Fatal(err)
	}
	if _, err := as.Finalize(context.Background(), model.FinishManual); err != nil {
		t.Fatal(err)
	}

	if as.ClockState() != ClockStopped {
		t.Fatalf("clock state = %s, want STOPPED", as.ClockState())
	}

	// Ticks after sealing must not move the countdown.
	before := as.Snapshot().TimeRemaining
	as.tick(context.Background())
	if got := as.Snapshot().TimeRemaining; got != before {
		t.Fatal("tick mutated a sealed session")
	}
}

func TestStartClockIsIdempotent(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, shortTick())

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	as.StartClock(ctx)
	as.StartClock(ctx) // second call is a no-op, not a second ticker

	if as.ClockState() != ClockRunning {
		t.Fatalf("clock state = %s, want RUNNING", as.ClockState())
	}
}

func TestFreshSessionStartsWithIdleClock(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, shortTick())

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	if as.ClockState() != ClockIdle {
		t.Fatalf("clock state = %q, want IDLE", as.ClockState())
	}

	as.StartClock(context.Background())
	if as.ClockState() != ClockRunning {
		t.Fatalf("clock state after start = %q, want RUNNING", as.ClockState())
	}
}

func TestParkStopsClockAndKeepsRemainingTime(t *testing.T) {
	// Default one-second tick: the countdown cannot move during the test.
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	as.StartClock(context.Background())

	as.mu.Lock()
	as.session.TimeRemaining = 500
	as.mu.Unlock()

	f.mgr.Park(context.Background(), 7, assessmentID)

	if as.ClockState() != ClockStopped {
		t.Fatalf("clock state = %s, want STOPPED", as.ClockState())
	}

	// The snapshot must be persisted so the resume point survives.
	saved := f.store.saved(7, assessmentID)
	if saved == nil || saved.TimeRemaining != 500 {
		t.Fatalf("parked session not persisted with remaining time")
	}

	// Ticks after parking must not charge the candidate.
	before := as.Snapshot().TimeRemaining
	as.tick(context.Background())
	if got := as.Snapshot().TimeRemaining; got != before {
		t.Fatal("tick mutated a parked session")
	}

	// A later start resumes the same session from the saved point, idle again.
	resumed, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if resumed == as {
		t.Fatal("park must drop the handle from the active map")
	}
	if resumed.Snapshot().TimeRemaining != 500 {
		t.Fatalf("resumed time remaining = %d, want 500", resumed.Snapshot().TimeRemaining)
	}
	if resumed.ClockState() != ClockIdle {
		t.Fatalf("resumed clock state = %s, want IDLE", resumed.ClockState())
	}
}

func TestParkUnknownPairIsNoop(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	// No active handle for this pair; must not panic or create one.
	f.mgr.Park(context.Background(), 99, assessmentID)

	f.mgr.mu.Lock()
	active := len(f.mgr.active)
	f.mgr.mu.Unlock()
	if active != 0 {
		t.Fatalf("active sessions = %d, want 0", active)
	}
}

func TestExpirySignalFiresOnTimeout(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)}, shortTick())

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	as.mu.Lock()
	as.session.TimeRemaining = 2
	as.mu.Unlock()

	as.StartClock(context.Background())

	select {
	case <-as.Expired():
	case <-time.After(2 * time.Second):
		t.Fatal("expiry signal never fired")
	}

	if as.ClockState() != ClockExpired {
		t.Fatalf("clock state = %s, want EXPIRED", as.ClockState())
	}
}

func TestExpirySignalStaysOpenOnManualSubmit(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	if err := as.RecordResponse(context.Background(), as.Questions()[0].ID, model.CodeResponse{Code: "x", Language: "go"}); err != nil {
		t.Fatal(err)
	}
	if _, err := as.Finalize(context.Background(), model.FinishManual); err != nil {
		t.Fatal(err)
	}

	select {
	case <-as.Expired():
		t.Fatal("manual submit must not signal expiry")
	default:
	}
}
