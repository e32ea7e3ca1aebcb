package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
)

func TestStartCreatesFreshSession(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{
		mcqQuestion(10, []string{"A", "B"}, "A"),
		codingQuestion(10),
	})

	as, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	snap := as.Snapshot()
	if snap.CurrentIndex != 0 {
		t.Fatalf("current index = %d, want 0", snap.CurrentIndex)
	}
	if len(snap.Responses) != 0 {
		t.Fatalf("responses = %d, want empty", len(snap.Responses))
	}
	if snap.TimeRemaining != 30*60 {
		t.Fatalf("time remaining = %d, want %d", snap.TimeRemaining, 30*60)
	}
	if f.store.saved(7, assessmentID) == nil {
		t.Fatal("fresh session was not persisted")
	}
}

func TestStartResumesPersistedSnapshot(t *testing.T) {
	q1 := mcqQuestion(10, []string{"A", "B"}, "A")
	questions := []model.Question{q1, codingQuestion(10), openQuestion(10)}
	f, assessmentID := newFixture(questions)

	// Persisted snapshot from a previous run.
	prior := &model.Session{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		CandidateID:   7,
		CurrentIndex:  2,
		Responses:     model.ResponseMap{q1.ID: model.McqResponse{SelectedOption: "A"}},
		TimeRemaining: 300,
	}
	if err := f.store.Create(context.Background(), prior); err != nil {
		t.Fatal(err)
	}

	as, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	snap := as.Snapshot()
	if snap.ID != prior.ID {
		t.Fatal("expected the persisted session, got a fresh one")
	}
	if snap.CurrentIndex != 2 {
		t.Fatalf("current index = %d, want 2", snap.CurrentIndex)
	}
	if snap.TimeRemaining != 300 {
		t.Fatalf("time remaining = %d, want 300 (persisted value, not wall clock)", snap.TimeRemaining)
	}
	r, ok := snap.Responses[q1.ID].(model.McqResponse)
	if !ok || r.SelectedOption != "A" {
		t.Fatal("responses were not rehydrated")
	}
}

func TestStartConcurrentCallsConvergeOnOneSession(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	const callers = 8
	handles := make([]*ActiveSession, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			as, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
			if err != nil {
				t.Error(err)
				return
			}
			handles[i] = as
		}(i)
	}
	wg.Wait()

	first := handles[0].Snapshot().ID
	for _, as := range handles[1:] {
		if as.Snapshot().ID != first {
			t.Fatal("concurrent starts produced different sessions")
		}
	}
}

func TestRecordResponseRejectsVariantMismatch(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "A")
	f, assessmentID := newFixture([]model.Question{q})

	as, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	err = as.RecordResponse(context.Background(), q.ID, model.CodeResponse{Code: "x"})
	if !errors.Is(err, ErrResponseMismatch) {
		t.Fatalf("err = %v, want ErrResponseMismatch", err)
	}
	if len(as.Snapshot().Responses) != 0 {
		t.Fatal("mismatched response was stored")
	}

	err = as.RecordResponse(context.Background(), uuid.New(), model.McqResponse{SelectedOption: "A"})
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("err = %v, want ErrUnknownQuestion", err)
	}
}

func TestRecordResponseUpsertsAndPersists(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "A")
	f, assessmentID := newFixture([]model.Question{q})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	if err := as.RecordResponse(context.Background(), q.ID, model.McqResponse{SelectedOption: "A"}); err != nil {
		t.Fatal(err)
	}
	if err := as.RecordResponse(context.Background(), q.ID, model.McqResponse{SelectedOption: "B"}); err != nil {
		t.Fatal(err)
	}

	saved := f.store.saved(7, assessmentID)
	r, ok := saved.Responses[q.ID].(model.McqResponse)
	if !ok || r.SelectedOption != "B" {
		t.Fatalf("persisted response = %+v, want the upserted B", saved.Responses[q.ID])
	}
}

func TestAdvanceBlockedWithoutResponse(t *testing.T) {
	questions := []model.Question{codingQuestion(10), codingQuestion(10)}
	f, assessmentID := newFixture(questions)

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	res := as.Advance(context.Background())
	if res.OK {
		t.Fatal("advance must be blocked with no response recorded")
	}
	if res.Reason == "" {
		t.Fatal("blocked advance must carry a reason")
	}
	if as.Snapshot().CurrentIndex != 0 {
		t.Fatal("blocked advance mutated the cursor")
	}
}

func TestAdvanceAndRetreat(t *testing.T) {
	q1 := mcqQuestion(10, []string{"A", "B"}, "A")
	q2 := codingQuestion(10)
	f, assessmentID := newFixture([]model.Question{q1, q2})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	ctx := context.Background()

	if err := as.RecordResponse(ctx, q1.ID, model.McqResponse{SelectedOption: "A"}); err != nil {
		t.Fatal(err)
	}
	if res := as.Advance(ctx); !res.OK {
		t.Fatalf("advance blocked: %s", res.Reason)
	}
	if as.Snapshot().CurrentIndex != 1 {
		t.Fatal("cursor did not advance")
	}

	// Cursor caps at the last index.
	if err := as.RecordResponse(ctx, q2.ID, model.CodeResponse{Code: "x", Language: "go"}); err != nil {
		t.Fatal(err)
	}
	as.Advance(ctx)
	if idx := as.Snapshot().CurrentIndex; idx != 1 {
		t.Fatalf("cursor = %d, want capped at 1", idx)
	}

	as.Retreat(ctx)
	if as.Snapshot().CurrentIndex != 0 {
		t.Fatal("retreat did not move back")
	}
	as.Retreat(ctx)
	if as.Snapshot().CurrentIndex != 0 {
		t.Fatal("retreat moved below zero")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "A")
	f, assessmentID := newFixture([]model.Question{q})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	ctx := context.Background()

	if err := as.RecordResponse(ctx, q.ID, model.McqResponse{SelectedOption: "A"}); err != nil {
		t.Fatal(err)
	}

	first, err := as.Finalize(ctx, model.FinishManual)
	if err != nil {
		t.Fatal(err)
	}
	second, err := as.Finalize(ctx, model.FinishManual)
	if err != nil {
		t.Fatal(err)
	}

	if first.Percentage != second.Percentage || first.Passed != second.Passed ||
		first.EarnedPoints != second.EarnedPoints || first.TotalPoints != second.TotalPoints {
		t.Fatalf("finalize not idempotent: %+v vs %+v", first, second)
	}
	if len(f.results.saved) != 1 {
		t.Fatalf("result saved %d times, want exactly once", len(f.results.saved))
	}

	saved := f.store.saved(7, assessmentID)
	if !saved.Completed || saved.FinalScore == nil || *saved.FinalScore != first.Percentage {
		t.Fatalf("sealed session not persisted correctly: %+v", saved)
	}
}

func TestFinalizeRaceResolvesToOneScorer(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "A")
	f, assessmentID := newFixture([]model.Question{q})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())

	const racers = 8
	results := make([]model.ScoreBreakdown, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reason := model.FinishManual
			if i%2 == 0 {
				reason = model.FinishTimeout
			}
			b, err := as.Finalize(context.Background(), reason)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = b
		}(i)
	}
	wg.Wait()

	if len(f.results.saved) != 1 {
		t.Fatalf("scoring ran %d times, want exactly once", len(f.results.saved))
	}
	for _, b := range results[1:] {
		if b.Percentage != results[0].Percentage {
			t.Fatal("racing finalizers observed different breakdowns")
		}
	}
}

func TestTimeoutFinalizesWithUnansweredZero(t *testing.T) {
	questions := []model.Question{
		mcqQuestion(10, []string{"A", "B"}, "A"),
		codingQuestion(10),
		codingQuestion(10),
		openQuestion(10),
		openQuestion(10),
	}
	f, assessmentID := newFixture(questions)

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	ctx := context.Background()

	// Candidate is on question 2 of 5 with question 1 unanswered when the
	// clock hits zero.
	as.mu.Lock()
	as.session.CurrentIndex = 1
	as.session.TimeRemaining = 1
	as.clockState = ClockRunning
	as.mu.Unlock()

	if stopped := as.tick(ctx); !stopped {
		t.Fatal("expiring tick must stop the clock")
	}

	snap := as.Snapshot()
	if !snap.Completed {
		t.Fatal("timeout did not complete the session")
	}
	if as.ClockState() != ClockExpired {
		t.Fatalf("clock state = %s, want EXPIRED", as.ClockState())
	}
	if snap.FinalScore == nil || *snap.FinalScore != 0 {
		t.Fatalf("final score = %v, want 0 with all questions unanswered", snap.FinalScore)
	}
}

func TestTabSwitchThresholdRaisesFlag(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	ctx := context.Background()

	var last IntegritySignal
	for i := 0; i < 4; i++ {
		last = as.RecordTabSwitch(ctx)
	}

	if last.Count != 4 {
		t.Fatalf("count = %d, want 4", last.Count)
	}
	if !last.Flagged {
		t.Fatal("fourth blur event past maxTabSwitches=3 must raise the flag")
	}

	snap := as.Snapshot()
	if snap.TabSwitchCount != 4 {
		t.Fatalf("session count = %d, want 4", snap.TabSwitchCount)
	}
	if !snap.Flagged {
		t.Fatal("review policy must mark the session flagged")
	}
	if snap.Completed {
		t.Fatal("review policy must not auto-submit")
	}

	saved := f.store.saved(7, assessmentID)
	if saved.TabSwitchCount != 4 {
		t.Fatal("integrity count was not persisted immediately")
	}
}

func TestTabSwitchAutosubmitPolicy(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	cfg := defaultConfig()
	cfg.MaxTabSwitches = 1
	cfg.IntegrityPolicy = model.IntegrityAutosubmit

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, cfg)
	ctx := context.Background()

	as.RecordTabSwitch(ctx)
	signal := as.RecordTabSwitch(ctx)

	if !signal.Flagged || signal.Action != model.IntegrityAutosubmit {
		t.Fatalf("signal = %+v, want flagged autosubmit", signal)
	}
	if !as.Snapshot().Completed {
		t.Fatal("autosubmit policy must finalize the session")
	}
}

func TestPersistenceFailureNeverBlocksTheCandidate(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "A")
	f, assessmentID := newFixture([]model.Question{q})

	as, _ := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	ctx := context.Background()

	f.store.mu.Lock()
	f.store.failSave = true
	f.store.mu.Unlock()

	if err := as.RecordResponse(ctx, q.ID, model.McqResponse{SelectedOption: "A"}); err != nil {
		t.Fatalf("record surfaced storage error: %v", err)
	}
	if res := as.Advance(ctx); !res.OK {
		t.Fatalf("advance blocked by storage failure: %s", res.Reason)
	}
	if _, err := as.Finalize(ctx, model.FinishManual); err != nil {
		t.Fatalf("finalize surfaced storage error: %v", err)
	}
}

func TestCurrentIndexStaysInBounds(t *testing.T) {
	questions := []model.Question{codingQuestion(10), codingQuestion(10)}
	f, assessmentID := newFixture(questions)

	// Persisted cursor beyond the shrunken catalog gets clamped on resume.
	prior := &model.Session{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		CandidateID:   7,
		CurrentIndex:  9,
		Responses:     model.ResponseMap{},
		TimeRemaining: 60,
	}
	if err := f.store.Create(context.Background(), prior); err != nil {
		t.Fatal(err)
	}

	as, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if idx := as.Snapshot().CurrentIndex; idx < 0 || idx > len(questions)-1 {
		t.Fatalf("current index %d out of bounds", idx)
	}
}

func TestRetakeAfterFinalizeCreatesNewSession(t *testing.T) {
	f, assessmentID := newFixture([]model.Question{codingQuestion(10)})

	first, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	firstID := first.Snapshot().ID

	if err := first.RecordResponse(context.Background(), first.Questions()[0].ID, model.CodeResponse{Code: "x", Language: "go"}); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Finalize(context.Background(), model.FinishManual); err != nil {
		t.Fatal(err)
	}

	// The sealed attempt is superseded by a brand-new session for the pair.
	second, err := f.mgr.Start(context.Background(), 7, assessmentID, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	snap := second.Snapshot()
	if snap.ID == firstID {
		t.Fatal("retake reused the sealed session")
	}
	if snap.Completed {
		t.Fatal("retake started completed")
	}
	if snap.TimeRemaining != defaultConfig().DurationMinutes*60 {
		t.Fatalf("retake time remaining = %d, want a full budget", snap.TimeRemaining)
	}
	if len(snap.Responses) != 0 {
		t.Fatalf("retake carried %d responses from the sealed attempt", len(snap.Responses))
	}
}
