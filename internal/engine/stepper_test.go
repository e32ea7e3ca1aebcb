package engine

import "testing"

func TestStateOf(t *testing.T) {
	cases := []struct {
		name    string
		step    Step
		current Step
		want    StepState
	}{
		{"earlier step completed", StepSelect, StepInProgress, StepCompleted},
		{"current step active", StepInProgress, StepInProgress, StepActive},
		{"later step disabled", StepResults, StepInProgress, StepDisabled},
		{"first step active at start", StepSelect, StepSelect, StepActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateOf(tc.step, tc.current); got != tc.want {
				t.Fatalf("StateOf(%d, %d) = %s, want %s", tc.step, tc.current, got, tc.want)
			}
		})
	}
}

func TestNavigable(t *testing.T) {
	if !Navigable(StepSelect, StepInProgress) {
		t.Fatal("completed step must be navigable")
	}
	if !Navigable(StepInProgress, StepInProgress) {
		t.Fatal("active step must be navigable")
	}
	if Navigable(StepResults, StepInstructions) {
		t.Fatal("disabled step must not be navigable")
	}
}

func TestStepsProjection(t *testing.T) {
	steps := Steps(StepComplete)
	if len(steps) != 5 {
		t.Fatalf("got %d steps, want 5", len(steps))
	}

	wantStates := []StepState{StepCompleted, StepCompleted, StepCompleted, StepActive, StepDisabled}
	for i, info := range steps {
		if info.State != wantStates[i] {
			t.Fatalf("step %d state = %s, want %s", info.Step, info.State, wantStates[i])
		}
		if info.Label == "" {
			t.Fatalf("step %d has no label", info.Step)
		}
		if info.Navigable != (info.State != StepDisabled) {
			t.Fatalf("step %d navigable inconsistent with state", info.Step)
		}
	}
}
