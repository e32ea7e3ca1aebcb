package engine

// Step identifies one of the five ordered workflow stages a candidate moves
// through. The stepper is a pure projection over (step, current); it holds no
// business data and mirrors the session's actual progress.
type Step int

const (
	StepSelect Step = iota + 1
	StepInstructions
	StepInProgress
	StepComplete
	StepResults
)

var stepLabels = map[Step]string{
	StepSelect:       "Select Assessment",
	StepInstructions: "Instructions",
	StepInProgress:   "In Progress",
	StepComplete:     "Complete",
	StepResults:      "Results",
}

// Label returns the display name for a step.
func (s Step) Label() string { return stepLabels[s] }

// StepState is the derived presentation state of one step.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepDisabled  StepState = "disabled"
)

// StateOf derives a step's state purely from its position relative to the
// current step.
func StateOf(step, current Step) StepState {
	switch {
	case step < current:
		return StepCompleted
	case step == current:
		return StepActive
	default:
		return StepDisabled
	}
}

// Navigable reports whether a step may be clicked: completed and active steps
// are reachable, disabled ones are a no-op until the previous step finishes.
func Navigable(step, current Step) bool {
	return StateOf(step, current) != StepDisabled
}

// StepInfo is the projection handed to UI layers.
type StepInfo struct {
	Step      Step      `json:"step"`
	Label     string    `json:"label"`
	State     StepState `json:"state"`
	Navigable bool      `json:"navigable"`
}

// Steps projects all five stages against the current one.
func Steps(current Step) []StepInfo {
	out := make([]StepInfo, 0, 5)
	for s := StepSelect; s <= StepResults; s++ {
		out = append(out, StepInfo{
			Step:      s,
			Label:     s.Label(),
			State:     StateOf(s, current),
			Navigable: Navigable(s, current),
		})
	}
	return out
}
