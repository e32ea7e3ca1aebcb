package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionBlur     Action = "blur"
	ActionAdvance  Action = "advance"
	ActionRetreat  Action = "retreat"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape. Action selects the
// operation; question_id and response are only set for autosave, where the
// response field carries the tagged response envelope.
type RequestPayload struct {
	Action     Action          `json:"action"`
	QuestionID string          `json:"question_id,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventNavigated Event = "navigated"
	EventIntegrity Event = "integrity"
	EventGraded    Event = "graded"
	EventExpired   Event = "expired"
	EventPong      Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// NavigatedResponse reports the cursor after a navigation attempt. A blocked
// advance comes back with OK=false and the validator's reason.
type NavigatedResponse struct {
	Event        Event  `json:"event"`
	OK           bool   `json:"ok"`
	Reason       string `json:"reason,omitempty"`
	CurrentIndex int    `json:"current_index"`
}

// IntegrityResponse reports the anti-cheat counter after a blur event.
type IntegrityResponse struct {
	Event     Event  `json:"event"`
	Count     int    `json:"count"`
	Flagged   bool   `json:"flagged"`
	Action    string `json:"action,omitempty"`
	Submitted bool   `json:"submitted"`
}

type GradedResponse struct {
	Event      Event   `json:"event"`
	Status     string  `json:"status"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// ExpiredResponse is pushed when the server-side countdown seals the session
// while the candidate is still connected.
type ExpiredResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
