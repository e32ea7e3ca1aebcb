package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResponseMap keys responses by question ID. Insertion order is irrelevant.
type ResponseMap map[uuid.UUID]Response

// MarshalJSON encodes every response through its tagged envelope so the map
// round-trips through jsonb storage.
func (m ResponseMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(m))
	for id, r := range m {
		data, err := MarshalResponse(r)
		if err != nil {
			return nil, err
		}
		raw[id.String()] = data
	}
	return json.Marshal(raw)
}

func (m *ResponseMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ResponseMap, len(raw))
	for key, msg := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			return err
		}
		r, err := UnmarshalResponse(msg)
		if err != nil {
			return err
		}
		out[id] = r
	}
	*m = out
	return nil
}

// Session is the mutable record of one candidate's attempt at an assessment.
// At most one incomplete session exists per (candidate, assessment) pair.
type Session struct {
	ID             uuid.UUID   `json:"id"`
	AssessmentID   uuid.UUID   `json:"assessment_id"`
	CandidateID    int         `json:"candidate_id"`
	CurrentIndex   int         `json:"current_index"`
	Responses      ResponseMap `json:"responses"`
	StartedAt      time.Time   `json:"started_at"`
	TimeRemaining  int         `json:"time_remaining_seconds"`
	TabSwitchCount int         `json:"tab_switch_count"`
	Flagged        bool        `json:"flagged"`
	Completed      bool        `json:"completed"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	FinalScore     *float64    `json:"final_score,omitempty"`
}

// Clone returns a deep-enough copy for handing out snapshots: the response map
// is copied, the immutable response values are shared.
func (s *Session) Clone() Session {
	out := *s
	out.Responses = make(ResponseMap, len(s.Responses))
	for id, r := range s.Responses {
		out.Responses[id] = r
	}
	return out
}

// FinishReason distinguishes how a session was sealed.
type FinishReason string

const (
	FinishManual  FinishReason = "manual"
	FinishTimeout FinishReason = "timeout"
)
