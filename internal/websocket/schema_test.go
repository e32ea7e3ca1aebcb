package websocket

import (
	"encoding/json"
	"testing"
)

func TestRequestPayloadCarriesAutosaveFields(t *testing.T) {
	frame := []byte(`{"action":"autosave","question_id":"q-1","response":{"kind":"code","code":"x","language":"go"}}`)

	var msg RequestPayload
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Action != ActionAutosave {
		t.Fatalf("action = %q, want autosave", msg.Action)
	}
	if msg.QuestionID != "q-1" {
		t.Fatalf("question_id = %q", msg.QuestionID)
	}
	if len(msg.Response) == 0 {
		t.Fatal("response payload dropped")
	}
}

func TestRequestPayloadActionOnlyFrames(t *testing.T) {
	for _, action := range []Action{ActionBlur, ActionAdvance, ActionRetreat, ActionSubmit, ActionPing} {
		var msg RequestPayload
		if err := json.Unmarshal([]byte(`{"action":"`+string(action)+`"}`), &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Action != action {
			t.Fatalf("action = %q, want %q", msg.Action, action)
		}
	}
}
