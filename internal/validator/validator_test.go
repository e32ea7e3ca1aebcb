package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"

	"github.com/hirelens/hirelens-backend/internal/model"
)

func validate(t *testing.T, v interface{}) map[string]string {
	t.Helper()
	err := binding.Validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	return TranslateErrors(err)
}

func TestQuestionTypeRule(t *testing.T) {
	Setup()

	req := model.AddQuestionRequest{Type: "coding", Text: "implement it"}
	if fields := validate(t, req); fields != nil {
		t.Fatalf("valid question rejected: %v", fields)
	}

	req.Type = "essay"
	fields := validate(t, req)
	if fields == nil {
		t.Fatal("unknown question type accepted")
	}
	if msg, ok := fields["type"]; !ok || msg != "type must be one of mcq, coding, video or open_ended" {
		t.Fatalf("unexpected translation: %v", fields)
	}
}

func TestIntegrityPolicyRule(t *testing.T) {
	Setup()

	req := model.CreateAssessmentRequest{
		Title:           "Backend screen",
		DurationMinutes: 45,
		IntegrityPolicy: "autosubmit",
	}
	if fields := validate(t, req); fields != nil {
		t.Fatalf("valid policy rejected: %v", fields)
	}

	// Omitted policy falls back to the server default downstream.
	req.IntegrityPolicy = ""
	if fields := validate(t, req); fields != nil {
		t.Fatalf("empty policy rejected: %v", fields)
	}

	req.IntegrityPolicy = "lockdown"
	fields := validate(t, req)
	if fields == nil {
		t.Fatal("unknown integrity policy accepted")
	}
	if msg, ok := fields["integrity_policy"]; !ok || msg != "integrity_policy must be either review or autosubmit" {
		t.Fatalf("unexpected translation: %v", fields)
	}
}
