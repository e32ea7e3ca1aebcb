package grader

import (
	"context"
	"testing"

	"github.com/hirelens/hirelens-backend/internal/model"
)

func TestFixedReturnsConfiguredFactor(t *testing.T) {
	g := Fixed{Factor: 0.8}

	got := g.Confidence(context.Background(), model.Question{Type: model.QuestionTypeCoding}, model.CodeResponse{Code: "x"})
	if got != 0.8 {
		t.Fatalf("confidence = %v, want 0.8", got)
	}
}

func TestAnswerContent(t *testing.T) {
	cases := []struct {
		name     string
		response model.Response
		want     string
	}{
		{"code with language", model.CodeResponse{Code: "print(1)", Language: "python"}, "Language: python\n\nprint(1)"},
		{"empty code", model.CodeResponse{}, ""},
		{"media transcript", model.MediaResponse{Transcript: "my answer"}, "my answer"},
		{"mcq has no free-form content", model.McqResponse{SelectedOption: "A"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := answerContent(tc.response); got != tc.want {
				t.Fatalf("answerContent = %q, want %q", got, tc.want)
			}
		})
	}
}
