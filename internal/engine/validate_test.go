package engine

import (
	"testing"

	"github.com/hirelens/hirelens-backend/internal/model"
)

func TestValidateResponse(t *testing.T) {
	mcq := mcqQuestion(10, []string{"A", "B", "C"}, "B")
	coding := codingQuestion(10)
	video := openQuestion(10)
	video.Type = model.QuestionTypeVideo
	open := openQuestion(10)

	cases := []struct {
		name     string
		question model.Question
		response model.Response
		wantOK   bool
	}{
		{"mcq valid option", mcq, model.McqResponse{SelectedOption: "A"}, true},
		{"mcq option not in list", mcq, model.McqResponse{SelectedOption: "D"}, false},
		{"mcq missing response", mcq, nil, false},
		{"mcq wrong variant", mcq, model.CodeResponse{Code: "x"}, false},
		{"coding non-empty", coding, model.CodeResponse{Code: "print(1)", Language: "python"}, true},
		{"coding whitespace only", coding, model.CodeResponse{Code: "   \n\t"}, false},
		{"coding missing response", coding, nil, false},
		{"video with transcript", video, model.MediaResponse{Transcript: "recorded"}, true},
		{"video empty transcript", video, model.MediaResponse{Transcript: "  "}, false},
		{"open-ended with answer", open, model.MediaResponse{Transcript: "my answer"}, true},
		{"open-ended missing response", open, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := ValidateResponse(tc.question, tc.response)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v (reason %q)", ok, tc.wantOK, reason)
			}
			if !ok && reason == "" {
				t.Fatal("blocked validation must carry a reason")
			}
			if ok && reason != "" {
				t.Fatalf("passing validation carried reason %q", reason)
			}
		})
	}
}
