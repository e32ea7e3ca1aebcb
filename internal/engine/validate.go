package engine

import (
	"strings"

	"github.com/hirelens/hirelens-backend/internal/model"
)

// ValidateResponse applies the per-type completeness rule that gates forward
// navigation and final submission. A failure is ordinary control flow: it
// returns a candidate-facing reason, never an error.
func ValidateResponse(q model.Question, r model.Response) (bool, string) {
	switch q.Type {
	case model.QuestionTypeMcq:
		mcq, ok := r.(model.McqResponse)
		if !ok {
			return false, "select an answer before continuing"
		}
		for _, opt := range q.Options {
			if opt == mcq.SelectedOption {
				return true, ""
			}
		}
		return false, "selected answer is not one of the available options"

	case model.QuestionTypeCoding:
		code, ok := r.(model.CodeResponse)
		if !ok || strings.TrimSpace(code.Code) == "" {
			return false, "write your solution before continuing"
		}
		return true, ""

	case model.QuestionTypeVideo, model.QuestionTypeOpenEnded:
		media, ok := r.(model.MediaResponse)
		if !ok || strings.TrimSpace(media.Transcript) == "" {
			return false, "record or type your answer before continuing"
		}
		return true, ""
	}

	return false, "unsupported question type"
}
