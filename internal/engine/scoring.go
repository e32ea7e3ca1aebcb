package engine

import (
	"context"

	"github.com/hirelens/hirelens-backend/internal/model"
)

// Score reduces the captured response set against the catalog into a
// ScoreBreakdown. It is a pure function of its inputs plus the injected
// grader:
//
//   - mcq: full points on an exact match with the correct answer, else zero.
//     No partial credit.
//   - coding/video/open_ended: zero when unanswered; otherwise full points
//     scaled by the grader's confidence factor. Correctness grading for
//     free-form content is delegated, not computed here.
//
// The aggregate percentage covers only questions carrying a point value;
// a zero point total yields percentage 0, never a division error.
func Score(ctx context.Context, questions []model.Question, responses model.ResponseMap, passingThreshold float64, grader Grader) model.ScoreBreakdown {
	breakdown := model.ScoreBreakdown{
		PerQuestion: make([]model.QuestionScore, 0, len(questions)),
	}

	for _, q := range questions {
		r, answered := responses[q.ID]
		qs := model.QuestionScore{
			QuestionID: q.ID,
			Possible:   q.Points,
			Answered:   answered,
		}

		if answered && q.Points > 0 {
			switch q.Type {
			case model.QuestionTypeMcq:
				if mcq, ok := r.(model.McqResponse); ok && mcq.SelectedOption == q.CorrectAnswer {
					qs.Earned = float64(q.Points)
				}
			case model.QuestionTypeCoding, model.QuestionTypeVideo, model.QuestionTypeOpenEnded:
				qs.Earned = float64(q.Points) * clampConfidence(grader.Confidence(ctx, q, r))
			}
		}

		breakdown.TotalPoints += q.Points
		breakdown.EarnedPoints += qs.Earned
		breakdown.PerQuestion = append(breakdown.PerQuestion, qs)
	}

	if breakdown.TotalPoints > 0 {
		breakdown.Percentage = 100 * breakdown.EarnedPoints / float64(breakdown.TotalPoints)
	}
	breakdown.Passed = breakdown.Percentage >= passingThreshold

	return breakdown
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
