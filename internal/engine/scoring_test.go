package engine

import (
	"context"
	"math"
	"testing"

	"github.com/hirelens/hirelens-backend/internal/model"
)

func TestScoreMcqExactMatch(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B", "C"}, "B")
	responses := model.ResponseMap{
		q.ID: model.McqResponse{SelectedOption: "B"},
	}

	b := Score(context.Background(), []model.Question{q}, responses, 70, fixedGrader{0.8})

	if b.Percentage != 100 {
		t.Fatalf("percentage = %v, want 100", b.Percentage)
	}
	if !b.Passed {
		t.Fatal("expected pass at threshold 70")
	}
	if b.EarnedPoints != 10 || b.TotalPoints != 10 {
		t.Fatalf("earned/total = %v/%v, want 10/10", b.EarnedPoints, b.TotalPoints)
	}
}

func TestScoreMcqNoPartialCredit(t *testing.T) {
	q := mcqQuestion(10, []string{"A", "B"}, "B")
	responses := model.ResponseMap{
		q.ID: model.McqResponse{SelectedOption: "A"},
	}

	b := Score(context.Background(), []model.Question{q}, responses, 70, fixedGrader{0.8})

	if b.EarnedPoints != 0 {
		t.Fatalf("earned = %v, want 0 for wrong answer", b.EarnedPoints)
	}
	if b.Passed {
		t.Fatal("expected fail")
	}
}

func TestScoreFreeFormUsesConfidenceFactor(t *testing.T) {
	coding := codingQuestion(10)
	open := openQuestion(10)
	responses := model.ResponseMap{
		coding.ID: model.CodeResponse{Code: "func main() {}", Language: "go"},
		open.ID:   model.MediaResponse{Transcript: "I led the migration."},
	}

	b := Score(context.Background(), []model.Question{coding, open}, responses, 70, fixedGrader{0.8})

	if math.Abs(b.EarnedPoints-16) > 1e-9 {
		t.Fatalf("earned = %v, want 16 (2 × 10 × 0.8)", b.EarnedPoints)
	}
	if math.Abs(b.Percentage-80) > 1e-9 {
		t.Fatalf("percentage = %v, want 80", b.Percentage)
	}
}

func TestScoreUnansweredScoresZero(t *testing.T) {
	questions := []model.Question{
		mcqQuestion(5, []string{"A", "B"}, "A"),
		codingQuestion(5),
		openQuestion(5),
	}

	b := Score(context.Background(), questions, model.ResponseMap{}, 70, fixedGrader{0.8})

	if b.EarnedPoints != 0 {
		t.Fatalf("earned = %v, want 0", b.EarnedPoints)
	}
	if b.Percentage != 0 {
		t.Fatalf("percentage = %v, want 0", b.Percentage)
	}
	for _, qs := range b.PerQuestion {
		if qs.Answered {
			t.Fatalf("question %s marked answered", qs.QuestionID)
		}
	}
}

func TestScoreZeroTotalPointsYieldsZeroPercentage(t *testing.T) {
	q := mcqQuestion(0, []string{"A"}, "A")
	responses := model.ResponseMap{q.ID: model.McqResponse{SelectedOption: "A"}}

	b := Score(context.Background(), []model.Question{q}, responses, 70, fixedGrader{0.8})

	if b.TotalPoints != 0 {
		t.Fatalf("total = %v, want 0", b.TotalPoints)
	}
	if b.Percentage != 0 {
		t.Fatalf("percentage = %v, want 0 (no division error)", b.Percentage)
	}
}

func TestScorePercentageAlwaysInRange(t *testing.T) {
	cases := []struct {
		name   string
		factor float64
	}{
		{"negative confidence clamped", -2},
		{"overshoot confidence clamped", 3},
		{"normal confidence", 0.5},
	}

	q := codingQuestion(10)
	responses := model.ResponseMap{q.ID: model.CodeResponse{Code: "x", Language: "go"}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Score(context.Background(), []model.Question{q}, responses, 70, fixedGrader{tc.factor})
			if b.Percentage < 0 || b.Percentage > 100 {
				t.Fatalf("percentage %v out of [0,100]", b.Percentage)
			}
		})
	}
}
