// Package grader supplies the confidence factor the scoring engine applies to
// answered free-form questions. The fixed grader mirrors the historical 80%
// heuristic; the LLM grader asks an OpenAI-compatible model instead.
package grader

import (
	"context"

	"github.com/hirelens/hirelens-backend/internal/model"
)

// Fixed returns the same configured confidence for every answered free-form
// response.
type Fixed struct {
	Factor float64
}

// Confidence implements the engine's Grader seam.
func (g Fixed) Confidence(_ context.Context, _ model.Question, _ model.Response) float64 {
	return g.Factor
}
