package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const llmTimeout = 10 * time.Second

// LLM asks an OpenAI-compatible model to rate how complete and substantive a
// free-form answer is. Scoring must never block on a flaky evaluator, so every
// failure path falls back to the fixed factor.
type LLM struct {
	api      *openai.Client
	model    string
	fallback float64
	log      zerolog.Logger
}

// NewLLM creates an LLM grader against an OpenAI-compatible endpoint.
func NewLLM(baseURL, apiKey, modelName string, fallback float64, log zerolog.Logger) *LLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LLM{
		api:      openai.NewClientWithConfig(cfg),
		model:    modelName,
		fallback: fallback,
		log:      log.With().Str("component", "llm_grader").Logger(),
	}
}

type confidenceReply struct {
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Confidence returns a 0..1 factor for the answered question. Errors and
// timeouts degrade to the fixed fallback, never to a blocked candidate.
func (g *LLM) Confidence(ctx context.Context, q model.Question, r model.Response) float64 {
	content := answerContent(r)
	if content == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(q)},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		g.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("LLM grading failed, using fallback")
		return g.fallback
	}
	if len(resp.Choices) == 0 {
		return g.fallback
	}

	var reply confidenceReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		g.log.Warn().Err(err).Msg("LLM reply was not valid JSON, using fallback")
		return g.fallback
	}

	g.log.Debug().
		Str("question_id", q.ID.String()).
		Float64("confidence", reply.Confidence).
		Msg("LLM graded answer")
	return reply.Confidence
}

func systemPrompt(q model.Question) string {
	return fmt.Sprintf(
		`You review one candidate answer from a hiring assessment. The question (%s, difficulty %s) was:

%s

Rate only how complete and substantive the answer is, not whether it is correct.
Respond with a JSON object: {"confidence": <float between 0 and 1>, "rationale": "<one sentence>"}.`,
		q.Type, q.Difficulty, q.Text,
	)
}

func answerContent(r model.Response) string {
	switch v := r.(type) {
	case model.CodeResponse:
		if v.Code == "" {
			return ""
		}
		return fmt.Sprintf("Language: %s\n\n%s", v.Language, v.Code)
	case model.MediaResponse:
		return v.Transcript
	}
	return ""
}
