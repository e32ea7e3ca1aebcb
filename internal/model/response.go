package model

import (
	"encoding/json"
	"fmt"
)

// ResponseKind tags the variants of the Response sum type.
type ResponseKind string

const (
	ResponseKindMcq   ResponseKind = "mcq"
	ResponseKindCode  ResponseKind = "code"
	ResponseKindMedia ResponseKind = "media"
)

// Response is what a candidate submits for one question. The concrete variant
// must match the question's declared type; the engine rejects mismatches at
// the API boundary.
type Response interface {
	Kind() ResponseKind
}

// McqResponse is the selected option for a multiple-choice question.
type McqResponse struct {
	SelectedOption string `json:"selected_option"`
}

func (McqResponse) Kind() ResponseKind { return ResponseKindMcq }

// CodeResponse is a code submission for a coding question.
type CodeResponse struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (CodeResponse) Kind() ResponseKind { return ResponseKindCode }

// MediaResponse captures a recorded or typed free-form answer. Transcript is
// the canonical content; VideoURL points at the stored recording when present.
type MediaResponse struct {
	Transcript      string `json:"transcript"`
	VideoURL        string `json:"video_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

func (MediaResponse) Kind() ResponseKind { return ResponseKindMedia }

// responseEnvelope is the wire/storage form of a Response: the variant fields
// flattened next to a kind tag.
type responseEnvelope struct {
	Kind ResponseKind `json:"kind"`

	SelectedOption string `json:"selected_option,omitempty"`

	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`

	Transcript      string `json:"transcript,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// MarshalResponse encodes a Response into its tagged JSON envelope.
func MarshalResponse(r Response) ([]byte, error) {
	env := responseEnvelope{Kind: r.Kind()}
	switch v := r.(type) {
	case McqResponse:
		env.SelectedOption = v.SelectedOption
	case CodeResponse:
		env.Code = v.Code
		env.Language = v.Language
	case MediaResponse:
		env.Transcript = v.Transcript
		env.VideoURL = v.VideoURL
		env.DurationSeconds = v.DurationSeconds
	default:
		return nil, fmt.Errorf("unknown response variant %T", r)
	}
	return json.Marshal(env)
}

// UnmarshalResponse decodes a tagged JSON envelope back into a Response.
func UnmarshalResponse(data []byte) (Response, error) {
	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}

	switch env.Kind {
	case ResponseKindMcq:
		return McqResponse{SelectedOption: env.SelectedOption}, nil
	case ResponseKindCode:
		return CodeResponse{Code: env.Code, Language: env.Language}, nil
	case ResponseKindMedia:
		return MediaResponse{
			Transcript:      env.Transcript,
			VideoURL:        env.VideoURL,
			DurationSeconds: env.DurationSeconds,
		}, nil
	}
	return nil, fmt.Errorf("unknown response kind %q", env.Kind)
}
