package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseRepository reads the per-question response rows written by the
// response worker. Recruiters use it to review individual answers.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// ReviewedResponse pairs a question with the candidate's stored response.
type ReviewedResponse struct {
	QuestionID   uuid.UUID          `json:"question_id"`
	QuestionText string             `json:"question_text"`
	QuestionType model.QuestionType `json:"question_type"`
	OrderNum     int                `json:"order_num"`
	Response     model.Response     `json:"response"`
}

// ListForReview returns a candidate's responses for an assessment joined with
// the question text, ordered the way the candidate saw them.
func (r *ResponseRepository) ListForReview(ctx context.Context, assessmentID uuid.UUID, candidateID int) ([]ReviewedResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sr.question_id, q.question_text, q.question_type, q.order_num, sr.response
		 FROM session_responses sr
		 JOIN questions q ON sr.question_id = q.id
		 WHERE sr.assessment_id = $1 AND sr.candidate_id = $2
		 ORDER BY q.order_num`,
		assessmentID, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviewed []ReviewedResponse
	for rows.Next() {
		var rr ReviewedResponse
		var raw []byte
		if err := rows.Scan(&rr.QuestionID, &rr.QuestionText, &rr.QuestionType, &rr.OrderNum, &raw); err != nil {
			return nil, err
		}
		resp, err := model.UnmarshalResponse(json.RawMessage(raw))
		if err != nil {
			return nil, err
		}
		rr.Response = resp
		reviewed = append(reviewed, rr)
	}
	return reviewed, rows.Err()
}
