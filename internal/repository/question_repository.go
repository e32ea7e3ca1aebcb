package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. It doubles as the
// engine's question catalog.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, assessment_id, question_type, question_text, difficulty,
	points, order_num, options, correct_answer, starter_code, test_cases, language_options`

// FetchQuestions retrieves all questions for an assessment, ordered by order_num.
// Satisfies engine.Catalog.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE assessment_id = $1
		 ORDER BY order_num`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Type, &q.Text, &q.Difficulty,
			&q.Points, &q.OrderNum, &q.Options, &q.CorrectAnswer,
			&q.StarterCode, &q.TestCases, &q.LanguageOptions); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (assessment_id, question_type, question_text, difficulty,
		                        points, order_num, options, correct_answer,
		                        starter_code, test_cases, language_options)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		q.AssessmentID, q.Type, q.Text, q.Difficulty,
		q.Points, q.OrderNum, q.Options, q.CorrectAnswer,
		q.StarterCode, q.TestCases, q.LanguageOptions,
	).Scan(&q.ID)
}

// ReplaceForAssessment atomically swaps the full question set of a draft
// assessment. Order numbers are reassigned from the slice order.
func (r *QuestionRepository) ReplaceForAssessment(ctx context.Context, assessmentID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE assessment_id = $1`, assessmentID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		q.AssessmentID = assessmentID
		q.OrderNum = i + 1
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (assessment_id, question_type, question_text, difficulty,
			                        points, order_num, options, correct_answer,
			                        starter_code, test_cases, language_options)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			q.AssessmentID, q.Type, q.Text, q.Difficulty,
			q.Points, q.OrderNum, q.Options, q.CorrectAnswer,
			q.StarterCode, q.TestCases, q.LanguageOptions,
		).Scan(&q.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a single question from a draft assessment.
func (r *QuestionRepository) Delete(ctx context.Context, assessmentID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND assessment_id = $2`,
		questionID, assessmentID)
	return err
}

// CountByAssessment returns the number of questions in an assessment.
func (r *QuestionRepository) CountByAssessment(ctx context.Context, assessmentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE assessment_id = $1`, assessmentID,
	).Scan(&count)
	return count, err
}
