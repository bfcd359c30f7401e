package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnflow/learnflow-backend/internal/model"
)

// AttemptRepository handles submitted attempt data access. Only the attempt
// worker writes.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, assessment_id, user_id, user_name, score, passed,
	correct_count, total_questions, reason, started_at, submitted_at`

func (r *AttemptRepository) list(ctx context.Context, query string, arg any) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(
			&a.ID, &a.AssessmentID, &a.UserID, &a.UserName, &a.Score, &a.Passed,
			&a.CorrectCount, &a.TotalQuestions, &a.Reason, &a.StartedAt, &a.SubmittedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListByUser retrieves a user's attempts, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID int) ([]model.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE user_id = $1
		 ORDER BY submitted_at DESC`, userID)
}

// ListByAssessment retrieves all attempts at an assessment ordered by name,
// then newest first.
func (r *AttemptRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]model.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE assessment_id = $1
		 ORDER BY user_name ASC, submitted_at DESC`, assessmentID)
}

// InsertBatch stores attempts and their answers in one transaction using
// UNNEST. Attempts already stored are skipped, so redelivery is harmless.
func (r *AttemptRepository) InsertBatch(ctx context.Context, attempts []model.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}

	n := len(attempts)
	ids := make([]uuid.UUID, n)
	assessmentIDs := make([]string, n)
	userIDs := make([]int, n)
	userNames := make([]string, n)
	scores := make([]int, n)
	passed := make([]bool, n)
	correct := make([]int, n)
	totals := make([]int, n)
	reasons := make([]string, n)
	startedAts := make([]time.Time, n)
	submittedAts := make([]time.Time, n)

	var (
		ansAttempt  []uuid.UUID
		ansQuestion []string
		ansOption   []int
	)

	for i, a := range attempts {
		ids[i] = a.ID
		assessmentIDs[i] = a.AssessmentID
		userIDs[i] = a.UserID
		userNames[i] = a.UserName
		scores[i] = a.Score
		passed[i] = a.Passed
		correct[i] = a.CorrectCount
		totals[i] = a.TotalQuestions
		reasons[i] = string(a.Reason)
		startedAts[i] = a.StartedAt
		submittedAts[i] = a.SubmittedAt

		for qid, opt := range a.Answers {
			ansAttempt = append(ansAttempt, a.ID)
			ansQuestion = append(ansQuestion, qid)
			ansOption = append(ansOption, opt)
		}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO attempts (
				id, assessment_id, user_id, user_name, score, passed,
				correct_count, total_questions, reason, started_at, submitted_at
			)
			SELECT * FROM UNNEST(
				$1::uuid[], $2::text[], $3::int[], $4::text[], $5::int[], $6::bool[],
				$7::int[], $8::int[], $9::text[], $10::timestamptz[], $11::timestamptz[]
			)
			ON CONFLICT (id) DO NOTHING`,
			ids, assessmentIDs, userIDs, userNames, scores, passed,
			correct, totals, reasons, startedAts, submittedAts,
		)
		if err != nil {
			return fmt.Errorf("insert attempts: %w", err)
		}

		if len(ansAttempt) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO attempt_answers (attempt_id, question_id, option_index)
			SELECT * FROM UNNEST($1::uuid[], $2::text[], $3::int[])
			ON CONFLICT (attempt_id, question_id) DO NOTHING`,
			ansAttempt, ansQuestion, ansOption,
		)
		if err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		return nil
	})
}
