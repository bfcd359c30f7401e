package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnflow/learnflow-backend/internal/model"
)

// AssessmentRepository handles assessment and question data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// GetByID retrieves an assessment with its questions in order.
// Returns pgx.ErrNoRows when the assessment does not exist.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, description, duration_minutes, start_date, created_at
		 FROM assessments WHERE id = $1`, id,
	).Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DurationMinutes, &a.StartDate, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	byID, err := r.questionsFor(ctx, []string{a.ID})
	if err != nil {
		return nil, err
	}
	a.Questions = byID[a.ID]
	return a, nil
}

// List retrieves every assessment ordered by start date, with questions.
func (r *AssessmentRepository) List(ctx context.Context) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, description, duration_minutes, start_date, created_at
		 FROM assessments
		 ORDER BY start_date ASC NULLS LAST, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DurationMinutes, &a.StartDate, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	byID, err := r.questionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Questions = byID[list[i].ID]
	}
	return list, nil
}

func (r *AssessmentRepository) questionsFor(ctx context.Context, ids []string) (map[string][]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT assessment_id, id, prompt, options, correct_option
		 FROM assessment_questions
		 WHERE assessment_id = ANY($1)
		 ORDER BY assessment_id, order_num`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.Question, len(ids))
	for rows.Next() {
		var assessmentID string
		var q model.Question
		if err := rows.Scan(&assessmentID, &q.ID, &q.Prompt, &q.Options, &q.CorrectOption); err != nil {
			return nil, err
		}
		out[assessmentID] = append(out[assessmentID], q)
	}
	return out, rows.Err()
}

// Create inserts an assessment and its questions in one transaction.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO assessments (id, course_id, title, description, duration_minutes, start_date)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at`,
			a.ID, a.CourseID, a.Title, a.Description, a.DurationMinutes, a.StartDate,
		).Scan(&a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}

		batch := &pgx.Batch{}
		for i, q := range a.Questions {
			batch.Queue(
				`INSERT INTO assessment_questions (assessment_id, id, order_num, prompt, options, correct_option)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				a.ID, q.ID, i+1, q.Prompt, q.Options, q.CorrectOption,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// Upsert replaces an assessment and all of its questions. Used by seeding.
func (r *AssessmentRepository) Upsert(ctx context.Context, a *model.Assessment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assessment_questions WHERE assessment_id = $1`, a.ID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO assessments (id, course_id, title, description, duration_minutes, start_date)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET course_id = EXCLUDED.course_id,
			     title = EXCLUDED.title,
			     description = EXCLUDED.description,
			     duration_minutes = EXCLUDED.duration_minutes,
			     start_date = EXCLUDED.start_date`,
			a.ID, a.CourseID, a.Title, a.Description, a.DurationMinutes, a.StartDate,
		)
		if err != nil {
			return fmt.Errorf("upsert assessment: %w", err)
		}

		rows := make([][]any, len(a.Questions))
		for i, q := range a.Questions {
			rows[i] = []any{a.ID, q.ID, i + 1, q.Prompt, q.Options, q.CorrectOption}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"assessment_questions"},
			[]string{"assessment_id", "id", "order_num", "prompt", "options", "correct_option"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy questions: %w", err)
		}
		return nil
	})
}
