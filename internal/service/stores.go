package service

import (
	"context"

	"github.com/learnflow/learnflow-backend/internal/model"
)

// UserStore is the user persistence the services need.
// Lookups return pgx.ErrNoRows when nothing matches.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// AssessmentStore is the assessment persistence the services need.
type AssessmentStore interface {
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context) ([]model.Assessment, error)
	Create(ctx context.Context, a *model.Assessment) error
}

// AttemptStore reads persisted attempts.
type AttemptStore interface {
	ListByUser(ctx context.Context, userID int) ([]model.Attempt, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]model.Attempt, error)
}

// AssessmentSource resolves an assessment by id.
type AssessmentSource interface {
	Get(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context) ([]model.Assessment, error)
}
