package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentExists   = errors.New("assessment id already exists")
	ErrInvalidAssessment  = errors.New("invalid assessment")
)

const maxDurationMinutes = 480

// AssessmentService serves assessment definitions from a Redis cache backed
// by PostgreSQL.
type AssessmentService struct {
	repo AssessmentStore
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService. A zero ttl caches
// without expiry.
func NewAssessmentService(repo AssessmentStore, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *AssessmentService {
	return &AssessmentService{
		repo: repo,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "assessment_service").Logger(),
	}
}

// Get returns the assessment, reading through the cache.
func (s *AssessmentService) Get(ctx context.Context, id string) (*model.Assessment, error) {
	key := config.CacheKey.AssessmentPayloadKey(id)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var a model.Assessment
		if err := json.Unmarshal(data, &a); err == nil {
			return &a, nil
		}
		s.log.Warn().Str("assessment_id", id).Msg("Corrupt cache entry, reloading")
	case !errors.Is(err, redis.Nil):
		// Cache outage falls through to the database.
		s.log.Warn().Err(err).Str("assessment_id", id).Msg("Cache read failed")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	if err := s.warm(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("assessment_id", id).Msg("Failed to cache assessment")
	}
	return a, nil
}

// List returns every assessment from the database.
func (s *AssessmentService) List(ctx context.Context) ([]model.Assessment, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return list, nil
}

// Create validates and stores a new assessment, then caches it.
func (s *AssessmentService) Create(ctx context.Context, a *model.Assessment) error {
	if err := ValidateAssessment(a); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAssessmentExists
		}
		return fmt.Errorf("create assessment: %w", err)
	}

	if err := s.warm(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("assessment_id", a.ID).Msg("Failed to cache assessment")
	}

	s.log.Info().
		Str("assessment_id", a.ID).
		Int("questions", len(a.Questions)).
		Msg("Assessment created")
	return nil
}

// warm writes the assessment into the cache and the cached-id index.
func (s *AssessmentService) warm(ctx context.Context, a *model.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AssessmentPayloadKey(a.ID), payload, s.ttl)
	pipe.SAdd(ctx, config.CacheKey.AssessmentIndexKey(), a.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}

// PrewarmAllCaches loads every assessment into Redis on startup.
func (s *AssessmentService) PrewarmAllCaches(ctx context.Context) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list assessments: %w", err)
	}
	if len(list) == 0 {
		s.log.Info().Msg("No assessments to prewarm")
		return nil
	}

	warmed := 0
	for i := range list {
		if err := s.warm(ctx, &list[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("assessment_id", list[i].ID).
				Msg("Failed to warm assessment, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(list)).
		Msg("Prewarming complete")
	return nil
}

// ValidateAssessment checks the structural rules binding tags cannot express.
func ValidateAssessment(a *model.Assessment) error {
	if a.DurationMinutes < 1 || a.DurationMinutes > maxDurationMinutes {
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalidAssessment, maxDurationMinutes)
	}
	if len(a.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidAssessment)
	}

	seen := make(map[string]struct{}, len(a.Questions))
	for _, q := range a.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question id is required", ErrInvalidAssessment)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidAssessment, q.ID)
		}
		seen[q.ID] = struct{}{}

		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least two options", ErrInvalidAssessment, q.ID)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("%w: question %q correct option out of range", ErrInvalidAssessment, q.ID)
		}
	}
	return nil
}
