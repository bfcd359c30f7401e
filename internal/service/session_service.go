package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/exam"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned when the user has no session for the assessment.
var ErrSessionNotFound = errors.New("no session for this assessment")

const enqueueTimeout = 5 * time.Second

// Participant identifies who is taking an assessment.
type Participant struct {
	UserID int
	Name   string
}

type sessionKey struct {
	userID       int
	assessmentID string
}

// SessionService owns the live exam controllers, one per user and assessment.
type SessionService struct {
	assessments AssessmentSource
	attempts    AttemptStore
	rdb         *redis.Client
	log         zerolog.Logger

	interval  time.Duration
	retention time.Duration
	newTicker exam.TickerFactory
	now       func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*exam.Controller
}

// SessionOption customizes a SessionService.
type SessionOption func(*SessionService)

// WithTickerFactory replaces the wall-clock tick source of new sessions.
func WithTickerFactory(f exam.TickerFactory) SessionOption {
	return func(s *SessionService) { s.newTicker = f }
}

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	cfg *config.Config,
	assessments AssessmentSource,
	attempts AttemptStore,
	rdb *redis.Client,
	log zerolog.Logger,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		assessments: assessments,
		attempts:    attempts,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
		interval:    cfg.TickInterval,
		retention:   cfg.SessionRetention,
		newTicker:   exam.NewTicker,
		now:         time.Now,
		sessions:    make(map[sessionKey]*exam.Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session for the participant. An in-progress session is
// returned as-is; a finished one is replaced by a fresh attempt.
func (s *SessionService) Start(ctx context.Context, p Participant, assessmentID string) (exam.Snapshot, error) {
	key := sessionKey{userID: p.UserID, assessmentID: assessmentID}

	s.mu.Lock()
	if c, ok := s.sessions[key]; ok && !c.Done() {
		s.mu.Unlock()
		return c.Snapshot(), nil
	}
	s.mu.Unlock()

	a, err := s.assessments.Get(ctx, assessmentID)
	if err != nil {
		return exam.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have started it while the assessment loaded.
	if c, ok := s.sessions[key]; ok {
		if !c.Done() {
			return c.Snapshot(), nil
		}
		c.Close()
	}

	c := exam.Start(a,
		exam.WithInterval(s.interval),
		exam.WithTicker(s.newTicker),
		exam.WithClock(s.now),
		exam.WithLogger(s.log.With().Int("user_id", p.UserID).Logger()),
		exam.WithOnSubmit(func(res *exam.Result) { s.enqueueAttempt(p, res) }),
	)
	s.sessions[key] = c

	s.log.Info().
		Int("user_id", p.UserID).
		Str("assessment_id", assessmentID).
		Str("session_id", c.Session().ID().String()).
		Msg("Session started")

	return c.Snapshot(), nil
}

func (s *SessionService) lookup(userID int, assessmentID string) (*exam.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[sessionKey{userID: userID, assessmentID: assessmentID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// State returns the current snapshot of the user's session.
func (s *SessionService) State(userID int, assessmentID string) (exam.Snapshot, error) {
	c, err := s.lookup(userID, assessmentID)
	if err != nil {
		return exam.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// SelectAnswer records an option for a question.
func (s *SessionService) SelectAnswer(userID int, assessmentID, questionID string, option int) (exam.Snapshot, error) {
	c, err := s.lookup(userID, assessmentID)
	if err != nil {
		return exam.Snapshot{}, err
	}
	return c.SelectAnswer(questionID, option)
}

// Submit finalizes the session. Repeated calls return the same result.
func (s *SessionService) Submit(userID int, assessmentID string) (*exam.Result, error) {
	c, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}
	return c.Submit()
}

// Result returns the graded breakdown of a submitted session.
func (s *SessionService) Result(userID int, assessmentID string) (*exam.Result, error) {
	c, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}
	return c.Result()
}

// Subscribe returns the snapshot feed of the user's session.
func (s *SessionService) Subscribe(userID int, assessmentID string) (<-chan exam.Snapshot, func(), error) {
	c, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := c.Subscribe()
	return ch, cancel, nil
}

// Discard tears the session down without scoring it.
func (s *SessionService) Discard(userID int, assessmentID string) error {
	key := sessionKey{userID: userID, assessmentID: assessmentID}

	s.mu.Lock()
	c, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	c.Close()
	return nil
}

// Reap drops submitted sessions whose retention window has passed and
// returns how many were dropped.
func (s *SessionService) Reap() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	var expired []*exam.Controller
	for key, c := range s.sessions {
		snap := c.Snapshot()
		if snap.SubmittedAt == nil || snap.SubmittedAt.After(cutoff) {
			continue
		}
		delete(s.sessions, key)
		expired = append(expired, c)
	}
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		s.log.Debug().Int("reaped", len(expired)).Msg("Submitted sessions reaped")
	}
	return len(expired)
}

// Active returns the number of sessions still in progress.
func (s *SessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.sessions {
		if !c.Done() {
			n++
		}
	}
	return n
}

// Shutdown tears down every session and stops their tick sources.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[sessionKey]*exam.Controller)
	s.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	s.log.Info().Int("sessions", len(sessions)).Msg("Sessions closed")
}

// enqueueAttempt hands a submitted result to the attempt worker.
func (s *SessionService) enqueueAttempt(p Participant, res *exam.Result) {
	attempt := model.Attempt{
		ID:             res.SessionID,
		AssessmentID:   res.AssessmentID,
		UserID:         p.UserID,
		UserName:       p.Name,
		Score:          res.Score,
		Passed:         res.Passed,
		CorrectCount:   res.CorrectCount,
		TotalQuestions: res.TotalQuestions,
		Reason:         res.Reason,
		StartedAt:      res.StartedAt,
		SubmittedAt:    res.SubmittedAt,
		Answers:        res.Answers(),
	}

	payload, err := json.Marshal(attempt)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", res.SessionID.String()).Msg("Failed to marshal attempt")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, payload).Err(); err != nil {
		s.log.Error().
			Err(err).
			Str("session_id", res.SessionID.String()).
			Msg("Failed to enqueue attempt")
		return
	}

	s.log.Info().
		Int("user_id", p.UserID).
		Str("assessment_id", res.AssessmentID).
		Int("score", res.Score).
		Str("reason", string(res.Reason)).
		Msg("Attempt submitted")
}

// ─── Lobby ──────────────────────────────────────────────────────────

// LobbyStatus is where an assessment stands for one student.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
)

// LobbyAssessment is an assessment as listed for a student.
type LobbyAssessment struct {
	ID               string      `json:"id"`
	CourseID         string      `json:"course_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	DurationMinutes  int         `json:"duration_minutes"`
	StartDate        *time.Time  `json:"start_date,omitempty"`
	QuestionCount    int         `json:"question_count"`
	LobbyStatus      LobbyStatus `json:"lobby_status"`
	RemainingSeconds *int        `json:"remaining_seconds,omitempty"`
	Score            *int        `json:"score,omitempty"`
	Passed           *bool       `json:"passed,omitempty"`
}

// Lobby lists every assessment with the student's standing on it. Live
// sessions take precedence over persisted attempts.
func (s *SessionService) Lobby(ctx context.Context, userID int) ([]LobbyAssessment, error) {
	list, err := s.assessments.List(ctx)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	// Newest first, so the first seen per assessment is the latest.
	latest := make(map[string]model.Attempt, len(attempts))
	for _, at := range attempts {
		if _, ok := latest[at.AssessmentID]; !ok {
			latest[at.AssessmentID] = at
		}
	}

	lobby := make([]LobbyAssessment, 0, len(list))
	for _, a := range list {
		entry := LobbyAssessment{
			ID:              a.ID,
			CourseID:        a.CourseID,
			Title:           a.Title,
			Description:     a.Description,
			DurationMinutes: a.DurationMinutes,
			StartDate:       a.StartDate,
			QuestionCount:   len(a.Questions),
			LobbyStatus:     LobbyStatusUpcoming,
		}

		if at, ok := latest[a.ID]; ok {
			entry.LobbyStatus = LobbyStatusCompleted
			entry.Score = &at.Score
			entry.Passed = &at.Passed
		}

		if c, err := s.lookup(userID, a.ID); err == nil {
			snap := c.Snapshot()
			switch snap.Status {
			case exam.StatusInProgress:
				entry.LobbyStatus = LobbyStatusInProgress
				entry.RemainingSeconds = &snap.RemainingSeconds
			case exam.StatusSubmitted:
				if res, err := c.Result(); err == nil {
					entry.LobbyStatus = LobbyStatusCompleted
					entry.Score = &res.Score
					entry.Passed = &res.Passed
				}
			}
		}

		lobby = append(lobby, entry)
	}
	return lobby, nil
}
