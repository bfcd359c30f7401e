package exam

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/learnflow/learnflow-backend/internal/model"
)

// Unanswered is reported in results for questions with no selected option.
const Unanswered = "unanswered"

// Session is one attempt at an assessment. It is not safe for concurrent
// use; a Controller owns it exclusively and serialises access.
type Session struct {
	id          uuid.UUID
	assessment  *model.Assessment
	answers     map[string]int
	remaining   int
	status      Status
	score       int
	correct     int
	reason      model.SubmitReason
	startedAt   time.Time
	submittedAt time.Time
}

// NewSession creates an in-progress session with the full time allowance.
func NewSession(a *model.Assessment, now time.Time) *Session {
	return &Session{
		id:         uuid.New(),
		assessment: a,
		answers:    make(map[string]int, len(a.Questions)),
		remaining:  a.DurationMinutes * 60,
		status:     StatusInProgress,
		startedAt:  now,
	}
}

func (s *Session) ID() uuid.UUID                 { return s.id }
func (s *Session) Assessment() *model.Assessment { return s.assessment }
func (s *Session) Status() Status                { return s.status }
func (s *Session) Remaining() int                { return s.remaining }

func (s *Session) selectAnswer(questionID string, option int) error {
	if s.status != StatusInProgress {
		return ErrInvalidState
	}
	q, ok := s.assessment.Question(questionID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidQuestion, questionID)
	}
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: option %d out of range for %q", ErrInvalidQuestion, option, questionID)
	}
	s.answers[questionID] = option
	return nil
}

// tick decrements the clock and reports whether it ran out.
func (s *Session) tick() bool {
	if s.status != StatusInProgress {
		return false
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		return true
	}
	return false
}

// submit scores the session. It returns false if the session was already
// submitted, in which case nothing changes.
func (s *Session) submit(reason model.SubmitReason, now time.Time) bool {
	if s.status == StatusSubmitted {
		return false
	}

	correct := 0
	for _, q := range s.assessment.Questions {
		if chosen, ok := s.answers[q.ID]; ok && chosen == q.CorrectOption {
			correct++
		}
	}

	s.correct = correct
	s.score = Score(correct, len(s.assessment.Questions))
	s.reason = reason
	s.submittedAt = now
	s.status = StatusSubmitted
	return true
}

func (s *Session) result() (*Result, error) {
	if s.status != StatusSubmitted {
		return nil, ErrInvalidState
	}

	questions := make([]QuestionResult, len(s.assessment.Questions))
	for i, q := range s.assessment.Questions {
		qr := QuestionResult{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Answer:     Unanswered,
		}
		if chosen, ok := s.answers[q.ID]; ok {
			opt := chosen
			qr.SelectedOption = &opt
			qr.Answer = q.Options[chosen]
			qr.Correct = chosen == q.CorrectOption
		}
		if !qr.Correct {
			qr.CorrectAnswer = q.Options[q.CorrectOption]
		}
		questions[i] = qr
	}

	return &Result{
		SessionID:      s.id,
		AssessmentID:   s.assessment.ID,
		Score:          s.score,
		Passed:         s.score >= model.PassThreshold,
		CorrectCount:   s.correct,
		TotalQuestions: len(s.assessment.Questions),
		Reason:         s.reason,
		StartedAt:      s.startedAt,
		SubmittedAt:    s.submittedAt,
		Questions:      questions,
	}, nil
}

func (s *Session) snapshot() Snapshot {
	answers := make(map[string]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	snap := Snapshot{
		SessionID:        s.id,
		AssessmentID:     s.assessment.ID,
		Status:           s.status,
		RemainingSeconds: s.remaining,
		Answers:          answers,
		AnsweredCount:    len(answers),
		TotalQuestions:   len(s.assessment.Questions),
		StartedAt:        s.startedAt,
	}
	if s.status == StatusSubmitted {
		score := s.score
		at := s.submittedAt
		snap.Score = &score
		snap.SubmittedAt = &at
	}
	return snap
}

// Score is round(100 * correct / total); an empty assessment scores 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Snapshot is a read-only copy of a session's state for presentation.
type Snapshot struct {
	SessionID        uuid.UUID      `json:"session_id"`
	AssessmentID     string         `json:"assessment_id"`
	Status           Status         `json:"status"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Answers          map[string]int `json:"answers"`
	AnsweredCount    int            `json:"answered_count"`
	TotalQuestions   int            `json:"total_questions"`
	Score            *int           `json:"score,omitempty"`
	StartedAt        time.Time      `json:"started_at"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
}

// Result is the graded outcome of a submitted session.
type Result struct {
	SessionID      uuid.UUID          `json:"session_id"`
	AssessmentID   string             `json:"assessment_id"`
	Score          int                `json:"score"`
	Passed         bool               `json:"passed"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	Reason         model.SubmitReason `json:"reason"`
	StartedAt      time.Time          `json:"started_at"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	Questions      []QuestionResult   `json:"questions"`
}

// QuestionResult is the per-question breakdown of a Result.
type QuestionResult struct {
	QuestionID     string `json:"question_id"`
	Prompt         string `json:"prompt"`
	Correct        bool   `json:"correct"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	Answer         string `json:"answer"`
	CorrectAnswer  string `json:"correct_answer,omitempty"`
}

// Answers returns the selected option per question id.
func (r *Result) Answers() map[string]int {
	out := make(map[string]int, len(r.Questions))
	for _, q := range r.Questions {
		if q.SelectedOption != nil {
			out[q.QuestionID] = *q.SelectedOption
		}
	}
	return out
}
