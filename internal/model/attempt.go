package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitReason records how an attempt reached the submitted state.
type SubmitReason string

const (
	SubmitReasonManual  SubmitReason = "MANUAL"
	SubmitReasonTimeout SubmitReason = "TIMEOUT"
)

// Attempt is the persisted record of a submitted session.
type Attempt struct {
	ID             uuid.UUID      `json:"id"`
	AssessmentID   string         `json:"assessment_id"`
	UserID         int            `json:"user_id"`
	UserName       string         `json:"user_name"`
	Score          int            `json:"score"`
	Passed         bool           `json:"passed"`
	CorrectCount   int            `json:"correct_count"`
	TotalQuestions int            `json:"total_questions"`
	Reason         SubmitReason   `json:"reason"`
	StartedAt      time.Time      `json:"started_at"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	Answers        map[string]int `json:"answers,omitempty"`
}

// SelectAnswerRequest is the payload for choosing an option.
type SelectAnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"required,max=64"`
	OptionIndex *int   `json:"option_index" binding:"required,min=0"`
}
