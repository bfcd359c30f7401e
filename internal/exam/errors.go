package exam

import "errors"

var (
	// ErrInvalidState is returned when an operation does not fit the
	// session's lifecycle phase (answering after submit, reading a result
	// before submit, using a torn-down session).
	ErrInvalidState = errors.New("exam: invalid session state")

	// ErrInvalidQuestion is returned when the referenced question (or one of
	// its options) is not part of the assessment.
	ErrInvalidQuestion = errors.New("exam: question not in assessment")
)
