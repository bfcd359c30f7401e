package websocket

import "github.com/learnflow/learnflow-backend/internal/exam"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect Action = "select"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// Request is any client message. Only select uses the answer fields.
type Request struct {
	Action      Action `json:"action"`
	QuestionID  string `json:"question_id,omitempty"`
	OptionIndex *int   `json:"option_index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries a snapshot after every tick or answer change.
type StateResponse struct {
	Event Event         `json:"event"`
	State exam.Snapshot `json:"state"`
}

// SubmittedResponse is the last message on a stream.
type SubmittedResponse struct {
	Event  Event        `json:"event"`
	Result *exam.Result `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
