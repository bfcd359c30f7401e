package exam

import "fmt"

// Status is the lifecycle phase of a session.
type Status uint8

const (
	StatusInProgress Status = iota + 1
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusSubmitted:
		return "SUBMITTED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText encodes the status by name so JSON snapshots stay readable.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusInProgress, StatusSubmitted:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("exam: unknown status %d", uint8(s))
	}
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IN_PROGRESS":
		*s = StatusInProgress
	case "SUBMITTED":
		*s = StatusSubmitted
	default:
		return fmt.Errorf("exam: unknown status %q", text)
	}
	return nil
}
