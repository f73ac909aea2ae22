package study

import "fmt"

// State is the observable phase of a study session.
type State int

const (
	StateEmpty State = iota
	StateWaiting
	StateActive
	StateCompleted
)

var stateNames = [...]string{
	StateEmpty:     "empty",
	StateWaiting:   "waiting",
	StateActive:    "active",
	StateCompleted: "completed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("study: unknown state %q", text)
}
