package task

import "fmt"

// State is the lifecycle state of a task.
type State int

// Task states. Pending is implicit: a task with no stored record is pending.
const (
	StatePending State = iota
	StateProgress
	StateSuccess
	StateFailure
)

var stateNames = [...]string{
	StatePending:  "PENDING",
	StateProgress: "PROGRESS",
	StateSuccess:  "SUCCESS",
	StateFailure:  "FAILURE",
}

// String returns the wire name of the state.
func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool {
	return s >= StatePending && s <= StateFailure
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s State) IsTerminal() bool {
	switch s {
	case StateSuccess, StateFailure:
		return true
	case StatePending, StateProgress:
		return false
	default:
		return false
	}
}

// ParseState converts a wire name back into a State.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StatePending, fmt.Errorf("unknown task state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid task state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
