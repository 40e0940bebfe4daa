package chat

import "fmt"

// State is the controller's position in the turn-taking cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateError
	// StateEnded follows a reply that signalled human handoff.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateError:
		return "error"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateAwaitingReply, StateError, StateEnded} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("chat: unknown state %q", text)
}

// Event drives a state transition.
type Event int

const (
	EventSubmit Event = iota
	EventReplied
	EventRepliedEnd
	EventAuthRequired
	EventFailed
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventSubmit:
		return "submit"
	case EventReplied:
		return "replied"
	case EventRepliedEnd:
		return "replied_end"
	case EventAuthRequired:
		return "auth_required"
	case EventFailed:
		return "failed"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// StatePolicy parameterises the reducer.
type StatePolicy struct {
	// LockAfterEnd rejects submissions once the conversation has ended.
	LockAfterEnd bool
}

// Reduce is the pure transition function of the controller.
func (p StatePolicy) Reduce(s State, e Event) (State, error) {
	if e == EventReset {
		return StateIdle, nil
	}
	switch s {
	case StateIdle, StateError:
		if e == EventSubmit {
			return StateAwaitingReply, nil
		}
	case StateEnded:
		if e == EventSubmit {
			if p.LockAfterEnd {
				return s, ErrConversationEnded
			}
			return StateAwaitingReply, nil
		}
	case StateAwaitingReply:
		switch e {
		case EventSubmit:
			return s, ErrBusy
		case EventReplied:
			return StateIdle, nil
		case EventRepliedEnd:
			return StateEnded, nil
		case EventAuthRequired:
			return StateIdle, nil
		case EventFailed:
			return StateError, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}
