package apiclient

import "fmt"

// CallState is the position of one logical call in the authentication flow.
type CallState int

const (
	StateSent CallState = iota
	StateUnauthorized
	StateRefreshing
	StateRetried
	StateExpired
	StateDone
)

func (s CallState) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateUnauthorized:
		return "unauthorized"
	case StateRefreshing:
		return "refreshing"
	case StateRetried:
		return "retried"
	case StateExpired:
		return "expired"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the legal next states. Retried has no edge back to
// Unauthorized, so a call is replayed at most once.
var transitions = map[CallState][]CallState{
	StateSent:         {StateUnauthorized, StateDone},
	StateUnauthorized: {StateRefreshing},
	StateRefreshing:   {StateRetried, StateExpired},
	StateRetried:      {StateExpired, StateDone},
}

// Terminal reports whether no further transition is possible.
func (s CallState) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to CallState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// callFlow tracks one logical call.
type callFlow struct {
	requestID string
	state     CallState
	observe   func(requestID string, from, to CallState)
}

func newCallFlow(requestID string, observe func(string, CallState, CallState)) *callFlow {
	return &callFlow{requestID: requestID, state: StateSent, observe: observe}
}

func (f *callFlow) advance(to CallState) error {
	if !CanTransition(f.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
	}
	from := f.state
	f.state = to
	if f.observe != nil {
		f.observe(f.requestID, from, to)
	}
	return nil
}
