package orion

import (
	"fmt"
)

// SessionState is the state of an XR session as tracked by the SessionDriver.
type SessionState int

const (
	// SessionIdle waits for the runtime to become ready.
	SessionIdle SessionState = iota

	// SessionReady has begun the session, the runtime is not yet
	// synchronized with the frame loop.
	SessionReady

	// SessionRunning is synchronized, frames may be displayed.
	SessionRunning

	// SessionStopping has ended the session, waits for the runtime to go idle.
	SessionStopping

	// SessionExiting is terminal.
	SessionExiting
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "Idle"
	case SessionReady:
		return "Ready"
	case SessionRunning:
		return "Running"
	case SessionStopping:
		return "Stopping"
	case SessionExiting:
		return "Exiting"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Renderable reports whether the frame loop runs in this state.
func (s SessionState) Renderable() bool {
	return s == SessionReady || s == SessionRunning
}

// SessionEvent is a session state change reported by the runtime.
type SessionEvent int

const (
	EventIdle SessionEvent = iota + 1
	EventReady
	EventSynchronized
	EventVisible
	EventFocused
	EventStopping
	EventLossPending
	EventExiting
)

func (e SessionEvent) String() string {
	switch e {
	case EventIdle:
		return "Idle"
	case EventReady:
		return "Ready"
	case EventSynchronized:
		return "Synchronized"
	case EventVisible:
		return "Visible"
	case EventFocused:
		return "Focused"
	case EventStopping:
		return "Stopping"
	case EventLossPending:
		return "LossPending"
	case EventExiting:
		return "Exiting"
	default:
		return fmt.Sprintf("SessionEvent(%d)", int(e))
	}
}

// SessionAction is the side effect the driver performs on a transition.
type SessionAction int

const (
	ActionNone SessionAction = iota
	ActionBegin
	ActionEnd
	ActionExit
)

func (a SessionAction) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionBegin:
		return "Begin"
	case ActionEnd:
		return "End"
	case ActionExit:
		return "Exit"
	default:
		return fmt.Sprintf("SessionAction(%d)", int(a))
	}
}

type transitionKey struct {
	state SessionState
	event SessionEvent
}

type transition struct {
	next   SessionState
	action SessionAction
}

var transitions = map[transitionKey]transition{
	{SessionIdle, EventIdle}:        {SessionIdle, ActionNone},
	{SessionIdle, EventReady}:       {SessionReady, ActionBegin},
	{SessionIdle, EventLossPending}: {SessionExiting, ActionExit},
	{SessionIdle, EventExiting}:     {SessionExiting, ActionExit},

	{SessionReady, EventSynchronized}: {SessionRunning, ActionNone},
	{SessionReady, EventVisible}:      {SessionRunning, ActionNone},
	{SessionReady, EventFocused}:      {SessionRunning, ActionNone},
	{SessionReady, EventStopping}:     {SessionStopping, ActionEnd},
	{SessionReady, EventLossPending}:  {SessionStopping, ActionEnd},
	{SessionReady, EventExiting}:      {SessionExiting, ActionExit},

	{SessionRunning, EventSynchronized}: {SessionRunning, ActionNone},
	{SessionRunning, EventVisible}:      {SessionRunning, ActionNone},
	{SessionRunning, EventFocused}:      {SessionRunning, ActionNone},
	{SessionRunning, EventStopping}:     {SessionStopping, ActionEnd},
	{SessionRunning, EventLossPending}:  {SessionStopping, ActionEnd},
	{SessionRunning, EventExiting}:      {SessionExiting, ActionExit},

	{SessionStopping, EventIdle}:        {SessionIdle, ActionNone},
	{SessionStopping, EventLossPending}: {SessionStopping, ActionNone},
	{SessionStopping, EventExiting}:     {SessionExiting, ActionExit},
}

// Transition computes the next state and the action to perform when the
// runtime reports event in the given state. The state is returned unchanged
// together with ErrIllegalTransition or ErrUnknownEvent if the event can
// not be applied.
func Transition(state SessionState, event SessionEvent) (SessionState, SessionAction, error) {
	if event < EventIdle || event > EventExiting {
		return state, ActionNone, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	t, ok := transitions[transitionKey{state, event}]
	if !ok {
		return state, ActionNone, fmt.Errorf("%w: %s in state %s", ErrIllegalTransition, event, state)
	}

	return t.next, t.action, nil
}
