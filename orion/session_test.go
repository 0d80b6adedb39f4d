package orion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	tests := []struct {
		state  SessionState
		event  SessionEvent
		next   SessionState
		action SessionAction
	}{
		{SessionIdle, EventIdle, SessionIdle, ActionNone},
		{SessionIdle, EventReady, SessionReady, ActionBegin},
		{SessionIdle, EventExiting, SessionExiting, ActionExit},
		{SessionIdle, EventLossPending, SessionExiting, ActionExit},
		{SessionReady, EventSynchronized, SessionRunning, ActionNone},
		{SessionReady, EventStopping, SessionStopping, ActionEnd},
		{SessionRunning, EventVisible, SessionRunning, ActionNone},
		{SessionRunning, EventFocused, SessionRunning, ActionNone},
		{SessionRunning, EventStopping, SessionStopping, ActionEnd},
		{SessionRunning, EventLossPending, SessionStopping, ActionEnd},
		{SessionRunning, EventExiting, SessionExiting, ActionExit},
		{SessionStopping, EventIdle, SessionIdle, ActionNone},
		{SessionStopping, EventExiting, SessionExiting, ActionExit},
	}

	for _, test := range tests {
		t.Run(test.state.String()+"/"+test.event.String(), func(t *testing.T) {
			next, action, err := Transition(test.state, test.event)
			require.NoError(t, err)
			assert.Equal(t, test.next, next)
			assert.Equal(t, test.action, action)
		})
	}
}

func TestIllegalSessionTransitions(t *testing.T) {
	tests := []struct {
		state SessionState
		event SessionEvent
	}{
		{SessionIdle, EventStopping},
		{SessionIdle, EventSynchronized},
		{SessionIdle, EventFocused},
		{SessionReady, EventReady},
		{SessionReady, EventIdle},
		{SessionRunning, EventReady},
		{SessionRunning, EventIdle},
		{SessionStopping, EventReady},
		{SessionStopping, EventFocused},
		{SessionExiting, EventIdle},
		{SessionExiting, EventReady},
		{SessionExiting, EventExiting},
	}

	for _, test := range tests {
		t.Run(test.state.String()+"/"+test.event.String(), func(t *testing.T) {
			next, action, err := Transition(test.state, test.event)
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, test.state, next)
			assert.Equal(t, ActionNone, action)
		})
	}
}

func TestUnknownSessionEvent(t *testing.T) {
	next, action, err := Transition(SessionRunning, SessionEvent(42))
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.Equal(t, SessionRunning, next)
	assert.Equal(t, ActionNone, action)
}

func TestRenderableStates(t *testing.T) {
	assert.False(t, SessionIdle.Renderable())
	assert.True(t, SessionReady.Renderable())
	assert.True(t, SessionRunning.Renderable())
	assert.False(t, SessionStopping.Renderable())
	assert.False(t, SessionExiting.Renderable())
}
