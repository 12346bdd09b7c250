package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := [][2]CallState{
		{StateSent, StateUnauthorized},
		{StateSent, StateDone},
		{StateUnauthorized, StateRefreshing},
		{StateRefreshing, StateRetried},
		{StateRefreshing, StateExpired},
		{StateRetried, StateExpired},
		{StateRetried, StateDone},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	illegal := [][2]CallState{
		{StateRetried, StateUnauthorized},
		{StateRetried, StateRefreshing},
		{StateSent, StateRetried},
		{StateUnauthorized, StateDone},
		{StateExpired, StateSent},
		{StateDone, StateSent},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCallState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateExpired.Terminal())
	assert.False(t, StateSent.Terminal())
	assert.False(t, StateRetried.Terminal())
	assert.Equal(t, "state(42)", CallState(42).String())
}

func TestCallFlow_Advance(t *testing.T) {
	var seen []string
	f := newCallFlow("req-1", func(id string, from, to CallState) {
		assert.Equal(t, "req-1", id)
		seen = append(seen, from.String()+">"+to.String())
	})

	require.NoError(t, f.advance(StateUnauthorized))
	require.NoError(t, f.advance(StateRefreshing))
	require.NoError(t, f.advance(StateRetried))

	err := f.advance(StateUnauthorized)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateRetried, f.state)

	require.NoError(t, f.advance(StateDone))
	assert.Equal(t, []string{"sent>unauthorized", "unauthorized>refreshing", "refreshing>retried", "retried>done"}, seen)
}
