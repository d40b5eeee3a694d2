package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CanTransition(t *testing.T) {
	allowed := map[State][]State{
		StatePending:   {StateSent, StateFailed, StateExpired},
		StateSent:      {StateDelivered},
		StateDelivered: {},
		StateFailed:    {},
		StateExpired:   {},
	}
	all := []State{StatePending, StateSent, StateDelivered, StateFailed, StateExpired}

	for from, nexts := range allowed {
		ok := make(map[State]bool, len(nexts))
		for _, n := range nexts {
			ok[n] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionSources(t *testing.T) {
	assert.ElementsMatch(t, []State{StatePending}, TransitionSources(StateSent))
	assert.ElementsMatch(t, []State{StateSent}, TransitionSources(StateDelivered))
	assert.ElementsMatch(t, []State{StatePending}, TransitionSources(StateFailed))
	assert.ElementsMatch(t, []State{StatePending}, TransitionSources(StateExpired))
	assert.Empty(t, TransitionSources(StatePending))
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateSent.Terminal())
	assert.True(t, StateDelivered.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateExpired.Terminal())
}

func TestNewStatus(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	req := testRequest(ChannelSMS)
	req.ExpiresAt = &expires

	st := NewStatus(req, ChannelSMS)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, req.ID, st.RequestID)
	assert.Equal(t, ChannelSMS, st.Channel)
	assert.Equal(t, StatePending, st.State)
	require.NotNil(t, st.ExpiresAt)
	assert.Equal(t, expires, *st.ExpiresAt)
}

func TestStatus_MarkSentAndFailed(t *testing.T) {
	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.MarkSent("prov-1")
	assert.Equal(t, StateSent, st.State)
	assert.Equal(t, "prov-1", st.ProviderMessageID)
	require.NotNil(t, st.SentAt)

	st = NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.MarkFailed(errors.New("no credit"))
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "no credit", st.Error)
	assert.Nil(t, st.SentAt)
}
