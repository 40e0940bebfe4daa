package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		policy  StatePolicy
		from    State
		event   Event
		want    State
		wantErr error
	}{
		{"submit from idle", StatePolicy{}, StateIdle, EventSubmit, StateAwaitingReply, nil},
		{"submit from error", StatePolicy{}, StateError, EventSubmit, StateAwaitingReply, nil},
		{"submit while waiting", StatePolicy{}, StateAwaitingReply, EventSubmit, StateAwaitingReply, ErrBusy},
		{"submit after end open", StatePolicy{}, StateEnded, EventSubmit, StateAwaitingReply, nil},
		{"submit after end locked", StatePolicy{LockAfterEnd: true}, StateEnded, EventSubmit, StateEnded, ErrConversationEnded},
		{"reply", StatePolicy{}, StateAwaitingReply, EventReplied, StateIdle, nil},
		{"reply ends", StatePolicy{}, StateAwaitingReply, EventRepliedEnd, StateEnded, nil},
		{"auth required", StatePolicy{}, StateAwaitingReply, EventAuthRequired, StateIdle, nil},
		{"failure", StatePolicy{}, StateAwaitingReply, EventFailed, StateError, nil},
		{"reset from ended", StatePolicy{LockAfterEnd: true}, StateEnded, EventReset, StateIdle, nil},
		{"reset while waiting", StatePolicy{}, StateAwaitingReply, EventReset, StateIdle, nil},
		{"reply when idle", StatePolicy{}, StateIdle, EventReplied, StateIdle, ErrInvalidTransition},
		{"failure when ended", StatePolicy{}, StateEnded, EventFailed, StateEnded, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Reduce(tt.from, tt.event)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStateText(t *testing.T) {
	b, err := StateAwaitingReply.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "awaiting_reply", string(b))
	assert.Equal(t, "state(42)", State(42).String())
	assert.Equal(t, "replied_end", EventRepliedEnd.String())
}

func TestStateUnmarshalText(t *testing.T) {
	var s State
	assert.NoError(t, s.UnmarshalText([]byte("ended")))
	assert.Equal(t, StateEnded, s)
	assert.Error(t, s.UnmarshalText([]byte("asleep")))
}
