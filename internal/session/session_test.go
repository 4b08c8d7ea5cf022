package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultsToIdle(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, StateIdle, r.State(42))

	s := r.Snapshot(42)
	require.Nil(t, s.Credentials)
	require.Nil(t, s.Draft)
	require.Empty(t, s.PendingURL)
}

func TestRegistry_WithMutatesSession(t *testing.T) {
	r := NewRegistry()

	r.With(1, func(s *Session) {
		s.State = StateConfigured
		s.Credentials = &Credentials{URL: "https://x/api", Token: "t"}
	})

	require.Equal(t, StateConfigured, r.State(1))
	snap := r.Snapshot(1)
	require.True(t, snap.Configured())

	// Other chats are untouched.
	require.Equal(t, StateIdle, r.State(2))
}

func TestRegistry_ConcurrentChatsDoNotInterfere(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for chat := int64(0); chat < 16; chat++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.With(chatID, func(s *Session) {
					if s.Draft == nil {
						s.Draft = &Draft{}
					}
					s.Draft.Summary = "title"
				})
			}
		}(chat)
	}
	wg.Wait()

	for chat := int64(0); chat < 16; chat++ {
		require.Equal(t, "title", r.Snapshot(chat).Draft.Summary)
	}
}

func TestState_InCreationFlow(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateAwaitingURL, false},
		{StateAwaitingToken, false},
		{StateConfigured, false},
		{StateAwaitingProjectSelection, true},
		{StateAwaitingTitle, true},
		{StateAwaitingDesc, true},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.state.InCreationFlow(), "state %s", tt.state)
	}
}

func TestSession_Configured(t *testing.T) {
	s := Session{State: StateConfigured}
	require.False(t, s.Configured(), "configured state without credentials is not a valid linkage")

	s.Credentials = &Credentials{URL: "https://x/api", Token: "t"}
	require.True(t, s.Configured())

	s.State = StateIdle
	require.False(t, s.Configured())
}
