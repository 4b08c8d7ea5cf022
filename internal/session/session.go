// Package session holds per-chat conversation state in memory.
package session

import "sync"

// State is the position of a chat in the conversation state machine.
// StateIdle and StateConfigured are the only resting states; the rest are
// transient steps of the setup or issue-creation flows.
type State string

const (
	StateIdle                     State = "idle"
	StateAwaitingURL              State = "awaiting_url"
	StateAwaitingToken            State = "awaiting_token"
	StateConfigured               State = "configured"
	StateAwaitingProjectSelection State = "awaiting_project_selection"
	StateAwaitingTitle            State = "awaiting_title"
	StateAwaitingDesc             State = "awaiting_desc"
)

// InCreationFlow reports whether the state is one of the issue-creation
// steps. The session Draft may only exist in these states.
func (s State) InCreationFlow() bool {
	switch s {
	case StateAwaitingProjectSelection, StateAwaitingTitle, StateAwaitingDesc:
		return true
	}
	return false
}

// Credentials is a validated YouTrack linkage.
type Credentials struct {
	URL   string
	Token string
}

// Draft is the issue under construction during the creation flow. Fields
// fill in step by step; Description may stay empty.
type Draft struct {
	ProjectID   string
	Summary     string
	Description string
}

// Session is the complete per-chat state. It is mutated only through
// Registry.With, which serializes access per chat.
type Session struct {
	State       State
	Credentials *Credentials
	PendingURL  string
	Draft       *Draft
}

// Configured reports whether the chat has a validated linkage.
func (s *Session) Configured() bool {
	return s.State == StateConfigured && s.Credentials != nil
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Registry is the in-memory session store. The outer lock only guards the
// chat map; each chat has its own lock so one chat's dialog transition
// never blocks another chat's poller tick.
type Registry struct {
	mu    sync.Mutex
	chats map[int64]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]*entry)}
}

func (r *Registry) entryFor(chatID int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chats[chatID]
	if !ok {
		e = &entry{session: Session{State: StateIdle}}
		r.chats[chatID] = e
	}
	return e
}

// With runs fn with exclusive access to the chat's session. All reads and
// writes of a session go through here, including the configured check at
// the top of each poller tick.
func (r *Registry) With(chatID int64, fn func(s *Session)) {
	e := r.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
}

// State returns the chat's current state.
func (r *Registry) State(chatID int64) State {
	var state State
	r.With(chatID, func(s *Session) { state = s.State })
	return state
}

// Snapshot returns a copy of the chat's session. The Credentials and Draft
// pointers are shallow-copied; both types are treated as immutable values
// and replaced wholesale on mutation.
func (r *Registry) Snapshot(chatID int64) Session {
	var snap Session
	r.With(chatID, func(s *Session) { snap = *s })
	return snap
}
