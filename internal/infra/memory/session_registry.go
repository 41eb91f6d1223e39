package memory

import (
	"sync"

	"quizify-engine/internal/engine"
)

// SessionRegistry tracks live sessions by quiz ID. One active session per
// client; entries are dropped once submitted or replaced.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*engine.Session),
	}
}

func (r *SessionRegistry) Add(session *engine.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

func (r *SessionRegistry) Get(quizID string) (*engine.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[quizID]
	return session, ok
}

func (r *SessionRegistry) Delete(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, quizID)
}
