package http

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// oauthStateStore binds OAuth state parameters to the user who started the
// consent flow. The provider redirect carries no bearer token, so the state
// is the only link between the callback and the account the credential
// belongs to. States are single-use and expire.
type oauthStateStore struct {
	mu     sync.Mutex
	states map[string]oauthState
	ttl    time.Duration
}

type oauthState struct {
	userID string
	expiry time.Time
}

func newOAuthStateStore(ttl time.Duration) *oauthStateStore {
	return &oauthStateStore{states: map[string]oauthState{}, ttl: ttl}
}

// Issue creates a fresh state bound to the user.
func (s *oauthStateStore) Issue(userID string) string {
	state := randomState()
	s.mu.Lock()
	s.states[state] = oauthState{userID: userID, expiry: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return state
}

// Consume resolves the state to its user and invalidates it. Unknown and
// expired states both report not-ok.
func (s *oauthStateStore) Consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[state]
	if !ok {
		return "", false
	}
	delete(s.states, state)
	if time.Now().After(entry.expiry) {
		return "", false
	}
	return entry.userID, true
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
