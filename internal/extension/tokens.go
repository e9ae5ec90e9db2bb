package extension

import "sync"

// TokenStore holds the bearer token the background presents to the
// archive server.
type TokenStore interface {
	Get() string
	Set(token string)
}

// MemoryTokenStore keeps the token in process memory. It survives popup
// closes but not a restart, matching extension session storage.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}
