package tokens

import "sync"

// MemoryStore keeps the token pair in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

func (m *MemoryStore) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *MemoryStore) SetTokens(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if access != "" {
		m.access = access
	}
	if refresh != "" {
		m.refresh = refresh
	}
}

func (m *MemoryStore) RotateTokens(prev, access, refresh string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev == "" || m.refresh != prev {
		return false
	}
	if access != "" {
		m.access = access
	}
	if refresh != "" {
		m.refresh = refresh
	}
	return true
}

func (m *MemoryStore) ClearTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
}

func (m *MemoryStore) HasTokens() bool {
	return m.AccessToken() != ""
}
