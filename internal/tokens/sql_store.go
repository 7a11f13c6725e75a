package tokens

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/repositories"
)

// SQLStore persists the token pair in the kv_store table so it survives restarts.
type SQLStore struct {
	mu     sync.Mutex
	repo   *repositories.KVRepository
	logger *log.Logger
}

// NewSQLStore creates a store backed by repo. A nil logger discards storage errors.
func NewSQLStore(repo *repositories.KVRepository, logger *log.Logger) *SQLStore {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &SQLStore{repo: repo, logger: logger}
}

func (s *SQLStore) get(key string) string {
	value, _, err := s.repo.Get(key)
	if err != nil {
		s.logger.Warn("token storage read failed, treating as absent", "key", key, "error", err)
		return ""
	}
	return value
}

func (s *SQLStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(AccessTokenKey)
}

func (s *SQLStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(RefreshTokenKey)
}

func pairEntries(access, refresh string) map[string]string {
	entries := make(map[string]string, 2)
	if access != "" {
		entries[AccessTokenKey] = access
	}
	if refresh != "" {
		entries[RefreshTokenKey] = refresh
	}
	return entries
}

// SetTokens writes the non-empty tokens in a single transaction.
func (s *SQLStore) SetTokens(access, refresh string) {
	entries := pairEntries(access, refresh)
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SetMany(entries); err != nil {
		s.logger.Error("token storage write failed", "error", err)
	}
}

func (s *SQLStore) RotateTokens(prev, access, refresh string) bool {
	entries := pairEntries(access, refresh)
	if prev == "" || len(entries) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.get(RefreshTokenKey) != prev {
		return false
	}
	if err := s.repo.SetMany(entries); err != nil {
		s.logger.Error("token storage write failed", "error", err)
		return false
	}
	return true
}

func (s *SQLStore) ClearTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(AccessTokenKey, RefreshTokenKey); err != nil {
		s.logger.Error("token storage clear failed", "error", err)
	}
}

func (s *SQLStore) HasTokens() bool {
	return s.AccessToken() != ""
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
