package tokens

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/desertthunder/tvbf/internal/repositories"
	"github.com/desertthunder/tvbf/internal/shared"
	tu "github.com/desertthunder/tvbf/internal/testing"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	return NewSQLStore(repositories.NewKVRepository(tu.NewMemoryDB(t)), nil)
}

// exerciseStore runs the storage contract against any implementation.
func exerciseStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Empty Store", func(t *testing.T) {
		s := newStore(t)
		if s.AccessToken() != "" || s.RefreshToken() != "" {
			t.Error("expected no tokens in a new store")
		}
		if s.HasTokens() {
			t.Error("HasTokens should be false for a new store")
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a", "r")

		if got := s.AccessToken(); got != "a" {
			t.Errorf("expected access token a, got %q", got)
		}
		if got := s.RefreshToken(); got != "r" {
			t.Errorf("expected refresh token r, got %q", got)
		}
		if !s.HasTokens() {
			t.Error("HasTokens should be true after SetTokens")
		}
	})

	t.Run("Partial Update Keeps Access Token", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a1", "r1")
		s.SetTokens("", "r2")

		if got := s.AccessToken(); got != "a1" {
			t.Errorf("expected access token a1, got %q", got)
		}
		if got := s.RefreshToken(); got != "r2" {
			t.Errorf("expected refresh token r2, got %q", got)
		}
	})

	t.Run("Partial Update Keeps Refresh Token", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a1", "r1")
		s.SetTokens("a2", "")

		if got := s.AccessToken(); got != "a2" {
			t.Errorf("expected access token a2, got %q", got)
		}
		if got := s.RefreshToken(); got != "r1" {
			t.Errorf("expected refresh token r1, got %q", got)
		}
	})

	t.Run("HasTokens Requires Access Token", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("", "r1")
		if s.HasTokens() {
			t.Error("HasTokens should be false with only a refresh token")
		}
	})

	t.Run("Clear Removes Both", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a", "r")
		s.ClearTokens()

		if s.AccessToken() != "" || s.RefreshToken() != "" || s.HasTokens() {
			t.Error("expected both tokens to be cleared")
		}

		s.ClearTokens()
		if s.HasTokens() {
			t.Error("clearing twice should leave the store empty")
		}
	})

	t.Run("Rotate Requires The Previous Refresh Token", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a1", "r1")

		if !s.RotateTokens("r1", "a2", "r2") {
			t.Fatal("expected rotation from the stored refresh token")
		}
		if s.AccessToken() != "a2" || s.RefreshToken() != "r2" {
			t.Errorf("got %q/%q, want a2/r2", s.AccessToken(), s.RefreshToken())
		}

		if s.RotateTokens("r1", "a3", "r3") {
			t.Error("expected rotation from a spent refresh token to be refused")
		}
		if s.AccessToken() != "a2" {
			t.Errorf("refused rotation wrote %q", s.AccessToken())
		}
	})

	t.Run("Rotate After Clear Is Refused", func(t *testing.T) {
		s := newStore(t)
		s.SetTokens("a1", "r1")
		s.ClearTokens()

		if s.RotateTokens("r1", "a2", "r2") {
			t.Error("expected rotation into a cleared store to be refused")
		}
		if s.HasTokens() || s.RefreshToken() != "" {
			t.Error("expected the store to stay empty")
		}
	})

	t.Run("Concurrent Writes Leave A Consistent Pair", func(t *testing.T) {
		s := newStore(t)
		pairs := [][2]string{{"a1", "r1"}, {"a2", "r2"}, {"a3", "r3"}, {"a4", "r4"}}

		var wg sync.WaitGroup
		for _, p := range pairs {
			wg.Add(1)
			go func(access, refresh string) {
				defer wg.Done()
				s.SetTokens(access, refresh)
			}(p[0], p[1])
		}
		wg.Wait()

		access, refresh := s.AccessToken(), s.RefreshToken()
		if access == "" || refresh == "" || access[1:] != refresh[1:] {
			t.Errorf("expected a matching pair, got %q/%q", access, refresh)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLStore(t *testing.T) {
	exerciseStore(t, func(t *testing.T) Store { return newSQLStore(t) })

	t.Run("Survives A New Store On The Same Database", func(t *testing.T) {
		db := tu.NewMemoryDB(t)

		NewSQLStore(repositories.NewKVRepository(db), nil).SetTokens("a", "r")

		reopened := NewSQLStore(repositories.NewKVRepository(db), nil)
		if reopened.AccessToken() != "a" || reopened.RefreshToken() != "r" {
			t.Error("expected tokens to persist across store instances")
		}
	})

	t.Run("Storage Failure Reads As Absent", func(t *testing.T) {
		db, err := shared.NewDatabase(shared.MemoryDatabase)
		if err != nil {
			t.Fatalf("failed to create test database: %v", err)
		}
		store := NewSQLStore(repositories.NewKVRepository(db), nil)
		db.Close()

		store.SetTokens("a", "r")
		store.ClearTokens()
		if store.HasTokens() || store.RefreshToken() != "" {
			t.Error("expected closed storage to read as no tokens")
		}
	})
}

func TestTokenSource(t *testing.T) {
	t.Run("No Access Token", func(t *testing.T) {
		_, err := TokenSource(NewMemoryStore()).Token()
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Sets Bearer Header", func(t *testing.T) {
		s := NewMemoryStore()
		s.SetTokens("abc", "def")

		tok, err := TokenSource(s).Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.RefreshToken != "def" {
			t.Errorf("expected refresh token def, got %q", tok.RefreshToken)
		}

		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		req.Header.Set("Authorization", "Basic xyz")
		tok.SetAuthHeader(req)

		if got := req.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected Bearer abc, got %q", got)
		}
	})
}
