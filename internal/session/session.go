package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/services"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/tokens"
)

// State is the position of a [Manager] in its lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a copy of the current authentication state.
//
// User is non-nil iff State is [Authenticated]. Loading is true only until [Manager.Init] returns.
// Error holds the message of the last failed operation and is cleared when the next one starts.
type Session struct {
	User    *models.User
	Loading bool
	Error   string
	State   State
}

// Result reports the outcome of an operation that never returns an error to its caller.
type Result struct {
	Success bool
	Error   string
}

func failed(err error) Result {
	return Result{Success: false, Error: services.Message(err)}
}

// UserClient is the subset of the user service the session depends on.
type UserClient interface {
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	Register(ctx context.Context, username, email, password string) (*models.Message, error)
	Verify(ctx context.Context) (*models.User, error)
	DeleteAccount(ctx context.Context, password string) (*models.Message, error)
	OnRefreshFailed(fn func(error))
}

// Manager orchestrates login, logout, registration and verification, and owns the [Session].
type Manager struct {
	users  UserClient
	store  tokens.Store
	logger *log.Logger

	mu      sync.RWMutex
	session Session
	// gen is bumped by Logout; results of operations started under an older value are dropped.
	gen uint64
}

// NewManager creates a Manager in the loading state and subscribes it to refresh failures.
func NewManager(users UserClient, store tokens.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}

	m := &Manager{
		users:   users,
		store:   store,
		logger:  logger,
		session: Session{Loading: true, State: Unauthenticated},
	}
	users.OnRefreshFailed(m.expire)
	return m
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User {
	return m.Snapshot().User
}

func (m *Manager) update(fn func(s *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.session)
}

// begin clears the last error and returns the generation the operation runs under.
func (m *Manager) begin(fn func(s *Session)) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Error = ""
	if fn != nil {
		fn(&m.session)
	}
	return m.gen
}

// signIn publishes user unless a logout happened since gen was taken.
func (m *Manager) signIn(gen uint64, user *models.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.session.User = user
	m.session.State = Authenticated
	return true
}

func (m *Manager) signOut() {
	m.update(func(s *Session) {
		s.User = nil
		s.State = Unauthenticated
	})
}

// Init restores the session from stored tokens.
//
// Without a stored access token it settles in [Unauthenticated] without a network call.
// A stored token that fails verification is cleared.
func (m *Manager) Init(ctx context.Context) {
	defer m.update(func(s *Session) { s.Loading = false })

	if !m.store.HasTokens() {
		m.signOut()
		return
	}

	gen := m.begin(func(s *Session) {
		s.User = nil
		s.State = Authenticating
	})

	user, err := m.users.Verify(ctx)
	if err != nil {
		m.logger.Info("stored session is no longer valid", "error", err)
		m.store.ClearTokens()
		m.signOut()
		return
	}

	if !m.signIn(gen, user) {
		m.logger.Debug("logged out while restoring the session", "user", user.Username)
		return
	}
	m.logger.Debug("session restored", "user", user.Username)
}

// Login exchanges credentials for tokens and loads the user.
//
// On failure the session is [Unauthenticated] with the message retained in Error and the stored tokens
// are left as they are, including a pair issued before verification failed. A [Manager.Logout] during
// the login wins: the issued pair is discarded.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	gen := m.begin(func(s *Session) {
		s.User = nil
		s.State = Authenticating
	})

	pair, err := m.users.Login(ctx, username, password)
	if err != nil {
		return m.loginFailed(username, err)
	}

	user, err := m.users.Verify(ctx)
	if err != nil {
		return m.loginFailed(username, err)
	}

	if !m.signIn(gen, user) {
		m.logger.Info("logged out during login, discarding tokens", "user", username)
		if pair != nil && m.store.AccessToken() == pair.AccessToken {
			m.store.ClearTokens()
		}
		return failed(&services.Error{Op: "login", Message: "Logged out during login", Err: shared.ErrNotAuthenticated})
	}
	m.logger.Info("login succeeded", "user", user.Username)
	return Result{Success: true}
}

func (m *Manager) loginFailed(username string, err error) Result {
	res := failed(err)
	m.logger.Warn("login failed", "user", username, "error", res.Error)
	m.update(func(s *Session) {
		s.User = nil
		s.State = Unauthenticated
		s.Error = res.Error
	})
	return res
}

// Register creates an account without signing in. The user and state are not changed.
func (m *Manager) Register(ctx context.Context, username, email, password string) Result {
	m.begin(nil)

	if _, err := m.users.Register(ctx, username, email, password); err != nil {
		res := failed(err)
		m.update(func(s *Session) { s.Error = res.Error })
		return res
	}

	m.logger.Info("registered account", "user", username)
	return Result{Success: true}
}

// RefreshUser reloads the user record. A failure is logged and leaves the session as it was,
// except when the token refresh itself failed, which signs the user out through the refresh hook.
//
// A logout while the request is in flight is not undone.
func (m *Manager) RefreshUser(ctx context.Context) {
	gen := m.begin(nil)

	user, err := m.users.Verify(ctx)
	if err != nil {
		m.logger.Error("failed to refresh user data", "error", err)
		return
	}
	if !m.signIn(gen, user) {
		m.logger.Debug("logged out while refreshing user data")
	}
}

// Logout clears the tokens and signs out. It never fails and makes no network call.
//
// Requests already in flight may complete, but none of them can sign the user back in.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.gen++
	m.session.User = nil
	m.session.State = Unauthenticated
	m.session.Error = ""
	m.mu.Unlock()

	m.store.ClearTokens()
}

// DeleteAccount deletes the signed-in account and signs out on success.
func (m *Manager) DeleteAccount(ctx context.Context, password string) Result {
	if !m.IsAuthenticated() {
		return failed(&services.Error{Op: "delete account", Message: "Not authenticated", Err: shared.ErrNotAuthenticated})
	}

	if _, err := m.users.DeleteAccount(ctx, password); err != nil {
		return failed(err)
	}

	m.logger.Info("account deleted")
	m.Logout()
	return Result{Success: true}
}

// expire handles an unrecoverable token refresh by forcing a clean sign-out.
func (m *Manager) expire(err error) {
	m.logger.Warn("session expired", "error", err)
	m.signOut()
}
