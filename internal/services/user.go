package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/tokens"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Request describes a call to the user service made through [UserService.Do].
type Request struct {
	Method string
	Path   string
	Body   any // Encoded as JSON; []byte and [json.RawMessage] are sent verbatim
	Header http.Header
}

// UserServiceOpts configures a [UserService].
type UserServiceOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      tokens.Store
	Logger     *log.Logger
}

// UserService is the client for the user/auth service.
//
// Every bearer-authenticated call goes through [UserService.Do], which refreshes the token pair once on a 401.
type UserService struct {
	api    *APIService
	store  tokens.Store
	logger *log.Logger

	refreshGroup singleflight.Group

	mu    sync.Mutex
	hooks []func(error)
}

// NewUserService creates a user service client. A nil store falls back to a [tokens.MemoryStore].
func NewUserService(opts UserServiceOpts) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	store := opts.Store
	if store == nil {
		store = tokens.NewMemoryStore()
	}

	api := NewAPIService(opts.BaseURL, opts.HTTPClient)
	api.SetLogger(logger)

	return &UserService{api: api, store: store, logger: logger}
}

// Store returns the token store backing this client.
func (s *UserService) Store() tokens.Store {
	return s.store
}

// BaseURL returns the user service base URL.
func (s *UserService) BaseURL() string {
	return s.api.BaseURL()
}

// OnRefreshFailed registers fn to run after an unrecoverable refresh failure has cleared the token store.
func (s *UserService) OnRefreshFailed(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *UserService) notifyRefreshFailed(err error) {
	s.mu.Lock()
	hooks := make([]func(error), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(err)
	}
}

// Do dispatches req with the stored access token as a bearer credential.
//
// When the response is 401 and a token was sent, Do refreshes the pair once and re-dispatches req with the new
// access token, returning that second response whatever its status. If the refresh fails the store is cleared and
// the original 401 is returned. Other statuses are returned untouched.
func (s *UserService) Do(ctx context.Context, req Request) (*APIResponse, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	opts := []RequestOption{}
	if req.Header != nil {
		opts = append(opts, WithHeader(req.Header))
	}

	tok, _ := tokens.TokenSource(s.store).Token()

	resp, err := s.api.Do(ctx, req.Method, req.Path, body, append(opts, WithToken(tok))...)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || tok == nil {
		return resp, nil
	}

	next, err := s.refreshAfter(ctx, tok)
	if err != nil {
		s.logger.Warn("token refresh failed, clearing session", "path", req.Path, "error", err)
		s.store.ClearTokens()
		s.notifyRefreshFailed(err)
		return resp, nil
	}

	s.logger.Debug("retrying after token refresh", "method", req.Method, "path", req.Path)
	return s.api.Do(ctx, req.Method, req.Path, body, append(opts, WithToken(next))...)
}

// refreshAfter returns a fresh token to replace stale.
//
// Callers rejected with the same access token share one flight. A flight started after the pair has already
// been rotated reuses the stored token instead of calling /refresh again.
func (s *UserService) refreshAfter(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	v, err, _ := s.refreshGroup.Do(stale.AccessToken, func() (any, error) {
		if current, err := tokens.TokenSource(s.store).Token(); err == nil && current.AccessToken != stale.AccessToken {
			return current, nil
		}
		return s.Refresh(context.WithoutCancel(ctx), s.store.RefreshToken())
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// Refresh exchanges refreshToken for a new pair and writes it to the store.
//
// It is called by [UserService.Do] and does not go through the refresh cycle itself.
// The pair is not stored when the stored refresh token changed while the call was in flight,
// so a logout during the refresh stays a logout. The returned token is still usable by the caller.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	body, err := encodeBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Post(ctx, "/refresh", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var pair models.TokenPair
	if err := resp.Decode(&pair); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", shared.ErrRefreshFailed)
	}

	next := &oauth2.Token{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "Bearer"}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}

	if !s.store.RotateTokens(refreshToken, pair.AccessToken, pair.RefreshToken) {
		s.logger.Info("stored tokens changed during refresh, discarding the new pair")
		return next, nil
	}
	s.logger.Debug("token pair refreshed", "rotated_refresh", pair.RefreshToken != "")
	return next, nil
}

// call issues an unauthenticated JSON request.
func (s *UserService) call(ctx context.Context, method, path string, in any) (*APIResponse, error) {
	body, err := encodeBody(in)
	if err != nil {
		return nil, err
	}
	return s.api.Do(ctx, method, path, body)
}

// Register creates an account. The session is not touched.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.Message, error) {
	resp, err := s.call(ctx, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})

	var msg models.Message
	if err := expect("register", resp, err, "Registration failed", shared.ErrAuthFailed, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Login exchanges credentials for a token pair and persists it.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	resp, err := s.call(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})

	var pair models.TokenPair
	if err := expect("login", resp, err, "Login failed", shared.ErrAuthFailed, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, &Error{Op: "login", StatusCode: resp.StatusCode, Message: "Login failed", Err: shared.ErrAuthFailed}
	}

	s.store.SetTokens(pair.AccessToken, pair.RefreshToken)
	return &pair, nil
}

// Verify returns the user record for the stored access token.
func (s *UserService) Verify(ctx context.Context) (*models.User, error) {
	if !s.store.HasTokens() {
		return nil, &Error{Op: "verify", Message: "Not authenticated", Err: shared.ErrNotAuthenticated}
	}

	resp, err := s.Do(ctx, Request{Method: http.MethodGet, Path: "/verify"})

	var user models.User
	if err := expect("verify", resp, err, "Token verification failed", shared.ErrVerifyFailed, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile fetches the full profile of the authenticated user.
func (s *UserService) Profile(ctx context.Context) (*models.User, error) {
	resp, err := s.Do(ctx, Request{Method: http.MethodGet, Path: "/profile"})

	var user models.User
	if err := expect("profile", resp, err, "Failed to fetch profile", shared.ErrAPIRequest, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail confirms an email address with the token from a verification link.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.Message, error) {
	if token == "" {
		return nil, &Error{Op: "verify email", Message: "No verification token provided", Err: shared.ErrMissingArgument}
	}

	resp, err := s.call(ctx, http.MethodGet, "/verify-email?token="+url.QueryEscape(token), nil)

	var msg models.Message
	if err := expect("verify email", resp, err, "Email verification failed", shared.ErrAPIRequest, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResendVerification asks the service to send another verification email.
func (s *UserService) ResendVerification(ctx context.Context, email string) (*models.Message, error) {
	resp, err := s.call(ctx, http.MethodPost, "/resend-verification", map[string]string{"email": email})

	var msg models.Message
	if err := expect("resend verification", resp, err, "Failed to resend verification email", shared.ErrAPIRequest, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RequestPasswordReset starts the password reset flow for email.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*models.Message, error) {
	resp, err := s.call(ctx, http.MethodPost, "/request-password-reset", map[string]string{"email": email})

	var msg models.Message
	if err := expect("request password reset", resp, err, "Failed to request password reset", shared.ErrAPIRequest, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResetPassword sets a new password using the token from a reset link.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) (*models.Message, error) {
	resp, err := s.call(ctx, http.MethodPost, "/reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	})

	var msg models.Message
	if err := expect("reset password", resp, err, "Password reset failed", shared.ErrAuthFailed, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateUsername changes the username after re-checking the password.
func (s *UserService) UpdateUsername(ctx context.Context, newUsername, password string) (*models.User, error) {
	resp, err := s.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/profile/username",
		Body:   map[string]string{"new_username": newUsername, "password": password},
	})

	var user models.User
	if err := expect("update username", resp, err, "Failed to update username", shared.ErrAPIRequest, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateEmail changes the email address after re-checking the password.
func (s *UserService) UpdateEmail(ctx context.Context, newEmail, password string) (*models.User, error) {
	resp, err := s.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/profile/email",
		Body:   map[string]string{"new_email": newEmail, "password": password},
	})

	var user models.User
	if err := expect("update email", resp, err, "Failed to update email", shared.ErrAPIRequest, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the password.
func (s *UserService) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (*models.Message, error) {
	resp, err := s.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/profile/password",
		Body:   map[string]string{"current_password": currentPassword, "new_password": newPassword},
	})

	var msg models.Message
	if err := expect("update password", resp, err, "Failed to update password", shared.ErrAPIRequest, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteAccount deletes the account and clears the stored tokens on success.
func (s *UserService) DeleteAccount(ctx context.Context, password string) (*models.Message, error) {
	resp, err := s.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/delete-account",
		Body:   map[string]string{"password": password},
	})

	var msg models.Message
	if err := expect("delete account", resp, err, "Failed to delete account", shared.ErrAPIRequest, &msg); err != nil {
		return nil, err
	}

	s.store.ClearTokens()
	return &msg, nil
}

// Health reports the status of the user service.
func (s *UserService) Health(ctx context.Context) (*models.Health, error) {
	resp, err := s.call(ctx, http.MethodGet, "/health", nil)

	var health models.Health
	if err := expect("health", resp, err, "User service unavailable", shared.ErrServiceUnavailable, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// IsUnauthorized reports whether err is a 401 from the user service.
func IsUnauthorized(err error) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusUnauthorized
}
