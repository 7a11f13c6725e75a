package tokens

import (
	"fmt"

	"github.com/desertthunder/tvbf/internal/shared"
	"golang.org/x/oauth2"
)

// Storage keys for the token pair.
const (
	AccessTokenKey  = "tvbf_access_token"
	RefreshTokenKey = "tvbf_refresh_token"
)

// Store holds the access and refresh tokens. An empty string means the token is absent.
type Store interface {
	// AccessToken returns the stored access token.
	AccessToken() string
	// RefreshToken returns the stored refresh token.
	RefreshToken() string
	// SetTokens writes each non-empty argument, leaving the other untouched.
	SetTokens(access, refresh string)
	// RotateTokens writes a refreshed pair only while the stored refresh token is still prev.
	// It reports whether the write happened.
	RotateTokens(prev, access, refresh string) bool
	// ClearTokens removes both tokens.
	ClearTokens()
	// HasTokens reports whether an access token is stored.
	HasTokens() bool
}

// source adapts a [Store] to [oauth2.TokenSource].
type source struct {
	store Store
}

// TokenSource exposes the current pair of s as an [oauth2.TokenSource].
//
// The returned token has no expiry; the user service decides validity and signals expiry with a 401.
func TokenSource(s Store) oauth2.TokenSource {
	return source{store: s}
}

// Token returns the stored pair or [shared.ErrNotAuthenticated] when no access token is stored.
func (s source) Token() (*oauth2.Token, error) {
	access := s.store.AccessToken()
	if access == "" {
		return nil, fmt.Errorf("%w: no access token stored", shared.ErrNotAuthenticated)
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: s.store.RefreshToken(),
		TokenType:    "Bearer",
	}, nil
}
