package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the display subset of an access token's claims.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim lies before now. A token without exp never expires.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type accessClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of a JWT access token without verifying its signature.
//
// Opaque (non-JWT) tokens return an error; callers should treat that as "no details available".
func Inspect(access string) (*Claims, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	out := &Claims{Subject: claims.Subject, Username: claims.Username}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
