package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestInspect(t *testing.T) {
	t.Run("Decodes Registered And Custom Claims", func(t *testing.T) {
		exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
		token := signed(t, accessClaims{
			Username: "ada",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "42",
				ExpiresAt: jwt.NewNumericDate(exp),
				IssuedAt:  jwt.NewNumericDate(exp.Add(-15 * time.Minute)),
			},
		})

		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("Inspect() error = %v", err)
		}
		if claims.Subject != "42" || claims.Username != "ada" {
			t.Errorf("unexpected claims %+v", claims)
		}
		if !claims.ExpiresAt.Equal(exp) {
			t.Errorf("expected expiry %v, got %v", exp, claims.ExpiresAt)
		}
		if claims.Expired(time.Now()) {
			t.Error("token should not be expired yet")
		}
	})

	t.Run("Expired Token Still Decodes", func(t *testing.T) {
		token := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})

		claims, err := Inspect(token)
		if err != nil {
			t.Fatalf("Inspect() error = %v", err)
		}
		if !claims.Expired(time.Now()) {
			t.Error("expected token to be reported expired")
		}
	})

	t.Run("No Expiry Never Expires", func(t *testing.T) {
		claims, err := Inspect(signed(t, jwt.RegisteredClaims{Subject: "1"}))
		if err != nil {
			t.Fatalf("Inspect() error = %v", err)
		}
		if claims.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
			t.Error("token without exp should never expire")
		}
	})

	t.Run("Opaque Token", func(t *testing.T) {
		if _, err := Inspect("not-a-jwt"); err == nil {
			t.Error("expected error for opaque token")
		}
	})
}
