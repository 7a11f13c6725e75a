// package models defines the data model for the tv show browser client
package models

import (
	"encoding/json"
)

// User is the authenticated user's record as returned by the user service.
//
// CreatedAt is kept as the raw timestamp string; fields the client does not know about are preserved in Extra.
type User struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	CreatedAt     string         `json:"created_at"`
	Extra         map[string]any `json:"-"`
}

var knownUserFields = []string{"id", "username", "email", "email_verified", "created_at"}

// UnmarshalJSON decodes the known fields and keeps the remainder in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownUserFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*u = User(p)
	return nil
}

// MarshalJSON emits the known fields merged with Extra.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(knownUserFields))
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["username"] = u.Username
	out["email"] = u.Email
	out["email_verified"] = u.EmailVerified
	if u.CreatedAt != "" {
		out["created_at"] = u.CreatedAt
	}
	return json.Marshal(out)
}

// TokenPair is the body returned by /login and /refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Message is the generic confirmation object returned by account operations.
//
// The user service is free to add fields; they are kept in Data.
type Message struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"-"`
}

// UnmarshalJSON keeps the full body in Data alongside the message text.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if msg, ok := raw["message"].(string); ok {
		m.Message = msg
	}
	m.Data = raw
	return nil
}

// ErrorBody is the failure body used by the user service: {"error": "..."}.
type ErrorBody struct {
	Error string `json:"error"`
}

// Health is the body returned by the user service's /health endpoint.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}
