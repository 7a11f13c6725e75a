package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type account struct {
	id          int64
	username    string
	email       string
	password    string
	verified    bool
	verifyToken string
	resetToken  string
}

// UserServer is an in-process fake of the user/auth service.
//
// Tokens are issued as A1, A2, ... and R1, R2, ... so tests can assert exact values.
// Refresh tokens are single use; refreshing revokes the old pair.
type UserServer struct {
	*httptest.Server

	mu            sync.Mutex
	accounts      map[string]*account
	access        map[string]string
	refresh       map[string]string
	seq           int
	nextID        int64
	calls         map[string]int
	auth          map[string][]string
	bodies        map[string][]map[string]string
	refreshStatus int
	refreshHold   chan struct{}
	refreshHeld   chan struct{}
}

// NewUserServer starts a fake user service that is closed when t finishes.
func NewUserServer(t *testing.T) *UserServer {
	t.Helper()

	u := &UserServer{
		accounts: make(map[string]*account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		calls:    make(map[string]int),
		auth:     make(map[string][]string),
		bodies:   make(map[string][]map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", u.handleRegister)
	mux.HandleFunc("POST /login", u.handleLogin)
	mux.HandleFunc("POST /refresh", u.handleRefresh)
	mux.HandleFunc("GET /verify", u.authed(u.handleProfile))
	mux.HandleFunc("GET /profile", u.authed(u.handleProfile))
	mux.HandleFunc("GET /verify-email", u.handleVerifyEmail)
	mux.HandleFunc("POST /resend-verification", u.handleResend)
	mux.HandleFunc("POST /request-password-reset", u.handleRequestReset)
	mux.HandleFunc("POST /reset-password", u.handleResetPassword)
	mux.HandleFunc("PUT /profile/username", u.authed(u.handleUpdateUsername))
	mux.HandleFunc("PUT /profile/email", u.authed(u.handleUpdateEmail))
	mux.HandleFunc("PUT /profile/password", u.authed(u.handleUpdatePassword))
	mux.HandleFunc("DELETE /delete-account", u.authed(u.handleDeleteAccount))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		u.record(r, nil)
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "user-service"})
	})

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

// AddUser registers an account directly and returns its email verification token.
func (u *UserServer) AddUser(username, email, password string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.addUser(username, email, password).verifyToken
}

func (u *UserServer) addUser(username, email, password string) *account {
	u.nextID++
	a := &account{
		id:          u.nextID,
		username:    username,
		email:       email,
		password:    password,
		verifyToken: fmt.Sprintf("verify-%s", username),
	}
	u.accounts[username] = a
	return a
}

// Issue mints a token pair for username without going through /login.
func (u *UserServer) Issue(username string) (access, refresh string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.issue(username)
}

func (u *UserServer) issue(username string) (string, string) {
	u.seq++
	access := fmt.Sprintf("A%d", u.seq)
	refresh := fmt.Sprintf("R%d", u.seq)
	u.access[access] = username
	u.refresh[refresh] = username
	return access, refresh
}

// ExpireAccess revokes every access token so the next authenticated call gets a 401.
func (u *UserServer) ExpireAccess() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.access = make(map[string]string)
}

// FailRefresh makes /refresh reply with status; zero restores normal behavior.
func (u *UserServer) FailRefresh(status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.refreshStatus = status
}

// HoldRefresh parks the next /refresh until release is called. held is closed once the request arrives.
func (u *UserServer) HoldRefresh() (held <-chan struct{}, release func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.refreshHold = make(chan struct{})
	u.refreshHeld = make(chan struct{})
	gate := u.refreshHold
	var once sync.Once
	return u.refreshHeld, func() { once.Do(func() { close(gate) }) }
}

// ResetToken returns the pending password reset token for username.
func (u *UserServer) ResetToken(username string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if a, ok := u.accounts[username]; ok {
		return a.resetToken
	}
	return ""
}

// Calls returns how many requests hit path.
func (u *UserServer) Calls(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

// TotalCalls returns the number of requests received on any path.
func (u *UserServer) TotalCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.calls {
		total += n
	}
	return total
}

// Authorizations returns the Authorization headers sent to path, in order.
func (u *UserServer) Authorizations(path string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.auth[path]...)
}

// Bodies returns the decoded JSON bodies sent to path, in order.
func (u *UserServer) Bodies(path string) []map[string]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]string(nil), u.bodies[path]...)
}

// Account reports the stored email and verification state for username.
func (u *UserServer) Account(username string) (email string, verified, ok bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	a, ok := u.accounts[username]
	if !ok {
		return "", false, false
	}
	return a.email, a.verified, true
}

func (u *UserServer) record(r *http.Request, body map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[r.URL.Path]++
	u.auth[r.URL.Path] = append(u.auth[r.URL.Path], r.Header.Get("Authorization"))
	if body != nil {
		u.bodies[r.URL.Path] = append(u.bodies[r.URL.Path], body)
	}
}

func readBody(r *http.Request) map[string]string {
	body := map[string]string{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *account) profile() map[string]any {
	return map[string]any{
		"id":             a.id,
		"username":       a.username,
		"email":          a.email,
		"email_verified": a.verified,
		"created_at":     "2024-01-15T10:30:00",
	}
}

type authedHandler func(w http.ResponseWriter, r *http.Request, a *account, body map[string]string)

// authed resolves the bearer token to an account or replies 401.
func (u *UserServer) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := readBody(r)
		u.record(r, body)

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		u.mu.Lock()
		username, ok := u.access[token]
		var a *account
		if ok {
			a = u.accounts[username]
		}
		u.mu.Unlock()

		if a == nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r, a, body)
	}
}

func (u *UserServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	u.record(r, body)

	u.mu.Lock()
	defer u.mu.Unlock()

	if body["username"] == "" || body["password"] == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if _, exists := u.accounts[body["username"]]; exists {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}

	a := u.addUser(body["username"], body["email"], body["password"])
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully. Please check your email to verify your account.",
		"user":    a.profile(),
	})
}

func (u *UserServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	u.record(r, body)

	u.mu.Lock()
	defer u.mu.Unlock()

	a, ok := u.accounts[body["username"]]
	if !ok || a.password != body["password"] {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	access, refresh := u.issue(a.username)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
	})
}

func (u *UserServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	u.record(r, body)

	u.mu.Lock()
	hold, held := u.refreshHold, u.refreshHeld
	u.refreshHold, u.refreshHeld = nil, nil
	u.mu.Unlock()
	if hold != nil {
		close(held)
		<-hold
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.refreshStatus != 0 {
		writeError(w, u.refreshStatus, "Refresh rejected")
		return
	}

	username, ok := u.refresh[body["refresh_token"]]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(u.refresh, body["refresh_token"])

	access, refresh := u.issue(username)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
	})
}

func (u *UserServer) handleProfile(w http.ResponseWriter, r *http.Request, a *account, _ map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	writeJSON(w, http.StatusOK, a.profile())
}

func (u *UserServer) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	u.record(r, nil)

	u.mu.Lock()
	defer u.mu.Unlock()

	token := r.URL.Query().Get("token")
	for _, a := range u.accounts {
		if token != "" && a.verifyToken == token {
			a.verified = true
			writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
			return
		}
	}
	writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
}

func (u *UserServer) handleResend(w http.ResponseWriter, r *http.Request) {
	u.record(r, readBody(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the email exists, a verification link has been sent"})
}

func (u *UserServer) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	u.record(r, body)

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, a := range u.accounts {
		if a.email == body["email"] {
			a.resetToken = fmt.Sprintf("reset-%s", a.username)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the email exists, a password reset link has been sent"})
}

func (u *UserServer) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	u.record(r, body)

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, a := range u.accounts {
		if body["token"] != "" && a.resetToken == body["token"] {
			a.password = body["new_password"]
			a.resetToken = ""
			writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
			return
		}
	}
	writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
}

func (u *UserServer) handleUpdateUsername(w http.ResponseWriter, r *http.Request, a *account, body map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if a.password != body["password"] {
		writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}
	if _, exists := u.accounts[body["new_username"]]; exists {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	delete(u.accounts, a.username)
	for tok, name := range u.access {
		if name == a.username {
			u.access[tok] = body["new_username"]
		}
	}
	for tok, name := range u.refresh {
		if name == a.username {
			u.refresh[tok] = body["new_username"]
		}
	}
	a.username = body["new_username"]
	u.accounts[a.username] = a
	writeJSON(w, http.StatusOK, a.profile())
}

func (u *UserServer) handleUpdateEmail(w http.ResponseWriter, r *http.Request, a *account, body map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if a.password != body["password"] {
		writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}
	a.email = body["new_email"]
	a.verified = false
	writeJSON(w, http.StatusOK, a.profile())
}

func (u *UserServer) handleUpdatePassword(w http.ResponseWriter, r *http.Request, a *account, body map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if a.password != body["current_password"] {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	a.password = body["new_password"]
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (u *UserServer) handleDeleteAccount(w http.ResponseWriter, r *http.Request, a *account, body map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if a.password != body["password"] {
		writeError(w, http.StatusBadRequest, "Incorrect password")
		return
	}
	delete(u.accounts, a.username)
	for tok, name := range u.access {
		if name == a.username {
			delete(u.access, tok)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
