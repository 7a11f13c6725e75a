package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/services"
	tu "github.com/desertthunder/tvbf/internal/testing"
)

type fakeActions struct {
	calls       int
	token       string
	newPassword string
	err         error
}

func (f *fakeActions) VerifyEmail(_ context.Context, token string) (*models.Message, error) {
	f.calls++
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{Message: "Email verified successfully"}, nil
}

func (f *fakeActions) ResetPassword(_ context.Context, token, newPassword string) (*models.Message, error) {
	f.calls++
	f.token = token
	f.newPassword = newPassword
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{Message: "Password reset successfully"}, nil
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle Filters Method", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("GET /ping = %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST /ping status = %d, want 405", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		got := strings.Join(order, ",")
		if got != "first,second,handler" {
			t.Errorf("order = %s, want first,second,handler", got)
		}
	})

	t.Run("Handler Registers Routes", func(t *testing.T) {
		r := NewBasicRouter()
		h := NewVerifyEmailHandler(&fakeActions{})
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reset-password?token=x", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("unregistered route status = %d, want 404", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-email?token=x", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("registered route status = %d, want 200", rec.Code)
		}
	})

	t.Run("Patterns", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("get", "/ping", http.NotFoundHandler())
		r.Handler(NewResetPasswordHandler(&fakeActions{}, "pw"))

		got := strings.Join(r.Patterns(), ",")
		if got != "GET /ping,/reset-password" {
			t.Errorf("Patterns() = %s", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging Omits Query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/verify-email?token=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/verify-email") {
			t.Errorf("log missing path: %s", out)
		}
		if !strings.Contains(out, "418") {
			t.Errorf("log missing status: %s", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("log leaked token: %s", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		logger := log.NewWithOptions(io.Discard, log.Options{})
		h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestLinkHandler(t *testing.T) {
	t.Run("Verify Email", func(t *testing.T) {
		actions := &fakeActions{}
		h := NewVerifyEmailHandler(actions)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-email?token=abc", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if actions.token != "abc" {
			t.Errorf("token = %q, want abc", actions.token)
		}
		if !strings.Contains(rec.Body.String(), "Email verified successfully") {
			t.Errorf("page missing message: %s", rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Kind != VerifyEmailLink || result.Message != "Email verified successfully" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("Reset Password Passes New Password", func(t *testing.T) {
		actions := &fakeActions{}
		h := NewResetPasswordHandler(actions, "n3w-pass")

		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/reset-password" {
			t.Errorf("routes = %v", routes)
		}

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reset-password?token=r1", nil))

		if actions.newPassword != "n3w-pass" || actions.token != "r1" {
			t.Errorf("actions = %+v", actions)
		}
		if result := <-h.Result(); result.Kind != ResetPasswordLink {
			t.Errorf("kind = %s, want reset-password", result.Kind)
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		actions := &fakeActions{}
		h := NewVerifyEmailHandler(actions)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-email", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if actions.calls != 0 {
			t.Errorf("actions called %d times, want 0", actions.calls)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("Action Error Is Escaped", func(t *testing.T) {
		actions := &fakeActions{err: &services.Error{Message: "<b>bad</b> token"}}
		h := NewVerifyEmailHandler(actions)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-email?token=x", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "<b>bad</b>") || !strings.Contains(body, "&lt;b&gt;bad&lt;/b&gt; token") {
			t.Errorf("message not escaped: %s", body)
		}

		result := <-h.Result()
		var apiErr *services.Error
		if !errors.As(result.Error(), &apiErr) {
			t.Errorf("error = %v, want *services.Error", result.Error())
		}
	})

	t.Run("Second Request Rejected", func(t *testing.T) {
		actions := &fakeActions{}
		h := NewVerifyEmailHandler(actions)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/verify-email?token=a", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify-email?token=b", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("second status = %d, want 400", rec.Code)
		}
		if actions.calls != 1 {
			t.Errorf("calls = %d, want 1", actions.calls)
		}

		<-h.Result()
		if _, ok := <-h.Result(); ok {
			t.Error("result channel should be closed after one result")
		}
	})

	t.Run("Against User Service", func(t *testing.T) {
		srv := tu.NewUserServer(t)
		verify := srv.AddUser("alice", "alice@example.com", "password123")
		users := services.NewUserService(services.UserServiceOpts{BaseURL: srv.URL})

		r := NewBasicRouter()
		h := NewVerifyEmailHandler(users)
		r.Handler(h)
		listener := httptest.NewServer(r)
		defer listener.Close()

		resp, err := http.Get(listener.URL + "/verify-email?token=" + verify)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if _, verified, _ := srv.Account("alice"); !verified {
			t.Error("account should be verified")
		}
		if result := <-h.Result(); result.Error() != nil {
			t.Errorf("unexpected error: %v", result.Error())
		}
	})
}
