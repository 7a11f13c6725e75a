package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/services"
)

// LinkKind names the emailed link a [LinkHandler] is waiting for.
type LinkKind string

const (
	VerifyEmailLink   LinkKind = "verify-email"
	ResetPasswordLink LinkKind = "reset-password"
)

// LinkResult contains the outcome of following an emailed link.
type LinkResult struct {
	Kind    LinkKind
	Message string
	err     error
}

func (l *LinkResult) Error() error {
	return l.err
}

// LinkActions are the user service calls a followed link triggers.
type LinkActions interface {
	VerifyEmail(ctx context.Context, token string) (*models.Message, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*models.Message, error)
}

// LinkHandler catches email verification and password reset links pointed at the local listener.
//
// It processes a single link and reports it on [LinkHandler.Result].
type LinkHandler struct {
	actions     LinkActions
	kind        LinkKind
	newPassword string
	resultChan  chan LinkResult
	once        sync.Once
	hit         bool
	mu          sync.Mutex
}

// NewVerifyEmailHandler waits for a /verify-email?token= link.
func NewVerifyEmailHandler(actions LinkActions) *LinkHandler {
	return &LinkHandler{actions: actions, kind: VerifyEmailLink, resultChan: make(chan LinkResult, 1)}
}

// NewResetPasswordHandler waits for a /reset-password?token= link and sets newPassword.
func NewResetPasswordHandler(actions LinkActions, newPassword string) *LinkHandler {
	return &LinkHandler{
		actions:     actions,
		kind:        ResetPasswordLink,
		newPassword: newPassword,
		resultChan:  make(chan LinkResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LinkHandler) Routes() []string {
	return []string{"/" + string(h.kind)}
}

// ServeHTTP reads the token query parameter and performs the link's action once.
func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Link already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	token := r.URL.Query().Get("token")
	if token == "" {
		err := fmt.Errorf("no token in link")
		h.Send(LinkResult{Kind: h.kind, err: err})
		writePage(w, http.StatusBadRequest, "Invalid Link", "The link did not include a token.")
		return
	}

	var (
		msg *models.Message
		err error
	)
	switch h.kind {
	case VerifyEmailLink:
		msg, err = h.actions.VerifyEmail(r.Context(), token)
	case ResetPasswordLink:
		msg, err = h.actions.ResetPassword(r.Context(), token, h.newPassword)
	}

	if err != nil {
		h.Send(LinkResult{Kind: h.kind, err: err})
		writePage(w, http.StatusBadRequest, "Request Failed", services.Message(err))
		return
	}

	h.Send(LinkResult{Kind: h.kind, Message: msg.Message})
	writePage(w, http.StatusOK, "Done", msg.Message)
}

// Send sends the result through the channel (only once).
func (h *LinkHandler) Send(result LinkResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *LinkHandler) Result() <-chan LinkResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	color := "#2e7d32"
	if status >= 400 {
		color = "#c62828"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %[3]s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message), color)
}
