package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/server"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/urfave/cli/v3"
)

const linkTimeout = 10 * time.Minute

func (r *Runner) requireTokens() error {
	if !r.store.HasTokens() {
		return fmt.Errorf("%w: run 'tvbf auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeMessage(msg *models.Message) error {
	return r.writePlain("✓ %s\n", msg.Message)
}

func (r *Runner) writeUser(user *models.User) {
	verified := "no"
	if user.EmailVerified {
		verified = "yes"
	}
	r.writePlain("%-10s %s\n", "Username", user.Username)
	r.writePlain("%-10s %s\n", "Email", user.Email)
	r.writePlain("%-10s %s\n", "Verified", verified)
	if user.CreatedAt != "" {
		r.writePlain("%-10s %s\n", "Joined", user.CreatedAt)
	}
}

// AccountProfile prints the full profile from GET /profile.
func (r *Runner) AccountProfile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireTokens(); err != nil {
		return err
	}

	user, err := r.users.Profile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.writeUser(user)
	return nil
}

// AccountResendVerification sends the verification email again.
func (r *Runner) AccountResendVerification(ctx context.Context, cmd *cli.Command) error {
	email, err := r.argOrPrompt(cmd, "email", "Email")
	if err != nil {
		return err
	}

	msg, err := r.users.ResendVerification(ctx, email)
	if err != nil {
		return err
	}
	return r.writeMessage(msg)
}

// AccountVerifyEmail verifies an address from a token argument, or waits for the emailed link with --listen.
func (r *Runner) AccountVerifyEmail(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("listen") {
		result, err := r.listen(ctx, server.NewVerifyEmailHandler(r.users))
		if err != nil {
			return err
		}
		return r.writePlain("✓ %s\n", result.Message)
	}

	token, err := r.argOrPrompt(cmd, "token", "Verification token")
	if err != nil {
		return err
	}

	msg, err := r.users.VerifyEmail(ctx, token)
	if err != nil {
		return err
	}
	return r.writeMessage(msg)
}

// AccountForgotPassword requests a password reset email.
func (r *Runner) AccountForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email, err := r.argOrPrompt(cmd, "email", "Email")
	if err != nil {
		return err
	}

	msg, err := r.users.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	return r.writeMessage(msg)
}

// AccountResetPassword sets a new password from a reset token, or waits for the emailed link with --listen.
func (r *Runner) AccountResetPassword(ctx context.Context, cmd *cli.Command) error {
	var token string
	if !cmd.Bool("listen") {
		t, err := r.argOrPrompt(cmd, "token", "Reset token")
		if err != nil {
			return err
		}
		token = t
	}

	newPassword, err := r.readPassword(cmd, "new-password", "New password")
	if err != nil {
		return err
	}

	if cmd.Bool("listen") {
		result, err := r.listen(ctx, server.NewResetPasswordHandler(r.users, newPassword))
		if err != nil {
			return err
		}
		return r.writePlain("✓ %s\n", result.Message)
	}

	msg, err := r.users.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return err
	}
	return r.writeMessage(msg)
}

// AccountChangeUsername changes the username after confirming the password.
func (r *Runner) AccountChangeUsername(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireTokens(); err != nil {
		return err
	}
	username, err := r.argOrPrompt(cmd, "username", "New username")
	if err != nil {
		return err
	}
	password, err := r.readPassword(cmd, "password", "Current password")
	if err != nil {
		return err
	}

	user, err := r.users.UpdateUsername(ctx, username, password)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Username changed to %s\n", user.Username)
}

// AccountChangeEmail changes the email address after confirming the password.
func (r *Runner) AccountChangeEmail(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireTokens(); err != nil {
		return err
	}
	email, err := r.argOrPrompt(cmd, "email", "New email")
	if err != nil {
		return err
	}
	password, err := r.readPassword(cmd, "password", "Current password")
	if err != nil {
		return err
	}

	user, err := r.users.UpdateEmail(ctx, email, password)
	if err != nil {
		return err
	}
	r.writePlain("✓ Email changed to %s\n", user.Email)
	if !user.EmailVerified {
		r.writePlain("Check your inbox to verify the new address\n")
	}
	return nil
}

// AccountChangePassword changes the password.
func (r *Runner) AccountChangePassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireTokens(); err != nil {
		return err
	}
	current, err := r.readPassword(cmd, "password", "Current password")
	if err != nil {
		return err
	}
	next, err := r.readPassword(cmd, "new-password", "New password")
	if err != nil {
		return err
	}

	msg, err := r.users.UpdatePassword(ctx, current, next)
	if err != nil {
		return err
	}
	return r.writeMessage(msg)
}

// AccountDelete restores the session, confirms, and deletes the account.
func (r *Runner) AccountDelete(ctx context.Context, cmd *cli.Command) error {
	r.session.Init(ctx)
	user := r.session.User()
	if user == nil {
		return fmt.Errorf("%w: run 'tvbf auth login' first", shared.ErrNotAuthenticated)
	}

	if !cmd.Bool("yes") {
		answer, err := r.readLine(fmt.Sprintf("Type %s to delete this account", user.Username))
		if err != nil {
			return err
		}
		if answer != user.Username {
			return fmt.Errorf("%w: confirmation did not match", shared.ErrInvalidInput)
		}
	}

	password, err := r.readPassword(cmd, "password", "Current password")
	if err != nil {
		return err
	}

	res := r.session.DeleteAccount(ctx, password)
	if !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, res.Error)
	}
	return r.writePlain("✓ Account %s deleted\n", user.Username)
}

// listen serves h on the configured address until one link arrives, the timeout passes or ctx ends.
func (r *Runner) listen(ctx context.Context, h *server.LinkHandler) (server.LinkResult, error) {
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(h)

	addr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting link listener", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down listener", "error", err)
		}
	}()

	r.logger.Debug("link listener routes", "patterns", strings.Join(router.Patterns(), ", "))
	r.writePlain("→ Waiting for the emailed link on http://%s%s (%s timeout)...\n",
		addr, strings.Join(h.Routes(), ", "), linkTimeout)

	timeout := time.NewTimer(linkTimeout)
	defer timeout.Stop()

	var result server.LinkResult
	select {
	case result = <-h.Result():
	case err := <-serverErrors:
		return result, fmt.Errorf("listener error: %w", err)
	case <-timeout.C:
		return result, fmt.Errorf("%w: no link received after %s", shared.ErrTimeout, linkTimeout)
	case <-ctx.Done():
		return result, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return result, err
	}
	return result, nil
}
