package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tvbf/internal/services"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/tokens"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in through the session manager, which stores the token pair.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, err := r.argOrPrompt(cmd, "username", "Username")
	if err != nil {
		return err
	}
	password, err := r.readPassword(cmd, "password", "Password")
	if err != nil {
		return err
	}

	res := r.session.Login(ctx, username, password)
	if !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}

	user := r.session.User()
	r.writePlain("✓ Signed in as %s\n", user.Username)
	if !user.EmailVerified {
		r.writePlain("⚠ Email %s is not verified yet\n", user.Email)
	}
	return nil
}

// AuthLogout forgets the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

// AuthRegister creates an account without signing in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, err := r.argOrPrompt(cmd, "username", "Username")
	if err != nil {
		return err
	}
	email, err := r.argOrPrompt(cmd, "email", "Email")
	if err != nil {
		return err
	}
	password, err := r.readPassword(cmd, "password", "Password")
	if err != nil {
		return err
	}

	res := r.session.Register(ctx, username, email, password)
	if !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}

	r.writePlain("✓ Registered %s\n", username)
	r.writePlain("Check %s for a verification link, then run 'tvbf auth login %s'\n", email, username)
	return nil
}

// AuthStatus checks the user service's /health endpoint and the stored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	health, err := r.users.Health(ctx)
	if err != nil {
		r.writePlain("✗ User service: %s\n", services.Message(err))
	} else {
		r.writePlain("✓ User service is %s\n", health.Status)
	}

	if !r.store.HasTokens() {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}

	if claims, err := tokens.Inspect(r.store.AccessToken()); err == nil && !claims.ExpiresAt.IsZero() {
		state := "valid"
		if claims.Expired(time.Now()) {
			state = "expired, will refresh on next call"
		}
		r.writePlain("Access token: %s (expires %s)\n", state, claims.ExpiresAt.Local().Format(time.DateTime))
	}

	r.session.Init(ctx)
	if !r.session.IsAuthenticated() {
		return r.writePlain("Authentication: ✗ Stored session is no longer valid\n")
	}
	return r.writePlain("Authentication: ✓ Signed in as %s\n", r.session.User().Username)
}

// AuthWhoami restores the session and prints the signed-in user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	r.session.Init(ctx)

	user := r.session.User()
	if user == nil {
		return fmt.Errorf("%w: run 'tvbf auth login' first", shared.ErrNotAuthenticated)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("%s <%s>\n", user.Username, user.Email)
	return nil
}
