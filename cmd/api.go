package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tvbf/internal/services"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/urfave/cli/v3"
)

// APICall makes an authenticated request to the user service.
//
// The method comes from the subcommand name. A 401 is refreshed and retried once like any other call.
func (r *Runner) APICall(ctx context.Context, cmd *cli.Command) error {
	method := strings.ToUpper(cmd.Name)
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req := services.Request{Method: method, Path: path}
	if data := cmd.String("data"); data != "" {
		if err := shared.ValidateJSON([]byte(data)); err != nil {
			return err
		}
		req.Body = []byte(data)
	}

	r.logger.Info("API request", "method", method, "path", path)

	resp, err := r.users.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	if len(resp.Body) == 0 {
		return r.writePlain("%d\n", resp.StatusCode)
	}
	if err := r.writeBytes(resp.Body); err != nil {
		return err
	}
	return r.writePlain("\n")
}
