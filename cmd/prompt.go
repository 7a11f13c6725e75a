package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// readLine prompts for a line of input on r.input.
func (r *Runner) readLine(label string) (string, error) {
	r.writePlain("%s: ", label)

	if r.lines == nil {
		r.lines = bufio.NewReader(r.input)
	}
	line, err := r.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// readPassword returns the value of flag when set, otherwise prompts for it.
//
// On a terminal the input is not echoed.
func (r *Runner) readPassword(cmd *cli.Command, flag, label string) (string, error) {
	if v := cmd.String(flag); v != "" {
		return v, nil
	}

	var password string
	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.writePlain("%s: ", label)
		b, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(b)
	} else {
		line, err := r.readLine(label)
		if err != nil {
			return "", err
		}
		password = line
	}

	if password == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return password, nil
}

// argOrPrompt returns the named argument, prompting when it was not given.
func (r *Runner) argOrPrompt(cmd *cli.Command, name, label string) (string, error) {
	if v := strings.TrimSpace(cmd.StringArg(name)); v != "" {
		return v, nil
	}
	v, err := r.readLine(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}
