package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive show browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	r.session.Init(ctx)
	r.logger.Info("starting TUI", "state", r.session.State())

	model := ui.NewModel(ctx, r.catalog, r.session, r.config.Catalog.SearchLimit)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
