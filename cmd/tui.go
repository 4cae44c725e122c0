package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tcx/internal/shared"
	"github.com/desertthunder/tcx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing and editing tonies.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	dir, err := shared.ConfigDir()
	if err != nil {
		return err
	}
	fileLogger, err := shared.NewFileLogger(filepath.Join(dir, "tcx-tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	householdID, err := r.resolveHousehold(ctx, cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.api, householdID)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
