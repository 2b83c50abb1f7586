package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snapmix/internal/repositories"
	"github.com/desertthunder/snapmix/internal/shared"
	"github.com/desertthunder/snapmix/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for photo recommendations.
//
// Authorization happens before the program starts so the browser flow can print to the terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	pipeline, err := r.newPipeline(ctx, true)
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		db, err := shared.OpenHistory(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer db.Close()
		pipeline.SetRecorder(repositories.NewRunRecorder(repositories.NewAnalysisRunRepository(db)))
	}

	model := ui.NewModel(ctx, pipeline, cmd.String("image"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
