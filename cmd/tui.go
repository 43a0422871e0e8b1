package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/shared"
	"github.com/desertthunder/arrx/internal/tasks"
	"github.com/desertthunder/arrx/internal/ui"
)

// TUI launches the interactive add-to-library flow for one title.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	d, err := descriptorFrom(cmd, kind)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/arrx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	library, err := r.libraryClient()
	if err != nil {
		return err
	}
	store, err := r.settingsStore()
	if err != nil {
		return err
	}

	opts := tasks.WorkflowOpts{Logger: shared.WithLogger(fileLogger, "component", "workflow")}
	if proxy, err := r.proxyService(); err == nil {
		opts.Proxy = proxy
		opts.Dispatcher = r.downloader("")
	}
	workflow := tasks.NewWorkflow(library, store, opts)

	model := ui.NewModel(ctx, workflow, d)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
