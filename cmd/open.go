package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// Open launches the browser on a library manager's web UI.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	store, err := r.settingsStore()
	if err != nil {
		return err
	}

	url, err := settings.String(ctx, store, settings.URLKey(kind))
	if err != nil {
		return err
	}
	if url == "" {
		return &shared.NotConfiguredError{Service: kind.Label()}
	}
	url = shared.TrimBaseURL(url)

	if err := shared.OpenBrowser(url); err != nil {
		r.writePlain("Open %s in your browser:\n%s\n", kind.Label(), url)
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("Opening %s at %s\n", kind.Label(), url)
}
