package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
	"github.com/desertthunder/arrx/internal/tasks"
)

// connectionReport is one line of `library test` output.
type connectionReport struct {
	Service models.Kind            `json:"service"`
	OK      bool                   `json:"ok"`
	Info    *models.ConnectionInfo `json:"info,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// LibraryTest checks connectivity to one service, or to every enabled service when none is named.
func (r *Runner) LibraryTest(ctx context.Context, cmd *cli.Command) error {
	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	kinds := []models.Kind{}
	if cmd.StringArg("service") != "" {
		kind, err := parseKind(cmd)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	} else {
		store, err := r.settingsStore()
		if err != nil {
			return err
		}
		for _, kind := range models.Kinds {
			if enabled, err := settings.Enabled(ctx, store, kind); err != nil {
				return err
			} else if enabled {
				kinds = append(kinds, kind)
			}
		}
		if len(kinds) == 0 {
			return fmt.Errorf("%w: no library manager is enabled", shared.ErrNotConfigured)
		}
	}

	reports := make([]connectionReport, 0, len(kinds))
	failed := 0
	for _, kind := range kinds {
		r.logger.Debug("testing connection", "service", kind)
		info, err := library.TestConnection(ctx, kind)
		report := connectionReport{Service: kind, OK: err == nil, Info: info}
		if err != nil {
			report.Error = shared.UserMessage(err)
			failed++
		}
		reports = append(reports, report)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(reports, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		for _, report := range reports {
			if report.OK {
				r.writePlain("✓ %s: %s %s (API %s)\n", report.Service.Label(), report.Info.AppName, report.Info.Version, report.Info.APIVersion)
			} else {
				r.writePlain("✗ %s: %s\n", report.Service.Label(), report.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d connection tests failed", failed, len(reports))
	}
	return nil
}

// LibraryProfiles lists the quality profiles of a service.
func (r *Runner) LibraryProfiles(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	profiles, err := library.QualityProfiles(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list quality profiles: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profiles, cmd.Bool("pretty"))
	}

	r.writePlain("%s quality profiles (%d):\n", kind.Label(), len(profiles))
	for _, p := range profiles {
		r.writePlain("  [%d] %s\n", p.ID, p.Name)
	}
	return nil
}

// LibraryFolders lists the root folders of a service.
func (r *Runner) LibraryFolders(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	folders, err := library.RootFolders(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list root folders: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(folders, cmd.Bool("pretty"))
	}

	r.writePlain("%s root folders (%d):\n", kind.Label(), len(folders))
	for _, f := range folders {
		r.writePlain("  [%d] %s\n", f.ID, f.Path)
	}
	return nil
}

// LibraryMetadata lists Lidarr's metadata profiles.
func (r *Runner) LibraryMetadata(ctx context.Context, cmd *cli.Command) error {
	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	profiles, err := library.MetadataProfiles(ctx, models.Lidarr)
	if err != nil {
		return fmt.Errorf("failed to list metadata profiles: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profiles, cmd.Bool("pretty"))
	}

	r.writePlain("Lidarr metadata profiles (%d):\n", len(profiles))
	for _, p := range profiles {
		r.writePlain("  [%d] %s\n", p.ID, p.Name)
	}
	return nil
}

// LibraryLookup prints the first lookup candidate for a term.
func (r *Runner) LibraryLookup(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	term := cmd.StringArg("term")
	if term == "" {
		return fmt.Errorf("%w: term", shared.ErrMissingArgument)
	}
	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		raw, err := library.LookupRaw(ctx, kind, term, cmd.String("imdb"))
		if err != nil {
			return err
		}
		return r.writeRaw(raw, cmd.Bool("pretty"))
	}

	result, err := library.Lookup(ctx, kind, term, cmd.String("imdb"))
	if err != nil {
		return err
	}

	r.writePlain("%s\n", result.Name())
	if result.Year > 0 {
		r.writePlain("  Year:   %d\n", result.Year)
	}
	switch {
	case result.ImdbID != "":
		r.writePlain("  IMDb:   %s\n", result.ImdbID)
	case result.TvdbID > 0:
		r.writePlain("  TVDB:   %d\n", result.TvdbID)
	case result.ForeignArtistID != "":
		r.writePlain("  MBID:   %s\n", result.ForeignArtistID)
	}
	if result.Exists() {
		r.writePlain("  Status: already in %s (id %d)\n", kind.Label(), result.ID)
	} else {
		r.writePlain("  Status: not in %s\n", kind.Label())
	}
	return nil
}

// descriptorFrom builds the media descriptor from the title argument and id flags.
func descriptorFrom(cmd *cli.Command, kind models.Kind) (models.MediaDescriptor, error) {
	title := cmd.StringArg("title")
	ids := models.MediaIDs{
		ImdbID: cmd.String("imdb"),
		TmdbID: cmd.String("tmdb"),
		TvdbID: cmd.String("tvdb"),
	}
	if title == "" {
		title = cmp.Or(ids.ImdbID, ids.TmdbID)
	}
	if title == "" {
		return models.MediaDescriptor{}, fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}
	return models.NewDescriptor(kind, title, cmd.String("year"), ids), nil
}

// LibraryAdd adds media non-interactively: the configured defaults apply unless overridden by flags.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	d, err := descriptorFrom(cmd, kind)
	if err != nil {
		return err
	}
	library, err := r.libraryClient()
	if err != nil {
		return err
	}
	store, err := r.settingsStore()
	if err != nil {
		return err
	}

	workflow := tasks.NewWorkflow(library, store, tasks.WorkflowOpts{Logger: r.logger})
	defer func() {
		if err := workflow.Close(); err != nil {
			r.logger.Debug("failed to close add session", "error", err)
		}
	}()

	r.writePlain("Looking up %s in %s...\n", d.DisplayTitle(), kind.Label())
	snap, err := workflow.Open(ctx, d)
	if err != nil {
		return err
	}

	switch snap.State {
	case tasks.Exists:
		r.writePlain("%s\n", snap.Message)
		return nil
	case tasks.Error:
		return errors.New(snap.Message)
	}

	sel, err := applyOverrides(cmd, snap)
	if err != nil {
		return err
	}
	if _, err := workflow.Select(sel); err != nil {
		return err
	}

	r.logger.Debug("submitting", "service", kind, "selection", sel)
	snap, err = workflow.Submit(ctx)
	if err != nil {
		return err
	}
	if snap.State != tasks.Success {
		return errors.New(snap.Message)
	}

	r.writePlain("✓ %s\n", snap.Message)
	r.writePlain("  Quality profile: %s\n", profileName(snap.Options.QualityProfiles, snap.Selection.QualityProfileID))
	r.writePlain("  Root folder:     %s\n", snap.Selection.RootFolderPath)
	return nil
}

// applyOverrides replaces the default selection with the flags that were set, rejecting values the
// service does not offer.
func applyOverrides(cmd *cli.Command, snap tasks.Snapshot) (models.Selection, error) {
	sel := snap.Selection
	opts := snap.Options

	if cmd.IsSet("quality-profile") {
		id := int(cmd.Int("quality-profile"))
		if !slices.ContainsFunc(opts.QualityProfiles, func(p models.QualityProfile) bool { return p.ID == id }) {
			return sel, fmt.Errorf("%w: quality profile %d is not offered", shared.ErrInvalidArgument, id)
		}
		sel.QualityProfileID = id
	}
	if cmd.IsSet("root-folder") {
		path := cmd.String("root-folder")
		if !slices.ContainsFunc(opts.RootFolders, func(f models.RootFolder) bool { return f.Path == path }) {
			return sel, fmt.Errorf("%w: root folder %q is not offered", shared.ErrInvalidArgument, path)
		}
		sel.RootFolderPath = path
	}
	if cmd.IsSet("metadata-profile") {
		id := int(cmd.Int("metadata-profile"))
		if !slices.ContainsFunc(opts.MetadataProfiles, func(p models.MetadataProfile) bool { return p.ID == id }) {
			return sel, fmt.Errorf("%w: metadata profile %d is not offered", shared.ErrInvalidArgument, id)
		}
		sel.MetadataProfileID = id
	}
	if cmd.IsSet("series-type") {
		seriesType := cmd.String("series-type")
		if !slices.Contains(opts.SeriesTypes, seriesType) {
			return sel, fmt.Errorf("%w: series type %q is not offered", shared.ErrInvalidArgument, seriesType)
		}
		sel.SeriesType = seriesType
	}
	if cmd.Bool("unmonitored") {
		sel.Monitored = false
	}
	if cmd.Bool("no-search") {
		sel.SearchOnAdd = false
	}
	return sel, nil
}

func profileName(profiles []models.QualityProfile, id int) string {
	for _, p := range profiles {
		if p.ID == id {
			return p.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}
