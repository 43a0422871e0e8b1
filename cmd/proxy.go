package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/formatter"
	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/shared"
	"github.com/desertthunder/arrx/internal/tasks"
)

// ProxySearch searches the streaming proxy for tracks, albums or artists.
func (r *Runner) ProxySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	kind := models.SearchKind(strings.ToLower(cmd.String("type")))
	switch kind {
	case models.SearchTracks, models.SearchAlbums, models.SearchArtists:
	default:
		return fmt.Errorf("%w: search type %q (track, album or artist)", shared.ErrInvalidArgument, kind)
	}

	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	r.logger.Info("searching streaming proxy", "query", query, "type", kind)
	result, err := proxy.Search(ctx, query, kind)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if result.Len() == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	r.writePlain("Search results for %q:\n\n", query)
	for i, t := range result.Tracks {
		r.writePlain("%d. %s - %s", i+1, t.ArtistName, t.Title)
		if t.DurationSeconds > 0 {
			r.writePlain(" (%s)", shared.FormatDuration(t.DurationSeconds))
		}
		r.writePlain("\n   ID: %s", t.ID)
		if t.AlbumTitle != "" {
			r.writePlain(" | Album: %s", t.AlbumTitle)
		}
		r.writePlain("\n\n")
	}
	for i, a := range result.Albums {
		r.writePlain("%d. %s", i+1, a.Title)
		if a.ArtistName != "" {
			r.writePlain(" by %s", a.ArtistName)
		}
		if a.Year != "" {
			r.writePlain(" (%s)", a.Year)
		}
		r.writePlain("\n   ID: %s | Tracks: %d\n\n", a.ID, a.TrackCount)
	}
	for i, a := range result.Artists {
		r.writePlain("%d. %s\n   ID: %s\n\n", i+1, a.Name, a.ID)
	}
	return nil
}

// ProxyStream resolves a track's stream URL, optionally downloading it.
func (r *Runner) ProxyStream(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	stream, err := proxy.Download(ctx, trackID, cmd.String("quality"))
	if err != nil {
		return fmt.Errorf("failed to resolve stream: %w", err)
	}

	if cmd.Bool("save") {
		path, err := r.downloader(cmd.String("dir")).Dispatch(ctx, stream.StreamURL, services.TrackFilename(stream.Artist, stream.Title))
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		r.logger.Info("saved stream", "path", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stream, cmd.Bool("pretty"))
	}

	r.writePlain("%s - %s", stream.Artist, stream.Title)
	if stream.Album != "" {
		r.writePlain(" [%s]", stream.Album)
	}
	r.writePlain("\nQuality: %s\n%s\n", stream.Quality, stream.StreamURL)
	return nil
}

// ProxyDownload downloads the track that best matches a free-text title.
func (r *Runner) ProxyDownload(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	r.writePlain("Searching for %q...\n", query)
	path, err := tasks.DownloadBestMatch(ctx, proxy, r.downloader(cmd.String("dir")), query)
	if err != nil {
		return err
	}
	r.writePlain("✓ Saved to %s\n", path)
	return nil
}

// ProxyArtist prints an artist and their deduplicated releases.
func (r *Runner) ProxyArtist(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("artist-id")
	if id == "" {
		return fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}
	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	artist, err := proxy.Artist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(artist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(artist.Name)
	r.writePlain("Releases (%d):\n", len(artist.Albums))
	for _, a := range artist.Albums {
		r.writePlain("  [%s] %s", a.ID, a.Title)
		if a.Year != "" {
			r.writePlain(" (%s)", a.Year)
		}
		if a.ReleaseKind != "" {
			r.writePlain(" %s", strings.ToLower(a.ReleaseKind))
		}
		r.writePlain("\n")
	}
	return nil
}

// ProxyAlbum prints an album and its tracks, or exports the tracklist with --export.
func (r *Runner) ProxyAlbum(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("album-id")
	if id == "" {
		return fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}
	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	album, err := proxy.Album(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch album: %w", err)
	}

	if format := cmd.String("export"); format != "" {
		exporter := formatter.NewExporter(r.httpClient, shared.WithLogger(r.logger, "component", "export"))
		files, err := exporter.Write(ctx, album, strings.ToLower(format), cmd.String("out"))
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		for _, f := range files {
			r.writePlain("✓ Wrote %s\n", f)
		}
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(album, cmd.Bool("pretty"))
	}

	title := album.Title
	if album.ArtistName != "" {
		title = album.ArtistName + " - " + album.Title
	}
	r.writePlainHeader(title)
	for _, t := range album.Tracks {
		r.writePlain("%2d. %s", t.TrackNumber, t.Title)
		if t.DurationSeconds > 0 {
			r.writePlain(" (%s)", shared.FormatDuration(t.DurationSeconds))
		}
		r.writePlain("\n")
	}
	return nil
}

// ProxyAlbumDownload downloads every track of an album.
func (r *Runner) ProxyAlbumDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("album-id")
	return r.runBatch(ctx, cmd, "Album download", func(b *tasks.BatchDownloader, prog chan<- tasks.ProgressUpdate) (*models.BatchResult, error) {
		return b.Album(ctx, prog, id)
	})
}

// ProxyDiscography downloads every release of an artist.
func (r *Runner) ProxyDiscography(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("artist-id")
	return r.runBatch(ctx, cmd, "Discography download", func(b *tasks.BatchDownloader, prog chan<- tasks.ProgressUpdate) (*models.BatchResult, error) {
		return b.Discography(ctx, prog, id)
	})
}

// runBatch runs a batch download, printing progress as it arrives and a summary at the end.
func (r *Runner) runBatch(
	ctx context.Context, cmd *cli.Command, title string,
	run func(*tasks.BatchDownloader, chan<- tasks.ProgressUpdate) (*models.BatchResult, error),
) error {
	proxy, err := r.proxyService()
	if err != nil {
		return err
	}

	downloader := tasks.NewBatchDownloader(proxy, r.downloader(cmd.String("dir")), tasks.BatchOpts{
		RateLimit: cmd.Float("rate"),
		Quality:   cmd.String("quality"),
	}, r.logger)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchArtist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchAlbum:
				r.writePlain("\n💿 %s\n", update.Message)
			case tasks.DownloadTrack:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := run(downloader, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(title + " Complete!")
	r.writePlain("Downloaded: %d/%d tracks\n", result.Succeeded, result.Attempted)

	if len(result.Failures) > 0 {
		r.writePlain("\nFailed (%d):\n", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  - %s: %s\n", f.Title, f.Error)
		}
	}
	return nil
}

// ProxyInstances lists proxy instances in the order requests try them.
func (r *Runner) ProxyInstances(ctx context.Context, cmd *cli.Command) error {
	mirrors, err := r.mirrorSelector()
	if err != nil {
		return err
	}

	if cmd.Bool("pick") {
		instance, err := mirrors.PickDefault(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", instance)
	}

	instances, err := mirrors.Instances(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(instances, cmd.Bool("pretty"))
	}

	r.writePlain("Proxy instances (%d):\n", len(instances))
	for i, instance := range instances {
		r.writePlain("%d. %s\n", i+1, instance)
	}
	return nil
}
