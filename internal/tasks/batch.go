package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/shared"
)

// BatchOpts contains configuration for batch downloads.
type BatchOpts struct {
	RateLimit float64 // Tracks resolved per second (default: 2)
	Quality   string  // Stream quality; empty uses the configured one
}

// BatchDownloader downloads whole albums and discographies track by track.
//
// It is best-effort: a failing track is recorded in the result and the batch continues.
type BatchDownloader struct {
	proxy      ProxyAPI
	dispatcher services.Dispatcher
	opts       BatchOpts
	logger     *log.Logger
}

// NewBatchDownloader creates a [BatchDownloader].
func NewBatchDownloader(proxy ProxyAPI, dispatcher services.Dispatcher, opts BatchOpts, logger *log.Logger) *BatchDownloader {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &BatchDownloader{proxy: proxy, dispatcher: dispatcher, opts: opts, logger: logger}
}

// Album downloads every track of an album. Failing to fetch the album itself is fatal.
func (b *BatchDownloader) Album(ctx context.Context, prog chan<- ProgressUpdate, albumID string) (*models.BatchResult, error) {
	if albumID == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	sendProgress(prog, fetchAlbumUpdate(1, 1, albumID))
	album, err := b.proxy.Album(ctx, albumID)
	if err != nil {
		return nil, err
	}
	sendProgress(prog, foundAlbumUpdate(1, 1, album))

	result := &models.BatchResult{}
	limiter := rate.NewLimiter(rate.Limit(b.opts.RateLimit), 1)
	if err := b.downloadTracks(ctx, prog, limiter, album, result); err != nil {
		return result, err
	}
	sendProgress(prog, completeUpdate(result))
	return result, nil
}

// Discography downloads every track of every release of an artist.
//
// A release that cannot be fetched is recorded as a failure and skipped.
func (b *BatchDownloader) Discography(ctx context.Context, prog chan<- ProgressUpdate, artistID string) (*models.BatchResult, error) {
	if artistID == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	sendProgress(prog, fetchArtistUpdate(artistID))
	artist, err := b.proxy.Artist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	result := &models.BatchResult{}
	limiter := rate.NewLimiter(rate.Limit(b.opts.RateLimit), 1)
	total := len(artist.Albums)

	for i, release := range artist.Albums {
		sendProgress(prog, fetchAlbumUpdate(i+1, total, release.ID))
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		album, err := b.proxy.Album(ctx, release.ID)
		if err != nil {
			b.logger.Warn("skipping release", "album", release.ID, "error", err)
			result.Failures = append(result.Failures, models.BatchFailure{
				ID:    release.ID,
				Title: release.Title,
				Error: shared.UserMessage(err),
			})
			continue
		}
		if album.ArtistName == "" {
			album.ArtistName = artist.Name
		}
		sendProgress(prog, foundAlbumUpdate(i+1, total, album))

		if err := b.downloadTracks(ctx, prog, limiter, album, result); err != nil {
			return result, err
		}
	}

	sendProgress(prog, completeUpdate(result))
	return result, nil
}

// downloadTracks resolves and dispatches each track of album into result. Only cancellation stops it.
func (b *BatchDownloader) downloadTracks(ctx context.Context, prog chan<- ProgressUpdate, limiter *rate.Limiter, album *models.Album, result *models.BatchResult) error {
	total := len(album.Tracks)
	for i, track := range album.Tracks {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		result.Attempted++
		sendProgress(prog, resolveTrackUpdate(i+1, total, track))

		path, err := b.downloadTrack(ctx, album, track)
		if err != nil {
			b.logger.Warn("track failed", "track", track.ID, "title", track.Title, "error", err)
			result.Failures = append(result.Failures, models.BatchFailure{
				ID:    track.ID,
				Title: track.Title,
				Error: shared.UserMessage(err),
			})
			sendProgress(prog, failedUpdate(i+1, total, track, err))
			continue
		}

		result.Succeeded++
		result.Files = append(result.Files, path)
		sendProgress(prog, downloadedUpdate(i+1, total, path))
	}
	return nil
}

func (b *BatchDownloader) downloadTrack(ctx context.Context, album *models.Album, track models.Track) (string, error) {
	stream, err := b.proxy.Download(ctx, track.ID, b.opts.Quality)
	if err != nil {
		return "", err
	}
	return b.dispatcher.Dispatch(ctx, stream.StreamURL, batchFilename(album, track, stream))
}

// batchFilename prefers the track's own metadata and falls back to the album, then the stream info.
func batchFilename(album *models.Album, track models.Track, stream *models.StreamInfo) string {
	artist := first(track.ArtistName, album.ArtistName, known(stream.Artist))
	title := first(track.Title, known(stream.Title))
	return services.TrackFilename(artist, title)
}

func known(s string) string {
	if s == "Unknown" {
		return ""
	}
	return s
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
