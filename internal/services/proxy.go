package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/normalizer"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// ProxyService searches the streaming proxy and resolves downloadable streams.
type ProxyService struct {
	fetcher  Fetcher
	settings settings.Store
	logger   *log.Logger
}

// NewProxyService creates a [ProxyService] on top of a [Fetcher], usually an [InstanceSelector].
func NewProxyService(fetcher Fetcher, store settings.Store, logger *log.Logger) *ProxyService {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ProxyService{fetcher: fetcher, settings: store, logger: logger}
}

// searchParam maps a search kind to its query parameter and response collection.
func searchParam(kind models.SearchKind) (param, key string, normalized models.SearchKind) {
	switch kind {
	case models.SearchArtists:
		return "a", "artists", kind
	case models.SearchAlbums:
		return "al", "albums", kind
	default:
		return "s", "tracks", models.SearchTracks
	}
}

// Search queries the proxy. Unknown kinds search tracks.
//
// The data envelope is stripped before the item list is located, so {"data":{"artists":{"items":[]}}}
// resolves the same way as {"artists":{"items":[]}}.
func (p *ProxyService) Search(ctx context.Context, query string, kind models.SearchKind) (*models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	param, key, kind := searchParam(kind)
	data, err := p.fetcher.Fetch(ctx, "/search/?"+param+"="+escapeComponent(query))
	if err != nil {
		return nil, err
	}

	items := normalizer.ExtractItems(normalizer.Unwrap(data), key)
	result := &models.SearchResult{Query: query, SearchKind: kind}
	switch kind {
	case models.SearchArtists:
		result.Artists = normalizer.Artists(items)
	case models.SearchAlbums:
		result.Albums = normalizer.Releases(items)
	default:
		result.Tracks = normalizer.Tracks(items)
	}
	p.logger.Debug("search", "query", query, "kind", kind, "results", result.Len())
	return result, nil
}

// Quality returns the configured stream quality.
func (p *ProxyService) Quality(ctx context.Context) (string, error) {
	return settings.Quality(ctx, p.settings)
}

// Download resolves the stream for trackID. An empty quality uses the configured one.
func (p *ProxyService) Download(ctx context.Context, trackID, quality string) (*models.StreamInfo, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if quality == "" {
		q, err := p.Quality(ctx)
		if err != nil {
			return nil, err
		}
		quality = q
	}

	data, err := p.fetcher.Fetch(ctx, "/track/?id="+escapeComponent(trackID)+"&quality="+escapeComponent(quality))
	if err != nil {
		return nil, err
	}
	return normalizer.ResolveStream(data, trackID, quality)
}

// Artist fetches an artist's info and discography concurrently. Both requests must succeed.
func (p *ProxyService) Artist(ctx context.Context, id string) (*models.Artist, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	var info, content json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = p.fetcher.Fetch(gctx, "/artist/?id="+escapeComponent(id))
		return err
	})
	g.Go(func() error {
		var err error
		content, err = p.fetcher.Fetch(gctx, "/artist/?f="+escapeComponent(id)+"&skip_tracks=true")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artist := normalizer.Artist(info, content, id)
	return &artist, nil
}

// Album fetches an album with its track list.
func (p *ProxyService) Album(ctx context.Context, id string) (*models.Album, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	data, err := p.fetcher.Fetch(ctx, "/album/?id="+escapeComponent(id))
	if err != nil {
		return nil, err
	}
	album := normalizer.Album(data, id)
	return &album, nil
}
