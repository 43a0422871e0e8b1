package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// pathFetcher answers proxy paths from a fixed table.
type pathFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	paths  []string
}

func (p *pathFetcher) Fetch(_ context.Context, path string) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	if err, ok := p.errs[path]; ok {
		return nil, err
	}
	if body, ok := p.bodies[path]; ok {
		return json.RawMessage(body), nil
	}
	return nil, &shared.HTTPError{Status: 404}
}

func TestProxyService(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMapStore(nil)

	t.Run("Search kinds", func(t *testing.T) {
		fetcher := &pathFetcher{bodies: map[string]string{
			"/search/?s=airbag":      `{"version":"2","data":{"items":[{"id":1,"title":"Airbag","artist":{"name":"Radiohead"},"duration":284}]}}`,
			"/search/?a=radiohead":   `{"data":{"artists":{"items":[{"id":9,"name":"Radiohead"}]}}}`,
			"/search/?al=ok%20comp":  `{"albums":{"items":[{"id":5,"title":"OK Computer","numberOfTracks":12,"releaseDate":"1997-05-21"}]}}`,
			"/search/?s=fallthrough": `[]`,
		}}
		p := NewProxyService(fetcher, store, nil)

		tracks, err := p.Search(ctx, "airbag", models.SearchTracks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []models.Track{{ID: "1", Title: "Airbag", ArtistName: "Radiohead", DurationSeconds: 284}}
		if diff := cmp.Diff(want, tracks.Tracks); diff != "" {
			t.Errorf("tracks mismatch (-want +got):\n%s", diff)
		}

		artists, err := p.Search(ctx, "radiohead", models.SearchArtists)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if artists.Len() != 1 || artists.Artists[0].Name != "Radiohead" || artists.Artists[0].ID != "9" {
			t.Errorf("unexpected artists %+v", artists)
		}

		albums, err := p.Search(ctx, "ok comp", models.SearchAlbums)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if albums.Len() != 1 || albums.Albums[0].Year != "1997" || albums.Albums[0].TrackCount != 12 {
			t.Errorf("unexpected albums %+v", albums)
		}

		unknown, err := p.Search(ctx, "fallthrough", models.SearchKind("video"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if unknown.SearchKind != models.SearchTracks || unknown.Len() != 0 {
			t.Errorf("unknown kind should search tracks, got %+v", unknown)
		}
	})

	t.Run("Search requires a query", func(t *testing.T) {
		_, err := NewProxyService(&pathFetcher{}, store, nil).Search(ctx, "", models.SearchTracks)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Download uses configured quality", func(t *testing.T) {
		manifest := base64.StdEncoding.EncodeToString([]byte(`{"urls":["https://cdn/x.flac"]}`))
		fetcher := &pathFetcher{bodies: map[string]string{
			"/track/?id=42&quality=LOSSLESS":        `{"data":[{"duration":100,"title":"T","artists":[{"name":"A"}]},{"manifest":"` + manifest + `"}]}`,
			"/track/?id=42&quality=HI_RES_LOSSLESS": `{"manifest":"` + manifest + `"}`,
		}}

		p := NewProxyService(fetcher, settings.NewMapStore(map[string]string{settings.MonochromeQuality: "LOSSLESS"}), nil)
		got, err := p.Download(ctx, "42", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := &models.StreamInfo{StreamURL: "https://cdn/x.flac", TrackID: "42", Title: "T", Artist: "A", Quality: "LOSSLESS"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("stream mismatch (-want +got):\n%s", diff)
		}

		got, err = NewProxyService(fetcher, store, nil).Download(ctx, "42", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Quality != settings.DefaultQuality {
			t.Errorf("expected default quality, got %s", got.Quality)
		}
	})

	t.Run("Artist fetches both pages", func(t *testing.T) {
		fetcher := &pathFetcher{bodies: map[string]string{
			"/artist/?id=9":                 `{"data":{"name":"Radiohead"}}`,
			"/artist/?f=9&skip_tracks=true": `{"data":{"albums":[{"id":1,"title":"Kid A","numberOfTracks":10},{"id":2,"title":"Kid A","numberOfTracks":10,"explicit":true}]}}`,
		}}
		got, err := NewProxyService(fetcher, store, nil).Artist(ctx, "9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "Radiohead" || len(got.Albums) != 1 || got.Albums[0].ID != "2" {
			t.Errorf("unexpected artist %+v", got)
		}
		if len(fetcher.paths) != 2 {
			t.Errorf("expected 2 fetches, got %v", fetcher.paths)
		}
	})

	t.Run("Artist fails when either page fails", func(t *testing.T) {
		fetcher := &pathFetcher{
			bodies: map[string]string{"/artist/?id=9": `{"name":"Radiohead"}`},
			errs:   map[string]error{"/artist/?f=9&skip_tracks=true": &shared.HTTPError{Status: 500}},
		}
		_, err := NewProxyService(fetcher, store, nil).Artist(ctx, "9")
		if shared.StatusCode(err) != 500 {
			t.Errorf("expected the 500, got %v", err)
		}
	})

	t.Run("Album", func(t *testing.T) {
		fetcher := &pathFetcher{bodies: map[string]string{
			"/album/?id=5": `{"data":{"title":"OK Computer","artist":{"name":"Radiohead"},"items":[{"item":{"id":1,"title":"Airbag","trackNumber":1}}]}}`,
		}}
		got, err := NewProxyService(fetcher, store, nil).Album(ctx, "5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "5" || got.Title != "OK Computer" || len(got.Tracks) != 1 || got.Tracks[0].Title != "Airbag" {
			t.Errorf("unexpected album %+v", got)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		p := NewProxyService(&pathFetcher{}, store, nil)
		if _, err := p.Download(ctx, "", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Download: expected ErrMissingArgument, got %v", err)
		}
		if _, err := p.Artist(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Artist: expected ErrMissingArgument, got %v", err)
		}
		if _, err := p.Album(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Album: expected ErrMissingArgument, got %v", err)
		}
	})
}
