package tasks

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/arrx/internal/models"
)

func TestBuildPayload(t *testing.T) {
	images := []json.RawMessage{json.RawMessage(`{"coverType":"poster","url":"/MediaCover/1/poster.jpg","remoteUrl":"https://img/p.jpg","extension":".jpg"}`)}
	poster := []any{map[string]any{
		"coverType": "poster",
		"url":       "/MediaCover/1/poster.jpg",
		"remoteUrl": "https://img/p.jpg",
		"extension": ".jpg",
	}}

	tc := []struct {
		name   string
		kind   models.Kind
		lookup models.LookupResult
		sel    models.Selection
		want   map[string]any
	}{
		{
			name:   "movie without year or images",
			kind:   models.Radarr,
			lookup: models.LookupResult{Title: "Primer", TmdbID: 14337},
			sel:    models.Selection{QualityProfileID: 4, RootFolderPath: "/movies"},
			want: map[string]any{
				"title":            "Primer",
				"tmdbId":           float64(14337),
				"qualityProfileId": float64(4),
				"rootFolderPath":   "/movies",
				"monitored":        false,
				"addOptions":       map[string]any{"searchForMovie": false},
			},
		},
		{
			name:   "artist defaults the metadata profile",
			kind:   models.Lidarr,
			lookup: models.LookupResult{ArtistName: "Radiohead", ForeignArtistID: "a74b1b7f", Images: images},
			sel:    models.Selection{QualityProfileID: 1, RootFolderPath: "/music", Monitored: true, SearchOnAdd: true},
			want: map[string]any{
				"artistName":        "Radiohead",
				"foreignArtistId":   "a74b1b7f",
				"qualityProfileId":  float64(1),
				"metadataProfileId": float64(1),
				"rootFolderPath":    "/music",
				"monitored":         true,
				"addOptions":        map[string]any{"searchForMissingAlbums": true},
				"images":            poster,
			},
		},
		{
			name: "series with seasons",
			kind: models.Sonarr,
			lookup: models.LookupResult{
				Title:   "Severance",
				TvdbID:  371980,
				Seasons: []json.RawMessage{json.RawMessage(`{"seasonNumber":1,"monitored":true,"statistics":{"episodeCount":9}}`)},
			},
			sel: models.Selection{QualityProfileID: 2, RootFolderPath: "/tv", SeriesType: "daily", Monitored: true},
			want: map[string]any{
				"title":            "Severance",
				"tvdbId":           float64(371980),
				"qualityProfileId": float64(2),
				"rootFolderPath":   "/tv",
				"monitored":        true,
				"seriesType":       "daily",
				"seasonFolder":     true,
				"addOptions": map[string]any{
					"searchForMissingEpisodes":   false,
					"ignoreEpisodesWithFiles":    false,
					"ignoreEpisodesWithoutFiles": false,
				},
				"seasons": []any{map[string]any{
					"seasonNumber": float64(1),
					"monitored":    true,
					"statistics":   map[string]any{"episodeCount": float64(9)},
				}},
			},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := BuildPayload(tt.kind, tt.lookup, tt.sel)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			data, err := json.Marshal(payload)
			if err != nil {
				t.Fatal(err)
			}
			var got map[string]any
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("series type falls back to standard", func(t *testing.T) {
		payload, _ := BuildPayload(models.Sonarr, models.LookupResult{Title: "x"}, models.Selection{})
		if got := payload.(SeriesPayload).SeriesType; got != "standard" {
			t.Errorf("expected standard, got %q", got)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := BuildPayload(models.Kind("plex"), models.LookupResult{}, models.Selection{}); err == nil {
			t.Error("expected an error")
		}
	})
}
