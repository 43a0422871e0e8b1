package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/arrx/internal/models"
)

// DefaultMetadataProfileID is used for artist adds when no metadata profile was selected.
const DefaultMetadataProfileID = 1

// MoviePayload is the body of a Radarr add.
type MoviePayload struct {
	Title            string            `json:"title"`
	TmdbID           int               `json:"tmdbId"`
	QualityProfileID int               `json:"qualityProfileId"`
	RootFolderPath   string            `json:"rootFolderPath"`
	Monitored        bool              `json:"monitored"`
	AddOptions       MovieAddOptions   `json:"addOptions"`
	Images           []json.RawMessage `json:"images,omitempty"`
	Year             int               `json:"year,omitempty"`
}

type MovieAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// ArtistPayload is the body of a Lidarr add.
type ArtistPayload struct {
	ArtistName        string            `json:"artistName"`
	ForeignArtistID   string            `json:"foreignArtistId"`
	QualityProfileID  int               `json:"qualityProfileId"`
	MetadataProfileID int               `json:"metadataProfileId"`
	RootFolderPath    string            `json:"rootFolderPath"`
	Monitored         bool              `json:"monitored"`
	AddOptions        ArtistAddOptions  `json:"addOptions"`
	Images            []json.RawMessage `json:"images,omitempty"`
}

type ArtistAddOptions struct {
	SearchForMissingAlbums bool `json:"searchForMissingAlbums"`
}

// SeriesPayload is the body of a Sonarr add.
type SeriesPayload struct {
	Title            string            `json:"title"`
	TvdbID           int               `json:"tvdbId"`
	QualityProfileID int               `json:"qualityProfileId"`
	RootFolderPath   string            `json:"rootFolderPath"`
	Monitored        bool              `json:"monitored"`
	SeriesType       string            `json:"seriesType"`
	SeasonFolder     bool              `json:"seasonFolder"`
	AddOptions       SeriesAddOptions  `json:"addOptions"`
	Images           []json.RawMessage `json:"images,omitempty"`
	Seasons          []json.RawMessage `json:"seasons,omitempty"`
}

type SeriesAddOptions struct {
	SearchForMissingEpisodes   bool `json:"searchForMissingEpisodes"`
	IgnoreEpisodesWithFiles    bool `json:"ignoreEpisodesWithFiles"`
	IgnoreEpisodesWithoutFiles bool `json:"ignoreEpisodesWithoutFiles"`
}

// BuildPayload shapes the add body for kind from a lookup candidate and the user's selection.
func BuildPayload(kind models.Kind, lookup models.LookupResult, sel models.Selection) (any, error) {
	switch kind {
	case models.Radarr:
		return MoviePayload{
			Title:            lookup.Title,
			TmdbID:           lookup.TmdbID,
			QualityProfileID: sel.QualityProfileID,
			RootFolderPath:   sel.RootFolderPath,
			Monitored:        sel.Monitored,
			AddOptions:       MovieAddOptions{SearchForMovie: sel.SearchOnAdd},
			Images:           lookup.Images,
			Year:             lookup.Year,
		}, nil
	case models.Lidarr:
		metadataProfileID := sel.MetadataProfileID
		if metadataProfileID <= 0 {
			metadataProfileID = DefaultMetadataProfileID
		}
		return ArtistPayload{
			ArtistName:        lookup.ArtistName,
			ForeignArtistID:   lookup.ForeignArtistID,
			QualityProfileID:  sel.QualityProfileID,
			MetadataProfileID: metadataProfileID,
			RootFolderPath:    sel.RootFolderPath,
			Monitored:         sel.Monitored,
			AddOptions:        ArtistAddOptions{SearchForMissingAlbums: sel.SearchOnAdd},
			Images:            lookup.Images,
		}, nil
	case models.Sonarr:
		seriesType := sel.SeriesType
		if seriesType == "" {
			seriesType = models.SeriesTypes[0]
		}
		return SeriesPayload{
			Title:            lookup.Title,
			TvdbID:           lookup.TvdbID,
			QualityProfileID: sel.QualityProfileID,
			RootFolderPath:   sel.RootFolderPath,
			Monitored:        sel.Monitored,
			SeriesType:       seriesType,
			SeasonFolder:     true,
			AddOptions:       SeriesAddOptions{SearchForMissingEpisodes: sel.SearchOnAdd},
			Images:           lookup.Images,
			Seasons:          lookup.Seasons,
		}, nil
	default:
		return nil, fmt.Errorf("unknown service %q", kind)
	}
}
