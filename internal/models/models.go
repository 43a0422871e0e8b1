// package models defines the data model for the arrx library bridge
package models

import (
	"fmt"
	"strings"
)

// Kind identifies a library manager backend.
type Kind string

const (
	Radarr Kind = "radarr"
	Sonarr Kind = "sonarr"
	Lidarr Kind = "lidarr"
)

// Kinds lists every supported library manager in display order.
var Kinds = []Kind{Radarr, Sonarr, Lidarr}

// ParseKind converts a user-supplied name into a [Kind].
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Radarr, Sonarr, Lidarr:
		return k, nil
	default:
		return "", fmt.Errorf("unknown service %q (expected radarr, sonarr or lidarr)", s)
	}
}

// Label returns the display name of the backend.
func (k Kind) Label() string {
	switch k {
	case Radarr:
		return "Radarr"
	case Sonarr:
		return "Sonarr"
	case Lidarr:
		return "Lidarr"
	default:
		return string(k)
	}
}

// MediaType returns the media type a backend manages.
func (k Kind) MediaType() MediaType {
	switch k {
	case Radarr:
		return Movie
	case Lidarr:
		return Music
	default:
		return Series
	}
}

// NeedsMetadataProfile reports whether adds for this backend carry a metadata profile.
func (k Kind) NeedsMetadataProfile() bool {
	return k == Lidarr
}

// MediaType is the kind of media a page describes.
type MediaType string

const (
	Movie  MediaType = "movie"
	Series MediaType = "series"
	Music  MediaType = "music"
)

// Label returns the display name of the media type.
func (m MediaType) Label() string {
	switch m {
	case Movie:
		return "Movie"
	case Music:
		return "Music"
	default:
		return "TV Series"
	}
}

// ProtocolVersion is the REST API version prefix a backend deployment accepts.
type ProtocolVersion string

const (
	V3 ProtocolVersion = "v3"
	V1 ProtocolVersion = "v1"
)

// ServiceCredential holds the connection details for a single library manager.
type ServiceCredential struct {
	BaseURL string
	APIKey  string
}

// Valid reports whether both the base URL and API key are set.
func (c ServiceCredential) Valid() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// MediaIDs carries the external identifiers a page exposes.
type MediaIDs struct {
	ImdbID    string `json:"imdbId,omitempty"`
	TmdbID    string `json:"tmdbId,omitempty"`
	TvdbID    string `json:"tvdbId,omitempty"`
	SpotifyID string `json:"spotifyId,omitempty"`
}

// MediaDescriptor describes the media a user wants to add to a library.
type MediaDescriptor struct {
	Kind       Kind      `json:"service"`
	MediaType  MediaType `json:"type"`
	Title      string    `json:"title"`
	Year       string    `json:"year,omitempty"`
	LookupTerm string    `json:"lookupTerm"`
	IDs        MediaIDs  `json:"ids"`
}

// DisplayTitle renders "Title (Year)" or just the title when the year is unknown.
func (d MediaDescriptor) DisplayTitle() string {
	if d.Year == "" {
		return d.Title
	}
	return fmt.Sprintf("%s (%s)", d.Title, d.Year)
}

// NewDescriptor builds a [MediaDescriptor] for a backend, deriving the lookup term from the IDs when possible.
//
// Radarr accepts "imdb:tt…" and "tmdb:<id>" lookups, IMDb first; the other backends search by title.
func NewDescriptor(kind Kind, title, year string, ids MediaIDs) MediaDescriptor {
	term := title
	if kind == Radarr {
		switch {
		case ids.ImdbID != "":
			term = "imdb:" + ids.ImdbID
		case ids.TmdbID != "":
			term = "tmdb:" + ids.TmdbID
		}
	}
	return MediaDescriptor{
		Kind:       kind,
		MediaType:  kind.MediaType(),
		Title:      title,
		Year:       year,
		LookupTerm: term,
		IDs:        ids,
	}
}
