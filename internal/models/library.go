package models

import "encoding/json"

// LookupResult is a media search candidate returned by a backend's lookup endpoint.
//
// A positive ID means the item already exists in the library.
type LookupResult struct {
	ID              int    `json:"id,omitempty"`
	Title           string `json:"title,omitempty"`
	ArtistName      string `json:"artistName,omitempty"`
	Year            int    `json:"year,omitempty"`
	TmdbID          int    `json:"tmdbId,omitempty"`
	TvdbID          int    `json:"tvdbId,omitempty"`
	ImdbID          string `json:"imdbId,omitempty"`
	ForeignArtistID string `json:"foreignArtistId,omitempty"`

	// Images and Seasons are kept verbatim so adds send back exactly what the lookup returned.
	Images  []json.RawMessage `json:"images,omitempty"`
	Seasons []json.RawMessage `json:"seasons,omitempty"`
}

// Exists reports whether the candidate is already present in the library.
func (l LookupResult) Exists() bool {
	return l.ID > 0
}

// Name returns the artist name for music results and the title otherwise.
func (l LookupResult) Name() string {
	if l.ArtistName != "" {
		return l.ArtistName
	}
	return l.Title
}

// QualityProfile is a selectable quality profile.
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MetadataProfile is a selectable Lidarr metadata profile.
type MetadataProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RootFolder is a selectable library root folder.
type RootFolder struct {
	ID        int    `json:"id"`
	Path      string `json:"path"`
	FreeSpace int64  `json:"freeSpace,omitempty"`
}

// SystemStatus is the subset of /system/status arrx reports.
type SystemStatus struct {
	Version string `json:"version"`
	AppName string `json:"appName"`
}

// ConnectionInfo is the result of a connection test.
type ConnectionInfo struct {
	Version    string          `json:"version"`
	AppName    string          `json:"appName"`
	APIVersion ProtocolVersion `json:"apiVersion"`
}

// Selection holds the add options a user picked in the workflow.
type Selection struct {
	QualityProfileID  int    `json:"qualityProfileId"`
	RootFolderPath    string `json:"rootFolderPath"`
	MetadataProfileID int    `json:"metadataProfileId,omitempty"`
	SeriesType        string `json:"seriesType,omitempty"`
	Monitored         bool   `json:"monitored"`
	SearchOnAdd       bool   `json:"searchOnAdd"`
}

// SeriesTypes lists the series types Sonarr accepts.
var SeriesTypes = []string{"standard", "daily", "anime"}
