package models

// Track is a canonical track extracted from a streaming proxy response.
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ArtistName      string `json:"artist"`
	AlbumTitle      string `json:"album,omitempty"`
	DurationSeconds int    `json:"duration"`
	TrackNumber     int    `json:"trackNumber"`
}

// Album is a canonical album (or single/compilation) release.
type Album struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ArtistName  string  `json:"artist,omitempty"`
	Year        string  `json:"year,omitempty"`
	TrackCount  int     `json:"tracks"`
	CoverURL    string  `json:"cover,omitempty"`
	ReleaseKind string  `json:"type,omitempty"`
	Tracks      []Track `json:"trackList,omitempty"`
}

// Artist is a canonical artist with its deduplicated releases.
type Artist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Albums []Album `json:"albums"`
}

// StreamInfo is a resolved stream for a single track.
type StreamInfo struct {
	StreamURL string `json:"streamUrl"`
	TrackID   string `json:"trackId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Quality   string `json:"quality"`
}

// SearchKind selects which proxy search index to query.
type SearchKind string

const (
	SearchTracks  SearchKind = "track"
	SearchArtists SearchKind = "artist"
	SearchAlbums  SearchKind = "album"
)

// SearchResult is the normalized result of a proxy search.
//
// Exactly one of the item slices is populated, matching SearchKind.
type SearchResult struct {
	Query      string     `json:"query"`
	SearchKind SearchKind `json:"searchType"`
	Tracks     []Track    `json:"tracks,omitempty"`
	Albums     []Album    `json:"albums,omitempty"`
	Artists    []Artist   `json:"artists,omitempty"`
}

// Len returns the number of items in the result.
func (s SearchResult) Len() int {
	return len(s.Tracks) + len(s.Albums) + len(s.Artists)
}
