package normalizer

import (
	"encoding/json"

	"github.com/desertthunder/arrx/internal/models"
)

type rawTrack struct {
	ID          flexString `json:"id"`
	Title       flexString `json:"title"`
	Name        flexString `json:"name"`
	Artist      nameRef    `json:"artist"`
	Artists     nameList   `json:"artists"`
	Album       nameRef    `json:"album"`
	Duration    flexInt    `json:"duration"`
	TrackNumber flexInt    `json:"trackNumber"`
	Index       flexInt    `json:"index"`
}

type rawRelease struct {
	ID             flexString `json:"id"`
	Title          flexString `json:"title"`
	Name           flexString `json:"name"`
	NumberOfTracks flexInt    `json:"numberOfTracks"`
	TracksCount    flexInt    `json:"tracksCount"`
	ReleaseDate    flexString `json:"releaseDate"`
	Cover          flexString `json:"cover"`
	Image          flexString `json:"image"`
	Type           flexString `json:"type"`
	Explicit       flexBool   `json:"explicit"`
	Artist         nameRef    `json:"artist"`
	Artists        nameList   `json:"artists"`
	MediaMetadata  struct {
		Tags flexList `json:"tags"`
	} `json:"mediaMetadata"`
}

// artistName resolves artist.name, then artists[0].name.
func artistName(artist nameRef, artists nameList) string {
	var fromList flexString
	if len(artists) > 0 {
		fromList = artists[0].Name
	}
	return string(first(artist.Name, fromList))
}

func (r rawRelease) title() string { return string(first(r.Title, r.Name)) }

func (r rawRelease) trackCount() int { return int(first(r.NumberOfTracks, r.TracksCount)) }

func (r rawRelease) tagCount() int { return len(r.MediaMetadata.Tags) }

func (r rawRelease) explicit() bool { return bool(r.Explicit) }

func (r rawRelease) album() models.Album {
	year := string(r.ReleaseDate)
	if len(year) > 4 {
		year = year[:4]
	}
	return models.Album{
		ID:          string(r.ID),
		Title:       r.title(),
		ArtistName:  artistName(r.Artist, r.Artists),
		Year:        year,
		TrackCount:  r.trackCount(),
		CoverURL:    string(first(r.Cover, r.Image)),
		ReleaseKind: string(r.Type),
	}
}

// Track converts a single proxy track item into a [models.Track].
func Track(raw json.RawMessage) models.Track {
	var t rawTrack
	decode(raw, &t)
	return models.Track{
		ID:              string(t.ID),
		Title:           string(first(t.Title, t.Name)),
		ArtistName:      artistName(t.Artist, t.Artists),
		AlbumTitle:      string(t.Album.Title),
		DurationSeconds: int(t.Duration),
		TrackNumber:     int(first(t.TrackNumber, t.Index)),
	}
}

// Release converts a single proxy album, single or compilation item into a [models.Album].
func Release(raw json.RawMessage) models.Album {
	var r rawRelease
	decode(raw, &r)
	return r.album()
}

// ArtistRef converts a single proxy artist search item into a [models.Artist] without releases.
func ArtistRef(raw json.RawMessage) models.Artist {
	var a struct {
		ID   flexString `json:"id"`
		Name flexString `json:"name"`
	}
	decode(raw, &a)
	return models.Artist{ID: string(a.ID), Name: string(a.Name), Albums: []models.Album{}}
}

// Tracks converts a list of proxy track items.
func Tracks(items []json.RawMessage) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, Track(item))
	}
	return tracks
}

// Releases converts a list of proxy release items.
func Releases(items []json.RawMessage) []models.Album {
	albums := make([]models.Album, 0, len(items))
	for _, item := range items {
		albums = append(albums, Release(item))
	}
	return albums
}

// Artists converts a list of proxy artist items.
func Artists(items []json.RawMessage) []models.Artist {
	artists := make([]models.Artist, 0, len(items))
	for _, item := range items {
		artists = append(artists, ArtistRef(item))
	}
	return artists
}

// releaseList reads a release collection that is either an array or {"items": [...]}.
func releaseList(raw json.RawMessage) []json.RawMessage {
	if items, ok := asArray(raw); ok {
		return items
	}
	if fields, ok := asObject(raw); ok {
		if items, ok := asArray(fields["items"]); ok {
			return items
		}
	}
	return nil
}

// Artist builds an artist page from the info and content responses.
//
// Albums, singles and compilations are concatenated in that order and deduplicated.
func Artist(info, content json.RawMessage, id string) models.Artist {
	info, content = Unwrap(info), Unwrap(content)

	var infoName, contentName struct {
		Name flexString `json:"name"`
	}
	decode(info, &infoName)
	decode(content, &contentName)

	var releases []rawRelease
	fields, _ := asObject(content)
	for _, key := range []string{"albums", "singles", "compilations"} {
		for _, item := range releaseList(fields[key]) {
			var r rawRelease
			decode(item, &r)
			releases = append(releases, r)
		}
	}

	deduped := dedup(releases)
	albums := make([]models.Album, 0, len(deduped))
	for _, r := range deduped {
		albums = append(albums, r.album())
	}

	return models.Artist{
		ID:     id,
		Name:   string(first(infoName.Name, contentName.Name)),
		Albums: albums,
	}
}

// Album builds an album page with its track list.
//
// Tracks are read from items[].item (or items[] directly), tracks[] or tracks.items, in that order.
func Album(raw json.RawMessage, id string) models.Album {
	data := Unwrap(raw)

	var r rawRelease
	decode(data, &r)

	fields, _ := asObject(data)
	var rawTracks []json.RawMessage
	if items, ok := asArray(fields["items"]); ok {
		for _, entry := range items {
			entryFields, _ := asObject(entry)
			if inner, ok := entryFields["item"]; ok && truthy(inner) {
				entry = inner
			}
			rawTracks = append(rawTracks, entry)
		}
	} else {
		rawTracks = releaseList(fields["tracks"])
	}

	tracks := Tracks(rawTracks)
	album := r.album()
	album.ID = id
	album.Tracks = tracks
	if album.TrackCount == 0 {
		album.TrackCount = len(tracks)
	}
	return album
}
