package normalizer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
)

var streamURLPattern = regexp.MustCompile(`https?://[\w\-.~:?#\[@!$&'()*+,;=%/]+`)

type rawStreamEntry struct {
	rawTrack
	Manifest flexString `json:"manifest"`
}

// ResolveStream decodes a track response into a [models.StreamInfo].
//
// The response holds one or more entries; the first carrying a duration supplies the track
// metadata and the first carrying a manifest supplies the stream. DASH manifests are rejected
// with [shared.ErrUnsupportedStreamFormat].
func ResolveStream(raw json.RawMessage, trackID, quality string) (*models.StreamInfo, error) {
	data := Unwrap(raw)
	entries, ok := asArray(data)
	if !ok {
		entries = []json.RawMessage{data}
	}

	var meta, stream *rawStreamEntry
	for _, entry := range entries {
		if _, ok := asObject(entry); !ok {
			continue
		}
		var e rawStreamEntry
		decode(entry, &e)
		if meta == nil && e.Duration != 0 {
			meta = &e
		}
		if stream == nil && e.Manifest != "" {
			stream = &e
		}
	}

	if stream == nil {
		return nil, fmt.Errorf("%w: could not get stream info", shared.ErrStreamResolutionFailed)
	}

	streamURL, err := manifestURL(string(stream.Manifest))
	if err != nil {
		return nil, err
	}

	info := &models.StreamInfo{
		StreamURL: streamURL,
		TrackID:   trackID,
		Title:     "Unknown",
		Artist:    "Unknown",
		Quality:   quality,
	}
	if meta != nil {
		info.Title = first(string(meta.Title), "Unknown")
		info.Artist = first(artistName(meta.Artist, meta.Artists), "Unknown")
		info.Album = string(meta.Album.Title)
	}
	return info, nil
}

// manifestURL decodes a base64 manifest and extracts the first stream URL.
//
// A JSON manifest yields urls[0]; anything else is scanned for the first http(s) URL.
func manifestURL(manifest string) (string, error) {
	decoded, err := decodeBase64(manifest)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode stream manifest", shared.ErrStreamResolutionFailed)
	}
	if strings.Contains(decoded, "<MPD") {
		return "", fmt.Errorf("%w: DASH streams cannot be downloaded directly", shared.ErrUnsupportedStreamFormat)
	}

	if json.Valid([]byte(decoded)) {
		var parsed struct {
			URLs flexList `json:"urls"`
		}
		decode([]byte(decoded), &parsed)
		if len(parsed.URLs) > 0 {
			var u flexString
			decode(parsed.URLs[0], &u)
			if u != "" {
				return string(u), nil
			}
		}
		return "", fmt.Errorf("%w: could not resolve stream URL", shared.ErrStreamResolutionFailed)
	}

	if match := streamURLPattern.FindString(decoded); match != "" {
		return match, nil
	}
	return "", fmt.Errorf("%w: could not resolve stream URL", shared.ErrStreamResolutionFailed)
}

// decodeBase64 accepts padded and unpadded standard base64, ignoring whitespace.
func decodeBase64(s string) (string, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
