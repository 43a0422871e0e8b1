package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
)

const (
	pathQualityProfiles  = "/qualityprofile"
	pathRootFolders      = "/rootfolder"
	pathMetadataProfiles = "/metadataprofile"
	pathSystemStatus     = "/system/status"
)

// resourcePath returns the add endpoint for kind.
func resourcePath(kind models.Kind) string {
	switch kind {
	case models.Radarr:
		return "/movie"
	case models.Lidarr:
		return "/artist"
	default:
		return "/series"
	}
}

// notFoundHint is the message shown when a lookup returns nothing.
func notFoundHint(kind models.Kind) string {
	switch kind {
	case models.Radarr:
		return "Movie not found. It may not yet exist in the TMDB/IMDb database."
	case models.Lidarr:
		return "Artist not found. Try checking the name spelling or search manually in Lidarr."
	default:
		return "Series not found. Try checking the title spelling or search manually in Sonarr."
	}
}

// LookupNotFoundError is returned when a lookup has zero results.
type LookupNotFoundError struct {
	Kind models.Kind
}

func (e *LookupNotFoundError) Error() string { return notFoundHint(e.Kind) }

func (e *LookupNotFoundError) Unwrap() error { return shared.ErrLookupNotFound }

// QualityProfiles lists the quality profiles of kind.
func (c *LibraryClient) QualityProfiles(ctx context.Context, kind models.Kind) ([]models.QualityProfile, error) {
	var profiles []models.QualityProfile
	if err := c.Get(ctx, kind, pathQualityProfiles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// RootFolders lists the root folders of kind.
func (c *LibraryClient) RootFolders(ctx context.Context, kind models.Kind) ([]models.RootFolder, error) {
	var folders []models.RootFolder
	if err := c.Get(ctx, kind, pathRootFolders, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// MetadataProfiles lists the metadata profiles of kind. Only Lidarr has them.
func (c *LibraryClient) MetadataProfiles(ctx context.Context, kind models.Kind) ([]models.MetadataProfile, error) {
	var profiles []models.MetadataProfile
	if err := c.Get(ctx, kind, pathMetadataProfiles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// LookupRaw searches kind for term and returns the chosen candidate undecoded.
//
// Sonarr prefers the candidate whose imdbId equals imdbHint; everything else takes the first candidate.
func (c *LibraryClient) LookupRaw(ctx context.Context, kind models.Kind, term, imdbHint string) (json.RawMessage, error) {
	path := resourcePath(kind) + "/lookup?term=" + escapeComponent(term)

	var candidates []json.RawMessage
	if err := c.Get(ctx, kind, path, &candidates); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &LookupNotFoundError{Kind: kind}
	}

	if kind == models.Sonarr && imdbHint != "" {
		for _, candidate := range candidates {
			var ids struct {
				ImdbID string `json:"imdbId"`
			}
			if json.Unmarshal(candidate, &ids) == nil && ids.ImdbID == imdbHint {
				return candidate, nil
			}
		}
	}
	return candidates[0], nil
}

// Lookup is [LibraryClient.LookupRaw] decoded into a [models.LookupResult].
func (c *LibraryClient) Lookup(ctx context.Context, kind models.Kind, term, imdbHint string) (*models.LookupResult, error) {
	data, err := c.LookupRaw(ctx, kind, term, imdbHint)
	if err != nil {
		return nil, err
	}
	var result models.LookupResult
	if err := decodeInto(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Add creates the media described by payload in kind and returns the created resource.
func (c *LibraryClient) Add(ctx context.Context, kind models.Kind, payload any) (json.RawMessage, error) {
	return c.Call(ctx, kind, http.MethodPost, resourcePath(kind), payload)
}

// TestConnection reads /system/status and reports the version that answered.
func (c *LibraryClient) TestConnection(ctx context.Context, kind models.Kind) (*models.ConnectionInfo, error) {
	var status models.SystemStatus
	if err := c.Get(ctx, kind, pathSystemStatus, &status); err != nil {
		return nil, err
	}

	info := &models.ConnectionInfo{
		Version:    status.Version,
		AppName:    status.AppName,
		APIVersion: models.V3,
	}
	if info.Version == "" {
		info.Version = "?"
	}
	if info.AppName == "" {
		info.AppName = string(kind)
	}
	if v, ok := c.versions.Get(kind); ok {
		info.APIVersion = v
	}
	return info, nil
}

// escapeComponent query-escapes s with spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func decodeInto(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: unexpected response shape: %v", shared.ErrHTTP, err)
	}
	return nil
}
