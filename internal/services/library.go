package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// LibraryClient issues requests against Radarr, Sonarr and Lidarr, negotiating the API version.
//
// Lidarr only speaks v1. Radarr and Sonarr are tried on v3 then v1, or v1 first once v1 has
// answered. Only a 404 moves on to the next version; every other failure is returned as is.
type LibraryClient struct {
	transport Doer
	settings  settings.Store
	versions  VersionCache
	logger    *log.Logger
}

// NewLibraryClient creates a [LibraryClient]. A nil cache gets a fresh [MemoryVersionCache].
func NewLibraryClient(transport Doer, store settings.Store, versions VersionCache, logger *log.Logger) *LibraryClient {
	if versions == nil {
		versions = NewVersionCache()
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &LibraryClient{transport: transport, settings: store, versions: versions, logger: logger}
}

// Versions exposes the client's version cache.
func (c *LibraryClient) Versions() VersionCache { return c.versions }

// candidates returns the API versions to try for kind, in order.
func (c *LibraryClient) candidates(kind models.Kind) []models.ProtocolVersion {
	if kind == models.Lidarr {
		return []models.ProtocolVersion{models.V1}
	}
	if v, ok := c.versions.Get(kind); ok && v == models.V1 {
		return []models.ProtocolVersion{models.V1, models.V3}
	}
	return []models.ProtocolVersion{models.V3, models.V1}
}

// Call sends method path (e.g. "/qualityprofile") with an optional JSON body to kind.
func (c *LibraryClient) Call(ctx context.Context, kind models.Kind, method, path string, body any) (json.RawMessage, error) {
	cred, err := settings.Credential(ctx, c.settings, kind)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"X-Api-Key":    cred.APIKey,
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	var lastErr error
	for _, version := range c.candidates(kind) {
		req := Request{
			Method:  method,
			URL:     cred.BaseURL + "/api/" + string(version) + path,
			Headers: headers,
			Body:    body,
		}

		result, err := c.transport.Do(ctx, req)
		if err == nil {
			c.versions.Set(kind, version)
			return result, nil
		}

		lastErr = err
		if !shared.IsNotFound(err) {
			return nil, err
		}
		c.logger.Debug("api version not found, trying next", "service", kind, "version", version)
	}
	return nil, lastErr
}

// Get is [LibraryClient.Call] for GET requests, decoding the response into out.
func (c *LibraryClient) Get(ctx context.Context, kind models.Kind, path string, out any) error {
	data, err := c.Call(ctx, kind, "GET", path, nil)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}
