package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
)

// Defaults are the add options a user pinned in settings. Zero values mean unset.
type Defaults struct {
	QualityProfileID  int
	RootFolderPath    string
	SeriesType        string
	MetadataProfileID int
}

// String returns the value of key, or "" when unset.
func String(ctx context.Context, s Store, key string) (string, error) {
	v, _, err := s.Get(ctx, key)
	return strings.TrimSpace(v), err
}

// Int returns the integer value of key, or 0 when unset or not a number.
func Int(ctx context.Context, s Store, key string) (int, error) {
	v, err := String(ctx, s, key)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Bool returns the boolean value of key. Unset or unparsable values count as true.
func Bool(ctx context.Context, s Store, key string) (bool, error) {
	v, err := String(ctx, s, key)
	if err != nil || v == "" {
		return true, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true, nil
	}
	return b, nil
}

// Credential resolves the base URL and API key for kind.
//
// A missing value yields a [*shared.NotConfiguredError].
func Credential(ctx context.Context, s Store, kind models.Kind) (models.ServiceCredential, error) {
	baseURL, err := String(ctx, s, URLKey(kind))
	if err != nil {
		return models.ServiceCredential{}, fmt.Errorf("failed to read %s: %w", URLKey(kind), err)
	}
	apiKey, err := String(ctx, s, APIKeyKey(kind))
	if err != nil {
		return models.ServiceCredential{}, fmt.Errorf("failed to read %s: %w", APIKeyKey(kind), err)
	}

	cred := models.ServiceCredential{BaseURL: shared.TrimBaseURL(baseURL), APIKey: apiKey}
	if !cred.Valid() {
		return models.ServiceCredential{}, &shared.NotConfiguredError{Service: kind.Label()}
	}
	return cred, nil
}

// Enabled reports whether kind is toggled on.
func Enabled(ctx context.Context, s Store, kind models.Kind) (bool, error) {
	return Bool(ctx, s, EnabledKey(kind))
}

// LoadDefaults reads the pinned add options for kind.
func LoadDefaults(ctx context.Context, s Store, kind models.Kind) (Defaults, error) {
	var d Defaults
	var err error
	if d.QualityProfileID, err = Int(ctx, s, DefaultQualityProfileKey(kind)); err != nil {
		return d, err
	}
	if d.RootFolderPath, err = String(ctx, s, DefaultRootFolderKey(kind)); err != nil {
		return d, err
	}
	switch kind {
	case models.Sonarr:
		d.SeriesType, err = String(ctx, s, SonarrDefaultSeriesType)
	case models.Lidarr:
		d.MetadataProfileID, err = Int(ctx, s, LidarrDefaultMetadataProfileID)
	}
	return d, err
}

// Quality returns the configured stream quality, falling back to [DefaultQuality].
func Quality(ctx context.Context, s Store) (string, error) {
	q, err := String(ctx, s, MonochromeQuality)
	if err != nil {
		return "", err
	}
	if q == "" {
		return DefaultQuality, nil
	}
	return q, nil
}

// InstanceOverride returns the configured proxy instance with trailing slashes removed, or "".
func InstanceOverride(ctx context.Context, s Store) (string, error) {
	u, err := String(ctx, s, MonochromeInstanceURL)
	return shared.TrimBaseURL(u), err
}
