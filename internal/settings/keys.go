package settings

import "github.com/desertthunder/arrx/internal/models"

const (
	MonochromeInstanceURL = "monochromeInstanceUrl"
	MonochromeQuality     = "monochromeQuality"
	MonochromeEnabled     = "monochromeEnabled"

	SonarrDefaultSeriesType        = "sonarrDefaultSeriesType"
	LidarrDefaultMetadataProfileID = "lidarrDefaultMetadataProfileId"
)

// URLKey returns the base URL key for kind, e.g. radarrUrl.
func URLKey(kind models.Kind) string { return string(kind) + "Url" }

// APIKeyKey returns the API key key for kind, e.g. radarrApiKey.
func APIKeyKey(kind models.Kind) string { return string(kind) + "ApiKey" }

// EnabledKey returns the enabled toggle key for kind, e.g. radarrEnabled.
func EnabledKey(kind models.Kind) string { return string(kind) + "Enabled" }

// DefaultQualityProfileKey returns e.g. radarrDefaultQualityProfileId.
func DefaultQualityProfileKey(kind models.Kind) string {
	return string(kind) + "DefaultQualityProfileId"
}

// DefaultRootFolderKey returns e.g. radarrDefaultRootFolderPath.
func DefaultRootFolderKey(kind models.Kind) string {
	return string(kind) + "DefaultRootFolderPath"
}

// Keys lists every recognized settings key.
func Keys() []string {
	var keys []string
	for _, k := range models.Kinds {
		keys = append(keys, URLKey(k), APIKeyKey(k), EnabledKey(k), DefaultQualityProfileKey(k), DefaultRootFolderKey(k))
	}
	return append(keys,
		SonarrDefaultSeriesType, LidarrDefaultMetadataProfileID,
		MonochromeInstanceURL, MonochromeQuality, MonochromeEnabled,
	)
}

// IsKnown reports whether key is a recognized settings key.
func IsKnown(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// IsSecret reports whether the value of key should be masked when displayed.
func IsSecret(key string) bool {
	for _, k := range models.Kinds {
		if key == APIKeyKey(k) {
			return true
		}
	}
	return false
}
