package settings

import (
	"context"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
)

// DefaultQuality is the stream quality requested when none is configured.
const DefaultQuality = "HI_RES_LOSSLESS"

// Store reads and writes configuration values by key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Lister is a [Store] that can enumerate its values.
type Lister interface {
	All(ctx context.Context) (map[string]string, error)
}

// MapStore is an in-memory [Store], safe for concurrent use.
type MapStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapStore creates a [MapStore] seeded with values.
func NewMapStore(values map[string]string) *MapStore {
	m := make(map[string]string, len(values))
	maps.Copy(m, values)
	return &MapStore{values: m}
}

func (s *MapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MapStore) All(context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values), nil
}

// FromConfig flattens a TOML [shared.Config] into a [MapStore] keyed by settings names.
//
// Zero-valued defaults are omitted so they read as "not set".
func FromConfig(cfg *shared.Config) *MapStore {
	values := map[string]string{}
	services := map[models.Kind]shared.ServiceConfig{
		models.Radarr: cfg.Radarr,
		models.Sonarr: cfg.Sonarr,
		models.Lidarr: cfg.Lidarr,
	}
	for kind, svc := range services {
		values[EnabledKey(kind)] = strconv.FormatBool(svc.Enabled)
		putNonEmpty(values, URLKey(kind), svc.URL)
		putNonEmpty(values, APIKeyKey(kind), svc.APIKey)
		putNonEmpty(values, DefaultRootFolderKey(kind), svc.DefaultRootFolderPath)
		if svc.DefaultQualityProfileID > 0 {
			values[DefaultQualityProfileKey(kind)] = strconv.Itoa(svc.DefaultQualityProfileID)
		}
	}
	putNonEmpty(values, SonarrDefaultSeriesType, cfg.Sonarr.DefaultSeriesType)
	if cfg.Lidarr.DefaultMetadataProfileID > 0 {
		values[LidarrDefaultMetadataProfileID] = strconv.Itoa(cfg.Lidarr.DefaultMetadataProfileID)
	}

	values[MonochromeEnabled] = strconv.FormatBool(cfg.Monochrome.Enabled)
	putNonEmpty(values, MonochromeInstanceURL, cfg.Monochrome.InstanceURL)
	putNonEmpty(values, MonochromeQuality, cfg.Monochrome.Quality)
	return NewMapStore(values)
}

func putNonEmpty(values map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values[key] = value
	}
}

// Layered resolves keys through an ordered list of stores; the first hit wins.
//
// Writes go to the first layer.
type Layered struct {
	layers []Store
}

// NewLayered creates a [Layered] store. At least one layer is required.
func NewLayered(layers ...Store) *Layered {
	return &Layered{layers: layers}
}

func (l *Layered) Get(ctx context.Context, key string) (string, bool, error) {
	for _, s := range l.layers {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

func (l *Layered) Set(ctx context.Context, key, value string) error {
	return l.layers[0].Set(ctx, key, value)
}

// All merges every listable layer, earlier layers taking precedence.
func (l *Layered) All(ctx context.Context) (map[string]string, error) {
	merged := map[string]string{}
	for i := len(l.layers) - 1; i >= 0; i-- {
		lister, ok := l.layers[i].(Lister)
		if !ok {
			continue
		}
		values, err := lister.All(ctx)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, values)
	}
	return merged, nil
}

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
