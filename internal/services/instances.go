package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// DefaultInstances are the public proxy mirrors, tried left to right.
var DefaultInstances = []string{
	"https://eu-central.monochrome.tf",
	"https://us-west.monochrome.tf",
	"https://arran.monochrome.tf",
	"https://api.monochrome.tf",
	"https://tidal-api.binimum.org",
	"https://monochrome-api.samidy.com",
	"https://triton.squid.wtf",
	"https://wolf.qqdl.site",
	"https://hifi-one.spotisaver.net",
	"https://hifi-two.spotisaver.net",
	"https://maus.qqdl.site",
	"https://vogel.qqdl.site",
	"https://hund.qqdl.site",
	"https://tidal.kinoplus.online",
}

// Fetcher retrieves a proxy path from whichever instance answers.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (json.RawMessage, error)
}

// InstanceSelector fetches proxy paths with mirror failover.
//
// A configured instance override replaces the mirror list entirely. A 429 moves on without
// recording an error; any other failure is recorded and the next mirror is tried, except a
// timeout, which aborts the whole fetch.
type InstanceSelector struct {
	transport Doer
	settings  settings.Store
	defaults  []string
	logger    *log.Logger
}

// NewInstanceSelector creates an [InstanceSelector]. A nil mirror list uses [DefaultInstances].
func NewInstanceSelector(transport Doer, store settings.Store, mirrors []string, logger *log.Logger) *InstanceSelector {
	if mirrors == nil {
		mirrors = DefaultInstances
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &InstanceSelector{transport: transport, settings: store, defaults: mirrors, logger: logger}
}

// Instances returns the base URLs that will be tried, in order.
func (s *InstanceSelector) Instances(ctx context.Context) ([]string, error) {
	override, err := settings.InstanceOverride(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	if override != "" {
		return []string{override}, nil
	}
	return s.defaults, nil
}

// PickDefault returns the override, or a random mirror for display.
func (s *InstanceSelector) PickDefault(ctx context.Context) (string, error) {
	instances, err := s.Instances(ctx)
	if err != nil {
		return "", err
	}
	if len(instances) == 0 {
		return "", shared.ErrAllInstancesFailed
	}
	return instances[rand.IntN(len(instances))], nil
}

// Fetch GETs path from the first instance that answers with a 2xx.
func (s *InstanceSelector) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	instances, err := s.Instances(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, base := range instances {
		data, err := s.transport.Do(ctx, Request{Method: http.MethodGet, URL: base + path})
		if err == nil {
			return data, nil
		}

		var timeout *shared.TimeoutError
		switch {
		case errors.As(err, &timeout):
			return nil, err
		case errors.Is(err, context.Canceled):
			return nil, err
		case shared.StatusCode(err) == http.StatusTooManyRequests:
			s.logger.Debug("instance rate limited", "instance", base)
			continue
		}

		s.logger.Debug("instance failed", "instance", base, "error", err)
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, shared.ErrAllInstancesFailed
}
