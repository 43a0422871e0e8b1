package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
	tu "github.com/desertthunder/arrx/internal/testing"
)

// scriptedDoer answers each base URL with a fixed result and records the order of attempts.
type scriptedDoer struct {
	mu       sync.Mutex
	results  map[string]error
	bodies   map[string]string
	attempts []string
}

func (s *scriptedDoer) Do(_ context.Context, req Request) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, req.URL)
	for prefix, err := range s.results {
		if len(req.URL) >= len(prefix) && req.URL[:len(prefix)] == prefix {
			if err != nil {
				return nil, err
			}
			return json.RawMessage(s.bodies[prefix]), nil
		}
	}
	return nil, &shared.NetworkError{Err: errors.New("no route")}
}

func TestInstanceSelector(t *testing.T) {
	ctx := context.Background()
	mirrors := []string{"https://a", "https://b", "https://c"}
	empty := settings.NewMapStore(nil)

	t.Run("first success wins", func(t *testing.T) {
		doer := &scriptedDoer{
			results: map[string]error{"https://a": nil},
			bodies:  map[string]string{"https://a": `{"ok":true}`},
		}
		got, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/search/?s=x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"ok":true}` {
			t.Errorf("unexpected body %s", got)
		}
		if diff := cmp.Diff([]string{"https://a/search/?s=x"}, doer.attempts); diff != "" {
			t.Errorf("attempts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("429 then success", func(t *testing.T) {
		doer := &scriptedDoer{
			results: map[string]error{"https://a": &shared.HTTPError{Status: 429}, "https://b": nil},
			bodies:  map[string]string{"https://b": `[]`},
		}
		if _, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doer.attempts) != 2 {
			t.Errorf("expected 2 attempts, got %v", doer.attempts)
		}
	})

	t.Run("only 429s is all instances failed", func(t *testing.T) {
		doer := &scriptedDoer{results: map[string]error{
			"https://a": &shared.HTTPError{Status: 429},
			"https://b": &shared.HTTPError{Status: 429},
			"https://c": &shared.HTTPError{Status: 429},
		}}
		_, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/x")
		if !errors.Is(err, shared.ErrAllInstancesFailed) {
			t.Errorf("expected ErrAllInstancesFailed, got %v", err)
		}
	})

	t.Run("last recorded error is returned", func(t *testing.T) {
		doer := &scriptedDoer{results: map[string]error{
			"https://a": &shared.HTTPError{Status: 500},
			"https://b": &shared.HTTPError{Status: 503},
			"https://c": &shared.HTTPError{Status: 429},
		}}
		_, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/x")
		if shared.StatusCode(err) != 503 {
			t.Errorf("expected the 503, got %v", err)
		}
		if len(doer.attempts) != 3 {
			t.Errorf("expected 3 attempts, got %v", doer.attempts)
		}
	})

	t.Run("timeout aborts", func(t *testing.T) {
		doer := &scriptedDoer{results: map[string]error{
			"https://a": &shared.TimeoutError{Target: "https://a"},
			"https://b": nil,
		}}
		_, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/x")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if len(doer.attempts) != 1 {
			t.Errorf("timeout must not try further instances, got %v", doer.attempts)
		}
	})

	t.Run("network errors continue", func(t *testing.T) {
		doer := &scriptedDoer{
			results: map[string]error{"https://c": nil},
			bodies:  map[string]string{"https://c": `{}`},
		}
		if _, err := NewInstanceSelector(doer, empty, mirrors, nil).Fetch(ctx, "/x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doer.attempts) != 3 {
			t.Errorf("expected 3 attempts, got %v", doer.attempts)
		}
	})

	t.Run("override replaces the list", func(t *testing.T) {
		doer := &scriptedDoer{results: map[string]error{"https://mine": &shared.HTTPError{Status: 502}}}
		store := settings.NewMapStore(map[string]string{settings.MonochromeInstanceURL: "https://mine//"})
		sel := NewInstanceSelector(doer, store, mirrors, nil)

		_, err := sel.Fetch(ctx, "/x")
		if shared.StatusCode(err) != 502 {
			t.Errorf("expected the override's 502, got %v", err)
		}
		if diff := cmp.Diff([]string{"https://mine/x"}, doer.attempts); diff != "" {
			t.Errorf("attempts mismatch (-want +got):\n%s", diff)
		}

		picked, _ := sel.PickDefault(ctx)
		if picked != "https://mine" {
			t.Errorf("expected override to be picked, got %q", picked)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		sel := NewInstanceSelector(&scriptedDoer{}, empty, nil, nil)
		got, _ := sel.Instances(ctx)
		if len(got) != 14 || got[0] != "https://eu-central.monochrome.tf" || got[13] != "https://tidal.kinoplus.online" {
			t.Errorf("unexpected default list %v", got)
		}

		picked, err := sel.PickDefault(ctx)
		if err != nil || !slices.Contains(DefaultInstances, picked) {
			t.Errorf("PickDefault returned %q, %v", picked, err)
		}
	})
}

func TestInstanceSelectorOverHTTP(t *testing.T) {
	rt := &tu.RecordingRoundTripper{Handler: func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "a.example" {
			return tu.JSONResponse(http.StatusBadGateway, `{"error":"upstream"}`), nil
		}
		return tu.JSONResponse(http.StatusOK, `{"version":"2.0"}`), nil
	}}
	transport := NewTransport(&http.Client{Transport: rt}, DefaultTimeout, nil)
	selector := NewInstanceSelector(transport, settings.NewMapStore(nil), []string{"https://a.example", "https://b.example"}, nil)

	got, err := selector.Fetch(context.Background(), "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"version":"2.0"}` {
		t.Errorf("unexpected body %s", got)
	}
	if diff := cmp.Diff([]string{"https://a.example/", "https://b.example/"}, rt.URLs()); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
}
