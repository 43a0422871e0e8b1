package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

type fakeLibrary struct {
	mu sync.Mutex

	profiles []models.QualityProfile
	folders  []models.RootFolder
	metadata []models.MetadataProfile
	lookup   *models.LookupResult

	profilesErr error
	foldersErr  error
	lookupErr   error
	metadataErr error
	addErr      error

	lookupGate chan struct{} // Lookup blocks until closed when set
	addGate    chan struct{} // Add blocks until closed when set

	metadataCalls int
	added         []any
}

func (f *fakeLibrary) QualityProfiles(context.Context, models.Kind) ([]models.QualityProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles, f.profilesErr
}

func (f *fakeLibrary) RootFolders(context.Context, models.Kind) ([]models.RootFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folders, f.foldersErr
}

func (f *fakeLibrary) MetadataProfiles(context.Context, models.Kind) ([]models.MetadataProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataCalls++
	return f.metadata, f.metadataErr
}

func (f *fakeLibrary) Lookup(context.Context, models.Kind, string, string) (*models.LookupResult, error) {
	if f.lookupGate != nil {
		<-f.lookupGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	result := *f.lookup
	return &result, nil
}

func (f *fakeLibrary) Add(_ context.Context, _ models.Kind, payload any) (json.RawMessage, error) {
	if f.addGate != nil {
		<-f.addGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, payload)
	return json.RawMessage(`{"id":1}`), nil
}

// fakeClock captures scheduled calls so tests can fire them on demand.
type fakeClock struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
	stopped int
}

type fakeTimer struct{ clock *fakeClock }

func (t fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.clock.stopped++
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	c.pending = append(c.pending, f)
	return fakeTimer{clock: c}
}

func (c *fakeClock) Fire() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

func newMatrixLibrary() *fakeLibrary {
	return &fakeLibrary{
		profiles: []models.QualityProfile{{ID: 1, Name: "Any"}, {ID: 5, Name: "HD-1080p"}},
		folders:  []models.RootFolder{{ID: 1, Path: "/data"}, {ID: 2, Path: "/movies"}},
		lookup:   &models.LookupResult{ID: 0, TmdbID: 603, Title: "The Matrix", Year: 1999},
	}
}

func matrixDescriptor() models.MediaDescriptor {
	return models.NewDescriptor(models.Radarr, "The Matrix", "1999", models.MediaIDs{ImdbID: "tt1234567"})
}

// waitFor reads snapshots until one reaches state or the deadline passes.
func waitFor(t *testing.T, ch <-chan Snapshot, state State) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.State == state {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", state)
			return Snapshot{}
		}
	}
}

func TestWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("adds a movie end to end", func(t *testing.T) {
		lib := newMatrixLibrary()
		clock := &fakeClock{}
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{AfterFunc: clock.AfterFunc})

		d := matrixDescriptor()
		if d.LookupTerm != "imdb:tt1234567" {
			t.Fatalf("unexpected lookup term %q", d.LookupTerm)
		}

		snap, err := w.Open(ctx, d)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if snap.State != Ready {
			t.Fatalf("expected ready, got %s (%s)", snap.State, snap.Message)
		}

		if _, err := w.Select(models.Selection{
			QualityProfileID: 5,
			RootFolderPath:   "/movies",
			Monitored:        true,
			SearchOnAdd:      true,
		}); err != nil {
			t.Fatalf("Select: %v", err)
		}

		snap, err = w.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if snap.State != Success {
			t.Fatalf("expected success, got %s (%s)", snap.State, snap.Message)
		}

		if len(lib.added) != 1 {
			t.Fatalf("expected one add call, got %d", len(lib.added))
		}
		data, _ := json.Marshal(lib.added[0])
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{
			"title":            "The Matrix",
			"tmdbId":           float64(603),
			"qualityProfileId": float64(5),
			"rootFolderPath":   "/movies",
			"monitored":        true,
			"addOptions":       map[string]any{"searchForMovie": true},
			"year":             float64(1999),
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("payload mismatch (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff([]time.Duration{2000 * time.Millisecond}, clock.delays); diff != "" {
			t.Errorf("auto close delay mismatch (-want +got):\n%s", diff)
		}
		clock.Fire()
		if state := w.Snapshot().State; state != Closed {
			t.Errorf("expected session to close itself, got %s", state)
		}
	})

	t.Run("existing media short circuits", func(t *testing.T) {
		lib := newMatrixLibrary()
		lib.lookup.ID = 42
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{})

		snap, err := w.Open(ctx, matrixDescriptor())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if snap.State != Exists {
			t.Fatalf("expected exists, got %s", snap.State)
		}
		if snap.Message != "The Matrix (1999) is already in Radarr" {
			t.Errorf("unexpected message %q", snap.Message)
		}

		if _, err := w.Submit(ctx); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if len(lib.added) != 0 {
			t.Errorf("submit must be a no-op, got %d adds", len(lib.added))
		}
		if state := w.Snapshot().State; state != Exists {
			t.Errorf("state changed to %s", state)
		}
	})

	t.Run("any load failure is an error and retry recovers", func(t *testing.T) {
		tc := []struct {
			name  string
			setup func(*fakeLibrary)
			want  string
		}{
			{
				name:  "profiles",
				setup: func(f *fakeLibrary) { f.profilesErr = &shared.HTTPError{Status: 401, Detail: "Unauthorized"} },
				want:  "Unauthorized",
			},
			{
				name:  "folders",
				setup: func(f *fakeLibrary) { f.foldersErr = &shared.NotConfiguredError{Service: "Radarr"} },
				want:  "Radarr is not configured. Please open settings (arrx settings import, or edit config.toml).",
			},
			{
				name:  "lookup",
				setup: func(f *fakeLibrary) { f.lookupErr = errors.New("Movie not found") },
				want:  "Movie not found",
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				lib := newMatrixLibrary()
				tt.setup(lib)
				w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{})

				snap, err := w.Open(ctx, matrixDescriptor())
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				if snap.State != Error || snap.Message != tt.want {
					t.Fatalf("expected error %q, got %s %q", tt.want, snap.State, snap.Message)
				}

				lib.mu.Lock()
				lib.profilesErr, lib.foldersErr, lib.lookupErr = nil, nil, nil
				lib.mu.Unlock()

				snap, err = w.Retry(ctx)
				if err != nil {
					t.Fatalf("Retry: %v", err)
				}
				if snap.State != Ready || snap.Message != "" {
					t.Errorf("expected ready after retry, got %s %q", snap.State, snap.Message)
				}
			})
		}
	})

	t.Run("retry and submit are guarded", func(t *testing.T) {
		w := NewWorkflow(newMatrixLibrary(), settings.NewMapStore(nil), WorkflowOpts{})
		if _, err := w.Retry(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("Retry without session: expected ErrNoSession, got %v", err)
		}
		if _, err := w.Submit(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("Submit without session: expected ErrNoSession, got %v", err)
		}

		if _, err := w.Open(ctx, matrixDescriptor()); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Retry(ctx); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("Retry from ready: expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("submit failure is recoverable", func(t *testing.T) {
		lib := newMatrixLibrary()
		lib.addErr = &shared.HTTPError{Status: 400, Detail: "This movie has already been added"}
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{})

		if _, err := w.Open(ctx, matrixDescriptor()); err != nil {
			t.Fatal(err)
		}
		snap, err := w.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if snap.State != Error || snap.Message != "This movie has already been added" {
			t.Errorf("unexpected snapshot %s %q", snap.State, snap.Message)
		}
		if snap, _ := w.Retry(ctx); snap.State != Ready {
			t.Errorf("expected ready after retry, got %s", snap.State)
		}
	})

	t.Run("pinned defaults apply only when offered", func(t *testing.T) {
		store := settings.NewMapStore(map[string]string{
			settings.DefaultQualityProfileKey(models.Radarr): "5",
			settings.DefaultRootFolderKey(models.Radarr):     "/gone",
		})
		w := NewWorkflow(newMatrixLibrary(), store, WorkflowOpts{})

		snap, err := w.Open(ctx, matrixDescriptor())
		if err != nil {
			t.Fatal(err)
		}
		want := models.Selection{QualityProfileID: 5, RootFolderPath: "/data", Monitored: true, SearchOnAdd: true}
		if diff := cmp.Diff(want, snap.Selection); diff != "" {
			t.Errorf("selection mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("lidarr loads metadata profiles", func(t *testing.T) {
		lib := &fakeLibrary{
			profiles: []models.QualityProfile{{ID: 1, Name: "Lossless"}},
			folders:  []models.RootFolder{{ID: 1, Path: "/music"}},
			metadata: []models.MetadataProfile{{ID: 1, Name: "Standard"}, {ID: 3, Name: "Everything"}},
			lookup:   &models.LookupResult{ArtistName: "Radiohead", ForeignArtistID: "a74b1b7f"},
		}
		store := settings.NewMapStore(map[string]string{settings.LidarrDefaultMetadataProfileID: "3"})
		w := NewWorkflow(lib, store, WorkflowOpts{})

		snap, err := w.Open(ctx, models.NewDescriptor(models.Lidarr, "Radiohead", "", models.MediaIDs{}))
		if err != nil {
			t.Fatal(err)
		}
		if lib.metadataCalls != 1 {
			t.Errorf("expected one metadata profile call, got %d", lib.metadataCalls)
		}
		if snap.State != Ready || snap.Selection.MetadataProfileID != 3 {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		if len(snap.Options.MetadataProfiles) != 2 {
			t.Errorf("metadata profiles missing from options: %+v", snap.Options)
		}

		lib.metadataErr = errors.New("metadata down")
		snap, _ = w.Open(ctx, models.NewDescriptor(models.Lidarr, "Radiohead", "", models.MediaIDs{}))
		if snap.State != Error || snap.Message != "metadata down" {
			t.Errorf("metadata failure must fail the load, got %s %q", snap.State, snap.Message)
		}
	})

	t.Run("sonarr series type defaults", func(t *testing.T) {
		tc := []struct {
			pinned string
			want   string
		}{
			{pinned: "", want: "standard"},
			{pinned: "anime", want: "anime"},
			{pinned: "weekly", want: "standard"},
		}
		for _, tt := range tc {
			lib := &fakeLibrary{
				profiles: []models.QualityProfile{{ID: 2, Name: "HD"}},
				folders:  []models.RootFolder{{ID: 1, Path: "/tv"}},
				lookup:   &models.LookupResult{Title: "Severance", TvdbID: 371980},
			}
			store := settings.NewMapStore(map[string]string{settings.SonarrDefaultSeriesType: tt.pinned})
			snap, err := NewWorkflow(lib, store, WorkflowOpts{}).
				Open(ctx, models.NewDescriptor(models.Sonarr, "Severance", "2022", models.MediaIDs{}))
			if err != nil {
				t.Fatal(err)
			}
			if snap.Selection.SeriesType != tt.want {
				t.Errorf("pinned %q: expected %q, got %q", tt.pinned, tt.want, snap.Selection.SeriesType)
			}
			if lib.metadataCalls != 0 {
				t.Errorf("sonarr must not load metadata profiles")
			}
		}
	})

	t.Run("disabled service", func(t *testing.T) {
		store := settings.NewMapStore(map[string]string{settings.EnabledKey(models.Radarr): "false"})
		_, err := NewWorkflow(newMatrixLibrary(), store, WorkflowOpts{}).Open(ctx, matrixDescriptor())
		if !errors.Is(err, shared.ErrDisabled) {
			t.Errorf("expected ErrDisabled, got %v", err)
		}
	})

	t.Run("invalid descriptors", func(t *testing.T) {
		w := NewWorkflow(newMatrixLibrary(), settings.NewMapStore(nil), WorkflowOpts{})
		if _, err := w.Open(ctx, models.MediaDescriptor{Kind: "plex", LookupTerm: "x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := w.Open(ctx, models.MediaDescriptor{Kind: models.Radarr}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("results for a closed session are discarded", func(t *testing.T) {
		lib := newMatrixLibrary()
		lib.lookupGate = make(chan struct{})
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{})
		updates, unsubscribe := w.Subscribe()
		defer unsubscribe()

		done := make(chan error, 1)
		go func() {
			_, err := w.Open(ctx, matrixDescriptor())
			done <- err
		}()

		waitFor(t, updates, Loading)
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		close(lib.lookupGate)

		if err := <-done; !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
		if state := w.Snapshot().State; state != Closed {
			t.Errorf("stale result leaked into state %s", state)
		}
	})

	t.Run("opening replaces the previous session", func(t *testing.T) {
		lib := newMatrixLibrary()
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{})

		first, _ := w.Open(ctx, matrixDescriptor())
		second, _ := w.Open(ctx, models.NewDescriptor(models.Radarr, "The Matrix Reloaded", "2003", models.MediaIDs{}))
		if first.SessionID == second.SessionID || first.SessionID == "" {
			t.Errorf("expected a fresh session id, got %q and %q", first.SessionID, second.SessionID)
		}
		if w.Snapshot().Descriptor.Title != "The Matrix Reloaded" {
			t.Errorf("unexpected current session %+v", w.Snapshot().Descriptor)
		}
	})

	t.Run("close is refused while submitting", func(t *testing.T) {
		lib := newMatrixLibrary()
		lib.addGate = make(chan struct{})
		w := NewWorkflow(lib, settings.NewMapStore(nil), WorkflowOpts{AfterFunc: (&fakeClock{}).AfterFunc})
		if _, err := w.Open(ctx, matrixDescriptor()); err != nil {
			t.Fatal(err)
		}
		updates, unsubscribe := w.Subscribe()
		defer unsubscribe()

		done := make(chan Snapshot, 1)
		go func() {
			snap, _ := w.Submit(ctx)
			done <- snap
		}()

		waitFor(t, updates, Submitting)
		if err := w.Close(); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		close(lib.addGate)

		if snap := <-done; snap.State != Success {
			t.Errorf("expected success, got %s", snap.State)
		}
		if err := w.Close(); err != nil {
			t.Errorf("close after success: %v", err)
		}
	})

	t.Run("subscribers see every transition", func(t *testing.T) {
		w := NewWorkflow(newMatrixLibrary(), settings.NewMapStore(nil), WorkflowOpts{})
		updates, unsubscribe := w.Subscribe()

		if _, err := w.Open(ctx, matrixDescriptor()); err != nil {
			t.Fatal(err)
		}
		w.Close()
		unsubscribe()

		var states []State
		for snap := range updates {
			states = append(states, snap.State)
		}
		if diff := cmp.Diff([]State{Loading, Ready, Closed}, states); diff != "" {
			t.Errorf("transitions mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestWorkflowDownload(t *testing.T) {
	ctx := context.Background()
	lidarr := func() *fakeLibrary {
		return &fakeLibrary{
			profiles: []models.QualityProfile{{ID: 1, Name: "Lossless"}},
			folders:  []models.RootFolder{{ID: 1, Path: "/music"}},
			metadata: []models.MetadataProfile{{ID: 1, Name: "Standard"}},
			lookup:   &models.LookupResult{ArtistName: "Radiohead"},
		}
	}

	t.Run("downloads the closest hit", func(t *testing.T) {
		proxy := &fakeProxy{
			search: &models.SearchResult{Tracks: []models.Track{
				{ID: "1", Title: "Creep (Acoustic)"},
				{ID: "2", Title: "Creep"},
			}},
			streams: map[string]*models.StreamInfo{
				"2": {StreamURL: "https://cdn/2.flac", Artist: "Radiohead", Title: "Creep"},
			},
		}
		dispatcher := &fakeDispatcher{}
		w := NewWorkflow(lidarr(), settings.NewMapStore(nil), WorkflowOpts{Proxy: proxy, Dispatcher: dispatcher})

		if _, err := w.Open(ctx, models.NewDescriptor(models.Lidarr, "Creep", "", models.MediaIDs{})); err != nil {
			t.Fatal(err)
		}
		text, err := w.Download(ctx)
		if err != nil {
			t.Fatalf("Download: %v", err)
		}
		if text != "Started! /music/Radiohead - Creep.flac" {
			t.Errorf("unexpected status %q", text)
		}
		if diff := cmp.Diff([]string{"https://cdn/2.flac"}, dispatcher.urls); diff != "" {
			t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
		}
		if state := w.Snapshot().State; state != Ready {
			t.Errorf("download must not change state, got %s", state)
		}
	})

	t.Run("no hits", func(t *testing.T) {
		proxy := &fakeProxy{search: &models.SearchResult{}}
		w := NewWorkflow(lidarr(), settings.NewMapStore(nil), WorkflowOpts{Proxy: proxy, Dispatcher: &fakeDispatcher{}})
		w.Open(ctx, models.NewDescriptor(models.Lidarr, "Creep", "", models.MediaIDs{}))

		text, err := w.Download(ctx)
		if !errors.Is(err, ErrTrackNotFound) || text != "Failed" {
			t.Errorf("expected ErrTrackNotFound, got %q %v", text, err)
		}
		if state := w.Snapshot().State; state != Ready {
			t.Errorf("failed download must not change state, got %s", state)
		}
	})

	t.Run("only music in ready", func(t *testing.T) {
		w := NewWorkflow(newMatrixLibrary(), settings.NewMapStore(nil), WorkflowOpts{Proxy: &fakeProxy{}, Dispatcher: &fakeDispatcher{}})
		if _, err := w.Download(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
		w.Open(ctx, matrixDescriptor())
		if _, err := w.Download(ctx); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("movie download: expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("proxy disabled", func(t *testing.T) {
		store := settings.NewMapStore(map[string]string{settings.MonochromeEnabled: "false"})
		w := NewWorkflow(lidarr(), store, WorkflowOpts{Proxy: &fakeProxy{}, Dispatcher: &fakeDispatcher{}})
		w.Open(ctx, models.NewDescriptor(models.Lidarr, "Creep", "", models.MediaIDs{}))
		if _, err := w.Download(ctx); !errors.Is(err, shared.ErrDisabled) {
			t.Errorf("expected ErrDisabled, got %v", err)
		}
	})
}

func TestBestMatch(t *testing.T) {
	tracks := []models.Track{
		{ID: "1", Title: "Paranoid Android (Live)"},
		{ID: "2", Title: "Paranoid Android"},
		{ID: "3", Title: "Paranoid Android"},
	}

	tc := []struct {
		name  string
		title string
		want  string
	}{
		{name: "closest wins, ties keep the earliest", title: "Paranoid Android", want: "2"},
		{name: "case is ignored", title: "paranoid android (live)", want: "1"},
		{name: "no match falls back to the first", title: "Karma Police", want: "1"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestMatch(tt.title, tracks); got.ID != tt.want {
				t.Errorf("BestMatch(%q) = %s, want %s", tt.title, got.ID, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	data, err := json.Marshal(Snapshot{State: Exists})
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		State string `json:"state"`
	}
	json.Unmarshal(data, &got)
	if got.State != "exists" {
		t.Errorf("expected state to marshal as text, got %s", data)
	}
	if State(99).String() != "" {
		t.Error("unknown states should render empty")
	}
}
