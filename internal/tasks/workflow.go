package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
)

// SuccessCloseDelay is how long a successful session stays open before it closes itself.
const SuccessCloseDelay = 2000 * time.Millisecond

// State is the phase of an add-to-library session.
type State int

const (
	Closed State = iota
	Loading
	Ready
	Submitting
	Success
	Error
	Exists
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	case Exists:
		return "exists"
	default:
		return ""
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LibraryAPI is the subset of [services.LibraryClient] the workflow drives.
type LibraryAPI interface {
	QualityProfiles(ctx context.Context, kind models.Kind) ([]models.QualityProfile, error)
	RootFolders(ctx context.Context, kind models.Kind) ([]models.RootFolder, error)
	MetadataProfiles(ctx context.Context, kind models.Kind) ([]models.MetadataProfile, error)
	Lookup(ctx context.Context, kind models.Kind, term, imdbHint string) (*models.LookupResult, error)
	Add(ctx context.Context, kind models.Kind, payload any) (json.RawMessage, error)
}

// ProxyAPI is the subset of [services.ProxyService] used for downloads.
type ProxyAPI interface {
	Search(ctx context.Context, query string, kind models.SearchKind) (*models.SearchResult, error)
	Download(ctx context.Context, trackID, quality string) (*models.StreamInfo, error)
	Album(ctx context.Context, id string) (*models.Album, error)
	Artist(ctx context.Context, id string) (*models.Artist, error)
}

// Stopper cancels a scheduled call.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f to run after d, like [time.AfterFunc].
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Options are the selectable add options loaded for a session.
type Options struct {
	QualityProfiles  []models.QualityProfile  `json:"qualityProfiles"`
	RootFolders      []models.RootFolder      `json:"rootFolders"`
	MetadataProfiles []models.MetadataProfile `json:"metadataProfiles,omitempty"`
	SeriesTypes      []string                 `json:"seriesTypes,omitempty"`
}

// Snapshot is an immutable view of the workflow that observers render from.
type Snapshot struct {
	SessionID  string                 `json:"sessionId,omitempty"`
	State      State                  `json:"state"`
	Message    string                 `json:"message,omitempty"`
	Descriptor models.MediaDescriptor `json:"descriptor"`
	Lookup     *models.LookupResult   `json:"lookup,omitempty"`
	Options    Options                `json:"options"`
	Selection  models.Selection       `json:"selection"`
}

// session is the single live add-to-library interaction.
type session struct {
	id         string
	descriptor models.MediaDescriptor
	state      State
	message    string
	lookup     *models.LookupResult
	options    Options
	selection  models.Selection
	closeTimer Stopper
}

// WorkflowOpts contains the optional collaborators of a [Workflow].
type WorkflowOpts struct {
	Proxy      ProxyAPI            // Streaming proxy; downloads are unavailable when nil
	Dispatcher services.Dispatcher // Receives resolved stream URLs
	Logger     *log.Logger
	AfterFunc  AfterFunc     // Defaults to time.AfterFunc
	CloseDelay time.Duration // Defaults to SuccessCloseDelay
}

// Workflow is the add-to-library state machine. At most one session is open at a time.
//
// Network calls run outside the lock; each completion re-checks the session id and is dropped if the
// session was closed or replaced in the meantime.
type Workflow struct {
	library    LibraryAPI
	settings   settings.Store
	proxy      ProxyAPI
	dispatcher services.Dispatcher
	logger     *log.Logger
	afterFunc  AfterFunc
	closeDelay time.Duration

	mu          sync.Mutex
	current     *session
	subscribers map[chan Snapshot]struct{}
}

// NewWorkflow creates a [Workflow].
func NewWorkflow(library LibraryAPI, store settings.Store, opts WorkflowOpts) *Workflow {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	if opts.CloseDelay <= 0 {
		opts.CloseDelay = SuccessCloseDelay
	}
	return &Workflow{
		library:     library,
		settings:    store,
		proxy:       opts.Proxy,
		dispatcher:  opts.Dispatcher,
		logger:      opts.Logger,
		afterFunc:   opts.AfterFunc,
		closeDelay:  opts.CloseDelay,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Subscribe returns a channel receiving a [Snapshot] on every transition, and a function that unsubscribes.
//
// Delivery never blocks the workflow: a subscriber that falls behind misses snapshots.
func (w *Workflow) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	w.mu.Lock()
	w.subscribers[ch] = struct{}{}
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subscribers, ch)
			w.mu.Unlock()
			close(ch)
		})
	}
}

// Snapshot returns the current view. With no open session the state is [Closed].
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	s := w.current
	if s == nil {
		return Snapshot{State: Closed}
	}
	return Snapshot{
		SessionID:  s.id,
		State:      s.state,
		Message:    s.message,
		Descriptor: s.descriptor,
		Lookup:     s.lookup,
		Options:    s.options,
		Selection:  s.selection,
	}
}

// publishLocked sends the current snapshot to every subscriber without blocking.
func (w *Workflow) publishLocked() Snapshot {
	snap := w.snapshotLocked()
	for ch := range w.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

// transitionLocked moves the session to state when it is still current.
func (w *Workflow) transitionLocked(id string, state State, message string) (*session, bool) {
	s := w.current
	if s == nil || s.id != id {
		return nil, false
	}
	s.state = state
	s.message = message
	return s, true
}

// Open closes any open session, starts a new one for d and loads its options.
//
// The returned snapshot reflects the session once loading has finished. When the session was closed or
// replaced while loading, the result is discarded and [shared.ErrNoSession] is returned.
func (w *Workflow) Open(ctx context.Context, d models.MediaDescriptor) (Snapshot, error) {
	if _, err := models.ParseKind(string(d.Kind)); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if d.LookupTerm == "" {
		return Snapshot{}, fmt.Errorf("%w: lookup term", shared.ErrMissingArgument)
	}
	if enabled, err := settings.Enabled(ctx, w.settings, d.Kind); err != nil {
		return Snapshot{}, err
	} else if !enabled {
		return Snapshot{}, fmt.Errorf("%w: %s", shared.ErrDisabled, d.Kind.Label())
	}

	w.mu.Lock()
	w.closeLocked()
	s := &session{id: shared.GenerateID(), descriptor: d, state: Loading}
	w.current = s
	w.publishLocked()
	w.mu.Unlock()

	w.logger.Debug("session opened", "session", s.id, "service", d.Kind, "term", d.LookupTerm)
	return w.loadOptions(ctx, s.id, d)
}

// Retry reloads the options of a session in [Error].
func (w *Workflow) Retry(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	s := w.current
	if s == nil {
		w.mu.Unlock()
		return Snapshot{State: Closed}, shared.ErrNoSession
	}
	if s.state != Error {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, fmt.Errorf("%w: retry from %s", shared.ErrInvalidTransition, s.state)
	}
	id, d := s.id, s.descriptor
	w.transitionLocked(id, Loading, "")
	w.publishLocked()
	w.mu.Unlock()

	return w.loadOptions(ctx, id, d)
}

// loadOptions fetches profiles, folders and the lookup candidate concurrently. All must succeed.
func (w *Workflow) loadOptions(ctx context.Context, id string, d models.MediaDescriptor) (Snapshot, error) {
	var (
		opts   Options
		lookup *models.LookupResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profiles, err := w.library.QualityProfiles(gctx, d.Kind)
		opts.QualityProfiles = profiles
		return err
	})
	g.Go(func() error {
		folders, err := w.library.RootFolders(gctx, d.Kind)
		opts.RootFolders = folders
		return err
	})
	g.Go(func() error {
		result, err := w.library.Lookup(gctx, d.Kind, d.LookupTerm, d.IDs.ImdbID)
		lookup = result
		return err
	})
	if d.Kind.NeedsMetadataProfile() {
		g.Go(func() error {
			profiles, err := w.library.MetadataProfiles(gctx, d.Kind)
			opts.MetadataProfiles = profiles
			return err
		})
	}
	if d.Kind == models.Sonarr {
		opts.SeriesTypes = models.SeriesTypes
	}

	err := g.Wait()
	if err == nil && lookup == nil {
		err = &services.LookupNotFoundError{Kind: d.Kind}
	}
	var defaults settings.Defaults
	if err == nil && !lookup.Exists() {
		defaults, err = settings.LoadDefaults(ctx, w.settings, d.Kind)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if _, ok := w.transitionLocked(id, Error, shared.UserMessage(err)); !ok {
			return Snapshot{}, w.stale(id)
		}
		w.logger.Warn("failed to load options", "session", id, "error", err)
		return w.publishLocked(), nil
	}

	s := w.current
	if s == nil || s.id != id {
		return Snapshot{}, w.stale(id)
	}
	s.lookup = lookup
	if lookup.Exists() {
		s.state = Exists
		s.message = fmt.Sprintf("%s is already in %s", displayName(*lookup, d), d.Kind.Label())
		return w.publishLocked(), nil
	}

	s.options = opts
	s.selection = defaultSelection(d.Kind, opts, defaults)
	s.state = Ready
	s.message = ""
	return w.publishLocked(), nil
}

func (w *Workflow) stale(id string) error {
	w.logger.Debug("discarding result for closed session", "session", id)
	return shared.ErrNoSession
}

// displayName prefers the lookup's artist name or title and falls back to the descriptor's year.
func displayName(lookup models.LookupResult, d models.MediaDescriptor) string {
	name := lookup.Name()
	if name == "" {
		return d.DisplayTitle()
	}
	year := d.Year
	if lookup.Year > 0 {
		year = fmt.Sprint(lookup.Year)
	}
	if year == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, year)
}

// defaultSelection picks the first option of each list, replaced by the pinned default when the loaded
// options contain it.
func defaultSelection(kind models.Kind, opts Options, defaults settings.Defaults) models.Selection {
	sel := models.Selection{Monitored: true, SearchOnAdd: true}

	if len(opts.QualityProfiles) > 0 {
		sel.QualityProfileID = opts.QualityProfiles[0].ID
	}
	if slices.ContainsFunc(opts.QualityProfiles, func(p models.QualityProfile) bool {
		return defaults.QualityProfileID > 0 && p.ID == defaults.QualityProfileID
	}) {
		sel.QualityProfileID = defaults.QualityProfileID
	}

	if len(opts.RootFolders) > 0 {
		sel.RootFolderPath = opts.RootFolders[0].Path
	}
	if slices.ContainsFunc(opts.RootFolders, func(f models.RootFolder) bool {
		return defaults.RootFolderPath != "" && f.Path == defaults.RootFolderPath
	}) {
		sel.RootFolderPath = defaults.RootFolderPath
	}

	switch kind {
	case models.Sonarr:
		sel.SeriesType = models.SeriesTypes[0]
		if slices.Contains(models.SeriesTypes, defaults.SeriesType) {
			sel.SeriesType = defaults.SeriesType
		}
	case models.Lidarr:
		if len(opts.MetadataProfiles) > 0 {
			sel.MetadataProfileID = opts.MetadataProfiles[0].ID
		}
		if slices.ContainsFunc(opts.MetadataProfiles, func(p models.MetadataProfile) bool {
			return defaults.MetadataProfileID > 0 && p.ID == defaults.MetadataProfileID
		}) {
			sel.MetadataProfileID = defaults.MetadataProfileID
		}
	}
	return sel
}

// Select replaces the user's add options. Only valid in [Ready].
func (w *Workflow) Select(sel models.Selection) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.current
	if s == nil {
		return Snapshot{State: Closed}, shared.ErrNoSession
	}
	if s.state != Ready {
		return w.snapshotLocked(), fmt.Errorf("%w: select from %s", shared.ErrInvalidTransition, s.state)
	}
	s.selection = sel
	return w.publishLocked(), nil
}

// Submit adds the looked-up media with the current selection. Only valid in [Ready]; anywhere else it
// changes nothing and returns [shared.ErrInvalidTransition].
//
// On success the session closes itself after the close delay.
func (w *Workflow) Submit(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	s := w.current
	if s == nil {
		w.mu.Unlock()
		return Snapshot{State: Closed}, shared.ErrNoSession
	}
	if s.state != Ready || s.lookup == nil {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, fmt.Errorf("%w: submit from %s", shared.ErrInvalidTransition, s.state)
	}
	id, kind, lookup, sel := s.id, s.descriptor.Kind, *s.lookup, s.selection
	w.transitionLocked(id, Submitting, "")
	w.publishLocked()
	w.mu.Unlock()

	payload, err := BuildPayload(kind, lookup, sel)
	if err == nil {
		_, err = w.library.Add(ctx, kind, payload)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if _, ok := w.transitionLocked(id, Error, shared.UserMessage(err)); !ok {
			return Snapshot{}, w.stale(id)
		}
		w.logger.Warn("add failed", "session", id, "service", kind, "error", err)
		return w.publishLocked(), nil
	}

	s, ok := w.transitionLocked(id, Success, fmt.Sprintf("Added to %s", kind.Label()))
	if !ok {
		return Snapshot{}, w.stale(id)
	}
	s.closeTimer = w.afterFunc(w.closeDelay, func() { w.closeSession(id) })
	w.logger.Info("added", "session", id, "service", kind, "title", lookup.Name())
	return w.publishLocked(), nil
}

// Download searches the streaming proxy for the media title, resolves the best hit and dispatches it.
// Only valid in [Ready] for music; the session state is left untouched and the returned text is meant
// for inline display.
func (w *Workflow) Download(ctx context.Context) (string, error) {
	w.mu.Lock()
	s := w.current
	if s == nil {
		w.mu.Unlock()
		return "", shared.ErrNoSession
	}
	state, d := s.state, s.descriptor
	w.mu.Unlock()

	if state != Ready || d.MediaType != models.Music {
		return "", fmt.Errorf("%w: download from %s %s", shared.ErrInvalidTransition, state, d.MediaType)
	}
	if w.proxy == nil || w.dispatcher == nil {
		return "", fmt.Errorf("%w: streaming proxy", shared.ErrNotConfigured)
	}
	if enabled, err := settings.Bool(ctx, w.settings, settings.MonochromeEnabled); err != nil {
		return "", err
	} else if !enabled {
		return "", fmt.Errorf("%w: streaming proxy", shared.ErrDisabled)
	}

	path, err := DownloadBestMatch(ctx, w.proxy, w.dispatcher, d.Title)
	if err != nil {
		w.logger.Warn("download failed", "title", d.Title, "error", err)
		return "Failed", err
	}
	return "Started! " + path, nil
}

// ErrTrackNotFound is returned when a proxy search has no track hits.
var ErrTrackNotFound = errors.New("track not found on the streaming proxy")

// DownloadBestMatch searches the proxy for title, resolves the closest track and dispatches it.
func DownloadBestMatch(ctx context.Context, proxy ProxyAPI, dispatcher services.Dispatcher, title string) (string, error) {
	result, err := proxy.Search(ctx, title, models.SearchTracks)
	if err != nil {
		return "", err
	}
	if len(result.Tracks) == 0 {
		return "", ErrTrackNotFound
	}

	track := BestMatch(title, result.Tracks)
	stream, err := proxy.Download(ctx, track.ID, "")
	if err != nil {
		return "", err
	}
	return dispatcher.Dispatch(ctx, stream.StreamURL, services.TrackFilename(stream.Artist, stream.Title))
}

// BestMatch returns the track whose title is the closest fuzzy match for title, or the first track when
// none match. Ties keep the earlier track.
func BestMatch(title string, tracks []models.Track) models.Track {
	targets := make([]string, len(tracks))
	for i, t := range tracks {
		targets[i] = t.Title
	}

	ranks := fuzzy.RankFindFold(title, targets)
	if len(ranks) == 0 {
		return tracks[0]
	}
	sort.Stable(ranks)
	return tracks[ranks[0].OriginalIndex]
}

// Close discards the open session. It is refused while an add is in flight.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return nil
	}
	if w.current.state == Submitting {
		return fmt.Errorf("%w: close while submitting", shared.ErrInvalidTransition)
	}
	w.closeLocked()
	w.publishLocked()
	return nil
}

// closeSession closes the session id if it is still current.
func (w *Workflow) closeSession(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil || w.current.id != id {
		return
	}
	w.closeLocked()
	w.publishLocked()
}

func (w *Workflow) closeLocked() {
	if w.current == nil {
		return
	}
	if w.current.closeTimer != nil {
		w.current.closeTimer.Stop()
	}
	w.logger.Debug("session closed", "session", w.current.id)
	w.current = nil
}
