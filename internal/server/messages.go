package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/shared"
)

// Message types accepted by [Dispatcher.Dispatch].
const (
	GetQualityProfiles  = "GET_QUALITY_PROFILES"
	GetRootFolders      = "GET_ROOT_FOLDERS"
	GetMetadataProfiles = "GET_METADATA_PROFILES"
	LookupMedia         = "LOOKUP_MEDIA"
	AddMedia            = "ADD_MEDIA"
	TestConnection      = "TEST_CONNECTION"
	OpenOptions         = "OPEN_OPTIONS"
	MonochromeSearch    = "MONOCHROME_SEARCH"
	MonochromeDownload  = "MONOCHROME_DOWNLOAD"
	MonochromeArtist    = "MONOCHROME_ARTIST"
	MonochromeAlbum     = "MONOCHROME_ALBUM"
	TriggerDownload     = "TRIGGER_DOWNLOAD"
)

// MessageTypes lists every message type in the order they are documented.
var MessageTypes = []string{
	GetQualityProfiles, GetRootFolders, GetMetadataProfiles, LookupMedia, AddMedia, TestConnection,
	OpenOptions, MonochromeSearch, MonochromeDownload, MonochromeArtist, MonochromeAlbum, TriggerDownload,
}

// ID is a message identifier that may arrive as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Message is an inbound request. Only the fields its type needs are read.
type Message struct {
	Type       string          `json:"type"`
	Service    string          `json:"service,omitempty"`
	Term       string          `json:"term,omitempty"`
	ImdbID     string          `json:"imdbId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Query      string          `json:"query,omitempty"`
	SearchType string          `json:"searchType,omitempty"`
	TrackID    ID              `json:"trackId,omitempty"`
	Quality    string          `json:"quality,omitempty"`
	ArtistID   ID              `json:"artistId,omitempty"`
	AlbumID    ID              `json:"albumId,omitempty"`
	URL        string          `json:"url,omitempty"`
	Filename   string          `json:"filename,omitempty"`
}

// LibraryAPI is the subset of [services.LibraryClient] messages reach.
type LibraryAPI interface {
	QualityProfiles(ctx context.Context, kind models.Kind) ([]models.QualityProfile, error)
	RootFolders(ctx context.Context, kind models.Kind) ([]models.RootFolder, error)
	MetadataProfiles(ctx context.Context, kind models.Kind) ([]models.MetadataProfile, error)
	LookupRaw(ctx context.Context, kind models.Kind, term, imdbHint string) (json.RawMessage, error)
	Add(ctx context.Context, kind models.Kind, payload any) (json.RawMessage, error)
	TestConnection(ctx context.Context, kind models.Kind) (*models.ConnectionInfo, error)
}

// ProxyAPI is the subset of [services.ProxyService] messages reach.
type ProxyAPI interface {
	Search(ctx context.Context, query string, kind models.SearchKind) (*models.SearchResult, error)
	Download(ctx context.Context, trackID, quality string) (*models.StreamInfo, error)
	Artist(ctx context.Context, id string) (*models.Artist, error)
	Album(ctx context.Context, id string) (*models.Album, error)
}

// Dispatcher routes inbound messages to the library and proxy services.
type Dispatcher struct {
	library    LibraryAPI
	proxy      ProxyAPI
	downloads  services.Dispatcher
	configPath string
	logger     *log.Logger
}

// DispatcherOpts contains the collaborators of a [Dispatcher].
type DispatcherOpts struct {
	Library    LibraryAPI
	Proxy      ProxyAPI
	Downloads  services.Dispatcher
	ConfigPath string // Reported by OPEN_OPTIONS
	Logger     *log.Logger
}

// NewDispatcher creates a [Dispatcher].
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Dispatcher{
		library:    opts.Library,
		proxy:      opts.Proxy,
		downloads:  opts.Downloads,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
	}
}

// Dispatch handles msg and always answers with an [models.Envelope]. Failures, including panics, are
// flattened into the envelope's error text.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (env models.Envelope) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("panic dispatching message", "type", msg.Type, "panic", v)
			env = models.Fail(fmt.Sprintf("internal error handling %s", msg.Type))
		}
	}()

	data, err := d.dispatch(ctx, msg)
	if err != nil {
		d.logger.Debug("message failed", "type", msg.Type, "error", err)
		return models.Fail(shared.UserMessage(err))
	}
	return models.OK(data)
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) (any, error) {
	switch msg.Type {
	case GetQualityProfiles, GetRootFolders, GetMetadataProfiles, LookupMedia, AddMedia, TestConnection:
		if d.library == nil {
			return nil, fmt.Errorf("%w: library client", shared.ErrNotConfigured)
		}
		kind, err := models.ParseKind(msg.Service)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		return d.dispatchLibrary(ctx, kind, msg)
	case MonochromeSearch, MonochromeDownload, MonochromeArtist, MonochromeAlbum:
		if d.proxy == nil {
			return nil, fmt.Errorf("%w: streaming proxy", shared.ErrNotConfigured)
		}
		return d.dispatchProxy(ctx, msg)
	case TriggerDownload:
		if d.downloads == nil {
			return nil, fmt.Errorf("%w: download directory", shared.ErrNotConfigured)
		}
		path, err := d.downloads.Dispatch(ctx, msg.URL, msg.Filename)
		if err != nil {
			return nil, err
		}
		return map[string]string{"path": path}, nil
	case OpenOptions:
		return map[string]string{"configPath": d.configPath}, nil
	case "":
		return nil, fmt.Errorf("%w: message type", shared.ErrMissingArgument)
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", shared.ErrInvalidArgument, msg.Type)
	}
}

func (d *Dispatcher) dispatchLibrary(ctx context.Context, kind models.Kind, msg Message) (any, error) {
	switch msg.Type {
	case GetQualityProfiles:
		return d.library.QualityProfiles(ctx, kind)
	case GetRootFolders:
		return d.library.RootFolders(ctx, kind)
	case GetMetadataProfiles:
		return d.library.MetadataProfiles(ctx, kind)
	case LookupMedia:
		if msg.Term == "" {
			return nil, fmt.Errorf("%w: term", shared.ErrMissingArgument)
		}
		return d.library.LookupRaw(ctx, kind, msg.Term, msg.ImdbID)
	case AddMedia:
		if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
			return nil, fmt.Errorf("%w: payload", shared.ErrMissingArgument)
		}
		return d.library.Add(ctx, kind, msg.Payload)
	default:
		return d.library.TestConnection(ctx, kind)
	}
}

func (d *Dispatcher) dispatchProxy(ctx context.Context, msg Message) (any, error) {
	switch msg.Type {
	case MonochromeSearch:
		return d.proxy.Search(ctx, msg.Query, models.SearchKind(msg.SearchType))
	case MonochromeDownload:
		return d.proxy.Download(ctx, string(msg.TrackID), msg.Quality)
	case MonochromeArtist:
		return d.proxy.Artist(ctx, string(msg.ArtistID))
	default:
		return d.proxy.Album(ctx, string(msg.AlbumID))
	}
}

// DecodeMessage reads a single JSON message.
func DecodeMessage(r io.Reader) (Message, error) {
	var msg Message
	dec := json.NewDecoder(r)
	if err := dec.Decode(&msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return msg, nil
}
