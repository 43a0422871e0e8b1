package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/repositories"
	"github.com/desertthunder/arrx/internal/server"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
	"github.com/desertthunder/arrx/internal/tasks"
)

// LibraryClient is everything the CLI asks of a library manager client. [services.LibraryClient] implements it.
type LibraryClient interface {
	server.LibraryAPI
	Lookup(ctx context.Context, kind models.Kind, term, imdbHint string) (*models.LookupResult, error)
	Call(ctx context.Context, kind models.Kind, method, path string, body any) (json.RawMessage, error)
}

// Mirrors lists and queries streaming proxy instances. [services.InstanceSelector] implements it.
type Mirrors interface {
	services.Fetcher
	Instances(ctx context.Context) ([]string, error)
	PickDefault(ctx context.Context) (string, error)
}

// Overrides is the writable settings layer. [repositories.SettingsRepository] implements it.
type Overrides interface {
	settings.Store
	settings.Lister
	Delete(ctx context.Context, key string) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built on first use from the loaded config.
type Runner struct {
	config       *shared.Config
	configPath   string
	configPinned bool
	db           *sql.DB
	overrides    Overrides
	store        settings.Store
	library      LibraryClient
	proxy        tasks.ProxyAPI
	mirrors      Mirrors
	downloads    services.Dispatcher
	httpClient   *http.Client
	logger       *log.Logger
	output       io.Writer
	input        io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // When set, the --config file is not read
	ConfigPath string
	Overrides  Overrides
	Store      settings.Store
	Library    LibraryClient
	Proxy      tasks.ProxyAPI
	Mirrors    Mirrors
	Downloads  services.Dispatcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	pinned := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		configPinned: pinned,
		overrides:    opts.Overrides,
		store:        opts.Store,
		library:      opts.Library,
		proxy:        opts.Proxy,
		mirrors:      opts.Mirrors,
		downloads:    opts.Downloads,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		input:        opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		addCommand, libraryCommand, proxyCommand, apiCommand, settingsCommand, serveCommand, openCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the config file named by --config and applies the log level. It runs before every command.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.configPinned {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) overrideStore() (Overrides, error) {
	if r.overrides != nil {
		return r.overrides, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	r.db = db
	r.overrides = repositories.NewSettingsRepository(db)
	return r.overrides, nil
}

// settingsStore layers database overrides on top of the config file.
func (r *Runner) settingsStore() (settings.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	overrides, err := r.overrideStore()
	if err != nil {
		return nil, err
	}
	r.store = settings.NewLayered(overrides, settings.FromConfig(r.config))
	return r.store, nil
}

func (r *Runner) transport() *services.Transport {
	return services.NewTransport(r.httpClient, services.DefaultTimeout, r.logger)
}

func (r *Runner) libraryClient() (LibraryClient, error) {
	if r.library != nil {
		return r.library, nil
	}

	store, err := r.settingsStore()
	if err != nil {
		return nil, err
	}
	r.library = services.NewLibraryClient(r.transport(), store, nil, shared.WithLogger(r.logger, "component", "library"))
	return r.library, nil
}

func (r *Runner) mirrorSelector() (Mirrors, error) {
	if r.mirrors != nil {
		return r.mirrors, nil
	}

	store, err := r.settingsStore()
	if err != nil {
		return nil, err
	}
	r.mirrors = services.NewInstanceSelector(r.transport(), store, nil, shared.WithLogger(r.logger, "component", "mirrors"))
	return r.mirrors, nil
}

func (r *Runner) proxyService() (tasks.ProxyAPI, error) {
	if r.proxy != nil {
		return r.proxy, nil
	}

	mirrors, err := r.mirrorSelector()
	if err != nil {
		return nil, err
	}
	store, err := r.settingsStore()
	if err != nil {
		return nil, err
	}
	r.proxy = services.NewProxyService(mirrors, store, shared.WithLogger(r.logger, "component", "proxy"))
	return r.proxy, nil
}

// downloader writes into dir, or the configured download directory when dir is empty.
func (r *Runner) downloader(dir string) services.Dispatcher {
	if r.downloads != nil {
		return r.downloads
	}
	if dir == "" {
		dir = r.config.Monochrome.DownloadDir
	}
	r.downloads = services.NewFileDispatcher(r.httpClient, dir, shared.WithLogger(r.logger, "component", "downloads"))
	return r.downloads
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeRaw prints a backend response verbatim, re-indented when pretty.
func (r *Runner) writeRaw(data json.RawMessage, pretty bool) error {
	if !pretty {
		return r.writePlain("%s\n", data)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return r.writePlain("%s\n", data)
	}
	return r.writeJSON(v, true)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// parseKind reads the service argument.
func parseKind(cmd *cli.Command) (models.Kind, error) {
	service := cmd.StringArg("service")
	if service == "" {
		return "", fmt.Errorf("%w: service (radarr, sonarr or lidarr)", shared.ErrMissingArgument)
	}
	kind, err := models.ParseKind(service)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return kind, nil
}
