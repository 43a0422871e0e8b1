// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/formatter"
)

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: pretty,
		},
	}
}

func serviceArg() cli.Argument {
	return &cli.StringArg{Name: "service", UsageText: "radarr, sonarr or lidarr"}
}

func descriptorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "imdb",
			Usage: "IMDb id (tt…); Radarr looks movies up by it",
		},
		&cli.StringFlag{
			Name:  "tmdb",
			Usage: "TMDB id",
		},
		&cli.StringFlag{
			Name:  "tvdb",
			Usage: "TVDB id",
		},
		&cli.StringFlag{
			Name:  "year",
			Usage: "Release year, shown next to the title",
		},
	}
}

// addCommand launches the interactive add-to-library flow.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Aliases:   []string{"tui", "ui"},
		Usage:     "Interactively add a movie, series or artist to its library manager",
		ArgsUsage: "<service> <title>",
		Arguments: []cli.Argument{serviceArg(), &cli.StringArg{Name: "title"}},
		Flags:     descriptorFlags(),
		Action:    r.TUI,
	}
}

// libraryCommand handles Radarr/Sonarr/Lidarr operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Library manager (Radarr, Sonarr, Lidarr) operations",
		Commands: []*cli.Command{
			{
				Name:      "test",
				Usage:     "Test the connection to one or every enabled service",
				ArgsUsage: "[service]",
				Arguments: []cli.Argument{serviceArg()},
				Flags:     outputFlags(false),
				Action:    r.LibraryTest,
			},
			{
				Name:      "profiles",
				Usage:     "List quality profiles",
				Arguments: []cli.Argument{serviceArg()},
				Flags:     outputFlags(false),
				Action:    r.LibraryProfiles,
			},
			{
				Name:      "folders",
				Usage:     "List root folders",
				Arguments: []cli.Argument{serviceArg()},
				Flags:     outputFlags(false),
				Action:    r.LibraryFolders,
			},
			{
				Name:   "metadata",
				Usage:  "List Lidarr metadata profiles",
				Flags:  outputFlags(false),
				Action: r.LibraryMetadata,
			},
			{
				Name:      "lookup",
				Usage:     "Look media up by term",
				ArgsUsage: "<service> <term>",
				Arguments: []cli.Argument{serviceArg(), &cli.StringArg{Name: "term"}},
				Flags: append(outputFlags(true), &cli.StringFlag{
					Name:  "imdb",
					Usage: "IMDb id to prefer for Radarr lookups",
				}),
				Action: r.LibraryLookup,
			},
			{
				Name:      "add",
				Usage:     "Add media without prompting, using configured defaults",
				ArgsUsage: "<service> <title>",
				Arguments: []cli.Argument{serviceArg(), &cli.StringArg{Name: "title"}},
				Flags: append(descriptorFlags(),
					&cli.IntFlag{
						Name:  "quality-profile",
						Usage: "Quality profile id",
					},
					&cli.StringFlag{
						Name:  "root-folder",
						Usage: "Root folder path",
					},
					&cli.IntFlag{
						Name:  "metadata-profile",
						Usage: "Metadata profile id (Lidarr)",
					},
					&cli.StringFlag{
						Name:  "series-type",
						Usage: "Series type (Sonarr): standard, daily or anime",
					},
					&cli.BoolFlag{
						Name:  "unmonitored",
						Usage: "Add without monitoring",
					},
					&cli.BoolFlag{
						Name:  "no-search",
						Usage: "Do not search for releases after adding",
					},
				),
				Action: r.LibraryAdd,
			},
		},
	}
}

// proxyCommand handles streaming proxy operations.
func proxyCommand(r *Runner) *cli.Command {
	batchFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory (default: monochrome.download_dir)",
			},
			&cli.StringFlag{
				Name:  "quality",
				Usage: "Stream quality (default: monochrome.quality)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Tracks resolved per second",
				Value: 2,
			},
		}
	}

	return &cli.Command{
		Name:    "proxy",
		Aliases: []string{"monochrome", "mono"},
		Usage:   "Streaming proxy search and downloads",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search tracks, albums or artists",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: append(outputFlags(false), &cli.StringFlag{
					Name:    "type",
					Aliases: []string{"t"},
					Usage:   "track, album or artist",
					Value:   "track",
				}),
				Action: r.ProxySearch,
			},
			{
				Name:      "stream",
				Usage:     "Resolve the stream URL of a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
				Flags: append(outputFlags(false),
					&cli.StringFlag{
						Name:  "quality",
						Usage: "Stream quality (default: monochrome.quality)",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Download the stream into the download directory",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Download directory (default: monochrome.download_dir)",
					},
				),
				Action: r.ProxyStream,
			},
			{
				Name:      "download",
				Usage:     "Download the best matching track for a title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Download directory (default: monochrome.download_dir)",
					},
				},
				Action: r.ProxyDownload,
			},
			{
				Name:      "artist",
				Usage:     "Show an artist and their albums",
				Arguments: []cli.Argument{&cli.StringArg{Name: "artist-id"}},
				Flags:     outputFlags(false),
				Action:    r.ProxyArtist,
			},
			{
				Name:      "album",
				Usage:     "Show an album and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "album-id"}},
				Flags: append(outputFlags(false),
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write the tracklist as " + strings.Join(formatter.Formats, ", "),
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Export base path (default: \"<artist> - <album>\")",
					},
				),
				Action: r.ProxyAlbum,
			},
			{
				Name:      "album-download",
				Aliases:   []string{"dl-album"},
				Usage:     "Download every track of an album",
				Arguments: []cli.Argument{&cli.StringArg{Name: "album-id"}},
				Flags:     batchFlags(),
				Action:    r.ProxyAlbumDownload,
			},
			{
				Name:      "discography",
				Aliases:   []string{"dl-artist"},
				Usage:     "Download every album of an artist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "artist-id"}},
				Flags:     batchFlags(),
				Action:    r.ProxyDiscography,
			},
			{
				Name:  "instances",
				Usage: "List proxy instances in the order they are tried",
				Flags: append(outputFlags(false), &cli.BoolFlag{
					Name:  "pick",
					Usage: "Print only the instance tried first",
				}),
				Action: r.ProxyInstances,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to a library manager or the streaming proxy, prints raw JSON",
		Commands: []*cli.Command{
			{
				Name:      "library",
				Usage:     "Call a library manager API path (relative to /api/<version>)",
				ArgsUsage: "<service> <path>",
				Arguments: []cli.Argument{serviceArg(), &cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "method",
						Aliases: []string{"X"},
						Usage:   "HTTP method",
						Value:   "GET",
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APILibrary,
			},
			{
				Name:      "proxy",
				Usage:     "GET a streaming proxy path, falling over between instances",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIProxy,
			},
		},
	}
}

// settingsCommand manages persisted setting overrides.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show and override settings (overrides are stored in the database)",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List effective settings",
				Flags: append(outputFlags(false), &cli.BoolFlag{
					Name:  "show-secrets",
					Usage: "Print API keys unmasked",
				}),
				Action: r.SettingsList,
			},
			{
				Name:      "get",
				Usage:     "Print one setting",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.SettingsGet,
			},
			{
				Name:      "set",
				Usage:     "Override a setting",
				ArgsUsage: "<key> <value>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}, &cli.StringArg{Name: "value"}},
				Action:    r.SettingsSet,
			},
			{
				Name:      "unset",
				Usage:     "Remove an override, falling back to the config file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.SettingsUnset,
			},
			{
				Name:      "import",
				Usage:     "Import overrides from a [radarr]/[sonarr]/[lidarr] key=value file (- for stdin)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Action:    r.SettingsImport,
			},
		},
	}
}

// serveCommand runs the local message server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local message server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}

// openCommand opens a service's web UI.
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a library manager's web UI in the browser",
		Arguments: []cli.Argument{serviceArg()},
		Action:    r.Open,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
		},
	}
}
