package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/shared"
)

// DefaultFilename is used when a download request names no file.
const DefaultFilename = "download.flac"

// Dispatcher hands a resolved stream URL to whatever stores the file.
type Dispatcher interface {
	Dispatch(ctx context.Context, url, filename string) (string, error)
}

// FileDispatcher streams downloads into a directory on disk.
type FileDispatcher struct {
	client *http.Client
	dir    string
	logger *log.Logger
}

// NewFileDispatcher creates a [FileDispatcher] writing into dir. A nil client uses [http.DefaultClient].
func NewFileDispatcher(client *http.Client, dir string, logger *log.Logger) *FileDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &FileDispatcher{client: client, dir: dir, logger: logger}
}

// Dispatch downloads url into the dispatcher's directory and returns the written path.
//
// The file is written to a temporary name and renamed once complete.
func (d *FileDispatcher) Dispatch(ctx context.Context, url, filename string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if filename == "" {
		filename = DefaultFilename
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	dest := filepath.Join(d.dir, SanitizeFilename(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", classify(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &shared.HTTPError{Status: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(d.dir, ".arrx-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Info("downloaded", "file", dest, "bytes", written)
	return dest, nil
}

var unsafeFilename = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
)

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(unsafeFilename.Replace(name))
	name = strings.Trim(name, ".")
	if name == "" {
		return DefaultFilename
	}
	return name
}

// TrackFilename builds "<artist> - <title>.flac".
func TrackFilename(artist, title string) string {
	if artist == "" {
		artist = "Unknown"
	}
	if title == "" {
		title = "Unknown"
	}
	return SanitizeFilename(artist + " - " + title + ".flac")
}
