// package formatter exports streaming proxy albums to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/shared"
)

// Formats lists the export formats accepted by [Write].
var Formats = []string{"csv", "markdown", "text"}

// trackArtist falls back to the album artist for tracks without their own.
func trackArtist(album *models.Album, track models.Track) string {
	if track.ArtistName != "" {
		return track.ArtistName
	}
	return album.ArtistName
}

// AlbumToCSV converts an album's tracklist to CSV with columns: ID, Number, Title, Artist, Duration
func AlbumToCSV(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Number", "Title", "Artist", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range album.Tracks {
		record := []string{
			track.ID,
			strconv.Itoa(track.TrackNumber),
			track.Title,
			trackArtist(album, track),
			strconv.Itoa(track.DurationSeconds),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// AlbumToMarkdown converts an album to Markdown, with the cover image when coverFile is set
func AlbumToMarkdown(album *models.Album, coverFile string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", album.Title)

	if coverFile != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", coverFile)
	}

	if album.ArtistName != "" {
		fmt.Fprintf(&buf, "**Artist**: %s\n", album.ArtistName)
	}
	if album.Year != "" {
		fmt.Fprintf(&buf, "**Year**: %s\n", album.Year)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(album.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range album.Tracks {
		n := track.TrackNumber
		if n == 0 {
			n = i + 1
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", n, trackArtist(album, track), track.Title, shared.FormatDuration(track.DurationSeconds))
	}

	return buf.Bytes(), nil
}

// AlbumToText converts an album to plain text
func AlbumToText(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Album: %s\n", album.Title)
	if album.ArtistName != "" {
		fmt.Fprintf(&buf, "Artist: %s\n", album.ArtistName)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(album.Tracks))

	for i, track := range album.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, trackArtist(album, track), track.Title)
	}

	return buf.Bytes(), nil
}

// DownloadCover fetches a cover image and returns the raw bytes
func DownloadCover(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build cover request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download cover: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover data: %w", err)
	}
	return data, nil
}

// ToMetadataJSON renders album metadata without the tracklist
func ToMetadataJSON(album *models.Album) ([]byte, error) {
	meta := *album
	meta.Tracks = nil
	meta.TrackCount = len(album.Tracks)
	return shared.MarshalJSON(meta, true)
}

// Exporter writes album exports, downloading covers with its client.
type Exporter struct {
	client *http.Client
	logger *log.Logger
}

// NewExporter creates an [Exporter].
func NewExporter(client *http.Client, logger *log.Logger) *Exporter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Exporter{client: client, logger: logger}
}

// Write exports album in format under base and returns the files created.
//
// base defaults to "<artist> - <album>" in the working directory.
func (e *Exporter) Write(ctx context.Context, album *models.Album, format, base string) ([]string, error) {
	if base == "" {
		base = services.SanitizeFilename(first(album.ArtistName, "Unknown") + " - " + first(album.Title, album.ID))
	}

	switch format {
	case "csv":
		return WriteCSVExport(album, base)
	case "markdown", "md":
		return e.WriteMarkdownExport(ctx, album, base)
	case "text", "txt":
		path, err := WriteTextExport(album, base+".txt")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: export format %q (csv, markdown or text)", shared.ErrInvalidArgument, format)
	}
}

// WriteCSVExport writes {base}_tracks.csv and {base}_metadata.json.
func WriteCSVExport(album *models.Album, base string) ([]string, error) {
	csvData, err := AlbumToCSV(album)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := base + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(album)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := base + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return []string{tracksFile, metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md and, when the album has a cover URL, {dir}/cover.jpg.
//
// A cover that cannot be downloaded is logged and left out.
func (e *Exporter) WriteMarkdownExport(ctx context.Context, album *models.Album, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	var coverFile string
	if album.CoverURL != "" {
		if data, err := DownloadCover(ctx, e.client, album.CoverURL); err != nil {
			e.logger.Warn("skipping cover", "url", album.CoverURL, "error", err)
		} else {
			path := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				e.logger.Warn("failed to save cover", "path", path, "error", err)
			} else {
				coverFile = "cover.jpg"
				files = append(files, path)
			}
		}
	}

	mdData, err := AlbumToMarkdown(album, coverFile)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return append(files, mdFile), nil
}

// WriteTextExport writes the plain text tracklist to path.
func WriteTextExport(album *models.Album, path string) (string, error) {
	textData, err := AlbumToText(album)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
