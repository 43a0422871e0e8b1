package tasks

import (
	"fmt"

	"github.com/desertthunder/arrx/internal/models"
)

// ProgressUpdate represents a progress event during a batch download.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchAlbum Phase = iota
	FetchArtist
	ResolveTrack
	DownloadTrack
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchAlbum:
		return "fetch_album"
	case FetchArtist:
		return "fetch_artist"
	case ResolveTrack:
		return "resolve_track"
	case DownloadTrack:
		return "download_track"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchAlbumUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching album %s...", id),
	}
}

func fetchArtistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching discography for artist %s...", id),
	}
}

func foundAlbumUpdate(step, total int, album *models.Album) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found album: %s (%d tracks)", album.Title, len(album.Tracks)),
		Data:    album,
	}
}

func resolveTrackUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, tr.Title),
	}
}

func downloadedUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, path),
		Data:    path,
	}
}

func failedUpdate(step, total int, tr models.Track, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, tr.Title, err),
	}
}

func completeUpdate(result *models.BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Attempted,
		Total:   result.Attempted,
		Message: fmt.Sprintf("Downloaded %d of %d tracks", result.Succeeded, result.Attempted),
		Data:    result,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
