package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/arrx/internal/shared"
	tu "github.com/desertthunder/arrx/internal/testing"
)

func TestFileDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fLaC audio"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "music")
		path, err := NewFileDispatcher(nil, dir, nil).Dispatch(ctx, server.URL+"/x.flac", "Radiohead - Airbag.flac")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != filepath.Join(dir, "Radiohead - Airbag.flac") {
			t.Errorf("unexpected path %s", path)
		}
		if got := tu.MustReadFile(t, path); got != "fLaC audio" {
			t.Errorf("unexpected content %q", got)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("temporary files left behind: %v", entries)
		}
	})

	t.Run("default filename", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("x"))
		}))
		defer server.Close()

		dir := t.TempDir()
		path, err := NewFileDispatcher(nil, dir, nil).Dispatch(ctx, server.URL, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, DefaultFilename))
		if filepath.Base(path) != DefaultFilename {
			t.Errorf("unexpected path %s", path)
		}
	})

	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		dir := t.TempDir()
		_, err := NewFileDispatcher(nil, dir, nil).Dispatch(ctx, server.URL, "a.flac")
		if shared.StatusCode(err) != http.StatusForbidden {
			t.Errorf("expected 403, got %v", err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("nothing should be written on failure, got %v", entries)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := NewFileDispatcher(nil, t.TempDir(), nil).Dispatch(ctx, "", "a.flac")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := NewFileDispatcher(client, t.TempDir(), nil).Dispatch(ctx, "http://cdn.invalid/x", "a.flac")
		if !errors.Is(err, shared.ErrNetworkUnreachable) {
			t.Errorf("expected ErrNetworkUnreachable, got %v", err)
		}
	})

	t.Run("body read failure removes the temp file", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}, nil)}
		dir := t.TempDir()
		if _, err := NewFileDispatcher(client, dir, nil).Dispatch(ctx, "http://cdn.invalid/x", "a.flac"); err == nil {
			t.Fatal("expected an error")
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("temporary files left behind: %v", entries)
		}
	})
}

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		in, want string
	}{
		{in: "AC/DC - Back In Black.flac", want: "AC_DC - Back In Black.flac"},
		{in: `What?: "Yes" <No>|*`, want: "What__ _Yes_ _No___"},
		{in: "  ..hidden.flac  ", want: "hidden.flac"},
		{in: "...", want: DefaultFilename},
		{in: "", want: DefaultFilename},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrackFilename(t *testing.T) {
	if got := TrackFilename("Radiohead", "Airbag"); got != "Radiohead - Airbag.flac" {
		t.Errorf("unexpected filename %q", got)
	}
	if got := TrackFilename("", ""); got != "Unknown - Unknown.flac" {
		t.Errorf("unexpected filename %q", got)
	}
	if got := TrackFilename("AC/DC", "T.N.T."); got != "AC_DC - T.N.T..flac" {
		t.Errorf("unexpected filename %q", got)
	}
}
