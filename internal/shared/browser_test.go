package shared

import (
	"errors"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	t.Run("known platforms", func(t *testing.T) {
		for goos, bin := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"} {
			cmd, err := browserCommand(goos, "http://localhost:7878")
			if err != nil {
				t.Fatalf("%s: unexpected error %v", goos, err)
			}
			if cmd.Args[0] != bin {
				t.Errorf("%s: expected %s, got %s", goos, bin, cmd.Args[0])
			}
			if cmd.Args[len(cmd.Args)-1] != "http://localhost:7878" {
				t.Errorf("%s: url should be the last argument, got %v", goos, cmd.Args)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("http://localhost"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		if err := OpenBrowser(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
