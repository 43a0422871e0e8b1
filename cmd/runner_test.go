package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/services"
	"github.com/desertthunder/arrx/internal/settings"
	"github.com/desertthunder/arrx/internal/shared"
	tu "github.com/desertthunder/arrx/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			library := &fakeLibrary{}
			proxy := &fakeProxy{}
			store := settings.NewMapStore(nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Library:    library,
				Proxy:      proxy,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.configPinned {
				t.Error("expected a provided config to be pinned")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.library != library {
				t.Error("expected library to be set")
			}
			if runner.proxy != proxy {
				t.Error("expected proxy to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configPinned {
				t.Error("expected the default config to be replaceable by --config")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("Load", func(t *testing.T) {
		t.Run("reads the config flag", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "arrx.toml")
			content := "[radarr]\nurl = \"http://radarr:7878\"\n\n[log]\nlevel = \"debug\"\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			logger := shared.NewLogger(io.Discard)
			runner := NewRunner(RunnerOpts{Logger: logger, Output: &bytes.Buffer{}, Library: &fakeLibrary{}})
			if err := runApp(runner, "--config", path, "library", "metadata"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.configPath != path {
				t.Errorf("expected configPath %s, got %s", path, runner.configPath)
			}
			if runner.config.Radarr.URL != "http://radarr:7878" {
				t.Errorf("expected radarr url from file, got %q", runner.config.Radarr.URL)
			}
			if logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", logger.GetLevel())
			}
		})

		t.Run("missing file falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}, Library: &fakeLibrary{}})
			path := filepath.Join(t.TempDir(), "missing.toml")
			if err := runApp(runner, "-c", path, "library", "metadata"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Server.Port != shared.DefaultConfig().Server.Port {
				t.Error("expected default config")
			}
		})

		t.Run("invalid file fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			os.WriteFile(path, []byte("[radarr\n"), 0644)

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}, Library: &fakeLibrary{}})
			if err := runApp(runner, "-c", path, "library", "metadata"); err == nil {
				t.Fatal("expected an invalid config error")
			}
		})

		t.Run("debug flag wins", func(t *testing.T) {
			logger := shared.NewLogger(io.Discard)
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: logger, Output: &bytes.Buffer{}, Library: &fakeLibrary{}})
			if err := runApp(runner, "--debug", "library", "metadata"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", logger.GetLevel())
			}
		})
	})

	t.Run("lazy dependencies", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "arrx.db")
		config.Radarr.URL = "http://radarr:7878"
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
		defer runner.Close()

		if runner.overrides != nil || runner.db != nil {
			t.Fatal("expected no database before first use")
		}
		store, err := runner.settingsStore()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.Set(context.Background(), settings.URLKey("sonarr"), "http://sonarr:8989"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		values, err := store.(settings.Lister).All(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if values["radarrUrl"] != "http://radarr:7878" || values["sonarrUrl"] != "http://sonarr:8989" {
			t.Errorf("expected config and override layers, got %v", values)
		}

		library, err := runner.libraryClient()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if again, _ := runner.libraryClient(); again != library {
			t.Error("expected the library client to be built once")
		}
		if _, ok := library.(*services.LibraryClient); !ok {
			t.Errorf("expected a *services.LibraryClient, got %T", library)
		}

		proxy, err := runner.proxyService()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := proxy.(*services.ProxyService); !ok {
			t.Errorf("expected a *services.ProxyService, got %T", proxy)
		}

		if err := runner.Close(); err != nil {
			t.Errorf("expected clean close, got %v", err)
		}
		if err := runner.Close(); err != nil {
			t.Errorf("expected a second close to be a no-op, got %v", err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writeRaw", func(t *testing.T) {
		t.Run("compact passes bytes through", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writeRaw(json.RawMessage(`{"b":1,"a":2}`), false)
			if got := output.String(); got != `{"b":1,"a":2}`+"\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("pretty re-indents", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writeRaw(json.RawMessage(`{"a":[1]}`), true)
			if got := output.String(); !strings.Contains(got, "\n  \"a\": [") {
				t.Errorf("expected indented output, got %q", got)
			}
		})

		t.Run("non json is printed as is", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writeRaw(json.RawMessage(`not json`), true)
			if got := output.String(); got != "not json\n" {
				t.Errorf("unexpected output %q", got)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln pads with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next steps:")
			if result := output.String(); result != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, name := range []string{"add", "library", "proxy", "api", "settings", "serve", "open", "setup"} {
			if !names[name] {
				t.Errorf("expected %s to be registered", name)
			}
		}
	})
}
