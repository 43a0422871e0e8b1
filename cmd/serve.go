package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/server"
	"github.com/desertthunder/arrx/internal/shared"
)

// newDispatcher wires the message dispatcher to the library client, the streaming proxy and the download directory.
func (r *Runner) newDispatcher() (*server.Dispatcher, error) {
	library, err := r.libraryClient()
	if err != nil {
		return nil, err
	}
	proxy, err := r.proxyService()
	if err != nil {
		return nil, err
	}

	configPath := r.configPath
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}

	return server.NewDispatcher(server.DispatcherOpts{
		Library:    library,
		Proxy:      proxy,
		Downloads:  r.downloader(""),
		ConfigPath: configPath,
		Logger:     shared.WithLogger(r.logger, "component", "dispatcher"),
	}), nil
}

// Serve runs the message server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	dispatcher, err := r.newDispatcher()
	if err != nil {
		return err
	}

	handler := server.NewHandler(server.HandlerOpts{
		Dispatcher:        dispatcher,
		Version:           version,
		Logger:            shared.WithLogger(r.logger, "component", "server"),
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	srv := server.NewHTTPServer(cfg.Addr(), handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("Message server listening on http://%s (POST /message, GET /health)\n", cfg.Addr())
	r.writePlain("Press Ctrl+C to stop\n")
	return server.Serve(ctx, srv, r.logger)
}
