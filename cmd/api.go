package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/arrx/internal/shared"
)

// apiPath reads the path argument, adding the leading slash if missing.
func apiPath(cmd *cli.Command) (string, error) {
	path := cmd.StringArg("path")
	if path == "" {
		return "", fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// APILibrary sends a request to a library manager's API, negotiating the API version, and prints the response.
func (r *Runner) APILibrary(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd)
	if err != nil {
		return err
	}
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}
	method := strings.ToUpper(cmd.String("method"))
	data := cmd.String("data")

	var body any
	if data != "" {
		if method == http.MethodGet {
			method = http.MethodPost
		}
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
		}
		body = json.RawMessage(data)
	}

	library, err := r.libraryClient()
	if err != nil {
		return err
	}

	r.logger.Info("library request", "service", kind, "method", method, "path", path)
	resp, err := library.Call(ctx, kind, method, path, body)
	if err != nil {
		return err
	}
	return r.writeRaw(resp, cmd.Bool("pretty"))
}

// APIProxy makes a direct GET request to the streaming proxy, failing over between instances.
func (r *Runner) APIProxy(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}
	mirrors, err := r.mirrorSelector()
	if err != nil {
		return err
	}

	r.logger.Info("proxy request", "path", path)
	resp, err := mirrors.Fetch(ctx, path)
	if err != nil {
		return err
	}
	return r.writeRaw(resp, cmd.Bool("pretty"))
}
