package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/shared"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 15 * time.Second

// Request describes a single outbound JSON request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// Doer performs a [Request] and returns the decoded-later JSON body.
type Doer interface {
	Do(ctx context.Context, req Request) (json.RawMessage, error)
}

// Transport is a [Doer] over [http.Client] with a fixed per-request timeout and classified errors:
//   - [*shared.TimeoutError] when the timeout elapses
//   - [*shared.NetworkError] when no connection could be made
//   - [*shared.HTTPError] for non-2xx responses, carrying the server's message when it sent one
type Transport struct {
	client  *http.Client
	timeout time.Duration
	logger  *log.Logger
}

// NewTransport creates a [Transport]. A nil client uses [http.DefaultClient]; a zero timeout uses [DefaultTimeout].
func NewTransport(client *http.Client, timeout time.Duration, logger *log.Logger) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Transport{client: client, timeout: timeout, logger: logger}
}

// Do sends req and returns the response body. An empty 2xx body reads as JSON null.
func (t *Transport) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Debug("request failed", "method", method, "url", redact(req.URL), "elapsed", time.Since(start), "error", err)
		return nil, classify(ctx, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, req.URL, err)
	}
	t.logger.Debug("request", "method", method, "url", redact(req.URL), "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.HTTPError{Status: resp.StatusCode, Detail: errorDetail(resp.StatusCode, data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: response from %s is not valid JSON", shared.ErrHTTP, redact(req.URL))
	}
	return json.RawMessage(data), nil
}

// classify maps a client error onto the transport error taxonomy.
func classify(ctx context.Context, target string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &shared.TimeoutError{Target: host(target)}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &shared.TimeoutError{Target: host(target)}
	}
	return &shared.NetworkError{Err: err}
}

// errorDetail extracts a server-supplied message from an error body.
//
// JSON bodies yield "message", then the first element's "errorMessage", then "HTTP <status>".
// Non-JSON bodies yield "HTTP <status>: <status text>".
func errorDetail(status int, body []byte) string {
	if !json.Valid(body) {
		return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	var list []struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].ErrorMessage != "" {
		return list[0].ErrorMessage
	}
	return fmt.Sprintf("HTTP %d", status)
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

// redact drops the query string so search terms and tokens stay out of logs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
