package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrNotConfigured = fmt.Errorf("not configured")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrDisabled      = fmt.Errorf("service disabled")

	// Transport errors
	ErrTimeout            = fmt.Errorf("request timed out")
	ErrNetworkUnreachable = fmt.Errorf("network unreachable")
	ErrHTTP               = fmt.Errorf("HTTP error")

	// Library manager errors
	ErrLookupNotFound = fmt.Errorf("lookup returned no results")

	// Streaming proxy errors
	ErrUnsupportedStreamFormat = fmt.Errorf("unsupported stream format")
	ErrStreamResolutionFailed  = fmt.Errorf("stream resolution failed")
	ErrAllInstancesFailed      = fmt.Errorf("all proxy instances failed")

	// Workflow errors
	ErrInvalidTransition = fmt.Errorf("invalid state transition")
	ErrNoSession         = fmt.Errorf("no open session")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// HTTPError is a non-2xx response from a backend or proxy instance.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is(err, ErrHTTP) match any [HTTPError].
func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

// IsNotFound reports whether err is an [HTTPError] with status 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// TimeoutError is returned when a request exceeds its deadline.
type TimeoutError struct {
	Target string
}

func (e *TimeoutError) Error() string {
	if e.Target == "" {
		return "Request timed out. Is the server running?"
	}
	return fmt.Sprintf("Request timed out connecting to %s. Is the server running?", e.Target)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// NetworkError is returned when a connection cannot be established at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "Cannot reach server. Check the URL and ensure the server is running."
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetworkUnreachable, e.Err} }

// NotConfiguredError names the service whose URL or API key is missing.
type NotConfiguredError struct {
	Service string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s is not configured. Please open settings (arrx settings import, or edit config.toml).", e.Service)
}

func (e *NotConfiguredError) Unwrap() error { return ErrNotConfigured }

// UserMessage renders err as the inline text shown to a user.
//
// Backend-reported messages are passed through verbatim; configuration and connectivity errors carry a hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var notConfigured *NotConfiguredError
	var timeout *TimeoutError
	var network *NetworkError
	switch {
	case errors.As(err, &notConfigured):
		return notConfigured.Error()
	case errors.As(err, &timeout):
		return timeout.Error()
	case errors.As(err, &network):
		return network.Error()
	case errors.Is(err, ErrNotConfigured):
		return err.Error() + ". Please open settings."
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	return err.Error()
}
