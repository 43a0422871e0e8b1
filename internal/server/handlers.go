package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
)

// DefaultMaxBodySize caps inbound message bodies. ADD_MEDIA payloads are the largest at a few KB.
const DefaultMaxBodySize int64 = 1 << 20

func writeEnvelope(w http.ResponseWriter, status int, env models.Envelope) {
	data, err := shared.MarshalJSON(env, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

// MessageHandler serves POST /message.
//
// A decoded message is always answered with 200 and an envelope, including failures. Only bodies that are
// not JSON or are too large get a non-200 status.
type MessageHandler struct {
	dispatcher *Dispatcher
}

// NewMessageHandler creates a [MessageHandler] backed by dispatcher.
func NewMessageHandler(dispatcher *Dispatcher) *MessageHandler {
	return &MessageHandler{dispatcher: dispatcher}
}

func (h *MessageHandler) Routes() []string { return []string{"POST /message"} }

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	msg, err := DecodeMessage(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, http.StatusRequestEntityTooLarge, models.Fail("request body too large"))
			return
		}
		writeEnvelope(w, http.StatusBadRequest, models.Fail(shared.UserMessage(err)))
		return
	}
	writeEnvelope(w, http.StatusOK, h.dispatcher.Dispatch(r.Context(), msg))
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a [HealthHandler] reporting version.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

func (h *HealthHandler) Routes() []string { return []string{"GET /health"} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, models.OK(map[string]string{"status": "ok", "version": h.version}))
}

// HandlerOpts configures [NewHandler].
type HandlerOpts struct {
	Dispatcher        *Dispatcher
	Version           string
	Logger            *log.Logger
	RequestsPerMinute int   // Per client; zero disables rate limiting
	Burst             int   // Defaults to RequestsPerMinute
	MaxBodySize       int64 // Defaults to [DefaultMaxBodySize]
}

// NewHandler builds the router for the message server with its middleware stack.
//
// Middleware runs outermost first: request id, logging, recover, rate limit, body size.
func NewHandler(opts HandlerOpts) *BasicRouter {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Burst <= 0 {
		opts.Burst = opts.RequestsPerMinute
	}

	router := NewBasicRouter()
	router.Use(RequestID(), Logging(opts.Logger), Recover(opts.Logger))
	if opts.RequestsPerMinute > 0 {
		router.Use(NewIPRateLimiter(opts.RequestsPerMinute, opts.Burst).Middleware())
	}
	router.Use(MaxBodySize(opts.MaxBodySize))

	router.Handler(NewMessageHandler(opts.Dispatcher))
	router.Handler(NewHealthHandler(opts.Version))
	return router
}
