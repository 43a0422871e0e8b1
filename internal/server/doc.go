// Package server exposes the arrx message surface over local HTTP.
//
// # Messages
//
// Every inbound operation is a JSON [Message] with a type tag (GET_QUALITY_PROFILES, LOOKUP_MEDIA,
// MONOCHROME_SEARCH, ...). A [Dispatcher] routes it to the library client or the streaming proxy and always
// answers with a [models.Envelope]: {"success": true, "data": ...} or {"success": false, "error": "..."}.
// Go errors and panics never cross this boundary.
//
// Identifiers such as trackId may be sent as JSON strings or numbers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so "POST /message" answers GET with 405.
//
// # Handlers
//
//   - POST /message decodes one message and replies 200 with its envelope. Malformed JSON gets 400.
//   - GET /health reports {"status": "ok", "version": ...}.
//
// [NewHandler] assembles both behind request id, logging, panic recovery, per-client rate limiting and a
// body size cap. [Serve] runs the server until its context is cancelled and then shuts down within
// [ShutdownTimeout].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
