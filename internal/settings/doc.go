// Package settings exposes the flat key-value configuration surface shared by the CLI,
// the message server and the workflow.
//
// Keys keep their historical names (radarrUrl, sonarrApiKey, lidarrDefaultMetadataProfileId, ...)
// so exported settings files and stored overrides stay portable.
//
// Values resolve through a [Layered] store: runtime overrides persisted in SQLite first,
// then the values flattened from config.toml by [FromConfig].
package settings
