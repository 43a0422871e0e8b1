// Package repositories implements SQLite persistence.
//
// The only persisted state is the settings override table managed by [SettingsRepository];
// everything else arrx knows is fetched live from the library managers and the streaming proxy.
package repositories
