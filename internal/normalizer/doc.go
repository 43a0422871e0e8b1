// Package normalizer turns loosely-shaped streaming proxy responses into canonical entities.
//
// Proxy mirrors disagree on response shape: items may be a bare array, nested under "items",
// under "<kind>.items" or under some other key; payloads may or may not be wrapped in a
// {"version", "data"} envelope; ids may be numbers or strings. Every decoder here is tolerant:
// a field of the wrong type reads as its zero value instead of failing the whole response.
//
// Entry points:
//   - [ExtractItems] : locate the item list in a search response
//   - [Unwrap] : strip the data envelope
//   - [Track], [Release], [ArtistRef] : canonical entities from a single item
//   - [Artist], [Album] : artist and album detail pages
//   - [DedupReleases] : collapse duplicate album variants
//   - [ResolveStream] : decode a track manifest into a downloadable URL
package normalizer
