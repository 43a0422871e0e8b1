// Package models defines the domain types shared by the arrx services, tasks and presentation layers.
//
// The package contains three categories of types:
//
// 1. Library manager types: shapes exchanged with the Radarr/Sonarr/Lidarr REST APIs
//   - [Kind] : One of the three fixed library manager backends
//   - [ServiceCredential] : Base URL and API key for a backend
//   - [LookupResult] : A media search candidate, with [LookupResult.Exists] marking library membership
//   - [QualityProfile], [MetadataProfile], [RootFolder] : Selectable add options
//
// 2. Canonical music entities: normalized shapes produced from the streaming proxy's unstable JSON
//   - [Track], [Album], [Artist] : Only these shapes leave the normalizer
//   - [StreamInfo] : A resolved, directly downloadable stream URL with display metadata
//
// 3. Presentation contract types
//   - [MediaDescriptor] : What a page (or CLI invocation) wants added
//   - [Selection] : The options a user picked for an add
//   - [Envelope] : Uniform success/error response for inbound messages
//   - [BatchResult] : Summary of a best-effort bulk download
package models
