// Package tasks drives the multi-step operations of arrx.
//
// # Add-to-library workflow
//
// [Workflow] is an explicit state machine. Observers render from it and never feed state back:
//
//	Open → Loading → Ready → Submitting → Success (closes itself after 2s)
//	                   │          └──────→ Error ──Retry──→ Loading
//	                   └── Loading → Exists (closed manually)
//
// Loading fetches quality profiles, root folders and the lookup candidate concurrently (plus metadata
// profiles for Lidarr). Any failure moves the session to [Error]; a candidate with a positive id moves it
// to [Exists]. Otherwise pinned defaults are applied when the loaded options contain them.
//
// At most one session is open. Results that arrive for a closed or replaced session are dropped.
//
// # Batch downloads
//
// [BatchDownloader] walks an album or a whole discography track by track, paced by a rate limiter.
// Every track failure is recorded in a [models.BatchResult] and the batch keeps going.
//
// # Progress Reporting
//
// Batch operations send [ProgressUpdate] values on a caller-supplied channel. Updates use select with
// default so a slow reader never blocks a download.
package tasks
