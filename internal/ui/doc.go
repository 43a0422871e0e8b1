// Package ui implements an interactive terminal interface for the add-to-library workflow using bubbletea's Elm
// architecture.
//
// The [Model] opens a session for one [models.MediaDescriptor] and renders whatever state the workflow reports:
//   - Loading: a spinner while profiles, folders and the lookup are fetched
//   - Ready: the add options as a list; ←/→ cycle a value, space toggles a checkbox, enter adds
//   - Submitting / Success: the add in flight, then a confirmation that closes on its own
//   - Error: the failure text, with r to retry
//   - Exists: the "already in" notice
//
// Music sessions also offer d to download the closest streaming proxy match.
//
// Snapshots flow from [tasks.Workflow.Subscribe] through a channel, so the view follows transitions the model did
// not start itself, like the delayed close after a successful add.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
