package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/arrx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgUnsubscribed
	MsgOpened
	MsgRetried
	MsgSubmitted
	MsgDownloaded
)

// result carries the outcome of a workflow call made off the update loop.
type result struct {
	snapshot tasks.Snapshot
	text     string
	err      error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap tasks.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// unsubscribedMsg is the constructor for [MsgUnsubscribed]
func unsubscribedMsg() Msg {
	return Msg{kind: MsgUnsubscribed}
}

// callMsg is the constructor for [MsgOpened], [MsgRetried] and [MsgSubmitted]
func callMsg(kind MsgKind, snap tasks.Snapshot, err error) Msg {
	return Msg{kind: kind, data: result{snapshot: snap, err: err}}
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(text string, err error) Msg {
	return Msg{kind: MsgDownloaded, data: result{text: text, err: err}}
}
