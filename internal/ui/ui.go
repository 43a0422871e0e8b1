package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/shared"
	"github.com/desertthunder/arrx/internal/tasks"
)

// Workflow is the add-to-library session the TUI drives. [tasks.Workflow] implements it.
type Workflow interface {
	Subscribe() (<-chan tasks.Snapshot, func())
	Open(ctx context.Context, d models.MediaDescriptor) (tasks.Snapshot, error)
	Retry(ctx context.Context) (tasks.Snapshot, error)
	Select(sel models.Selection) (tasks.Snapshot, error)
	Submit(ctx context.Context) (tasks.Snapshot, error)
	Download(ctx context.Context) (string, error)
	Close() error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	workflow    Workflow
	descriptor  models.MediaDescriptor
	updates     <-chan tasks.Snapshot
	unsubscribe func()
	snap        tasks.Snapshot
	seen        bool // a session snapshot has arrived
	notice      string
	downloading bool
	err         error
	width       int
	height      int
	fields      list.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model that opens a session for d when started.
//
// The model subscribes immediately so no transition is missed between construction and Init.
func NewModel(ctx context.Context, workflow Workflow, d models.MediaDescriptor) *Model {
	updates, unsubscribe := workflow.Subscribe()

	fields := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	fields.Title = "Add options"
	fields.SetFilteringEnabled(false)
	fields.SetShowStatusBar(false)
	fields.SetShowHelp(false)
	fields.KeyMap.Quit.SetEnabled(false)

	return &Model{
		ctx:         ctx,
		workflow:    workflow,
		descriptor:  d,
		updates:     updates,
		unsubscribe: unsubscribe,
		fields:      fields,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Err returns the error that ended the session early, if any.
func (m *Model) Err() error { return m.err }

// State returns the last workflow state the model rendered.
func (m *Model) State() tasks.State { return m.snap.State }

// Init opens the session and starts listening for transitions.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.open(), m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fields.SetSize(msg.Width-4, max(msg.Height-10, 4))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		snap := msg.data.(tasks.Snapshot)
		m.applySnapshot(snap)
		if snap.State == tasks.Closed && m.seen {
			return m, m.quit()
		}
		return m, m.waitForSnapshot()

	case MsgUnsubscribed:
		return m, tea.Quit

	case MsgOpened:
		res := msg.data.(result)
		if res.err != nil && !errors.Is(res.err, shared.ErrNoSession) {
			m.err = res.err
			return m, m.quit()
		}
		return m, nil

	case MsgRetried, MsgSubmitted:
		if res := msg.data.(result); res.err != nil && !errors.Is(res.err, shared.ErrNoSession) {
			m.notice = shared.UserMessage(res.err)
		}
		return m, nil

	case MsgDownloaded:
		res := msg.data.(result)
		m.downloading = false
		m.notice = res.text
		if res.err != nil {
			m.notice = fmt.Sprintf("%s: %s", res.text, shared.UserMessage(res.err))
		}
		return m, nil
	}
	return m, nil
}

// applySnapshot renders snap, keeping the highlighted option across updates.
func (m *Model) applySnapshot(snap tasks.Snapshot) {
	if snap.State != tasks.Closed {
		m.seen = true
	}
	if snap.State != m.snap.State {
		m.notice = ""
	}
	m.snap = snap
	if snap.State == tasks.Ready {
		cursor := m.fields.Index()
		m.fields.SetItems(fieldItems(snap))
		m.fields.Select(cursor)
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		_ = m.workflow.Close()
		return m, m.quit()
	}

	if key.Matches(msg, m.keys.quit, m.keys.close) {
		if err := m.workflow.Close(); err != nil {
			m.notice = "Still adding, please wait"
			return m, nil
		}
		return m, m.quit()
	}

	switch m.snap.State {
	case tasks.Ready:
		return m.handleReadyKeys(msg)
	case tasks.Error:
		if key.Matches(msg, m.keys.retry) {
			return m, m.retry()
		}
	}
	return m, nil
}

func (m *Model) handleReadyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.download):
		if m.snap.Descriptor.MediaType != models.Music || m.downloading {
			return m, nil
		}
		m.downloading = true
		m.notice = "Searching..."
		return m, m.download()
	case key.Matches(msg, m.keys.prev):
		return m, m.change(-1)
	case key.Matches(msg, m.keys.next), key.Matches(msg, m.keys.toggle):
		return m, m.change(1)
	}

	var cmd tea.Cmd
	m.fields, cmd = m.fields.Update(msg)
	return m, cmd
}

// change moves the highlighted option by delta and pushes the new selection to the workflow.
func (m *Model) change(delta int) tea.Cmd {
	item, ok := m.fields.SelectedItem().(fieldItem)
	if !ok {
		return nil
	}
	snap, err := m.workflow.Select(cycle(item.field, delta, m.snap.Selection, m.snap.Options))
	if err != nil {
		m.notice = shared.UserMessage(err)
		return nil
	}
	m.applySnapshot(snap)
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.unsubscribe()
	return tea.Quit
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return unsubscribedMsg()
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) open() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.workflow.Open(m.ctx, m.descriptor)
		return callMsg(MsgOpened, snap, err)
	}
}

func (m *Model) retry() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.workflow.Retry(m.ctx)
		return callMsg(MsgRetried, snap, err)
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.workflow.Submit(m.ctx)
		return callMsg(MsgSubmitted, snap, err)
	}
}

func (m *Model) download() tea.Cmd {
	return func() tea.Msg {
		text, err := m.workflow.Download(m.ctx)
		return downloadedMsg(text, err)
	}
}

// View renders the UI based on the current workflow state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %s", shared.UserMessage(m.err))) + "\n"
	}

	title := styles.title.Render(fmt.Sprintf("Add %s to %s", m.descriptor.DisplayTitle(), m.descriptor.Kind.Label()))

	var body string
	var helpKeys []key.Binding
	switch m.snap.State {
	case tasks.Closed, tasks.Loading:
		body = fmt.Sprintf("%s Loading options...", m.spinner.View())
		helpKeys = []key.Binding{m.keys.close}
	case tasks.Ready:
		body = m.fields.View()
		helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.prev, m.keys.next, m.keys.submit}
		if m.snap.Descriptor.MediaType == models.Music {
			helpKeys = append(helpKeys, m.keys.download)
		}
		helpKeys = append(helpKeys, m.keys.close)
	case tasks.Submitting:
		body = fmt.Sprintf("%s Adding to %s...", m.spinner.View(), m.descriptor.Kind.Label())
	case tasks.Success:
		body = styles.ok.Render("✓ " + m.snap.Message)
	case tasks.Error:
		body = styles.err.Render(m.snap.Message)
		helpKeys = []key.Binding{m.keys.retry, m.keys.close}
	case tasks.Exists:
		body = styles.warn.Render(m.snap.Message)
		helpKeys = []key.Binding{m.keys.close}
	}

	view := fmt.Sprintf("%s\n%s\n", title, body)
	if m.notice != "" {
		view += "\n" + styles.help.Render(m.notice) + "\n"
	}
	if len(helpKeys) > 0 {
		view += "\n" + m.help.ShortHelpView(helpKeys)
	}
	return view
}
