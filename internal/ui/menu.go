package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages exchanged between the menu and its commands
type (
	rowsMsg struct {
		rows []session.Row
		err  error
		note string
	}

	switchedMsg struct {
		row session.Row
		err error
	}

	settledMsg struct{}

	// StoreChangedMsg tells the menu the config document changed on disk
	StoreChangedMsg struct{}
)

// MenuOptions configures the switch menu
type MenuOptions struct {
	// Settle is how long to wait after a switch before rescanning
	Settle time.Duration
	// Changes delivers a value each time the config document is saved by
	// any process. Nil disables live reload.
	Changes <-chan struct{}
}

// MenuModel is the terminal quick-switch menu. Only one command touches the
// session at a time; keys that need it are ignored while busy.
type MenuModel struct {
	session *session.Session
	keys    KeyMap
	spinner spinner.Model
	opts    MenuOptions

	rows   []session.Row
	cursor int
	loaded bool

	busy          bool
	pendingReload bool

	message     string
	messageType string // "info", "error", "success"
}

// NewMenuModel creates a menu over s
func NewMenuModel(s *session.Session, opts MenuOptions) *MenuModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return &MenuModel{
		session: s,
		keys:    DefaultKeyMap(),
		spinner: sp,
		opts:    opts,
		cursor:  -1,
		busy:    true,
	}
}

// Init starts the first scan
func (m *MenuModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(false), m.waitForChange())
}

// Update handles messages for the menu
func (m *MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rowsMsg:
		m.busy = false
		m.loaded = true
		m.setRows(msg.rows)
		switch {
		case msg.err != nil:
			m.SetMessage("error", fmt.Sprintf("Could not save config: %v", msg.err))
		case msg.note != "":
			m.SetMessage("info", msg.note)
		}
		if m.pendingReload {
			m.pendingReload = false
			m.busy = true
			return m, m.load(true)
		}

	case switchedMsg:
		if msg.err != nil {
			m.busy = false
			m.SetMessage("error", fmt.Sprintf("Switch failed: %v", msg.err))
			return m, nil
		}
		m.SetMessage("success", fmt.Sprintf("Switched %s to %s", msg.row.Monitor, msg.row.Label))
		if m.opts.Settle > 0 {
			return m, tea.Tick(m.opts.Settle, func(time.Time) tea.Msg { return settledMsg{} })
		}
		return m, m.load(false)

	case settledMsg:
		return m, m.load(false)

	case StoreChangedMsg:
		if m.busy {
			m.pendingReload = true
			return m, m.waitForChange()
		}
		m.busy = true
		return m, tea.Batch(m.load(true), m.waitForChange())
	}

	return m, nil
}

func (m *MenuModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case m.busy:
		// The session is in use by a running command
	case key.Matches(msg, m.keys.Switch):
		if row, ok := m.Selected(); ok {
			return m.activate(row)
		}
	case key.Matches(msg, m.keys.Quick):
		n := int(msg.String()[0] - '1')
		quick := session.QuickRows(m.rows)
		if n < len(quick) {
			return m.activate(quick[n])
		}
	case key.Matches(msg, m.keys.Favorite):
		if row, ok := m.Selected(); ok {
			m.busy = true
			return m.toggleFavorite(row)
		}
	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		m.SetMessage("info", "Rescanning monitors")
		return m.load(true)
	}
	return nil
}

func (m *MenuModel) activate(row session.Row) tea.Cmd {
	m.busy = true
	m.SetMessage("info", fmt.Sprintf("Switching %s to %s", row.Monitor, row.Label))

	s := m.session
	return func() tea.Msg {
		return switchedMsg{row: row, err: s.Activate(row)}
	}
}

func (m *MenuModel) toggleFavorite(row session.Row) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		input := inputsource.Encode(row.Input)
		var err error
		var note string
		if row.Favorite {
			err = s.RemoveFavorite(row.MonitorID, input)
			note = fmt.Sprintf("Removed %s from favorites", row.Label)
		} else {
			err = s.AddFavorite(row.MonitorID, input)
			note = fmt.Sprintf("Added %s to favorites", row.Label)
		}
		return rowsMsg{rows: s.Rows(), err: err, note: note}
	}
}

// load rescans the monitors, rereading the config document first if reload
func (m *MenuModel) load(reload bool) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		if reload {
			s.ReloadConfig()
		}
		return rowsMsg{rows: s.Rows()}
	}
}

func (m *MenuModel) waitForChange() tea.Cmd {
	changes := m.opts.Changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return StoreChangedMsg{}
	}
}

func rowKey(r session.Row) string {
	return fmt.Sprintf("%t/%s/%02x", r.Quick, r.MonitorID, inputsource.Encode(r.Input))
}

// setRows replaces the rows and keeps the cursor on the same entry when it
// still exists
func (m *MenuModel) setRows(rows []session.Row) {
	var selected string
	if row, ok := m.Selected(); ok {
		selected = rowKey(row)
	}

	m.rows = rows
	m.cursor = -1
	for i, r := range rows {
		if !r.Activatable() {
			continue
		}
		if m.cursor < 0 {
			m.cursor = i
		}
		if selected != "" && rowKey(r) == selected {
			m.cursor = i
			break
		}
	}
}

func (m *MenuModel) move(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].Activatable() {
			m.cursor = i
			return
		}
	}
}

// Selected returns the row under the cursor
func (m *MenuModel) Selected() (session.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return session.Row{}, false
	}
	return m.rows[m.cursor], true
}

// Rows returns the rows currently shown
func (m *MenuModel) Rows() []session.Row {
	return m.rows
}

// Busy reports whether a command is using the session
func (m *MenuModel) Busy() bool {
	return m.busy
}

// Message returns the status line text and its type
func (m *MenuModel) Message() (string, string) {
	return m.message, m.messageType
}

// SetMessage sets the status line
func (m *MenuModel) SetMessage(msgType, message string) {
	m.message = message
	m.messageType = msgType
}

// View renders the menu
func (m *MenuModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Monitor Switch"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.spinner.View() + " " + SubtleStyle.Render("Scanning monitors..."))
		b.WriteString("\n")
	case m.cursor < 0:
		b.WriteString(SubtleStyle.Render("No DDC/CI monitors found"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderRows())
	}

	b.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	b.WriteString("\n")
	return b.String()
}

func (m *MenuModel) renderRows() string {
	var b strings.Builder
	quick := 0
	for i, row := range m.rows {
		switch row.Kind {
		case session.RowHeader:
			if row.MonitorID == "" {
				b.WriteString(HeaderStyle.Render(IconFavorite + " " + row.Label))
			} else {
				b.WriteString(FormatMonitor(row.Position, row.Label, row.MonitorID))
			}
		case session.RowInput:
			label := row.Label
			if row.Quick {
				quick++
				if quick <= 9 {
					label = fmt.Sprintf("%d. %s", quick, label)
				}
			}
			b.WriteString(FormatInput(label, row.Current, row.Favorite, i == m.cursor))
		case session.RowSeparator:
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *MenuModel) renderStatus() string {
	var text string
	switch m.messageType {
	case "error":
		text = ErrorStyle.Render(IconError + " " + m.message)
	case "success":
		text = SuccessStyle.Render(IconSuccess + " " + m.message)
	default:
		text = InfoStyle.Render(m.message)
	}
	if m.message == "" {
		text = ""
	}

	if m.busy && m.loaded {
		return strings.TrimSpace(m.spinner.View() + " " + text)
	}
	return text
}

func (m *MenuModel) renderHelp() string {
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, FormatControl(h.Key, h.Desc))
	}
	return strings.Join(parts, SubtleStyle.Render(" • "))
}
