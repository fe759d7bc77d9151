// Package tui provides the Bubble Tea exam dashboard and turns terminal input
// into interaction signals.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bguard/internal/guard"
	"github.com/verte-zerg/bguard/internal/model"
	"github.com/verte-zerg/bguard/internal/signal"
)

// DefaultQuestion is shown when no question is configured.
const DefaultQuestion = "Explain the difference between a process and a thread, and describe one situation where you would prefer each."

// Options configures the dashboard.
type Options struct {
	Question string
	// Clipboard enables copy detection when non-nil.
	Clipboard     ClipboardReader
	ClipboardPoll time.Duration
	Clock         signal.Clock
	Logger        *slog.Logger
}

// Model implements the Bubble Tea exam dashboard.
type Model struct {
	guard  *guard.Guard
	bus    *signal.Bus
	clock  signal.Clock
	logger *slog.Logger

	question      string
	clipboard     ClipboardReader
	clipboardPoll time.Duration
	watch         clipboardWatch

	snap      model.Snapshot
	startedAt time.Time

	answer textinput.Model
	log    viewport.Model

	width  int
	height int
}

// NewModel constructs a dashboard for an activated guard reading from bus.
func NewModel(g *guard.Guard, bus *signal.Bus, opts Options) *Model {
	m := &Model{
		guard:         g,
		bus:           bus,
		clock:         opts.Clock,
		logger:        opts.Logger,
		question:      opts.Question,
		clipboard:     opts.Clipboard,
		clipboardPoll: opts.ClipboardPoll,
	}
	if m.clock == nil {
		m.clock = signal.SystemClock
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.question == "" {
		m.question = DefaultQuestion
	}
	if m.clipboardPoll <= 0 {
		m.clipboardPoll = DefaultClipboardPoll
	}
	m.startedAt = m.clock.Now()
	m.answer = newAnswerInput()
	m.log = viewport.New(0, 0)
	m.refresh()
	return m
}

func newAnswerInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type your answer"
	input.CharLimit = 0
	input.Focus()
	return input
}

// StartedAt returns the instant the dashboard was created.
func (m *Model) StartedAt() time.Time {
	return m.startedAt
}

// Answer returns the current answer text.
func (m *Model) Answer() string {
	return m.answer.Value()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForChange(m.guard.Changes())}
	if m.watchesClipboard() {
		cmds = append(cmds, readClipboard(m.clipboard))
	}
	return tea.Batch(cmds...)
}

// watchesClipboard reports whether copies can be observed and published.
func (m *Model) watchesClipboard() bool {
	return m.clipboard != nil && m.bus.Supports(signal.Copy)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case changeMsg:
		m.refresh()
		return m, waitForChange(m.guard.Changes())
	case clipboardTickMsg:
		if !m.watchesClipboard() {
			return m, nil
		}
		return m, readClipboard(m.clipboard)
	case clipboardMsg:
		if msg.err != nil {
			m.logger.Debug("clipboard read failed", "error", msg.err)
		} else if m.watch.observe(msg.text) {
			m.publish(signal.Event{Kind: signal.Copy})
		}
		return m, clipboardTick(m.clipboardPoll)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		m.publish(translate(msg)...)
		switch msg.Type {
		case tea.KeyCtrlZ:
			return m, tea.Suspend
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		m.publish(translate(msg)...)
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	default:
		m.publish(translate(msg)...)
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	return m.render()
}

func (m *Model) publish(events ...signal.Event) {
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		ev.At = m.clock.Now()
		m.bus.Publish(ev)
	}
	m.refresh()
}

func (m *Model) refresh() {
	prevLines := len(m.snap.Warnings)
	m.snap = m.guard.Snapshot()
	atBottom := m.log.AtBottom()
	m.log.SetContent(m.renderWarnings(m.log.Width))
	if len(m.snap.Warnings) != prevLines && atBottom {
		m.log.GotoBottom()
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.answer.Width = maxInt(10, contentWidth(m.width)-len(m.answer.Prompt)-1)
	m.log.Width = contentWidth(m.width)
	m.log.Height = m.logHeight()
	m.log.SetContent(m.renderWarnings(m.log.Width))
	m.log.GotoBottom()
}
