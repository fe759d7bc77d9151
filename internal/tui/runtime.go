package tui

import (
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bguard/internal/signal"
)

// DefaultClipboardPoll is the default interval between clipboard reads.
const DefaultClipboardPoll = 500 * time.Millisecond

// ClipboardReader returns the current clipboard text.
type ClipboardReader func() (string, error)

// SystemClipboard returns a reader for the platform clipboard, or nil when no
// clipboard utility is available.
func SystemClipboard() ClipboardReader {
	if clipboard.Unsupported {
		return nil
	}
	return clipboard.ReadAll
}

// Kinds lists the signal kinds a terminal session can deliver. Copy is
// observable only through a clipboard reader.
func Kinds(withClipboard bool) []signal.Kind {
	kinds := []signal.Kind{
		signal.Visibility,
		signal.Blur,
		signal.Paste,
		signal.Click,
		signal.PointerMove,
		signal.KeyPress,
		signal.Scroll,
	}
	if withClipboard {
		kinds = append(kinds, signal.Copy)
	}
	return kinds
}

// ProgramOptions returns the Bubble Tea options the runtime relies on.
func ProgramOptions() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	}
}

// translate maps a terminal message to the signals it represents.
func translate(msg tea.Msg) []signal.Event {
	switch msg := msg.(type) {
	case tea.BlurMsg:
		return []signal.Event{{Kind: signal.Blur}}
	case tea.ResumeMsg:
		return []signal.Event{{Kind: signal.Visibility, Hidden: false}}
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlZ {
			return []signal.Event{{Kind: signal.Visibility, Hidden: true}}
		}
		if msg.Paste {
			return []signal.Event{{Kind: signal.Paste}}
		}
		return []signal.Event{{Kind: signal.KeyPress}}
	case tea.MouseMsg:
		switch {
		case tea.MouseEvent(msg).IsWheel():
			return []signal.Event{{Kind: signal.Scroll}}
		case msg.Action == tea.MouseActionMotion:
			return []signal.Event{{Kind: signal.PointerMove}}
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			return []signal.Event{{Kind: signal.Click}}
		}
	}
	return nil
}

type clipboardTickMsg struct{}

type clipboardMsg struct {
	text string
	err  error
}

func clipboardTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clipboardTickMsg{}
	})
}

func readClipboard(read ClipboardReader) tea.Cmd {
	return func() tea.Msg {
		text, err := read()
		return clipboardMsg{text: text, err: err}
	}
}

// clipboardWatch turns successive clipboard reads into copy signals. The
// first successful read only sets the baseline.
type clipboardWatch struct {
	last   string
	primed bool
}

func (w *clipboardWatch) observe(text string) bool {
	if !w.primed {
		w.primed = true
		w.last = text
		return false
	}
	if text == w.last {
		return false
	}
	w.last = text
	return true
}

type changeMsg struct{}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changeMsg{}
	}
}
