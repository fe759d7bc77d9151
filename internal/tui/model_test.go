package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/bguard/internal/guard"
	"github.com/verte-zerg/bguard/internal/signal"
	"github.com/verte-zerg/bguard/internal/signal/signaltest"
)

var dashboardStart = time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, withClipboard bool) (*Model, *guard.Guard, *signaltest.ManualClock) {
	t.Helper()
	bus := signal.NewBus(Kinds(withClipboard)...)
	clock := signaltest.NewManualClock(dashboardStart)
	g := guard.New(bus, guard.WithClock(clock))
	if _, err := g.Activate(guard.Options{}); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	t.Cleanup(g.Deactivate)
	opts := Options{Clock: clock}
	if withClipboard {
		opts.Clipboard = func() (string, error) { return "", nil }
	}
	m := NewModel(g, bus, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, g, clock
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		name   string
		msg    tea.Msg
		kind   signal.Kind
		hidden bool
	}{
		{"blur", tea.BlurMsg{}, signal.Blur, false},
		{"resume", tea.ResumeMsg{}, signal.Visibility, false},
		{"suspend", tea.KeyMsg{Type: tea.KeyCtrlZ}, signal.Visibility, true},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("copied"), Paste: true}, signal.Paste, false},
		{"key", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, signal.KeyPress, false},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, signal.KeyPress, false},
		{"click", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, signal.Click, false},
		{"motion", tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}, signal.PointerMove, false},
		{"wheel", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}, signal.Scroll, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := translate(tc.msg)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Kind != tc.kind || events[0].Hidden != tc.hidden {
				t.Fatalf("unexpected event %+v", events[0])
			}
		})
	}
}

func TestTranslateIgnoresOtherMessages(t *testing.T) {
	ignored := []tea.Msg{
		tea.FocusMsg{},
		tea.WindowSizeMsg{Width: 10, Height: 10},
		tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
		tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonRight},
	}
	for _, msg := range ignored {
		if events := translate(msg); len(events) != 0 {
			t.Fatalf("expected no events for %T, got %+v", msg, events)
		}
	}
}

func TestKindsDeclaresCopyOnlyWithClipboard(t *testing.T) {
	has := func(kinds []signal.Kind, k signal.Kind) bool {
		for _, kind := range kinds {
			if kind == k {
				return true
			}
		}
		return false
	}
	if has(Kinds(false), signal.Copy) {
		t.Fatalf("copy declared without a clipboard reader")
	}
	if !has(Kinds(true), signal.Copy) {
		t.Fatalf("copy missing with a clipboard reader")
	}
	for _, k := range []signal.Kind{signal.TouchStart, signal.PointerLeave} {
		if has(Kinds(true), k) {
			t.Fatalf("%s cannot be delivered by a terminal", k)
		}
	}
}

func TestUpdatePublishesSignals(t *testing.T) {
	m, g, _ := newTestModel(t, false)
	m.Update(tea.BlurMsg{})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Paste: true})

	snap := g.Snapshot()
	if snap.Analytics.TabSwitches != 1 || snap.Analytics.CopyPasteCount != 1 {
		t.Fatalf("unexpected analytics: %+v", snap.Analytics)
	}
	if m.snap.RiskScore != 30 {
		t.Fatalf("model did not refresh, score %d", m.snap.RiskScore)
	}
	if m.Answer() != "x" {
		t.Fatalf("pasted text should reach the answer, got %q", m.Answer())
	}
}

func TestUpdateSuspendHidesDocument(t *testing.T) {
	m, g, _ := newTestModel(t, false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlZ})
	if cmd == nil {
		t.Fatalf("expected suspend command")
	}
	if _, ok := cmd().(tea.SuspendMsg); !ok {
		t.Fatalf("expected suspend message")
	}
	m.Update(tea.ResumeMsg{})
	if got := g.Snapshot().Analytics.TabSwitches; got != 1 {
		t.Fatalf("expected one tab switch, got %d", got)
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	m, g, _ := newTestModel(t, false)
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("expected quit message for %v", key)
		}
	}
	if got := len(g.Snapshot().Warnings); got != 0 {
		t.Fatalf("quit keys must not record incidents, got %d", got)
	}
}

func TestClipboardChangeIsCopy(t *testing.T) {
	m, g, _ := newTestModel(t, true)
	m.Update(clipboardMsg{text: "baseline"})
	m.Update(clipboardMsg{text: "baseline"})
	if got := g.Snapshot().Analytics.CopyPasteCount; got != 0 {
		t.Fatalf("baseline read counted as copy: %d", got)
	}
	m.Update(clipboardMsg{err: errors.New("xclip exited")})
	_, cmd := m.Update(clipboardMsg{text: "answer key"})
	if cmd == nil {
		t.Fatalf("expected next clipboard tick")
	}
	snap := g.Snapshot()
	if snap.Analytics.CopyPasteCount != 1 {
		t.Fatalf("expected one copy, got %d", snap.Analytics.CopyPasteCount)
	}
	if snap.Entries[0].Message != "Clipboard action detected: copy" {
		t.Fatalf("unexpected message %q", snap.Entries[0].Message)
	}
}

func TestClipboardPollingNeedsCopySupport(t *testing.T) {
	reader := func() (string, error) { return "", nil }
	for _, supported := range []bool{false, true} {
		bus := signal.NewBus(Kinds(supported)...)
		clock := signaltest.NewManualClock(dashboardStart)
		g := guard.New(bus, guard.WithClock(clock))
		if _, err := g.Activate(guard.Options{}); err != nil {
			t.Fatalf("activate failed: %v", err)
		}
		m := NewModel(g, bus, Options{Clock: clock, Clipboard: reader})
		_, cmd := m.Update(clipboardTickMsg{})
		if supported && cmd == nil {
			t.Fatalf("expected clipboard read when copy is supported")
		}
		if !supported && cmd != nil {
			t.Fatalf("clipboard polled on a bus without copy support")
		}
		g.Deactivate()
	}
}

func TestAnswerTracksTypedText(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	for _, r := range "fork" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if got := m.Answer(); got != "fork" {
		t.Fatalf("expected answer %q, got %q", "fork", got)
	}
}

func TestChangeMsgRefreshesTimerIncidents(t *testing.T) {
	m, _, clock := newTestModel(t, false)
	clock.Advance(30 * time.Second)
	if m.snap.Analytics.IdleIncidents != 0 {
		t.Fatalf("model refreshed before change notification")
	}
	_, cmd := m.Update(changeMsg{})
	if cmd == nil {
		t.Fatalf("expected the change watcher to be rearmed")
	}
	if m.snap.Analytics.IdleIncidents != 1 {
		t.Fatalf("expected idle incident after refresh, got %d", m.snap.Analytics.IdleIncidents)
	}
	if !strings.Contains(m.log.View(), "2:00:30 PM: User inactive for too long") {
		t.Fatalf("warning log not updated:\n%s", m.log.View())
	}
}

func TestRenderFooterListsGaps(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	out := m.renderFooter(120)
	for _, want := range []string{"esc quit", "not tracked:", "touch-start", "pointer-leave", "copy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestViewShowsScoreAndQuestion(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	m.Update(tea.BlurMsg{})
	out := m.View()
	for _, want := range []string{"Risk score", "10/100 normal", "Tab switches", "process and a thread", "Warnings (1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestLevelColor(t *testing.T) {
	if levelColor("high risk") != "#ef4444" {
		t.Fatalf("unexpected high risk color")
	}
	if levelColor("suspicious") != "#f59e0b" {
		t.Fatalf("unexpected suspicious color")
	}
	if levelColor("unknown") != "#62756f" {
		t.Fatalf("unknown levels fall back to normal")
	}
}
