// Package guard turns interaction signals into a bounded risk score, a
// chronological warning log and per-category incident counters.
//
// A Guard owns all mutable state. Detectors subscribe to a signal.Source when
// the Guard is activated and report incidents through a single serialised
// entry point; Deactivate releases every subscription and timer synchronously.
package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/bguard/internal/model"
	"github.com/verte-zerg/bguard/internal/score"
	"github.com/verte-zerg/bguard/internal/signal"
)

var (
	// ErrActive is returned by Activate when a session is already running.
	ErrActive = errors.New("guard already active")
	// ErrInactive is returned by operations that need a running session.
	ErrInactive = errors.New("guard not active")
	// ErrUnknownCategory is returned by RecordEvent for an unrecognised category.
	ErrUnknownCategory = errors.New("unknown incident category")
	// ErrNegativePenalty is returned by RecordEvent for a penalty below zero.
	ErrNegativePenalty = errors.New("negative penalty")
)

// Guard aggregates incidents reported by its detectors.
type Guard struct {
	src    signal.Source
	clock  signal.Clock
	logger *slog.Logger

	mu        sync.Mutex
	cfg       model.Config
	score     int
	warnings  []model.Warning
	analytics model.Analytics
	gaps      []model.Gap
	act       *activation

	changes chan struct{}
}

// Option customises a Guard.
type Option func(*Guard)

// WithClock replaces the wall clock used for timestamps and idle timers.
func WithClock(c signal.Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New constructs an inactive guard reading signals from src.
func New(src signal.Source, opts ...Option) *Guard {
	g := &Guard{
		src:     src,
		clock:   signal.SystemClock,
		logger:  slog.New(slog.DiscardHandler),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Activate starts a new session: state is zeroed and every enabled detector
// subscribes to its signals. Signals the source cannot deliver are returned as
// gaps; they never fail activation.
func (g *Guard) Activate(opts Options) ([]model.Gap, error) {
	cfg, err := opts.Resolve()
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.act != nil {
		return nil, ErrActive
	}
	g.score = 0
	g.warnings = nil
	g.analytics = model.Analytics{}
	return g.activateLocked(cfg), nil
}

// Reconfigure replaces the running configuration. Subscriptions and timers of
// the previous configuration are released first; score, log and counters are kept.
// Invalid options leave the running configuration untouched.
func (g *Guard) Reconfigure(opts Options) ([]model.Gap, error) {
	cfg, err := opts.Resolve()
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.act == nil {
		return nil, ErrInactive
	}
	g.act.close()
	g.act = nil
	return g.activateLocked(cfg), nil
}

// Deactivate ends the session. When it returns no subscription or timer made
// during activation remains, and no late callback can change state.
// The final snapshot stays readable. Calling it on an inactive guard is a no-op.
func (g *Guard) Deactivate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.act == nil {
		return
	}
	g.act.close()
	g.act = nil
	g.logger.Info("guard deactivated",
		"risk_score", g.score,
		"warnings", len(g.warnings),
	)
	g.notifyLocked()
}

// Active reports whether a session is running.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.act != nil
}

// Config returns the configuration of the current or last session.
func (g *Guard) Config() model.Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// RecordEvent logs message, bumps the counter for category and applies penalty.
func (g *Guard) RecordEvent(category model.Category, message string, penalty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.act == nil {
		return ErrInactive
	}
	return g.recordLocked(category, message, penalty)
}

// Snapshot returns a copy of the current state.
func (g *Guard) Snapshot() model.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	entries := make([]model.Warning, len(g.warnings))
	copy(entries, g.warnings)
	lines := make([]string, len(entries))
	for i, w := range entries {
		lines[i] = w.String()
	}
	gaps := make([]model.Gap, len(g.gaps))
	copy(gaps, g.gaps)
	return model.Snapshot{
		RiskScore: g.score,
		Level:     string(score.LevelFor(g.score)),
		Warnings:  lines,
		Entries:   entries,
		Analytics: g.analytics,
		Gaps:      gaps,
		Active:    g.act != nil,
	}
}

// Changes delivers a notification after state changes. Notifications coalesce:
// a receiver that falls behind sees one pending value and should re-read Snapshot.
func (g *Guard) Changes() <-chan struct{} {
	return g.changes
}

func (g *Guard) activateLocked(cfg model.Config) []model.Gap {
	g.cfg = cfg
	a := &activation{g: g}
	for _, d := range detectorsFor(cfg) {
		d.attach(a)
	}
	g.act = a
	g.gaps = a.gaps
	g.logger.Info("guard activated",
		"idle_timeout_ms", cfg.IdleTimeoutMs,
		"subscriptions", len(a.subs),
		"gaps", len(a.gaps),
	)
	g.notifyLocked()
	out := make([]model.Gap, len(a.gaps))
	copy(out, a.gaps)
	return out
}

func (g *Guard) recordLocked(category model.Category, message string, penalty int) error {
	if penalty < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePenalty, penalty)
	}
	counter := g.counterLocked(category)
	if counter == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	*counter++
	g.score = score.Calculate(g.score, penalty)
	g.warnings = append(g.warnings, model.Warning{
		At:       g.clock.Now(),
		Category: category,
		Message:  message,
		Penalty:  penalty,
		Score:    g.score,
	})
	g.logger.Debug("incident recorded",
		"category", category,
		"message", message,
		"penalty", penalty,
		"risk_score", g.score,
	)
	g.notifyLocked()
	return nil
}

func (g *Guard) counterLocked(category model.Category) *int {
	switch category {
	case model.CategoryTabSwitch:
		return &g.analytics.TabSwitches
	case model.CategoryCopyPaste:
		return &g.analytics.CopyPasteCount
	case model.CategoryRapidClick:
		return &g.analytics.RapidClicks
	case model.CategoryIdle:
		return &g.analytics.IdleIncidents
	case model.CategoryMouseLeave:
		return &g.analytics.MouseLeaveCount
	default:
		return nil
	}
}

func (g *Guard) notifyLocked() {
	select {
	case g.changes <- struct{}{}:
	default:
	}
}

// activation records everything acquired for one configuration so that it
// can be released as a unit.
type activation struct {
	g        *Guard
	subs     []signal.Subscription
	cleanups []func()
	gaps     []model.Gap
	closed   bool
}

// on subscribes h to kind on behalf of category. Failures become gaps.
func (a *activation) on(category model.Category, kind signal.Kind, h signal.Handler) {
	sub, err := a.g.src.Subscribe(kind, func(ev signal.Event) {
		a.guarded(func() { h(ev) })
	})
	if err != nil {
		a.gaps = append(a.gaps, model.Gap{
			Category: category,
			Kind:     kind.String(),
			Reason:   err.Error(),
		})
		a.g.logger.Info("signal unavailable, category will not be tracked from it",
			"category", category,
			"kind", kind.String(),
			"error", err,
		)
		return
	}
	a.subs = append(a.subs, sub)
}

// after schedules f on the guard clock; f runs under the guard lock and never
// after the activation is closed.
func (a *activation) after(d time.Duration, f func()) signal.Timer {
	return a.g.clock.AfterFunc(d, func() {
		a.guarded(f)
	})
}

// onClose registers a release step run by close.
func (a *activation) onClose(f func()) {
	a.cleanups = append(a.cleanups, f)
}

func (a *activation) record(category model.Category, message string, penalty int) {
	if err := a.g.recordLocked(category, message, penalty); err != nil {
		a.g.logger.Warn("failed to record incident", "category", category, "error", err)
	}
}

func (a *activation) now() time.Time {
	return a.g.clock.Now()
}

// guarded runs f with the guard lock held unless the activation is closed.
func (a *activation) guarded(f func()) {
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	if a.closed {
		return
	}
	f()
}

// close must be called with the guard lock held.
func (a *activation) close() {
	if a.closed {
		return
	}
	a.closed = true
	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	a.subs = nil
	for _, f := range a.cleanups {
		f()
	}
	a.cleanups = nil
}
