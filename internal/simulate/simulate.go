// Package simulate replays scripted interaction signals against a guard on a
// manual clock, so a session can be reproduced without a terminal.
package simulate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/bguard/internal/config"
	"github.com/verte-zerg/bguard/internal/guard"
	"github.com/verte-zerg/bguard/internal/model"
	"github.com/verte-zerg/bguard/internal/signal"
	"github.com/verte-zerg/bguard/internal/signal/signaltest"
)

// ErrInvalidScript wraps every script validation failure.
var ErrInvalidScript = errors.New("invalid simulation script")

// Script is a parsed replay script.
type Script struct {
	Options config.GuardConfig `yaml:"options"`
	// Unsupported lists signal kinds the simulated runtime cannot deliver.
	Unsupported []string      `yaml:"unsupported"`
	Events      []Step        `yaml:"events"`
	Until       time.Duration `yaml:"until"`

	unsupported []signal.Kind
}

// Step is one scripted signal, delivered At after the session starts.
type Step struct {
	At     time.Duration `yaml:"at"`
	Kind   string        `yaml:"kind"`
	Hidden bool          `yaml:"hidden"`

	kind signal.Kind
}

// Result is the outcome of a replay.
type Result struct {
	Snapshot  model.Snapshot
	Gaps      []model.Gap
	StartedAt time.Time
	EndedAt   time.Time
}

// Load parses and validates a YAML script.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty script", ErrInvalidScript)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	var last time.Duration
	for i := range s.Events {
		step := &s.Events[i]
		kind, err := signal.ParseKind(step.Kind)
		if err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidScript, i+1, err)
		}
		if step.At < 0 {
			return fmt.Errorf("%w: event %d: negative offset %s", ErrInvalidScript, i+1, step.At)
		}
		if step.At < last {
			return fmt.Errorf("%w: event %d: offset %s is before %s", ErrInvalidScript, i+1, step.At, last)
		}
		step.kind = kind
		last = step.At
	}
	if s.Until < 0 {
		return fmt.Errorf("%w: negative until %s", ErrInvalidScript, s.Until)
	}
	if s.Until != 0 && s.Until < last {
		return fmt.Errorf("%w: until %s is before the last event at %s", ErrInvalidScript, s.Until, last)
	}
	s.unsupported = s.unsupported[:0]
	for _, name := range s.Unsupported {
		kind, err := signal.ParseKind(name)
		if err != nil {
			return fmt.Errorf("%w: unsupported: %v", ErrInvalidScript, err)
		}
		s.unsupported = append(s.unsupported, kind)
	}
	return nil
}

// End returns the offset at which the replay stops.
func (s *Script) End() time.Duration {
	if s.Until != 0 {
		return s.Until
	}
	if n := len(s.Events); n > 0 {
		return s.Events[n-1].At
	}
	return 0
}

func (s *Script) supportedKinds() []signal.Kind {
	skip := make(map[signal.Kind]bool, len(s.unsupported))
	for _, k := range s.unsupported {
		skip[k] = true
	}
	kinds := make([]signal.Kind, 0, len(signal.AllKinds))
	for _, k := range signal.AllKinds {
		if !skip[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Run replays the script starting at start. Timers fire as the clock passes
// their deadline; the guard is deactivated at the end offset.
func Run(s *Script, start time.Time, logger *slog.Logger) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bus := signal.NewBus(s.supportedKinds()...)
	clock := signaltest.NewManualClock(start)
	g := guard.New(bus, guard.WithClock(clock), guard.WithLogger(logger))

	gaps, err := g.Activate(s.Options.Options())
	if err != nil {
		return Result{}, err
	}

	for _, step := range s.Events {
		clock.AdvanceTo(start.Add(step.At))
		logger.Debug("replaying signal", "at", step.At, "kind", step.kind.String())
		bus.Publish(signal.Event{Kind: step.kind, At: clock.Now(), Hidden: step.Hidden})
	}
	clock.AdvanceTo(start.Add(s.End()))
	g.Deactivate()

	return Result{
		Snapshot:  g.Snapshot(),
		Gaps:      gaps,
		StartedAt: start,
		EndedAt:   clock.Now(),
	}, nil
}
