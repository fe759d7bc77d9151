// Package signal describes interaction signals and the runtimes that deliver them.
package signal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupported is returned when a runtime cannot deliver a signal kind.
var ErrUnsupported = errors.New("signal kind not supported by runtime")

// Kind identifies a class of interaction signal.
type Kind int

// Signal kinds.
const (
	Visibility Kind = iota + 1
	Blur
	Copy
	Paste
	Click
	PointerMove
	KeyPress
	Scroll
	TouchStart
	PointerLeave
)

// AllKinds lists every kind in declaration order.
var AllKinds = []Kind{
	Visibility,
	Blur,
	Copy,
	Paste,
	Click,
	PointerMove,
	KeyPress,
	Scroll,
	TouchStart,
	PointerLeave,
}

var kindNames = map[Kind]string{
	Visibility:   "visibility",
	Blur:         "blur",
	Copy:         "copy",
	Paste:        "paste",
	Click:        "click",
	PointerMove:  "pointer-move",
	KeyPress:     "key-press",
	Scroll:       "scroll",
	TouchStart:   "touch-start",
	PointerLeave: "pointer-leave",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown signal kind %q", name)
}

// Event is one delivered signal.
type Event struct {
	Kind Kind
	At   time.Time
	// Hidden reports the new document state for Visibility events.
	Hidden bool
}

// Handler receives events of a subscribed kind.
type Handler func(Event)

// Subscription is a disposable handle for one registered handler.
type Subscription interface {
	// Unsubscribe removes the handler. Calling it more than once is a no-op.
	Unsubscribe()
}

// Source delivers signals to subscribers. Subscribe must not invoke h before
// returning; handlers may be called from any goroutine.
type Source interface {
	Subscribe(kind Kind, h Handler) (Subscription, error)
}

// Timer is a pending single-shot callback.
type Timer interface {
	// Stop cancels the timer and reports whether it was still pending.
	Stop() bool
}

// Clock supplies the current instant and single-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
