package guard

import (
	"time"

	"github.com/verte-zerg/bguard/internal/model"
	"github.com/verte-zerg/bguard/internal/signal"
)

// Rapid-click burst rule: more than rapidClickLimit clicks within rapidClickSpan.
const (
	rapidClickSpan  = 2 * time.Second
	rapidClickLimit = 5
)

// Warning messages.
const (
	msgTabHidden   = "User switched tab or minimized window"
	msgWindowBlur  = "Window lost focus"
	msgClipboard   = "Clipboard action detected: "
	msgRapidClick  = "Rapid clicking detected"
	msgIdle        = "User inactive for too long"
	msgPointerLeft = "Mouse left the window"
)

// activityKinds reset the idle timer.
var activityKinds = []signal.Kind{
	signal.PointerMove,
	signal.KeyPress,
	signal.Scroll,
	signal.TouchStart,
}

// detector subscribes one tracking rule through an activation.
type detector interface {
	attach(a *activation)
}

func detectorsFor(cfg model.Config) []detector {
	var out []detector
	if cfg.TrackTabSwitch {
		out = append(out, &visibilityDetector{
			hiddenPenalty: cfg.PenaltyTabSwitch,
			blurPenalty:   cfg.PenaltyWindowBlur,
		})
	}
	if cfg.TrackCopyPaste {
		out = append(out, &clipboardDetector{penalty: cfg.PenaltyCopyPaste})
	}
	if cfg.TrackRapidClick {
		out = append(out, &rapidClickDetector{
			penalty: cfg.PenaltyRapidClick,
			window:  newClickWindow(rapidClickSpan, rapidClickLimit),
		})
	}
	if cfg.TrackIdleTime {
		out = append(out, &idleDetector{
			timeout: cfg.IdleTimeout(),
			penalty: cfg.PenaltyIdle,
			repeat:  cfg.IdleRepeat,
		})
	}
	if cfg.TrackMouseActivity {
		out = append(out, &pointerLeaveDetector{penalty: cfg.PenaltyMouseLeave})
	}
	return out
}

// visibilityDetector counts the document becoming hidden and the window losing
// focus. Both may fire for one tab switch.
type visibilityDetector struct {
	hiddenPenalty int
	blurPenalty   int
}

func (d *visibilityDetector) attach(a *activation) {
	a.on(model.CategoryTabSwitch, signal.Visibility, func(ev signal.Event) {
		if !ev.Hidden {
			return
		}
		a.record(model.CategoryTabSwitch, msgTabHidden, d.hiddenPenalty)
	})
	a.on(model.CategoryTabSwitch, signal.Blur, func(signal.Event) {
		a.record(model.CategoryTabSwitch, msgWindowBlur, d.blurPenalty)
	})
}

type clipboardDetector struct {
	penalty int
}

func (d *clipboardDetector) attach(a *activation) {
	for _, kind := range []signal.Kind{signal.Copy, signal.Paste} {
		a.on(model.CategoryCopyPaste, kind, func(ev signal.Event) {
			a.record(model.CategoryCopyPaste, msgClipboard+ev.Kind.String(), d.penalty)
		})
	}
}

type rapidClickDetector struct {
	penalty int
	window  *clickWindow
}

func (d *rapidClickDetector) attach(a *activation) {
	a.on(model.CategoryRapidClick, signal.Click, func(signal.Event) {
		if d.window.observe(a.now()) {
			a.record(model.CategoryRapidClick, msgRapidClick, d.penalty)
		}
	})
}

// idleDetector runs a single-shot timer that activity rearms. gen identifies
// the current arming so a superseded callback already in flight does nothing.
type idleDetector struct {
	timeout time.Duration
	penalty int
	repeat  bool

	timer signal.Timer
	gen   uint64
}

func (d *idleDetector) attach(a *activation) {
	for _, kind := range activityKinds {
		a.on(model.CategoryIdle, kind, func(signal.Event) {
			d.arm(a)
		})
	}
	a.onClose(d.disarm)
	d.arm(a)
}

func (d *idleDetector) arm(a *activation) {
	d.disarm()
	gen := d.gen
	d.timer = a.after(d.timeout, func() {
		d.fire(a, gen)
	})
}

func (d *idleDetector) fire(a *activation, gen uint64) {
	if gen != d.gen {
		return
	}
	d.timer = nil
	a.record(model.CategoryIdle, msgIdle, d.penalty)
	if d.repeat {
		d.arm(a)
	}
}

func (d *idleDetector) disarm() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

type pointerLeaveDetector struct {
	penalty int
}

func (d *pointerLeaveDetector) attach(a *activation) {
	a.on(model.CategoryMouseLeave, signal.PointerLeave, func(signal.Event) {
		a.record(model.CategoryMouseLeave, msgPointerLeft, d.penalty)
	})
}
