package guard

import "time"

// clickWindow is the trailing window of click instants used for burst detection.
type clickWindow struct {
	span  time.Duration
	limit int
	at    []time.Time
}

func newClickWindow(span time.Duration, limit int) *clickWindow {
	return &clickWindow{span: span, limit: limit, at: make([]time.Time, 0, limit+1)}
}

// observe records a click at now and reports whether the window now holds a
// burst. A detected burst empties the window.
func (w *clickWindow) observe(now time.Time) bool {
	w.at = append(w.at, now)
	w.evict(now)
	if len(w.at) > w.limit {
		w.at = w.at[:0]
		return true
	}
	return false
}

// evict drops instants at least span older than now. Instants are in arrival order.
func (w *clickWindow) evict(now time.Time) {
	drop := 0
	for drop < len(w.at) && now.Sub(w.at[drop]) >= w.span {
		drop++
	}
	if drop == 0 {
		return
	}
	n := copy(w.at, w.at[drop:])
	w.at = w.at[:n]
}
