// Package model defines shared data structures.
package model

import "time"

// WarningTimeLayout formats warning timestamps as a time of day.
const WarningTimeLayout = "3:04:05 PM"

// Category identifies the analytics counter an incident belongs to.
type Category string

// Incident categories, one per analytics counter.
const (
	CategoryTabSwitch  Category = "tab_switch"
	CategoryCopyPaste  Category = "copy_paste"
	CategoryRapidClick Category = "rapid_click"
	CategoryIdle       Category = "idle"
	CategoryMouseLeave Category = "mouse_leave"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTabSwitch,
	CategoryCopyPaste,
	CategoryRapidClick,
	CategoryIdle,
	CategoryMouseLeave,
}

// Label returns a short human readable name.
func (c Category) Label() string {
	switch c {
	case CategoryTabSwitch:
		return "Tab switches"
	case CategoryCopyPaste:
		return "Copy/paste"
	case CategoryRapidClick:
		return "Rapid clicks"
	case CategoryIdle:
		return "Idle incidents"
	case CategoryMouseLeave:
		return "Mouse leaves"
	default:
		return string(c)
	}
}

// Config is the resolved, immutable configuration of one activation.
type Config struct {
	TrackTabSwitch     bool
	TrackMouseActivity bool
	TrackCopyPaste     bool
	TrackRapidClick    bool
	TrackIdleTime      bool

	IdleTimeoutMs int
	IdleRepeat    bool

	PenaltyTabSwitch  int
	PenaltyWindowBlur int
	PenaltyCopyPaste  int
	PenaltyRapidClick int
	PenaltyIdle       int
	PenaltyMouseLeave int
}

// IdleTimeout returns IdleTimeoutMs as a duration.
func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

// Analytics holds one counter per incident category.
type Analytics struct {
	TabSwitches     int `json:"tabSwitches" yaml:"tabSwitches"`
	CopyPasteCount  int `json:"copyPasteCount" yaml:"copyPasteCount"`
	RapidClicks     int `json:"rapidClicks" yaml:"rapidClicks"`
	IdleIncidents   int `json:"idleIncidents" yaml:"idleIncidents"`
	MouseLeaveCount int `json:"mouseLeaveCount" yaml:"mouseLeaveCount"`
}

// Count returns the counter for a category.
func (a Analytics) Count(c Category) int {
	switch c {
	case CategoryTabSwitch:
		return a.TabSwitches
	case CategoryCopyPaste:
		return a.CopyPasteCount
	case CategoryRapidClick:
		return a.RapidClicks
	case CategoryIdle:
		return a.IdleIncidents
	case CategoryMouseLeave:
		return a.MouseLeaveCount
	default:
		return 0
	}
}

// Total sums all counters.
func (a Analytics) Total() int {
	return a.TabSwitches + a.CopyPasteCount + a.RapidClicks + a.IdleIncidents + a.MouseLeaveCount
}

// Warning is one entry of the warning log.
type Warning struct {
	At       time.Time
	Category Category
	Message  string
	Penalty  int
	// Score is the risk score after this incident was applied.
	Score int
}

// String renders the entry as "<time>: <message>".
func (w Warning) String() string {
	return w.At.Format(WarningTimeLayout) + ": " + w.Message
}

// Gap records a signal kind a runtime could not deliver.
type Gap struct {
	Category Category
	Kind     string
	Reason   string
}

// Snapshot is a read-only copy of the aggregator state.
type Snapshot struct {
	RiskScore int
	Level     string
	Warnings  []string
	Entries   []Warning
	Analytics Analytics
	Gaps      []Gap
	Active    bool
}
