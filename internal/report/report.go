// Package report renders the end-of-session summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/bguard/internal/model"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatNone = "none"
)

// Report is the serialisable summary of one session.
type Report struct {
	StartedAt time.Time       `json:"startedAt" yaml:"startedAt"`
	EndedAt   time.Time       `json:"endedAt" yaml:"endedAt"`
	Duration  string          `json:"duration" yaml:"duration"`
	RiskScore int             `json:"riskScore" yaml:"riskScore"`
	Level     string          `json:"level" yaml:"level"`
	Answer    string          `json:"answer,omitempty" yaml:"answer,omitempty"`
	Analytics model.Analytics `json:"analytics" yaml:"analytics"`
	Warnings  []string        `json:"warnings" yaml:"warnings"`
	Gaps      []Gap           `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	Timeline  []Point         `json:"timeline" yaml:"timeline"`
}

// Gap is a signal the runtime could not deliver.
type Gap struct {
	Category string `json:"category" yaml:"category"`
	Kind     string `json:"kind" yaml:"kind"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Point is the score right after an incident.
type Point struct {
	OffsetMs int64  `json:"offsetMs" yaml:"offsetMs"`
	Score    int    `json:"score" yaml:"score"`
	Category string `json:"category" yaml:"category"`
}

// Build summarises a snapshot taken at the end of a session.
func Build(snap model.Snapshot, startedAt, endedAt time.Time) Report {
	r := Report{
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Duration:  endedAt.Sub(startedAt).Round(time.Second).String(),
		RiskScore: snap.RiskScore,
		Level:     snap.Level,
		Analytics: snap.Analytics,
		Warnings:  append([]string{}, snap.Warnings...),
		Timeline:  make([]Point, 0, len(snap.Entries)),
	}
	for _, g := range snap.Gaps {
		r.Gaps = append(r.Gaps, Gap{Category: string(g.Category), Kind: g.Kind, Reason: g.Reason})
	}
	for _, e := range snap.Entries {
		r.Timeline = append(r.Timeline, Point{
			OffsetMs: e.At.Sub(startedAt).Milliseconds(),
			Score:    e.Score,
			Category: string(e.Category),
		})
	}
	return r
}

// ParseFormat normalises a format name.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatNone:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json, yaml or none)", name)
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, r Report, format string) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatNone:
		return nil
	default:
		return renderText(w, r, autoPlotWidth(w))
	}
}

func renderText(w io.Writer, r Report, plotWidth int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s - %s (%s)\n",
		r.StartedAt.Format(model.WarningTimeLayout),
		r.EndedAt.Format(model.WarningTimeLayout),
		r.Duration,
	)
	fmt.Fprintf(&b, "Risk score %d/100 (%s)\n\n", r.RiskScore, r.Level)
	if answer := strings.TrimSpace(r.Answer); answer != "" {
		fmt.Fprintf(&b, "Answer\n  %s\n\n", answer)
	}

	rows := make([][]string, 0, len(model.Categories)+1)
	for _, c := range model.Categories {
		rows = append(rows, []string{c.Label(), fmt.Sprintf("%d", r.Analytics.Count(c))})
	}
	rows = append(rows, []string{"Total", fmt.Sprintf("%d", r.Analytics.Total())})
	for _, line := range formatTable([]string{"Category", "Count"}, rows, map[int]bool{1: true}) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString("\nWarnings\n")
	if len(r.Warnings) == 0 {
		b.WriteString("  none\n")
	}
	for _, line := range r.Warnings {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if len(r.Gaps) > 0 {
		b.WriteString("\nUnavailable signals\n")
		for _, g := range r.Gaps {
			fmt.Fprintf(&b, "  %s: %s\n", g.Category, g.Kind)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if len(r.Timeline) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\nScore timeline\n"); err != nil {
		return err
	}
	return plotTimeline(w, r, plotWidth, defaultPlotHeight)
}
