package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/bguard/internal/model"
	"github.com/verte-zerg/bguard/internal/score"
)

const (
	maxContentWidth = 100
	minLogHeight    = 3
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

var levelColors = map[score.Level]lipgloss.Color{
	score.LevelNormal:     lipgloss.Color("#62756f"),
	score.LevelSuspicious: lipgloss.Color("#f59e0b"),
	score.LevelHighRisk:   lipgloss.Color("#ef4444"),
}

func levelColor(level string) lipgloss.Color {
	if c, ok := levelColors[score.Level(level)]; ok {
		return c
	}
	return levelColors[score.LevelNormal]
}

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	width := contentWidth(m.width)
	sections := []string{
		m.renderUpper(width),
		m.renderLogTitle(),
		m.log.View(),
		m.renderFooter(width),
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, content)
}

func (m *Model) renderUpper(width int) string {
	header := titleStyle.Render("Exam session") + "  " + mutedStyle.Render(m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.renderCards(width),
		questionStyle.Render(wrapText(m.question, width)),
		"",
		m.answer.View(),
		"",
	)
}

func (m *Model) statusLine() string {
	if m.snap.Active {
		return "monitoring since " + m.startedAt.Format(model.WarningTimeLayout)
	}
	return "session ended"
}

func (m *Model) renderCards(width int) string {
	cards := []string{riskCard(m.snap.RiskScore, m.snap.Level)}
	for _, c := range model.Categories {
		cards = append(cards, metricCard(c.Label(), fmt.Sprintf("%d", m.snap.Analytics.Count(c))))
	}
	if lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, cards...)) <= width {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	half := (len(cards) + 1) / 2
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:half]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[half:]...)
	if lipgloss.Width(row1) > width {
		return m.renderCompactCards()
	}
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

// renderCompactCards is used when even two rows of cards do not fit.
func (m *Model) renderCompactCards() string {
	parts := []string{
		lipgloss.NewStyle().Foreground(levelColor(m.snap.Level)).Bold(true).
			Render(fmt.Sprintf("Risk %d/%d %s", m.snap.RiskScore, score.Max, m.snap.Level)),
	}
	for _, c := range model.Categories {
		parts = append(parts, fmt.Sprintf("%s %d", c.Label(), m.snap.Analytics.Count(c)))
	}
	return strings.Join(parts, "\n")
}

func riskCard(value int, level string) string {
	color := levelColor(level)
	content := fmt.Sprintf("%s\n%s",
		cardTitleStyle.Render("Risk score"),
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%d/%d %s", value, score.Max, level)),
	)
	return cardStyle.BorderForeground(color).Render(content)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderLogTitle() string {
	return titleStyle.Render(fmt.Sprintf("Warnings (%d)", len(m.snap.Warnings)))
}

func (m *Model) renderWarnings(width int) string {
	if len(m.snap.Warnings) == 0 {
		return mutedStyle.Render("No suspicious activity recorded.")
	}
	lines := make([]string, len(m.snap.Warnings))
	for i, line := range m.snap.Warnings {
		lines[i] = truncateLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter(width int) string {
	segments := []string{"esc quit", "pgup/pgdn scroll"}
	if len(m.snap.Gaps) > 0 {
		kinds := make([]string, 0, len(m.snap.Gaps))
		seen := map[string]bool{}
		for _, g := range m.snap.Gaps {
			if seen[g.Kind] {
				continue
			}
			seen[g.Kind] = true
			kinds = append(kinds, g.Kind)
		}
		segments = append(segments, "not tracked: "+strings.Join(kinds, ", "))
	}
	return footerStyle.Render(truncateLine(strings.Join(segments, "  ·  "), width))
}

func (m *Model) logHeight() int {
	width := contentWidth(m.width)
	used := lipgloss.Height(m.renderUpper(width)) +
		lipgloss.Height(m.renderLogTitle()) +
		lipgloss.Height(m.renderFooter(width))
	return maxInt(minLogHeight, m.height-used)
}

func contentWidth(total int) int {
	if total > maxContentWidth {
		return maxContentWidth
	}
	return maxInt(1, total)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
