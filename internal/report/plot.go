package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/bguard/internal/score"
)

const (
	defaultPlotHeight   = 8
	defaultPlotWidth    = 60
	minPlotWidth        = 10
	axisLabelTop        = "100"
	axisLabelMid        = "50"
	axisLabelBottom     = "0"
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	colorNormal         = "\x1b[32m"
	colorSuspicious     = "\x1b[33m"
	colorHighRisk       = "\x1b[31m"
	terminalWidthBackup = 80
)

// plotTimeline draws the score as a step function over the session on a fixed
// 0..100 axis.
func plotTimeline(w io.Writer, r Report, width, height int) error {
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	values := scoreSteps(r, width)
	cells := makeCells(height, width)
	prevX, prevY := -1, -1
	for x, v := range values {
		px := x * 2
		py := valueToRow(v, 0, score.Max, height*4)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}

	color := ""
	if shouldUseColor(w) {
		color = levelColor(score.Level(r.Level))
	}
	leftAxisWidth := len(axisLabelTop)
	labels := makeAxisLabels(height)
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", leftAxisWidth, labels[y], axisSeparator)
		if color != "" {
			row.WriteString(color)
		}
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if color != "" {
			row.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	pad := strings.Repeat(" ", leftAxisWidth+utf8.RuneCountInString(axisSeparator))
	_, err := fmt.Fprintf(w, "%s0s%*s\n", pad, width-2, r.EndedAt.Sub(r.StartedAt).Round(time.Second).String())
	return err
}

// scoreSteps samples the score at width evenly spaced instants between the
// start and the end of the session.
func scoreSteps(r Report, width int) []float64 {
	if width <= 0 {
		return nil
	}
	span := r.EndedAt.Sub(r.StartedAt).Milliseconds()
	if n := len(r.Timeline); n > 0 && r.Timeline[n-1].OffsetMs > span {
		span = r.Timeline[n-1].OffsetMs
	}
	out := make([]float64, width)
	next := 0
	current := 0
	for i := 0; i < width; i++ {
		var at int64
		if width > 1 {
			at = int64(math.Round(float64(i) * float64(span) / float64(width-1)))
		}
		for next < len(r.Timeline) && r.Timeline[next].OffsetMs <= at {
			current = r.Timeline[next].Score
			next++
		}
		out[i] = float64(current)
	}
	return out
}

func levelColor(level score.Level) string {
	switch level {
	case score.LevelHighRisk:
		return colorHighRisk
	case score.LevelSuspicious:
		return colorSuspicious
	default:
		return colorNormal
	}
}

func autoPlotWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return defaultPlotWidth
	}
	return plotWidthFor(terminalWidth(file))
}

// plotWidthFor computes a plot width that fits within the total available width.
func plotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth(file *os.File) int {
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 cell to its bit in U+2800.
func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
