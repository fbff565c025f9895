package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values, scaled between the
// series minimum and maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// Series is one line on a LineChart.
type Series struct {
	Name   string
	Values []float64 // NaN leaves a gap
	Color  lipgloss.Color
	Glyph  rune
}

type chartCell struct {
	r     rune
	color lipgloss.Color
}

// LineChart plots series against shared x labels with a y axis that always
// includes zero. The zero row is drawn as the depletion line.
func LineChart(series []Series, labels []string, width, height int) string {
	n := 0
	for _, s := range series {
		n = max(n, len(s.Values))
	}
	if n == 0 {
		return ""
	}
	if width < 20 || height < 4 {
		if len(series) > 0 {
			return Sparkline(series[0].Values, series[0].Color)
		}
		return ""
	}

	t := theme.Active

	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	// Snap the range to tick multiples
	tickStep := chartTickStep(hi - lo)
	for math.Ceil((hi-lo)/tickStep) > float64(max(2, height/2)) {
		tickStep *= 2
	}
	lo = math.Floor(lo/tickStep) * tickStep
	hi = math.Ceil(hi/tickStep) * tickStep

	rowOf := func(v float64) int {
		return int(math.Round((hi - v) / (hi - lo) * float64(height-1)))
	}

	// Y-axis tick labels
	yLabelW := 4
	tickLabels := make(map[int]string)
	for v := lo; v <= hi+tickStep/2; v += tickStep {
		lbl := formatChartLabel(v)
		tickLabels[rowOf(v)] = lbl
		yLabelW = max(yLabelW, len(lbl)+1)
	}

	plotW := max(width-yLabelW-1, 5)
	colOf := func(i int) int {
		if n == 1 {
			return plotW / 2
		}
		return i * (plotW - 1) / (n - 1)
	}

	grid := make([][]chartCell, height)
	for r := range grid {
		grid[r] = make([]chartCell, plotW)
		for c := range grid[r] {
			grid[r][c] = chartCell{r: ' '}
		}
	}

	zero := rowOf(0)
	for c := 0; c < plotW; c++ {
		grid[zero][c] = chartCell{r: '─', color: t.ZeroLine}
	}

	for _, s := range series {
		prevCol, prevRow := -1, -1
		for i, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				prevCol = -1
				continue
			}
			col, row := colOf(i), rowOf(v)
			// Connect to the previous point with a dotted trail
			if prevCol >= 0 {
				for c := prevCol + 1; c < col; c++ {
					frac := float64(c-prevCol) / float64(col-prevCol)
					r := int(math.Round(float64(prevRow) + frac*float64(row-prevRow)))
					grid[r][c] = chartCell{r: '·', color: s.Color}
				}
			}
			grid[row][col] = chartCell{r: s.Glyph, color: s.Color}
			prevCol, prevRow = col, row
		}
	}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bg := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for r := 0; r < height; r++ {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[r])))
		b.WriteString(axisStyle.Render("│"))
		for _, cell := range grid[r] {
			if cell.color == "" {
				b.WriteString(bg.Render(string(cell.r)))
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(cell.color).Background(t.Surface).Render(string(cell.r)))
		}
		if r < height-1 {
			b.WriteString("\n")
		}
	}

	// X-axis labels
	if len(labels) == n {
		buf := []rune(strings.Repeat(" ", plotW))
		lastEnd := -1
		for i, lbl := range labels {
			lr := []rune(lbl)
			pos := colOf(i) - len(lr)/2
			pos = max(0, min(pos, plotW-len(lr)))
			if pos <= lastEnd || pos < 0 {
				continue
			}
			copy(buf[pos:], lr)
			lastEnd = pos + len(lr)
		}
		b.WriteString("\n")
		b.WriteString(bg.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(buf), " ")))
	}

	return b.String()
}

// Legend renders "● name" entries for each series plus the zero line.
func Legend(series []Series, zeroLabel string) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	gap := lipgloss.NewStyle().Background(t.Surface).Render("   ")

	parts := make([]string, 0, len(series)+1)
	for _, s := range series {
		glyph := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render(string(s.Glyph))
		parts = append(parts, glyph+muted.Render(" "+s.Name))
	}
	if zeroLabel != "" {
		line := lipgloss.NewStyle().Foreground(t.ZeroLine).Background(t.Surface).Render("──")
		parts = append(parts, line+muted.Render(" "+zeroLabel))
	}
	return strings.Join(parts, gap)
}

// HBar is one labelled horizontal bar.
type HBar struct {
	Label string
	Value float64
	Text  string // shown after the bar
}

// HBarChart renders one bar per entry, scaled to the largest value.
func HBarChart(bars []HBar, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, textW := 0, 0
	peak := 0.0
	for _, bar := range bars {
		labelW = max(labelW, lipgloss.Width(bar.Label))
		textW = max(textW, lipgloss.Width(bar.Text))
		peak = math.Max(peak, bar.Value)
	}
	labelW = min(labelW, width/3)
	barMax := max(width-labelW-textW-3, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Width(labelW).MaxWidth(labelW)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	bg := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, bar := range bars {
		n := 0
		if peak > 0 && bar.Value > 0 {
			n = max(1, int(bar.Value/peak*float64(barMax)))
		}
		lines[i] = labelStyle.Render(bar.Label) + bg.Render(" ") +
			barStyle.Render(strings.Repeat("█", n)) +
			bg.Render(strings.Repeat(" ", barMax-n+1)) +
			textStyle.Render(bar.Text)
	}
	return strings.Join(lines, "\n")
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(span float64) float64 {
	if span <= 0 {
		return 1
	}
	rough := span / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	if v < 0 {
		return "-" + formatChartLabel(-v)
	}
	switch {
	case v >= 1e9:
		if v == math.Trunc(v/1e9)*1e9 {
			return fmt.Sprintf("%.0fB", v/1e9)
		}
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1 || v == 0:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
