package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/tui/theme"
)

// SliderFraction maps value into [0,1] along [lo,hi]. Out-of-range values
// are pinned to the nearest end.
func SliderFraction(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return max(0, min((value-lo)/(hi-lo), 1))
}

// Slider renders one labelled parameter slider. The bar spans [lo,hi] and
// the current value is printed after it.
func Slider(label, value string, fraction float64, selected bool, labelW, barWidth int) string {
	t := theme.Active

	fill := t.TextMuted
	labelColor := t.TextMuted
	marker := "  "
	if selected {
		fill = t.Accent
		labelColor = t.TextPrimary
		marker = "▸ "
	}

	bar := progress.New(
		progress.WithSolidFill(string(fill)),
		progress.WithWidth(max(barWidth, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	markerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(labelColor).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(fill).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return markerStyle.Render(marker) +
		labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(fraction) +
		spaceStyle.Render(" ") +
		valueStyle.Render(value)
}
