package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	out := a.out
	sens := out.Sensitivity
	units := a.opts.Units
	var b strings.Builder

	// Row 1: Metric cards
	runway := sens.Status.String()
	if sens.SurvivalMonths != nil {
		runway = cli.FormatMonths(sens.SurvivalMonths)
	}
	latestDelta := "no complete history"
	if out.Trend.HasHistory {
		latestDelta = "outflow " + cli.FormatAmount(out.Trend.LatestOutflow, 2) + "/month"
	}

	cards := []components.Metric{
		{
			Label: "Productivity",
			Value: cli.FormatAmount(out.Productivity.AggregateProductivity, 2) + "/day",
			Delta: fmt.Sprintf("LT %s", cli.FormatDays(out.Productivity.EffectiveLeadTime, units.Time)),
		},
		{
			Label: "Cash Generated",
			Value: cli.FormatAmount(out.MonthlyCashGenerated, 2),
			Delta: fmt.Sprintf("%s per %g-day month", units.Currency, units.DaysPerMonth),
		},
		{
			Label: "Latest Balance",
			Value: cli.FormatAmount(out.Trend.LatestClosingBalance, 2),
			Delta: latestDelta,
		},
		{
			Label: "Runway",
			Value: runway,
			Delta: "net " + cli.FormatSigned(sens.NetMonthlyChange, 2) + "/month",
			Color: t.Status(sens.Status),
		},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Balance chart
	if rows := out.Trend.Rows; len(rows) > 0 {
		closing := make([]float64, len(rows))
		projected := make([]float64, len(rows))
		labels := make([]string, len(rows))
		for i, r := range rows {
			closing[i] = r.ClosingBalance
			projected[i] = r.ProjectedNextBalance
			labels[i] = r.Month
		}
		series := []components.Series{
			{Name: "closing balance", Values: closing, Color: t.Balance, Glyph: '●'},
			{Name: "next-month projection", Values: projected, Color: t.Projection, Glyph: '◆'},
		}

		innerW := components.CardInnerWidth(cw)
		body := components.LineChart(series, labels, innerW, 10) + "\n\n" +
			components.Legend(series, "depletion line")
		b.WriteString(components.ContentCard("Cash Balance Trend", body, cw))
		b.WriteString("\n")
	}

	// Row 3: Simulation result + parameters
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Simulation Result", a.renderResultBody(), halves[0]),
		components.ContentCard("Parameters", a.renderParamsBody(), halves[1]),
	}))

	return b.String()
}

// renderResultBody lists the improved figures and the runway message.
func (a App) renderResultBody() string {
	t := theme.Active
	sens := a.out.Sensitivity
	units := a.opts.Units

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	statusStyle := lipgloss.NewStyle().Foreground(t.Status(sens.Status)).Background(t.Surface).Bold(true)

	type field struct{ label, value string }
	fields := []field{
		{"Improved TP", cli.FormatAmount(sens.ImprovedThroughput, 1) + " " + units.Currency},
		{"Improved LT", cli.FormatDays(sens.ImprovedLeadTime, units.Time)},
		{"Improved productivity", cli.FormatAmount(sens.ImprovedProductivity, 2) + "/day"},
		{"Adjusted cash", cli.FormatAmount(sens.AdjustedCash, 2)},
		{"Net monthly change", cli.FormatSigned(sens.NetMonthlyChange, 2)},
	}

	var b strings.Builder
	for _, f := range fields {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-22s ", f.label)))
		b.WriteString(valueStyle.Render(f.value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(sens.Message))
	return b.String()
}

func (a App) renderParamsBody() string {
	t := theme.Active
	p := a.params

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	signed := func(v float64) string {
		return lipgloss.NewStyle().Foreground(t.Signed(v)).Background(t.Surface).Render(cli.FormatRate(v))
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", "TP improvement")) + signed(p.TPRate) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", "LT reduction")) + signed(p.LTRate) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", "Cash injection")) +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(cli.FormatAmount(p.CashInjection, 2)) + "\n")
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(a.breakevenHint()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("[s] adjust on the Simulate tab"))
	return b.String()
}

// breakevenHint reports how far monthly cash generation is from covering
// the latest outflow.
func (a App) breakevenHint() string {
	out := a.out
	if !out.Trend.HasHistory {
		return "add history to compare against outflow"
	}
	gap := out.Trend.LatestOutflow - out.MonthlyCashGenerated
	switch {
	case math.Abs(gap) <= a.opts.Units.Epsilon:
		return "generation matches the latest outflow"
	case gap < 0:
		return fmt.Sprintf("generation exceeds outflow by %s/month", cli.FormatAmount(-gap, 2))
	case out.MonthlyCashGenerated <= 0:
		return "no cash generated by the current product mix"
	default:
		need := (out.Trend.LatestOutflow/out.MonthlyCashGenerated - 1) * 100
		return fmt.Sprintf("needs %s more productivity to break even", cli.FormatRate(math.Round(need*10)/10))
	}
}

// statusLabel is the short, colored runway label used outside the result card.
func statusLabel(s model.RunwayStatus) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.Status(s)).Background(t.Surface).Bold(true).Render(s.String())
}
