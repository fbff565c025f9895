package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

// trendByRow maps each history row to its projected trend row. Incomplete
// rows have no entry.
func trendByRow(history []model.MonthlyBalance, trend model.TrendResult) []*model.TrendRow {
	rows := make([]*model.TrendRow, len(history))
	j := 0
	for i, h := range history {
		if h.Complete() && j < len(trend.Rows) {
			rows[i] = &trend.Rows[j]
			j++
		}
	}
	return rows
}

func (a App) renderHistoryTab(cw, contentH int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	numW := max((innerW-2-12-6)/6, 10)
	cols := []gridColumn{
		{title: "Month", width: 12},
		{title: "Opening", width: numW, right: true},
		{title: "Closing", width: numW, right: true},
		{title: "Outflow", width: numW, right: true},
		{title: "Generated", width: numW, right: true},
		{title: "Net", width: numW, right: true},
		{title: "Projected", width: numW, right: true},
	}

	trend := trendByRow(a.ds.History, a.out.Trend)
	cells := make([][]string, len(a.ds.History))
	invalid := make([]bool, len(a.ds.History))
	for i, h := range a.ds.History {
		row := []string{h.Month, amountOrBlank(h.OpeningBalance), amountOrBlank(h.ClosingBalance)}
		if tr := trend[i]; tr != nil {
			row = append(row,
				cli.FormatAmount(tr.MonthlyOutflow, 2),
				cli.FormatAmount(tr.MonthlyCashGenerated, 2),
				cli.FormatSigned(tr.MonthlyNetChange, 2),
				cli.FormatAmount(tr.ProjectedNextBalance, 2),
			)
		} else {
			row = append(row, "-", "-", "-", "-")
			invalid[i] = true
		}
		cells[i] = row
	}

	tableH := max(contentH-8, 3)
	offset := gridOffset(a.history.row, len(cells), tableH)

	var b strings.Builder
	title := fmt.Sprintf("Monthly History (%d rows, %d projected)", len(a.ds.History), len(a.out.Trend.Rows))
	b.WriteString(components.ContentCard(title, renderGrid(a.history, cols, cells, invalid, offset, tableH), cw))
	b.WriteString("\n")

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	var foot strings.Builder
	if a.out.Trend.HasHistory {
		foot.WriteString(mutedStyle.Render("Latest closing ") +
			valueStyle.Render(cli.FormatAmount(a.out.Trend.LatestClosingBalance, 2)) +
			mutedStyle.Render("   latest outflow ") +
			valueStyle.Render(cli.FormatAmount(a.out.Trend.LatestOutflow, 2)) +
			mutedStyle.Render("   "+a.opts.Units.Currency))
	} else {
		foot.WriteString(mutedStyle.Render("No complete rows: add a month with both balances to project."))
	}
	b.WriteString(components.ContentCard("", foot.String(), cw))

	return b.String()
}

func amountOrBlank(v *float64) string {
	if v == nil {
		return ""
	}
	return cli.FormatAmount(*v, 2)
}
