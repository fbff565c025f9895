package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

func (a App) renderProductsTab(cw, contentH int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	numW := max((innerW-2-20-5)/5, 10)
	cols := []gridColumn{
		{title: "Name", width: 20},
		{title: "TP", width: numW, right: true},
		{title: "LT", width: numW, right: true},
		{title: "TP/LT", width: numW, right: true},
		{title: "Share", width: numW, right: true},
	}

	cells := make([][]string, len(a.rates))
	invalid := make([]bool, len(a.rates))
	for i, r := range a.rates {
		p := r.Product
		row := []string{p.Name, amountOrBlank(p.Throughput), amountOrBlank(p.LeadTime)}
		if r.Valid {
			row = append(row, cli.FormatAmount(r.Rate, 2), cli.FormatPercent(r.Share))
		} else {
			row = append(row, "excluded", "-")
			invalid[i] = true
		}
		cells[i] = row
	}

	tableH := max(contentH-14, 3)
	offset := gridOffset(a.products.row, len(cells), tableH)

	var b strings.Builder
	title := fmt.Sprintf("Products (%d valid of %d)", a.out.Productivity.ValidProducts, len(a.ds.Products))
	b.WriteString(components.ContentCard(title, renderGrid(a.products, cols, cells, invalid, offset, tableH), cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)

	compare := a.renderPolicyComparison(components.CardInnerWidth(halves[0]))
	cards := []string{components.ContentCard("Aggregation", compare, halves[0])}

	var bars []components.HBar
	for _, r := range a.rates {
		if !r.Valid {
			continue
		}
		bars = append(bars, components.HBar{
			Label: r.Product.Name,
			Value: r.Rate,
			Text:  cli.FormatAmount(r.Rate, 2) + "/day",
		})
	}
	rateBody := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("no valid products")
	if len(bars) > 0 {
		rateBody = components.HBarChart(bars, t.Accent, components.CardInnerWidth(halves[1]))
	}
	cards = append(cards, components.ContentCard("Rate per Product", rateBody, halves[1]))

	b.WriteString(components.CardRow(cards))
	return b.String()
}

// renderPolicyComparison shows both aggregation policies side by side,
// marking the one in use.
func (a App) renderPolicyComparison(innerW int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	activeStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	pooled, averaged := a.out.Productivity, a.alt
	if a.opts.Policy == model.PolicyPerProductAveraged {
		pooled, averaged = a.alt, a.out.Productivity
	}

	line := func(agg model.ProductivityAggregate) string {
		style, marker := valueStyle, "  "
		if agg.Policy == a.opts.Policy {
			style, marker = activeStyle, "▸ "
		}
		monthly := pipeline.MonthlyCash(agg.AggregateProductivity, a.opts.Units)
		text := fmt.Sprintf("%-22s LT %s  %s/day  %s/month",
			agg.Policy.String(),
			cli.FormatAmount(agg.EffectiveLeadTime, 1),
			cli.FormatAmount(agg.AggregateProductivity, 2),
			cli.FormatAmount(monthly, 2),
		)
		return style.Render(marker + truncStr(text, innerW-2))
	}

	var b strings.Builder
	b.WriteString(line(pooled))
	b.WriteString("\n")
	b.WriteString(line(averaged))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Total TP ") +
		valueStyle.Render(cli.FormatAmount(a.out.Productivity.TotalThroughput, 1)+" "+a.opts.Units.Currency))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("[P] switch policy"))
	return b.String()
}
