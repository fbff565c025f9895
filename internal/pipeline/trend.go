package pipeline

import "github.com/theirongolddev/runway/internal/model"

// ProjectTrend applies one month of cash generation to every complete
// history row. It is a uniform single-step comparison, not a rolling forecast.
// The latest figures come from the last complete row.
func ProjectTrend(history []model.MonthlyBalance, monthlyCashGenerated float64) model.TrendResult {
	var res model.TrendResult
	res.Rows = make([]model.TrendRow, 0, len(history))

	for _, h := range history {
		if !h.Complete() {
			continue
		}
		opening, closing := *h.OpeningBalance, *h.ClosingBalance
		outflow := opening - closing
		net := monthlyCashGenerated - outflow

		res.Rows = append(res.Rows, model.TrendRow{
			Month:                h.Month,
			OpeningBalance:       opening,
			ClosingBalance:       closing,
			MonthlyOutflow:       outflow,
			MonthlyCashGenerated: monthlyCashGenerated,
			MonthlyNetChange:     net,
			ProjectedNextBalance: closing + net,
		})
	}

	if n := len(res.Rows); n > 0 {
		last := res.Rows[n-1]
		res.LatestClosingBalance = last.ClosingBalance
		res.LatestOutflow = last.MonthlyOutflow
		res.HasHistory = true
	}

	return res
}
