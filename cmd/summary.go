package cmd

import (
	"fmt"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Productivity, latest balance and runway at a glance",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	out := in.compute()
	u := in.opts.Units
	agg := out.Productivity
	sens := out.Sensitivity

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CASH RUNWAY  %s", in.opts.Policy)))
	fmt.Println()

	if agg.ValidProducts == 0 {
		fmt.Println("  No valid products: productivity is 0.")
		fmt.Println()
	}

	rows := [][]string{
		{"Valid Products", fmt.Sprintf("%d of %d", agg.ValidProducts, len(in.ds.Products))},
		{"Total Throughput", cli.FormatAmount(agg.TotalThroughput, 0) + " " + u.Currency},
		{"Effective Lead Time", cli.FormatDays(agg.EffectiveLeadTime, u.Time)},
		{"Productivity", fmt.Sprintf("%s %s/day", cli.FormatAmount(agg.AggregateProductivity, 2), u.Currency)},
		{"Cash Generated", fmt.Sprintf("%s %s/month", cli.FormatAmount(out.MonthlyCashGenerated, 0), u.Currency)},
		{"---"},
	}

	if out.Trend.HasHistory {
		rows = append(rows,
			[]string{"Latest Balance", cli.FormatAmount(out.Trend.LatestClosingBalance, 0) + " " + u.Currency},
			[]string{"Latest Outflow", cli.FormatAmount(out.Trend.LatestOutflow, 0) + " " + u.Currency},
			[]string{"---"},
		)
	} else {
		rows = append(rows, []string{"Latest Balance", "no complete history"}, []string{"---"})
	}

	rows = append(rows, paramRows(sens, u)...)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  %s\n", cli.RenderStatus(sens))

	if closing := closingSeries(out.Trend); len(closing) > 1 {
		fmt.Printf("  %s %s\n", cli.RenderMuted("balance"), cli.RenderSparkline(closing))
	}
	fmt.Println()
	return nil
}

// paramRows lists the what-if knobs and their effect.
func paramRows(sens model.SensitivityResult, u model.Units) [][]string {
	p := sens.Params
	return [][]string{
		{"TP Rate", cli.FormatRate(p.TPRate)},
		{"LT Rate", cli.FormatRate(p.LTRate)},
		{"Cash Injection", cli.FormatAmount(p.CashInjection, 0) + " " + u.Currency},
		{"Improved Productivity", fmt.Sprintf("%s %s/day", cli.FormatAmount(sens.ImprovedProductivity, 2), u.Currency)},
		{"Adjusted Cash", cli.FormatAmount(sens.AdjustedCash, 0) + " " + u.Currency},
		{"Net Monthly Change", cli.FormatSigned(sens.NetMonthlyChange, 0) + " " + u.Currency},
		{"Survival", survivalText(sens)},
	}
}

func survivalText(sens model.SensitivityResult) string {
	switch sens.Status {
	case model.StatusDepleting:
		return cli.FormatMonths(sens.SurvivalMonths)
	default:
		return sens.Status.String()
	}
}

func closingSeries(trend model.TrendResult) []float64 {
	values := make([]float64, len(trend.Rows))
	for i, r := range trend.Rows {
		values[i] = r.ClosingBalance
	}
	return values
}
