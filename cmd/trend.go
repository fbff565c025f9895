package cmd

import (
	"fmt"

	"github.com/theirongolddev/runway/internal/cli"

	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Monthly history with projected next balances",
	RunE:  runTrend,
}

func init() {
	rootCmd.AddCommand(trendCmd)
}

func runTrend(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	out := in.compute()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CASH TREND  %s/month generated", cli.FormatAmount(out.MonthlyCashGenerated, 0))))
	fmt.Println()

	if len(out.Trend.Rows) == 0 {
		fmt.Println("  No complete history rows.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(out.Trend.Rows))
	for _, r := range out.Trend.Rows {
		rows = append(rows, []string{
			r.Month,
			cli.FormatAmount(r.OpeningBalance, 0),
			cli.FormatAmount(r.ClosingBalance, 0),
			cli.FormatAmount(r.MonthlyOutflow, 0),
			cli.FormatAmount(r.MonthlyCashGenerated, 0),
			cli.FormatSigned(r.MonthlyNetChange, 0),
			cli.FormatAmount(r.ProjectedNextBalance, 0),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Opening", "Closing", "Outflow", "Generated", "Net", "Projected"},
		Rows:    rows,
	}))

	if skipped := len(in.ds.History) - len(out.Trend.Rows); skipped > 0 {
		fmt.Printf("\n  %s\n", cli.RenderMuted(fmt.Sprintf("%d incomplete rows skipped", skipped)))
	}

	closing := closingSeries(out.Trend)
	projected := make([]float64, len(out.Trend.Rows))
	for i, r := range out.Trend.Rows {
		projected[i] = r.ProjectedNextBalance
	}
	fmt.Println()
	fmt.Printf("  %-10s %s\n", cli.RenderMuted("closing"), cli.RenderSparkline(closing))
	fmt.Printf("  %-10s %s\n", cli.RenderMuted("projected"), cli.RenderSparkline(projected))
	fmt.Println()
	return nil
}
