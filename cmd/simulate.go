package cmd

import (
	"fmt"

	"github.com/theirongolddev/runway/internal/cli"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "What-if result for --tp-rate, --lt-rate and --injection",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	out := in.compute()
	sens := out.Sensitivity
	u := in.opts.Units

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("WHAT-IF  TP %s  LT %s",
		cli.FormatRate(sens.Params.TPRate), cli.FormatRate(sens.Params.LTRate))))
	fmt.Println()

	rows := [][]string{
		{"Improved Throughput", cli.FormatAmount(sens.ImprovedThroughput, 0) + " " + u.Currency},
		{"Improved Lead Time", cli.FormatDays(sens.ImprovedLeadTime, u.Time)},
		{"Monthly Throughput", cli.FormatAmount(sens.ImprovedMonthlyThroughput, 0) + " " + u.Currency},
		{"---"},
	}
	rows = append(rows, paramRows(sens, u)...)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(out.Adjusted) > 0 {
		adj := make([][]string, 0, len(out.Adjusted))
		for _, p := range out.Adjusted {
			adj = append(adj, []string{
				p.Name,
				cli.FormatAmount(p.TP(), 1),
				cli.FormatDays(p.LT(), u.Time),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Adjusted Products",
			Headers: []string{"Product", "TP", "LT"},
			Rows:    adj,
		}))
	}

	fmt.Println()
	fmt.Printf("  %s\n\n", cli.RenderStatus(sens))
	return nil
}
