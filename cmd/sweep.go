package cmd

import (
	"fmt"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagSweepStep   float64
	flagSweepMetric string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Runway across a grid of TP and LT rates",
	Long: "Run the simulation for every TP/LT rate pair inside the slider bounds.\n" +
		"The cash injection from --injection is held fixed.",
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Float64Var(&flagSweepStep, "step", 25, "Rate step in whole percent")
	sweepCmd.Flags().StringVar(&flagSweepMetric, "metric", "months", "Cell value: months or net")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(_ *cobra.Command, _ []string) error {
	if flagSweepMetric != "months" && flagSweepMetric != "net" {
		return fmt.Errorf("unknown metric %q (want months or net)", flagSweepMetric)
	}
	if err := pipeline.ValidStep(flagSweepStep); err != nil {
		return err
	}

	in, err := loadInputs()
	if err != nil {
		return err
	}

	b := appCfg.Bounds()
	tpRates := pipeline.RateSteps(b.TPMin, b.TPMax, flagSweepStep)
	ltRates := pipeline.RateSteps(b.LTMin, b.LTMax, flagSweepStep)
	if err := pipeline.CheckGrid(tpRates, ltRates); err != nil {
		return fmt.Errorf("%w; use a larger --step", err)
	}
	cells := pipeline.Sweep(model.Inputs{Dataset: in.ds, Params: in.params}, in.opts, tpRates, ltRates)

	title := "SURVIVAL MONTHS"
	if flagSweepMetric == "net" {
		title = "NET MONTHLY CHANGE"
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  TP rows x LT columns", title)))
	fmt.Println()

	headers := []string{"TP \\ LT"}
	for _, lt := range ltRates {
		headers = append(headers, cli.FormatRate(lt))
	}

	rows := make([][]string, 0, len(tpRates))
	for i, tp := range tpRates {
		row := []string{cli.FormatRate(tp)}
		for j := range ltRates {
			row = append(row, sweepCellText(cells[i*len(ltRates)+j], flagSweepMetric))
		}
		rows = append(rows, row)
	}

	fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
	fmt.Println()
	return nil
}

func sweepCellText(c pipeline.SweepCell, metric string) string {
	if metric == "net" {
		return cli.FormatSigned(c.NetMonthlyChange, 0)
	}
	switch c.Status {
	case model.StatusDepleting:
		if c.SurvivalMonths != nil {
			return fmt.Sprintf("%.1f", *c.SurvivalMonths)
		}
	case model.StatusGrowing:
		return "growing"
	case model.StatusBreakeven:
		return "even"
	case model.StatusDepleted:
		return "0"
	}
	return "n/a"
}
