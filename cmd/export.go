package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/export"

	"github.com/spf13/cobra"
)

var (
	flagExportOut      string
	flagExportFormat   string
	flagExportAdjusted bool
	flagExportList     bool
	flagExportDelete   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write trend and product tables to .xlsx or a SQLite file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output path (default from config)")
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "", "xlsx or sqlite (inferred from the extension when empty)")
	exportCmd.Flags().BoolVar(&flagExportAdjusted, "adjusted", false, "Write the simulated TP/LT instead of the inputs")
	exportCmd.Flags().BoolVar(&flagExportList, "list", false, "List the runs stored in a SQLite export")
	exportCmd.Flags().StringVar(&flagExportDelete, "delete", "", "Delete a run by ID from a SQLite export")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	path := flagExportOut
	if path == "" {
		path = appCfg.Export.Path
	}
	format := flagExportFormat
	if format == "" && flagExportOut == "" {
		format = appCfg.Export.Format
	}

	if flagExportList || flagExportDelete != "" {
		f, err := export.FormatFor(path, format)
		if err != nil {
			return err
		}
		if f != export.FormatSQLite {
			return fmt.Errorf("--list and --delete need a SQLite export, got %s", path)
		}
		if flagExportDelete != "" {
			remaining, err := export.DeleteRun(path, flagExportDelete)
			if err != nil {
				return err
			}
			fmt.Printf("  Deleted run %s (%d left in %s)\n", flagExportDelete, remaining, path)
			return nil
		}
		return listRuns(path)
	}

	in, err := loadInputs()
	if err != nil {
		return err
	}

	target := export.Target{
		Path:     path,
		Format:   format,
		Adjusted: flagExportAdjusted,
		Policy:   in.opts.Policy,
		Units:    in.opts.Units,
	}
	runID, err := export.Save(target, in.compute())
	if err != nil {
		return err
	}

	logger.WithField("path", path).Debug("export written")
	if runID != "" {
		fmt.Printf("  Exported run %s to %s\n", runID, path)
	} else {
		fmt.Printf("  Exported to %s\n", path)
	}
	return nil
}

func listRuns(path string) error {
	runs, err := export.ListRuns(path)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RUNS  %d in %s", len(runs), filepath.Base(path))))
	fmt.Println()
	if len(runs) == 0 {
		fmt.Println("  No runs.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Policy.String(),
			cli.FormatRate(r.Params.TPRate) + " / " + cli.FormatRate(r.Params.LTRate),
			cli.FormatSigned(r.NetMonthlyChange, 0),
			r.Status.String(),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Run", "Created", "Policy", "TP / LT", "Net", "Status"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
