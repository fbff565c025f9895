// Package cmd implements the runway CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/runway/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Policy:         %s\n", cfg.General.Policy)
	if in := config.GetInput(cfg); in != "" {
		fmt.Printf("    Input:          %s\n", in)
	} else {
		fmt.Println("    Input:          built-in sample")
	}
	fmt.Println()

	fmt.Println("  [Units]")
	fmt.Printf("    Days per month: %g\n", cfg.Units.DaysPerMonth)
	fmt.Printf("    Currency:       %s\n", cfg.Units.Currency)
	fmt.Printf("    Time:           %s\n", cfg.Units.Time)
	fmt.Println()

	b := cfg.Bounds()
	d := cfg.Simulation.Defaults
	fmt.Println("  [Simulation]")
	fmt.Printf("    Defaults:       TP %g%%  LT %g%%  injection %g\n", d.TPRate, d.LTRate, d.CashInjection)
	fmt.Printf("    Bounds:         TP %g..%g%%  LT %g..%g%%\n", b.TPMin, b.TPMax, b.LTMin, b.LTMax)
	fmt.Printf("    Steps:          rate %g  injection %g\n", cfg.Simulation.RateStep, cfg.Simulation.InjectionStep)
	fmt.Println()

	fmt.Println("  [Export]")
	fmt.Printf("    Path:           %s\n", cfg.Export.Path)
	fmt.Printf("    Format:         %s\n", cfg.Export.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:          %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:        %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:          %s\n", config.GetLogLevel(cfg))
	fmt.Println()

	fmt.Println("  Run `runway setup` to reconfigure.")
	return nil
}
