package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/runway/internal/config"
	"github.com/theirongolddev/runway/internal/model"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := appCfg

	prompt := func() string {
		fmt.Print("     > ")
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	fmt.Println()
	fmt.Println("  Welcome to runway!")
	fmt.Println()

	// 1. Policy
	fmt.Println("  1. Productivity aggregation")
	fmt.Println("     (1) Pooled, throughput-weighted lead time [default]")
	fmt.Println("     (2) Per-product rates, averaged")
	switch prompt() {
	case "2":
		cfg.General.Policy = model.PolicyPerProductAveraged.String()
	default:
		cfg.General.Policy = model.PolicyPooledWeighted.String()
	}
	fmt.Println()

	// 2. Units
	fmt.Println("  2. Days per month")
	fmt.Printf("     Current: %g\n", cfg.Units.DaysPerMonth)
	if s := prompt(); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil || d <= 0 {
			fmt.Printf("     %q is not a positive number, keeping %g\n", s, cfg.Units.DaysPerMonth)
		} else {
			cfg.Units.DaysPerMonth = d
		}
	}
	fmt.Println()

	fmt.Println("  3. Currency label")
	fmt.Printf("     Current: %s\n", cfg.Units.Currency)
	if s := prompt(); s != "" {
		cfg.Units.Currency = s
	}
	fmt.Println()

	// 4. Theme
	fmt.Println("  4. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Tokyo Night")
	fmt.Println("     (4) Terminal (ANSI 16)")
	switch prompt() {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "tokyo-night"
	case "4":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `runway setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
