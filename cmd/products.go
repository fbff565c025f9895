package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Per-product throughput, lead time and rate",
	RunE:  runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
}

func runProducts(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	u := in.opts.Units

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PRODUCTS  %d rows", len(in.ds.Products))))
	fmt.Println()

	if len(in.ds.Products) == 0 {
		fmt.Println("  No products.")
		fmt.Println()
		return nil
	}

	rates := pipeline.ProductRates(in.ds.Products)
	rows := make([][]string, 0, len(rates))
	maxRate, nameW := 0.0, 0
	for _, r := range rates {
		p := r.Product
		tp, lt, rate, share := "-", "-", "excluded", "-"
		if p.Throughput != nil {
			tp = cli.FormatAmount(*p.Throughput, 0)
		}
		if p.LeadTime != nil {
			lt = cli.FormatDays(*p.LeadTime, u.Time)
		}
		if r.Valid {
			rate = cli.FormatAmount(r.Rate, 2)
			share = cli.FormatPercent(r.Share)
			maxRate = max(maxRate, r.Rate)
			nameW = max(nameW, lipgloss.Width(p.Name))
		}
		name := p.Name
		if name == "" {
			name = "(unnamed)"
		}
		rows = append(rows, []string{name, tp, lt, rate, share})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Product", "TP", "LT", u.Currency + "/day", "Share"},
		Rows:    rows,
	}))

	if maxRate > 0 {
		fmt.Println()
		for _, r := range rates {
			if !r.Valid {
				continue
			}
			pad := strings.Repeat(" ", nameW-lipgloss.Width(r.Product.Name))
			fmt.Printf("  %s%s │ %s %s\n", r.Product.Name, pad,
				cli.RenderHorizontalBar(r.Rate, maxRate, 30), cli.FormatAmount(r.Rate, 2))
		}
	}

	valid := pipeline.ValidProducts(in.ds.Products)
	fmt.Println()
	for _, p := range []model.Policy{model.PolicyPooledWeighted, model.PolicyPerProductAveraged} {
		agg := pipeline.Aggregate(valid, p)
		marker := " "
		if p == in.opts.Policy {
			marker = "*"
		}
		fmt.Printf("  %s %-22s %s %s/day  %s %s/month\n", marker, p.String(),
			cli.FormatAmount(agg.AggregateProductivity, 2), u.Currency,
			cli.FormatAmount(pipeline.MonthlyCash(agg.AggregateProductivity, u), 0), u.Currency)
	}
	fmt.Println()
	return nil
}
