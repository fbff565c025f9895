package pipeline

import "github.com/theirongolddev/runway/internal/model"

// Options fixes the aggregation policy and unit system for a computation.
type Options struct {
	Policy model.Policy
	Units  model.Units
}

// DefaultOptions is pooled-weighted aggregation over 30-day months.
func DefaultOptions() Options {
	return Options{
		Policy: model.PolicyPooledWeighted,
		Units:  model.DefaultUnits(),
	}
}

// Compute derives every output from one input snapshot. It has no side
// effects, so identical inputs always give identical outputs.
func Compute(in model.Inputs, opts Options) model.Outputs {
	if opts.Units.DaysPerMonth <= 0 {
		opts.Units.DaysPerMonth = model.DefaultUnits().DaysPerMonth
	}

	valid := ValidProducts(in.Dataset.Products)
	agg := Aggregate(valid, opts.Policy)
	monthly := MonthlyCash(agg.AggregateProductivity, opts.Units)
	trend := ProjectTrend(in.Dataset.History, monthly)
	sens, adjusted := Simulate(valid, trend, in.Params, opts)

	return model.Outputs{
		Valid:                valid,
		Adjusted:             adjusted,
		Productivity:         agg,
		MonthlyCashGenerated: monthly,
		Trend:                trend,
		Sensitivity:          sens,
	}
}
