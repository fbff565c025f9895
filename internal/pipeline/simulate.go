package pipeline

import (
	"fmt"
	"math"

	"github.com/theirongolddev/runway/internal/model"
)

// AdjustProducts applies the throughput and lead-time rates to each valid
// product. Products whose adjusted lead time is no longer positive (a
// reduction of 100% or more) are dropped.
func AdjustProducts(valid []model.Product, params model.SimulationParams) []model.Product {
	tpFactor := 1 + params.TPRate/100
	ltFactor := 1 - params.LTRate/100

	adjusted := make([]model.Product, 0, len(valid))
	for _, p := range valid {
		if !p.Valid() {
			continue
		}
		next := model.NewProduct(p.Name, p.TP()*tpFactor, p.LT()*ltFactor)
		if !next.Valid() {
			continue
		}
		adjusted = append(adjusted, next)
	}
	return adjusted
}

// Simulate recomputes productivity over the adjusted products with the same
// policy as the baseline and classifies the resulting runway against the
// latest month of the trend. It returns the result and the adjusted products.
func Simulate(valid []model.Product, trend model.TrendResult, params model.SimulationParams, opts Options) (model.SensitivityResult, []model.Product) {
	if params.CashInjection < 0 {
		params.CashInjection = 0
	}

	adjusted := AdjustProducts(valid, params)
	agg := Aggregate(adjusted, opts.Policy)

	res := model.SensitivityResult{
		Params:                    params,
		ImprovedThroughput:        agg.TotalThroughput,
		ImprovedLeadTime:          agg.EffectiveLeadTime,
		ImprovedProductivity:      agg.AggregateProductivity,
		ImprovedMonthlyThroughput: MonthlyCash(agg.AggregateProductivity, opts.Units),
		AdjustedCash:              trend.LatestClosingBalance + params.CashInjection,
	}
	res.NetMonthlyChange = res.ImprovedMonthlyThroughput - trend.LatestOutflow

	res.Status, res.SurvivalMonths = classify(res.NetMonthlyChange, res.AdjustedCash, opts.Units.Epsilon)
	res.Message = StatusMessage(res, opts.Units)
	return res, adjusted
}

// classify never returns a NaN, infinite or negative survival figure.
func classify(net, cash, epsilon float64) (model.RunwayStatus, *float64) {
	if !isFinite(net) || !isFinite(cash) {
		return model.StatusUnprojectable, nil
	}
	switch {
	case math.Abs(net) <= epsilon:
		return model.StatusBreakeven, nil
	case net > 0:
		return model.StatusGrowing, nil
	case cash <= 0:
		return model.StatusDepleted, nil
	}

	months := cash / math.Abs(net)
	if !isFinite(months) {
		return model.StatusUnprojectable, nil
	}
	return model.StatusDepleting, &months
}

// StatusMessage renders the human-readable runway line for a result.
func StatusMessage(res model.SensitivityResult, units model.Units) string {
	switch res.Status {
	case model.StatusDepleting:
		if res.SurvivalMonths == nil {
			return "cash is depleting"
		}
		return fmt.Sprintf("cash runs out in %.2f months even after the injection", *res.SurvivalMonths)
	case model.StatusBreakeven:
		return "breakeven: sustainable at the current rate"
	case model.StatusGrowing:
		return "in the black: cash is increasing"
	case model.StatusDepleted:
		return fmt.Sprintf("already depleted: no cash left to cover %.2f %s/month of net outflow",
			math.Abs(res.NetMonthlyChange), units.Currency)
	default:
		return "cannot project runway from the current inputs"
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
