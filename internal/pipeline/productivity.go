// Package pipeline computes cash productivity, the trend projection and the
// sensitivity simulation from the two input tables.
package pipeline

import "github.com/theirongolddev/runway/internal/model"

// ValidProducts returns the products that can take part in aggregation,
// preserving input order. Invalid rows are dropped without error.
func ValidProducts(products []model.Product) []model.Product {
	valid := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	return valid
}

// Aggregate collapses products into one productivity figure using policy.
// Invalid rows are filtered first. An empty set or zero total throughput
// yields zero productivity.
func Aggregate(products []model.Product, policy model.Policy) model.ProductivityAggregate {
	valid := ValidProducts(products)
	agg := model.ProductivityAggregate{
		Policy:        policy,
		ValidProducts: len(valid),
	}
	if len(valid) == 0 {
		return agg
	}

	var weighted, rateSum, ltSum float64
	for _, p := range valid {
		tp, lt := p.TP(), p.LT()
		agg.TotalThroughput += tp
		weighted += tp * lt
		rateSum += tp / lt
		ltSum += lt
	}

	if agg.TotalThroughput == 0 {
		// Both policies degrade to zero here; report the plain mean lead time.
		agg.EffectiveLeadTime = ltSum / float64(len(valid))
		return agg
	}

	switch policy {
	case model.PolicyPerProductAveraged:
		agg.AggregateProductivity = rateSum / float64(len(valid))
		agg.EffectiveLeadTime = ltSum / float64(len(valid))
	default:
		agg.EffectiveLeadTime = weighted / agg.TotalThroughput
		if agg.EffectiveLeadTime > 0 {
			agg.AggregateProductivity = agg.TotalThroughput / agg.EffectiveLeadTime
		}
	}

	return agg
}

// MonthlyCash converts a daily productivity figure into one month of cash.
func MonthlyCash(productivity float64, units model.Units) float64 {
	return productivity * units.DaysPerMonth
}

// ProductRate is one product's own TP/LT rate, used by the products view.
type ProductRate struct {
	Product model.Product
	Valid   bool
	Rate    float64 // currency per day; 0 when invalid
	Share   float64 // share of total valid throughput, 0-1
}

// ProductRates returns one entry per input row, in input order.
func ProductRates(products []model.Product) []ProductRate {
	var total float64
	for _, p := range products {
		if p.Valid() {
			total += p.TP()
		}
	}

	rates := make([]ProductRate, len(products))
	for i, p := range products {
		r := ProductRate{Product: p, Valid: p.Valid()}
		if r.Valid {
			r.Rate = p.TP() / p.LT()
			if total != 0 {
				r.Share = p.TP() / total
			}
		}
		rates[i] = r
	}
	return rates
}
