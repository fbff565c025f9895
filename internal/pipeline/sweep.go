package pipeline

import (
	"fmt"
	"math"

	"github.com/theirongolddev/runway/internal/model"
)

// SweepCell is one point of a sensitivity grid.
type SweepCell struct {
	TPRate           float64            `json:"tpRate"`
	LTRate           float64            `json:"ltRate"`
	NetMonthlyChange float64            `json:"netMonthlyChange"`
	SurvivalMonths   *float64           `json:"survivalMonths,omitempty"`
	Status           model.RunwayStatus `json:"status"`
}

// Sweep runs the simulation for every (tpRate, ltRate) pair, keeping the
// cash injection from in.Params. Cells are ordered row-major by tpRates.
func Sweep(in model.Inputs, opts Options, tpRates, ltRates []float64) []SweepCell {
	base := Compute(model.Inputs{Dataset: in.Dataset}, opts)

	cells := make([]SweepCell, 0, len(tpRates)*len(ltRates))
	for _, tp := range tpRates {
		for _, lt := range ltRates {
			params := model.SimulationParams{
				TPRate:        tp,
				LTRate:        lt,
				CashInjection: in.Params.CashInjection,
			}
			res, _ := Simulate(base.Valid, base.Trend, params, opts)
			cells = append(cells, SweepCell{
				TPRate:           tp,
				LTRate:           lt,
				NetMonthlyChange: res.NetMonthlyChange,
				SurvivalMonths:   res.SurvivalMonths,
				Status:           res.Status,
			})
		}
	}
	return cells
}

// Sweep limits. RateSteps never returns more than MaxRateSteps values, and
// callers reject grids larger than MaxSweepCells.
const (
	MaxRateSteps  = 1000
	MaxSweepCells = 10000
)

// RateSteps returns min, min+step, ... up to and including max, capped at
// MaxRateSteps values. A non-positive or non-finite step, non-finite
// bounds or an inverted range yield just min.
func RateSteps(lo, hi, step float64) []float64 {
	if !isFinite(lo) || !isFinite(hi) || !isFinite(step) || step <= 0 || hi < lo {
		return []float64{lo}
	}
	count := math.Floor((hi-lo)/step+1e-9) + 1
	if !isFinite(count) || count > MaxRateSteps {
		count = MaxRateSteps
	}
	steps := make([]float64, int(count))
	for i := range steps {
		steps[i] = lo + float64(i)*step
	}
	return steps
}

// ValidStep reports whether step is usable as a sweep increment.
func ValidStep(step float64) error {
	if !isFinite(step) || step <= 0 {
		return fmt.Errorf("rate step must be a positive number, got %g", step)
	}
	return nil
}

// CheckGrid rejects sweeps with more than MaxSweepCells cells.
func CheckGrid(tpRates, ltRates []float64) error {
	if len(tpRates) == 0 || len(ltRates) == 0 {
		return fmt.Errorf("sweep needs at least one TP and one LT rate")
	}
	if len(tpRates) > MaxSweepCells/len(ltRates) {
		return fmt.Errorf("sweep of %d x %d rates exceeds %d cells", len(tpRates), len(ltRates), MaxSweepCells)
	}
	return nil
}
