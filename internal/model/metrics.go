package model

import (
	"fmt"
	"strings"
)

// Policy selects how product records collapse into one productivity figure.
type Policy int

const (
	// PolicyPooledWeighted treats the mix as one pooled process with a
	// throughput-weighted average lead time.
	PolicyPooledWeighted Policy = iota
	// PolicyPerProductAveraged averages each product's TP/LT rate, unweighted.
	PolicyPerProductAveraged
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyPooledWeighted:
		return "pooled-weighted"
	case PolicyPerProductAveraged:
		return "per-product-averaged"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the configuration names plus the short aliases "a"/"b".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pooled-weighted", "pooled", "weighted", "a":
		return PolicyPooledWeighted, nil
	case "per-product-averaged", "per-product", "averaged", "b":
		return PolicyPerProductAveraged, nil
	}
	return PolicyPooledWeighted, fmt.Errorf("unknown aggregation policy %q", s)
}

// Units names the unit system every amount is expressed in.
type Units struct {
	DaysPerMonth float64 // days in one projection month
	Currency     string  // label for currency amounts
	Time         string  // label for lead times
	Epsilon      float64 // |net| at or below this counts as breakeven
}

// DefaultUnits is man-yen amounts, day lead times and a 30-day month.
func DefaultUnits() Units {
	return Units{
		DaysPerMonth: 30,
		Currency:     "man-yen",
		Time:         "days",
		Epsilon:      1e-9,
	}
}

// ProductivityAggregate is the single cash-productivity figure for a product set.
type ProductivityAggregate struct {
	Policy                Policy  `json:"policy"`
	AggregateProductivity float64 `json:"aggregateProductivity"` // currency per day
	TotalThroughput       float64 `json:"totalThroughput"`
	EffectiveLeadTime     float64 `json:"effectiveLeadTime"`
	ValidProducts         int     `json:"validProducts"`
}

// TrendRow is a history row extended with the single-step projection.
type TrendRow struct {
	Month                string  `json:"month"`
	OpeningBalance       float64 `json:"openingBalance"`
	ClosingBalance       float64 `json:"closingBalance"`
	MonthlyOutflow       float64 `json:"monthlyOutflow"`
	MonthlyCashGenerated float64 `json:"monthlyCashGenerated"`
	MonthlyNetChange     float64 `json:"monthlyNetChange"`
	ProjectedNextBalance float64 `json:"projectedNextBalance"`
}

// TrendResult holds all projected rows plus the figures the simulator reads.
type TrendResult struct {
	Rows                 []TrendRow `json:"rows"`
	LatestClosingBalance float64    `json:"latestClosingBalance"`
	LatestOutflow        float64    `json:"latestOutflow"`
	HasHistory           bool       `json:"hasHistory"`
}

// SimulationParams are the three what-if knobs.
type SimulationParams struct {
	TPRate        float64 `json:"tpRate" toml:"tp_rate"`               // throughput improvement, whole percent
	LTRate        float64 `json:"ltRate" toml:"lt_rate"`               // lead-time reduction, whole percent
	CashInjection float64 `json:"cashInjection" toml:"cash_injection"` // lump sum, non-negative
}

// Bounds limits the slider-driven simulation parameters.
type Bounds struct {
	TPMin float64 `toml:"tp_min"`
	TPMax float64 `toml:"tp_max"`
	LTMin float64 `toml:"lt_min"`
	LTMax float64 `toml:"lt_max"`
}

// DefaultBounds is TP -50..100 %, LT -50..50 %.
func DefaultBounds() Bounds {
	return Bounds{TPMin: -50, TPMax: 100, LTMin: -50, LTMax: 50}
}

// Contains reports whether both rates fall inside the bounds.
func (b Bounds) Contains(p SimulationParams) bool {
	return p.TPRate >= b.TPMin && p.TPRate <= b.TPMax &&
		p.LTRate >= b.LTMin && p.LTRate <= b.LTMax
}

// Clamp returns p with both rates clamped to b and a non-negative injection.
func (p SimulationParams) Clamp(b Bounds) SimulationParams {
	p.TPRate = clamp(p.TPRate, b.TPMin, b.TPMax)
	p.LTRate = clamp(p.LTRate, b.LTMin, b.LTMax)
	if p.CashInjection < 0 {
		p.CashInjection = 0
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunwayStatus classifies the simulated net monthly change.
type RunwayStatus int

const (
	StatusDepleting RunwayStatus = iota
	StatusBreakeven
	StatusGrowing
	StatusDepleted      // net outflow and no cash left to burn
	StatusUnprojectable // a non-finite figure made the projection meaningless
)

// String returns a short lowercase label.
func (s RunwayStatus) String() string {
	switch s {
	case StatusDepleting:
		return "depleting"
	case StatusBreakeven:
		return "breakeven"
	case StatusGrowing:
		return "growing"
	case StatusDepleted:
		return "depleted"
	case StatusUnprojectable:
		return "unprojectable"
	default:
		return "unknown"
	}
}

// MarshalText makes the status readable in JSON payloads.
func (s RunwayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status label written by MarshalText.
func (s *RunwayStatus) UnmarshalText(text []byte) error {
	for c := StatusDepleting; c <= StatusUnprojectable; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown runway status %q", text)
}

// MarshalText makes the policy readable in JSON payloads.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a policy name.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SensitivityResult is the outcome of one what-if simulation.
type SensitivityResult struct {
	Params                    SimulationParams `json:"params"`
	ImprovedThroughput        float64          `json:"improvedThroughput"`
	ImprovedLeadTime          float64          `json:"improvedLeadTime"`
	ImprovedProductivity      float64          `json:"improvedProductivity"`
	ImprovedMonthlyThroughput float64          `json:"improvedMonthlyThroughput"`
	AdjustedCash              float64          `json:"adjustedCash"`
	NetMonthlyChange          float64          `json:"netMonthlyChange"`
	SurvivalMonths            *float64         `json:"survivalMonths,omitempty"`
	Status                    RunwayStatus     `json:"status"`
	Message                   string           `json:"message"`
}

// Inputs is everything a full computation depends on.
type Inputs struct {
	Dataset Dataset          `json:"dataset"`
	Params  SimulationParams `json:"params"`
}

// Outputs is every derived entity for one Inputs snapshot.
type Outputs struct {
	Valid                []Product             `json:"valid"`
	Adjusted             []Product             `json:"adjusted"`
	Productivity         ProductivityAggregate `json:"productivity"`
	MonthlyCashGenerated float64               `json:"monthlyCashGenerated"`
	Trend                TrendResult           `json:"trend"`
	Sensitivity          SensitivityResult     `json:"sensitivity"`
}
