package pipeline

import (
	"math"
	"reflect"
	"testing"

	"github.com/theirongolddev/runway/internal/model"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func sampleInputs() model.Inputs {
	return model.Inputs{
		Dataset: model.Dataset{
			History: []model.MonthlyBalance{
				model.NewMonth("2024-01", 1000, 800),
				model.NewMonth("2024-02", 800, 700),
				model.NewMonth("2024-03", 700, 650),
			},
			Products: []model.Product{
				model.NewProduct("A", 500, 30),
				model.NewProduct("B", 1000, 60),
			},
		},
	}
}

func TestAggregate_PooledWeighted(t *testing.T) {
	agg := Aggregate(sampleInputs().Dataset.Products, model.PolicyPooledWeighted)

	if !approx(agg.EffectiveLeadTime, 50) {
		t.Errorf("weighted lead time = %v, want 50", agg.EffectiveLeadTime)
	}
	if !approx(agg.AggregateProductivity, 30) {
		t.Errorf("productivity = %v, want 30", agg.AggregateProductivity)
	}
	if !approx(agg.TotalThroughput, 1500) {
		t.Errorf("total throughput = %v, want 1500", agg.TotalThroughput)
	}
	if got := MonthlyCash(agg.AggregateProductivity, model.DefaultUnits()); !approx(got, 900) {
		t.Errorf("monthly cash = %v, want 900", got)
	}
}

func TestAggregate_PerProductAveraged(t *testing.T) {
	agg := Aggregate(sampleInputs().Dataset.Products, model.PolicyPerProductAveraged)

	if !approx(agg.AggregateProductivity, 500.0/30) {
		t.Errorf("productivity = %v, want %v", agg.AggregateProductivity, 500.0/30)
	}
	if got := MonthlyCash(agg.AggregateProductivity, model.DefaultUnits()); !approx(got, 500) {
		t.Errorf("monthly cash = %v, want 500", got)
	}
	if !approx(agg.EffectiveLeadTime, 45) {
		t.Errorf("mean lead time = %v, want 45", agg.EffectiveLeadTime)
	}
}

func TestAggregate_PoliciesDisagree(t *testing.T) {
	products := []model.Product{
		model.NewProduct("small-fast", 100, 10),
		model.NewProduct("large-slow", 900, 90),
	}
	a := Aggregate(products, model.PolicyPooledWeighted)
	b := Aggregate(products, model.PolicyPerProductAveraged)
	// pooled: weighted LT = (1000+81000)/1000 = 82, productivity = 1000/82
	if !approx(a.AggregateProductivity, 1000.0/82) {
		t.Errorf("pooled productivity = %v, want %v", a.AggregateProductivity, 1000.0/82)
	}
	if !approx(b.AggregateProductivity, 10) {
		t.Errorf("averaged productivity = %v, want 10", b.AggregateProductivity)
	}
}

func TestAggregate_EmptyAndZero(t *testing.T) {
	for _, policy := range []model.Policy{model.PolicyPooledWeighted, model.PolicyPerProductAveraged} {
		if agg := Aggregate(nil, policy); agg.AggregateProductivity != 0 || agg.ValidProducts != 0 {
			t.Errorf("%v: empty set aggregate = %+v", policy, agg)
		}
		zero := []model.Product{model.NewProduct("A", 0, 30)}
		if agg := Aggregate(zero, policy); agg.AggregateProductivity != 0 {
			t.Errorf("%v: zero throughput productivity = %v", policy, agg.AggregateProductivity)
		}
	}

	out := Compute(model.Inputs{}, DefaultOptions())
	if out.Productivity.AggregateProductivity != 0 || out.MonthlyCashGenerated != 0 {
		t.Fatalf("empty inputs: productivity=%v monthly=%v, want 0",
			out.Productivity.AggregateProductivity, out.MonthlyCashGenerated)
	}
}

func TestAggregate_SkipsInvalidRows(t *testing.T) {
	products := []model.Product{
		model.NewProduct("A", 500, 30),
		{Name: "no-lt", Throughput: model.Float(999)},
		model.NewProduct("zero-lt", 999, 0),
		model.NewProduct("B", 1000, 60),
	}
	agg := Aggregate(products, model.PolicyPooledWeighted)
	if agg.ValidProducts != 2 {
		t.Fatalf("ValidProducts = %d, want 2", agg.ValidProducts)
	}
	if !approx(agg.AggregateProductivity, 30) {
		t.Errorf("productivity = %v, want 30", agg.AggregateProductivity)
	}

	valid := ValidProducts(products)
	if valid[0].Name != "A" || valid[1].Name != "B" {
		t.Errorf("ValidProducts order = [%s %s], want [A B]", valid[0].Name, valid[1].Name)
	}
}

func TestProjectTrend_Row(t *testing.T) {
	res := ProjectTrend([]model.MonthlyBalance{model.NewMonth("2024-01", 1000, 800)}, 900)
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	row := res.Rows[0]
	if row.MonthlyOutflow != 200 || row.MonthlyNetChange != 700 || row.ProjectedNextBalance != 1500 {
		t.Fatalf("row = %+v, want outflow 200 net 700 projected 1500", row)
	}
	if res.LatestClosingBalance != 800 || res.LatestOutflow != 200 || !res.HasHistory {
		t.Fatalf("latest = %v/%v hasHistory=%v", res.LatestClosingBalance, res.LatestOutflow, res.HasHistory)
	}
}

func TestProjectTrend_LatestIsLastCompleteRow(t *testing.T) {
	history := append(sampleInputs().Dataset.History, model.MonthlyBalance{Month: "2024-04"})
	res := ProjectTrend(history, 900)
	if len(res.Rows) != 3 {
		t.Fatalf("rows = %d, want 3 (incomplete row skipped)", len(res.Rows))
	}
	if res.LatestClosingBalance != 650 || res.LatestOutflow != 50 {
		t.Fatalf("latest = %v/%v, want 650/50", res.LatestClosingBalance, res.LatestOutflow)
	}

	empty := ProjectTrend(nil, 900)
	if empty.HasHistory || empty.LatestClosingBalance != 0 || len(empty.Rows) != 0 {
		t.Fatalf("empty trend = %+v", empty)
	}
}

func TestClassify(t *testing.T) {
	status, months := classify(-100, 650, 1e-9)
	if status != model.StatusDepleting || months == nil || !approx(*months, 6.5) {
		t.Fatalf("classify(-100, 650) = %v, %v; want depleting 6.5", status, months)
	}
	if status, months := classify(0, 650, 1e-9); status != model.StatusBreakeven || months != nil {
		t.Fatalf("classify(0) = %v, %v; want breakeven", status, months)
	}
	if status, months := classify(50, 650, 1e-9); status != model.StatusGrowing || months != nil {
		t.Fatalf("classify(50) = %v, %v; want growing", status, months)
	}
	if status, months := classify(-100, 0, 1e-9); status != model.StatusDepleted || months != nil {
		t.Fatalf("classify(-100, 0) = %v, %v; want depleted", status, months)
	}
	if status, _ := classify(math.Inf(-1), 650, 1e-9); status != model.StatusUnprojectable {
		t.Fatalf("classify(-Inf) = %v, want unprojectable", status)
	}
	if status, _ := classify(-100, math.NaN(), 1e-9); status != model.StatusUnprojectable {
		t.Fatalf("classify(NaN cash) = %v, want unprojectable", status)
	}
}

func TestSimulate_DepletingFromTrend(t *testing.T) {
	trend := model.TrendResult{LatestClosingBalance: 650, LatestOutflow: 100, HasHistory: true}
	res, _ := Simulate(nil, trend, model.SimulationParams{}, DefaultOptions())

	if res.NetMonthlyChange != -100 {
		t.Fatalf("net = %v, want -100", res.NetMonthlyChange)
	}
	if res.Status != model.StatusDepleting || res.SurvivalMonths == nil || !approx(*res.SurvivalMonths, 6.5) {
		t.Fatalf("status=%v survival=%v, want depleting 6.5", res.Status, res.SurvivalMonths)
	}
	if res.Message == "" {
		t.Fatal("empty status message")
	}
}

func TestSimulate_BreakevenAndGrowing(t *testing.T) {
	trend := model.TrendResult{LatestClosingBalance: 650, LatestOutflow: 300, HasHistory: true}

	even, _ := Simulate([]model.Product{model.NewProduct("A", 300, 30)}, trend, model.SimulationParams{}, DefaultOptions())
	if even.Status != model.StatusBreakeven || even.SurvivalMonths != nil {
		t.Fatalf("status=%v survival=%v, want breakeven", even.Status, even.SurvivalMonths)
	}

	up, _ := Simulate([]model.Product{model.NewProduct("A", 350, 30)}, trend, model.SimulationParams{}, DefaultOptions())
	if up.Status != model.StatusGrowing || !approx(up.NetMonthlyChange, 50) {
		t.Fatalf("status=%v net=%v, want growing 50", up.Status, up.NetMonthlyChange)
	}
}

func TestSimulate_ImprovementMatchesPooledTotals(t *testing.T) {
	in := sampleInputs()
	in.Params = model.SimulationParams{TPRate: 10, LTRate: 10}
	out := Compute(in, DefaultOptions())
	s := out.Sensitivity

	if !approx(s.ImprovedThroughput, 1650) {
		t.Errorf("improved TP = %v, want 1650", s.ImprovedThroughput)
	}
	if !approx(s.ImprovedLeadTime, 45) {
		t.Errorf("improved LT = %v, want 45", s.ImprovedLeadTime)
	}
	if !approx(s.ImprovedProductivity, 1650.0/45) {
		t.Errorf("improved productivity = %v, want %v", s.ImprovedProductivity, 1650.0/45)
	}
	if !approx(s.ImprovedMonthlyThroughput, 1100) {
		t.Errorf("improved monthly TP = %v, want 1100", s.ImprovedMonthlyThroughput)
	}
	if !approx(s.NetMonthlyChange, 1050) || s.Status != model.StatusGrowing {
		t.Errorf("net = %v status = %v, want 1050 growing", s.NetMonthlyChange, s.Status)
	}
}

func TestSimulate_UsesBaselinePolicy(t *testing.T) {
	in := sampleInputs()
	in.Params = model.SimulationParams{TPRate: 20}
	opts := DefaultOptions()
	opts.Policy = model.PolicyPerProductAveraged

	out := Compute(in, opts)
	want := out.Productivity.AggregateProductivity * 1.2
	if !approx(out.Sensitivity.ImprovedProductivity, want) {
		t.Fatalf("improved productivity = %v, want %v", out.Sensitivity.ImprovedProductivity, want)
	}
}

func TestSimulate_FullLeadTimeReductionExcludesProducts(t *testing.T) {
	in := sampleInputs()
	in.Params = model.SimulationParams{LTRate: 100}
	out := Compute(in, DefaultOptions())

	if len(out.Adjusted) != 0 {
		t.Fatalf("adjusted products = %d, want 0", len(out.Adjusted))
	}
	s := out.Sensitivity
	if s.ImprovedProductivity != 0 || math.IsNaN(s.ImprovedProductivity) {
		t.Fatalf("improved productivity = %v, want 0", s.ImprovedProductivity)
	}
	if s.Status != model.StatusDepleting || s.SurvivalMonths == nil || !approx(*s.SurvivalMonths, 13) {
		t.Fatalf("status=%v survival=%v, want depleting 13", s.Status, s.SurvivalMonths)
	}
}

func TestSimulate_PartialExclusion(t *testing.T) {
	valid := []model.Product{model.NewProduct("A", 500, 30), model.NewProduct("B", 1000, 60)}
	adjusted := AdjustProducts(valid, model.SimulationParams{LTRate: 150})
	if len(adjusted) != 0 {
		t.Fatalf("LTRate 150: adjusted = %d, want 0", len(adjusted))
	}
	adjusted = AdjustProducts(valid, model.SimulationParams{LTRate: 50})
	if len(adjusted) != 2 || adjusted[0].LT() != 15 || adjusted[1].LT() != 30 {
		t.Fatalf("LTRate 50: adjusted = %+v", adjusted)
	}
}

func TestSimulate_InjectionAndDepleted(t *testing.T) {
	in := model.Inputs{Dataset: model.Dataset{
		History: []model.MonthlyBalance{model.NewMonth("2024-01", 100, -10)},
	}}

	out := Compute(in, DefaultOptions())
	if out.Sensitivity.Status != model.StatusDepleted || out.Sensitivity.SurvivalMonths != nil {
		t.Fatalf("status=%v survival=%v, want depleted", out.Sensitivity.Status, out.Sensitivity.SurvivalMonths)
	}

	in.Params.CashInjection = 120
	out = Compute(in, DefaultOptions())
	s := out.Sensitivity
	if s.AdjustedCash != 110 || s.Status != model.StatusDepleting || !approx(*s.SurvivalMonths, 1) {
		t.Fatalf("cash=%v status=%v survival=%v, want 110 depleting 1", s.AdjustedCash, s.Status, s.SurvivalMonths)
	}

	in.Params.CashInjection = -500
	out = Compute(in, DefaultOptions())
	if out.Sensitivity.AdjustedCash != -10 {
		t.Fatalf("negative injection not clamped: cash=%v", out.Sensitivity.AdjustedCash)
	}
}

func TestSimulate_NonFiniteIsUnprojectable(t *testing.T) {
	in := model.Inputs{Dataset: model.Dataset{
		History: []model.MonthlyBalance{model.NewMonth("2024-01", math.MaxFloat64, -math.MaxFloat64)},
	}}
	s := Compute(in, DefaultOptions()).Sensitivity
	if s.Status != model.StatusUnprojectable || s.SurvivalMonths != nil {
		t.Fatalf("status=%v survival=%v, want unprojectable", s.Status, s.SurvivalMonths)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := sampleInputs()
	in.Params = model.SimulationParams{TPRate: 15, LTRate: -20, CashInjection: 300}
	opts := DefaultOptions()

	first := Compute(in, opts)
	for i := 0; i < 5; i++ {
		if again := Compute(in, opts); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestCompute_DaysPerMonthConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.Units.DaysPerMonth = 28
	out := Compute(sampleInputs(), opts)
	if !approx(out.MonthlyCashGenerated, 30*28) {
		t.Fatalf("monthly cash = %v, want %v", out.MonthlyCashGenerated, 30*28)
	}
	if out.Trend.Rows[0].MonthlyCashGenerated != out.MonthlyCashGenerated {
		t.Fatal("trend rows do not carry the monthly cash figure")
	}
}

func TestSweepAndRateSteps(t *testing.T) {
	steps := RateSteps(-50, 100, 50)
	if !reflect.DeepEqual(steps, []float64{-50, 0, 50, 100}) {
		t.Fatalf("RateSteps = %v", steps)
	}
	if got := RateSteps(10, 0, 5); !reflect.DeepEqual(got, []float64{10}) {
		t.Fatalf("inverted RateSteps = %v", got)
	}

	cells := Sweep(sampleInputs(), DefaultOptions(), []float64{0}, []float64{0, 100})
	if len(cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(cells))
	}
	if cells[0].Status != model.StatusGrowing {
		t.Errorf("cell 0 status = %v, want growing", cells[0].Status)
	}
	if cells[1].Status != model.StatusDepleting || !approx(*cells[1].SurvivalMonths, 13) {
		t.Errorf("cell 1 = %+v, want depleting 13", cells[1])
	}
}

func TestRateSteps_Degenerate(t *testing.T) {
	tests := []struct {
		name      string
		lo, hi    float64
		step      float64
		wantLen   int
		wantFirst float64
	}{
		{"nan step", -50, 100, math.NaN(), 1, -50},
		{"inf step", -50, 100, math.Inf(1), 1, -50},
		{"negative inf step", -50, 100, math.Inf(-1), 1, -50},
		{"zero step", -50, 100, 0, 1, -50},
		{"inf bound", -50, math.Inf(1), 5, 1, -50},
		{"tiny step", -50, 100, 1e-300, MaxRateSteps, -50},
		{"just over cap", 0, 1000, 1, MaxRateSteps, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateSteps(tt.lo, tt.hi, tt.step)
			if len(got) != tt.wantLen || got[0] != tt.wantFirst {
				t.Fatalf("RateSteps(%g, %g, %g) = %d values starting %v, want %d starting %v",
					tt.lo, tt.hi, tt.step, len(got), got[0], tt.wantLen, tt.wantFirst)
			}
		})
	}
}

func TestValidStep(t *testing.T) {
	for _, step := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if ValidStep(step) == nil {
			t.Errorf("ValidStep(%g) = nil, want error", step)
		}
	}
	if err := ValidStep(25); err != nil {
		t.Errorf("ValidStep(25) = %v", err)
	}
}

func TestCheckGrid(t *testing.T) {
	axis := func(n int) []float64 { return make([]float64, n) }
	tests := []struct {
		tp, lt int
		ok     bool
	}{
		{7, 5, true},
		{100, 100, true},
		{3333, 3, true},
		{3334, 3, false},
		{1500, 1500, false},
		{0, 5, false},
	}
	for _, tt := range tests {
		err := CheckGrid(axis(tt.tp), axis(tt.lt))
		if (err == nil) != tt.ok {
			t.Errorf("CheckGrid(%d x %d) = %v, want ok=%v", tt.tp, tt.lt, err, tt.ok)
		}
	}
}

func TestProductRates(t *testing.T) {
	rates := ProductRates([]model.Product{
		model.NewProduct("A", 500, 30),
		model.NewProduct("bad", 500, 0),
		model.NewProduct("B", 1000, 60),
	})
	if len(rates) != 3 || rates[1].Valid || rates[1].Rate != 0 {
		t.Fatalf("rates = %+v", rates)
	}
	if !approx(rates[0].Share, 1.0/3) || !approx(rates[2].Rate, 1000.0/60) {
		t.Fatalf("rates = %+v", rates)
	}
}
