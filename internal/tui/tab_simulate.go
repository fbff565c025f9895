package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/cli"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

const (
	sliderTP = iota
	sliderLT
	sliderInjection
	sliderCount // sentinel
)

// simState tracks the Simulate tab state.
type simState struct {
	selected int
}

func (a App) rateStep() float64 {
	if s := a.cfg.Simulation.RateStep; s > 0 {
		return s
	}
	return 5
}

func (a App) injectionStep() float64 {
	if s := a.cfg.Simulation.InjectionStep; s > 0 {
		return s
	}
	return 100
}

// updateSimulateKey handles slider selection and stepping. ok is false when
// the key is not a Simulate binding.
func (a App) updateSimulateKey(key string) (App, bool) {
	switch key {
	case "j", "down":
		a.sim.selected = min(a.sim.selected+1, sliderCount-1)
	case "k", "up":
		a.sim.selected = max(a.sim.selected-1, 0)
	case "left", "-":
		a.stepParam(-1)
	case "right", "+", "=":
		a.stepParam(1)
	case "0":
		switch a.sim.selected {
		case sliderTP:
			a.params.TPRate = 0
		case sliderLT:
			a.params.LTRate = 0
		case sliderInjection:
			a.params.CashInjection = 0
		}
		a.params = a.params.Clamp(a.bounds)
		a.recompute()
	default:
		return a, false
	}
	return a, true
}

// stepParam moves the selected parameter one step and clamps it to bounds.
func (a *App) stepParam(dir float64) {
	switch a.sim.selected {
	case sliderTP:
		a.params.TPRate += dir * a.rateStep()
	case sliderLT:
		a.params.LTRate += dir * a.rateStep()
	case sliderInjection:
		a.params.CashInjection += dir * a.injectionStep()
	}
	a.params = a.params.Clamp(a.bounds)
	a.recompute()
}

func (a App) renderSimulateTab(cw int) string {
	t := theme.Active
	p := a.params
	b := a.bounds
	innerW := components.CardInnerWidth(cw)

	labelW := 16
	valueW := 14
	barW := max(innerW-labelW-valueW-4, 10)

	// The injection has no upper bound; scale against the larger of the
	// latest balance and ten steps.
	injMax := max(a.out.Trend.LatestClosingBalance, 10*a.injectionStep(), p.CashInjection)

	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var sliders strings.Builder
	sliders.WriteString(components.Slider("TP improvement", cli.FormatRate(p.TPRate),
		components.SliderFraction(p.TPRate, b.TPMin, b.TPMax), a.sim.selected == sliderTP, labelW, barW))
	sliders.WriteString("\n")
	sliders.WriteString(dimStyle.Render(fmt.Sprintf("  %*s %s .. %s", labelW, "", cli.FormatRate(b.TPMin), cli.FormatRate(b.TPMax))))
	sliders.WriteString("\n")
	sliders.WriteString(components.Slider("LT reduction", cli.FormatRate(p.LTRate),
		components.SliderFraction(p.LTRate, b.LTMin, b.LTMax), a.sim.selected == sliderLT, labelW, barW))
	sliders.WriteString("\n")
	sliders.WriteString(dimStyle.Render(fmt.Sprintf("  %*s %s .. %s", labelW, "", cli.FormatRate(b.LTMin), cli.FormatRate(b.LTMax))))
	sliders.WriteString("\n")
	sliders.WriteString(components.Slider("Cash injection", cli.FormatAmount(p.CashInjection, 0),
		components.SliderFraction(p.CashInjection, 0, injMax), a.sim.selected == sliderInjection, labelW, barW))
	sliders.WriteString("\n")
	sliders.WriteString(dimStyle.Render(fmt.Sprintf("  %*s step %s %s", labelW, "",
		cli.FormatAmount(a.injectionStep(), 0), a.opts.Units.Currency)))

	var out strings.Builder
	out.WriteString(components.ContentCard("What-if Parameters", sliders.String(), cw))
	out.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	out.WriteString(components.CardRow([]string{
		components.ContentCard("Simulation Result", a.renderResultBody(), halves[0]),
		components.ContentCard("Sensitivity Around Current", a.renderSweepGrid(), halves[1]),
	}))
	return out.String()
}

// sweepAxis returns up to five rates centred on v, stepping by step and
// kept inside [lo,hi].
func sweepAxis(v, step, lo, hi float64) []float64 {
	var axis []float64
	for i := -2; i <= 2; i++ {
		r := v + float64(i)*step
		if r < lo || r > hi {
			continue
		}
		axis = append(axis, r)
	}
	if len(axis) == 0 {
		axis = []float64{v}
	}
	return axis
}

// renderSweepGrid shows survival months for neighbouring TP/LT rates.
func (a App) renderSweepGrid() string {
	t := theme.Active

	tpAxis := sweepAxis(a.params.TPRate, a.rateStep(), a.bounds.TPMin, a.bounds.TPMax)
	ltAxis := sweepAxis(a.params.LTRate, a.rateStep(), a.bounds.LTMin, a.bounds.LTMax)
	cells := pipeline.Sweep(model.Inputs{Dataset: a.ds, Params: a.params}, a.opts, tpAxis, ltAxis)

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	cellW := 9

	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("%-8s", "TP \\ LT")))
	for _, lt := range ltAxis {
		b.WriteString(headStyle.Render(fmt.Sprintf("%*s", cellW, cli.FormatRate(lt))))
	}

	for i, tp := range tpAxis {
		b.WriteString("\n")
		b.WriteString(headStyle.Render(fmt.Sprintf("%-8s", cli.FormatRate(tp))))
		for j := range ltAxis {
			c := cells[i*len(ltAxis)+j]
			text := c.Status.String()
			if c.SurvivalMonths != nil {
				text = fmt.Sprintf("%.1fm", *c.SurvivalMonths)
			}
			style := lipgloss.NewStyle().Foreground(t.Status(c.Status)).Background(t.Surface)
			if tp == a.params.TPRate && ltAxis[j] == a.params.LTRate {
				style = style.Bold(true).Background(t.SurfaceBright)
			}
			b.WriteString(style.Render(fmt.Sprintf("%*s", cellW, truncStr(text, cellW-1))))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("current: ") + statusLabel(a.out.Sensitivity.Status))
	return b.String()
}
