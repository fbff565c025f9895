package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/config"
	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

const (
	settingsFieldPolicy = iota
	settingsFieldTheme
	settingsFieldDaysPerMonth
	settingsFieldCurrency
	settingsFieldTimeUnit
	settingsFieldRateStep
	settingsFieldInjectionStep
	settingsFieldExportPath
	settingsFieldExportFormat
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	}
	return a, nil, false
}

// settingsValue returns the current text of a settings field.
func (a App) settingsValue(field int) string {
	c := a.cfg
	switch field {
	case settingsFieldPolicy:
		return a.opts.Policy.String()
	case settingsFieldTheme:
		return theme.Active.Name
	case settingsFieldDaysPerMonth:
		return strconv.FormatFloat(a.opts.Units.DaysPerMonth, 'f', -1, 64)
	case settingsFieldCurrency:
		return a.opts.Units.Currency
	case settingsFieldTimeUnit:
		return a.opts.Units.Time
	case settingsFieldRateStep:
		return strconv.FormatFloat(a.rateStep(), 'f', -1, 64)
	case settingsFieldInjectionStep:
		return strconv.FormatFloat(a.injectionStep(), 'f', -1, 64)
	case settingsFieldExportPath:
		return c.Export.Path
	case settingsFieldExportFormat:
		return c.Export.Format
	}
	return ""
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldPolicy:
		ti.Placeholder = "pooled-weighted or per-product-averaged"
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
	case settingsFieldDaysPerMonth:
		ti.Placeholder = "30"
	case settingsFieldExportFormat:
		ti.Placeholder = "xlsx or sqlite"
	}
	ti.SetValue(a.settingsValue(a.settings.cursor))
	ti.CursorEnd()
	ti.Focus()

	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := a.settingsApply(strings.TrimSpace(a.settings.input.Value())); err != nil {
			a.settings.saveErr = err
			return a, nil
		}
		a.settings.saveErr = config.Save(a.cfg)
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		a.settings.saveErr = nil
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsApply validates val for the selected field and applies it to both
// the config and the running dashboard.
func (a *App) settingsApply(val string) error {
	positive := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("%q is not a positive number", val)
		}
		return f, nil
	}

	switch a.settings.cursor {
	case settingsFieldPolicy:
		p, err := model.ParsePolicy(val)
		if err != nil {
			return err
		}
		a.cfg.General.Policy = p.String()
		a.opts.Policy = p
	case settingsFieldTheme:
		if theme.ByName(val).Name != val {
			return fmt.Errorf("unknown theme %q", val)
		}
		a.cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldDaysPerMonth:
		f, err := positive()
		if err != nil {
			return err
		}
		a.cfg.Units.DaysPerMonth = f
		a.opts.Units.DaysPerMonth = f
	case settingsFieldCurrency:
		if val == "" {
			return fmt.Errorf("currency label cannot be empty")
		}
		a.cfg.Units.Currency = val
		a.opts.Units.Currency = val
	case settingsFieldTimeUnit:
		if val == "" {
			return fmt.Errorf("time label cannot be empty")
		}
		a.cfg.Units.Time = val
		a.opts.Units.Time = val
	case settingsFieldRateStep:
		f, err := positive()
		if err != nil {
			return err
		}
		a.cfg.Simulation.RateStep = f
	case settingsFieldInjectionStep:
		f, err := positive()
		if err != nil {
			return err
		}
		a.cfg.Simulation.InjectionStep = f
	case settingsFieldExportPath:
		if val == "" {
			return fmt.Errorf("export path cannot be empty")
		}
		a.cfg.Export.Path = val
	case settingsFieldExportFormat:
		f, err := export.FormatFor(a.cfg.Export.Path, val)
		if err != nil {
			return err
		}
		a.cfg.Export.Format = f
	}

	a.recompute()
	return nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	labels := []string{
		"Policy",
		"Theme",
		"Days per Month",
		"Currency",
		"Time Unit",
		"Rate Step (%)",
		"Injection Step",
		"Export Path",
		"Export Format",
	}

	var formBody strings.Builder
	for i, label := range labels {
		// Show text input if currently editing this field
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		value := a.settingsValue(i)
		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			lbl := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", label+":"))
			val := selectedStyle.Render(value)
			formBody.WriteString(marker + lbl + val)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(lbl) + lipgloss.Width(val)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", label+":")))
			formBody.WriteString(valueStyle.Render(value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	input := "(built-in sample)"
	if a.inputPath != "" {
		input = a.inputPath
	}
	b := a.bounds

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Input file:      ") + valueStyle.Render(input) + "\n")
	infoBody.WriteString(labelStyle.Render("History rows:    ") + valueStyle.Render(strconv.Itoa(len(a.ds.History))) + "\n")
	infoBody.WriteString(labelStyle.Render("Product rows:    ") + valueStyle.Render(strconv.Itoa(len(a.ds.Products))) + "\n")
	infoBody.WriteString(labelStyle.Render("Slider bounds:   ") + valueStyle.Render(fmt.Sprintf("TP %g..%g%%  LT %g..%g%%", b.TPMin, b.TPMax, b.LTMin, b.LTMax)) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()))

	var out strings.Builder
	out.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	out.WriteString("\n")
	out.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return out.String()
}
