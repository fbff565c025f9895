package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/runway/internal/config"
	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

type formKind int

const (
	formNone formKind = iota
	formSetup
	formExport
	formProduct
)

// formValues holds the fields bound to the active huh form. It lives behind
// a pointer so the bindings survive App being copied through Update.
type formValues struct {
	// first-run setup
	policy       string
	theme        string
	currency     string
	daysPerMonth string

	// export dialog
	exportPath   string
	exportFormat string
	adjusted     bool

	// add product
	name       string
	throughput string
	leadTime   string
}

func positiveNumber(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func anyNumber(s string) error {
	if _, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func (a *App) showForm(kind formKind, form *huh.Form) tea.Cmd {
	if a.width > 0 {
		form = form.WithWidth(a.width).WithHeight(a.height)
	}
	a.form = form
	a.formKind = kind
	return form.Init()
}

// openSetupForm builds the first-run wizard.
func (a *App) openSetupForm() tea.Cmd {
	*a.vals = formValues{
		policy:       a.opts.Policy.String(),
		theme:        theme.Active.Name,
		currency:     a.opts.Units.Currency,
		daysPerMonth: strconv.FormatFloat(a.opts.Units.DaysPerMonth, 'f', -1, 64),
	}
	v := a.vals

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to runway!").
				Description(fmt.Sprintf("Cash runway from %d months of history and %d products.\n\nLet's set up a few things.",
					len(a.ds.History), len(a.ds.Products))),
			huh.NewSelect[string]().
				Title("Productivity aggregation").
				Description("How product TP/LT rows collapse into one figure").
				Options(
					huh.NewOption("Pooled, throughput-weighted lead time", model.PolicyPooledWeighted.String()),
					huh.NewOption("Per-product rates, averaged", model.PolicyPerProductAveraged.String()),
				).
				Value(&v.policy),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency label").
				Value(&v.currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("label cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Days per month").
				Description("Scales daily productivity to a month of cash").
				Value(&v.daysPerMonth).
				Validate(positiveNumber),
		),
	).WithShowHelp(false)

	return a.showForm(formSetup, form)
}

func (a *App) saveSetupConfig() error {
	v := a.vals

	if p, err := model.ParsePolicy(v.policy); err == nil {
		a.cfg.General.Policy = p.String()
		a.opts.Policy = p
	}
	a.cfg.Appearance.Theme = v.theme
	theme.SetActive(v.theme)

	a.cfg.Units.Currency = strings.TrimSpace(v.currency)
	a.opts.Units.Currency = a.cfg.Units.Currency
	if d, err := strconv.ParseFloat(strings.TrimSpace(v.daysPerMonth), 64); err == nil && d > 0 {
		a.cfg.Units.DaysPerMonth = d
		a.opts.Units.DaysPerMonth = d
	}

	return config.Save(a.cfg)
}

// openExportForm builds the export dialog, prefilled from config.
func (a *App) openExportForm() tea.Cmd {
	format := a.cfg.Export.Format
	if format == "" {
		format = export.FormatXLSX
	}
	*a.vals = formValues{
		exportPath:   a.cfg.Export.Path,
		exportFormat: format,
	}
	v := a.vals

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Export to").
				Value(&v.exportPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("path cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Format").
				Options(
					huh.NewOption("Excel workbook (.xlsx)", export.FormatXLSX),
					huh.NewOption("SQLite database (.db)", export.FormatSQLite),
				).
				Value(&v.exportFormat),
			huh.NewConfirm().
				Title("Export adjusted products?").
				Description("Write the simulated TP/LT instead of the inputs").
				Value(&v.adjusted),
		),
	).WithShowHelp(false)

	return a.showForm(formExport, form)
}

// openProductForm builds the add-product dialog.
func (a *App) openProductForm() tea.Cmd {
	*a.vals = formValues{}
	v := a.vals

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Product name").
				Value(&v.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title(fmt.Sprintf("Throughput (%s per cycle)", a.opts.Units.Currency)).
				Value(&v.throughput).
				Validate(anyNumber),
			huh.NewInput().
				Title(fmt.Sprintf("Lead time (%s)", a.opts.Units.Time)).
				Value(&v.leadTime).
				Validate(positiveNumber),
		),
	).WithShowHelp(false)

	return a.showForm(formProduct, form)
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" && a.formKind != formSetup {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.closeForm()
		return a.completeForm(kind)
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	if a.formKind == formSetup {
		a.needSetup = false
	}
	a.form = nil
	a.formKind = formNone
}

func (a App) completeForm(kind formKind) (tea.Model, tea.Cmd) {
	v := a.vals

	switch kind {
	case formSetup:
		if err := a.saveSetupConfig(); err != nil {
			a.flash(fmt.Sprintf("could not save config: %s", err), true)
		} else {
			a.flash("saved "+config.ConfigPath(), false)
		}
		a.recompute()
		return a, nil

	case formExport:
		path := strings.TrimSpace(v.exportPath)
		a.cfg.Export.Path = path
		a.cfg.Export.Format = v.exportFormat
		a.flash("exporting...", false)
		return a, exportCmd(a.exportTarget(path, v.exportFormat, v.adjusted), a.out)

	case formProduct:
		tp, _ := parseAmount(strings.TrimSpace(v.throughput))
		lt, _ := parseAmount(strings.TrimSpace(v.leadTime))
		a.ds.Products = append(a.ds.Products, model.Product{
			Name:       strings.TrimSpace(v.name),
			Throughput: tp,
			LeadTime:   lt,
		})
		a.products.row = len(a.ds.Products) - 1
		a.dirty = true
		a.recompute()
		a.flash("added "+strings.TrimSpace(v.name), false)
	}
	return a, nil
}
