// Package tui provides the interactive Bubble Tea dashboard for runway.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/config"
	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
	"github.com/theirongolddev/runway/internal/source"
	"github.com/theirongolddev/runway/internal/tui/components"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabHistory
	tabProducts
	tabSimulate
	tabSettings
)

// ExportedMsg is sent when a background export finishes.
type ExportedMsg struct {
	Path  string
	RunID string
	Err   error
}

// SavedMsg is sent when the edited dataset has been written back to disk.
type SavedMsg struct {
	Path string
	Err  error
}

// Options configures a new App.
type Options struct {
	Dataset   model.Dataset
	Params    model.SimulationParams
	Compute   pipeline.Options
	Config    config.Config
	InputPath string // empty when running on the built-in sample
}

// App is the root Bubble Tea model.
type App struct {
	// Inputs
	ds     model.Dataset
	params model.SimulationParams
	opts   pipeline.Options
	bounds model.Bounds

	// Derived on every change
	out   model.Outputs
	rates []pipeline.ProductRate
	alt   model.ProductivityAggregate // the policy not in use, for comparison

	cfg       config.Config
	inputPath string
	dirty     bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	history  gridState
	products gridState
	sim      simState
	settings settingsState

	// Modal huh form (first-run setup, export, add product)
	form      *huh.Form
	formKind  formKind
	vals      *formValues
	needSetup bool

	// Status bar flash
	status    string
	statusErr bool
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures the TUI can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(o Options) App {
	if o.Compute.Units.DaysPerMonth <= 0 {
		o.Compute = pipeline.DefaultOptions()
	}

	a := App{
		ds:        o.Dataset.Clone(),
		opts:      o.Compute,
		cfg:       o.Config,
		bounds:    o.Config.Bounds(),
		inputPath: o.InputPath,
		vals:      &formValues{},
		needSetup: !config.Exists(),
		history:   gridState{cols: len(historyColumns)},
		products:  gridState{cols: len(productColumns)},
	}
	a.params = o.Params.Clamp(a.bounds)
	a.recompute()

	if a.needSetup {
		a.openSetupForm()
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.form != nil {
		cmds = append(cmds, a.form.Init())
	}
	return tea.Batch(cmds...)
}

// recompute derives every output from the current tables and parameters.
func (a *App) recompute() {
	a.out = pipeline.Compute(model.Inputs{Dataset: a.ds, Params: a.params}, a.opts)
	a.rates = pipeline.ProductRates(a.ds.Products)
	a.alt = pipeline.Aggregate(a.ds.Products, otherPolicy(a.opts.Policy))

	a.history.clamp(len(a.ds.History))
	a.products.clamp(len(a.ds.Products))
}

func otherPolicy(p model.Policy) model.Policy {
	if p == model.PolicyPerProductAveraged {
		return model.PolicyPooledWeighted
	}
	return model.PolicyPerProductAveraged
}

func (a *App) flash(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case ExportedMsg:
		if msg.Err != nil {
			a.flash(msg.Err.Error(), true)
		} else if msg.RunID != "" {
			a.flash(fmt.Sprintf("exported run %s to %s", shortID(msg.RunID), msg.Path), false)
		} else {
			a.flash("exported to "+msg.Path, false)
		}
		return a, nil

	case SavedMsg:
		if msg.Err != nil {
			a.flash(msg.Err.Error(), true)
		} else {
			a.dirty = false
			a.flash("saved "+msg.Path, false)
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Modal form intercepts all keys
	if a.form != nil {
		return a.updateForm(msg)
	}

	// Cell and settings editors intercept all keys
	if g := a.activeGrid(); g != nil && g.editing {
		return a.updateGridInput(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Tab-local bindings win over global ones
	switch a.activeTab {
	case tabHistory, tabProducts:
		if m, cmd, ok := a.updateGridKey(key); ok {
			return m, cmd
		}
	case tabSimulate:
		if m, ok := a.updateSimulateKey(key); ok {
			return m, nil
		}
	case tabSettings:
		if m, cmd, ok := a.updateSettingsKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "shift+tab", "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "P":
		a.opts.Policy = otherPolicy(a.opts.Policy)
		a.recompute()
		a.flash("policy: "+a.opts.Policy.String(), false)
		return a, nil
	case "r":
		a.params = a.cfg.Simulation.Defaults.Clamp(a.bounds)
		a.recompute()
		a.flash("parameters reset", false)
		return a, nil
	case "e":
		cmd := a.openExportForm()
		return a, cmd
	case "w":
		return a.saveDataset()
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if g := a.activeGrid(); g != nil && !g.editing {
			g.move(-1, 0)
			g.clamp(a.activeRows())
		}
	case tea.MouseButtonWheelDown:
		if g := a.activeGrid(); g != nil && !g.editing {
			g.move(1, 0)
			g.clamp(a.activeRows())
		}
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		// Tab bar is the first line
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate of the full-width
// tab bar, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAtX(x)
}

// exportTarget resolves an export action against the current settings.
func (a App) exportTarget(path, format string, adjusted bool) export.Target {
	return export.Target{
		Path:     path,
		Format:   format,
		Adjusted: adjusted,
		Policy:   a.opts.Policy,
		Units:    a.opts.Units,
	}
}

// exportCmd writes the given outputs in the background.
func exportCmd(target export.Target, out model.Outputs) tea.Cmd {
	return func() tea.Msg {
		id, err := export.Save(target, out)
		return ExportedMsg{Path: target.Path, RunID: id, Err: err}
	}
}

func (a App) saveDataset() (tea.Model, tea.Cmd) {
	if a.inputPath == "" {
		a.flash("no input file: start with --input to save edits, or export with e", true)
		return a, nil
	}
	if _, err := source.FormatOf(a.inputPath); err != nil {
		a.flash(err.Error(), true)
		return a, nil
	}
	if strings.EqualFold(filepath.Ext(a.inputPath), ".xlsx") {
		a.flash("cannot overwrite a workbook: export with e instead", true)
		return a, nil
	}

	path, ds := a.inputPath, a.ds.Clone()
	return a, func() tea.Msg {
		return SavedMsg{Path: path, Err: source.Save(path, ds)}
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.form != nil {
		return a.form.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  runway needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	type binding struct{ key, desc string }
	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigation", []binding{
			{"o h p s x", "Jump to tab"},
			{"tab S-tab", "Next / Previous tab"},
			{"j k ← →", "Move cursor in tables"},
		}},
		{"Tables", []binding{
			{"Enter", "Edit cell (empty clears)"},
			{"a", "Add row"},
			{"d", "Delete row"},
			{"Esc", "Cancel edit"},
		}},
		{"Simulate", []binding{
			{"j k", "Select parameter"},
			{"← → - +", "Step parameter"},
			{"0", "Reset parameter"},
		}},
		{"Actions", []binding{
			{"P", "Toggle aggregation policy"},
			{"r", "Reset parameters"},
			{"e", "Export workbook / SQLite"},
			{"w", "Save edits to input file"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + context pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	input := "sample data"
	if a.inputPath != "" {
		input = filepath.Base(a.inputPath)
	}
	if a.dirty {
		input += " *"
	}
	pill := pillStyle.Render(" ") + pillAccent.Render(a.opts.Policy.String()) +
		pillStyle.Render(" │ ") + pillAccent.Render(input) +
		pillStyle.Render(" │ ") + pillAccent.Render(fmt.Sprintf("%g-day month", a.opts.Units.DaysPerMonth)) +
		pillStyle.Render(" ")

	pillRow := lipgloss.NewStyle().Background(t.Surface).Width(w)
	header := components.RenderTabBar(a.activeTab, w) + "\n" + pillRow.Render(pill)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.hints(), a.status, a.statusErr)

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabHistory:
		content = a.renderHistoryTab(cw, contentH)
	case tabProducts:
		content = a.renderProductsTab(cw, contentH)
	case tabSimulate:
		content = a.renderSimulateTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, filled with background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) hints() string {
	switch a.activeTab {
	case tabHistory, tabProducts:
		if g := a.activeGrid(); g != nil && g.editing {
			return "[Enter]commit  [Esc]cancel"
		}
		return "[Enter]edit  [a]dd  [d]elete  [e]xport  [w]rite  [?]help  [q]uit"
	case tabSimulate:
		return "[j/k]select  [←/→]step  [0]reset  [P]olicy  [e]xport  [?]help  [q]uit"
	case tabSettings:
		return "[j/k]navigate  [Enter]edit  [?]help  [q]uit"
	default:
		return "[P]olicy  [r]eset  [e]xport  [?]help  [q]uit"
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
// This ensures gaps between cards and empty lines have proper background fill.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
