// Package theme defines color themes for the runway TUI dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/model"
)

// Theme is a palette plus the chart roles drawn from it. Status colors are
// derived from the palette, see Status.
type Theme struct {
	Name string

	// Surfaces and borders
	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceBright lipgloss.Color // selected row, active field
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused card

	// Text
	TextDim     lipgloss.Color // hints, excluded rows
	TextMuted   lipgloss.Color // labels
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Palette
	Green       lipgloss.Color
	GreenBright lipgloss.Color
	Orange      lipgloss.Color
	Red         lipgloss.Color
	Blue        lipgloss.Color
	Magenta     lipgloss.Color
	Cyan        lipgloss.Color

	// Chart roles
	Balance    lipgloss.Color // closing balance series
	Projection lipgloss.Color // next-month projection series
	ZeroLine   lipgloss.Color // depletion line
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm, paper-inspired dark tones.
var FlexokiDark = Theme{
	Name: "flexoki-dark",

	Background:    "#100F0F",
	Surface:       "#1C1B1A",
	SurfaceBright: "#343331",
	Border:        "#403E3C",
	BorderAccent:  "#3AA99F",
	TextDim:       "#575653",
	TextMuted:     "#878580",
	TextPrimary:   "#FFFCF0",
	Accent:        "#3AA99F",
	AccentBright:  "#5BC8BE",
	Green:         "#879A39",
	GreenBright:   "#A3B859",
	Orange:        "#DA702C",
	Red:           "#D14D41",
	Blue:          "#4385BE",
	Magenta:       "#CE5D97",
	Cyan:          "#24837B",

	Balance:    "#4385BE",
	Projection: "#3AA99F",
	ZeroLine:   "#D14D41",
}

// CatppuccinMocha uses soft pastels on a dark base.
var CatppuccinMocha = Theme{
	Name: "catppuccin-mocha",

	Background:    "#1E1E2E",
	Surface:       "#313244",
	SurfaceBright: "#585B70",
	Border:        "#585B70",
	BorderAccent:  "#89B4FA",
	TextDim:       "#6C7086",
	TextMuted:     "#A6ADC8",
	TextPrimary:   "#CDD6F4",
	Accent:        "#89B4FA",
	AccentBright:  "#B4D0FB",
	Green:         "#A6E3A1",
	GreenBright:   "#C6F6C1",
	Orange:        "#FAB387",
	Red:           "#F38BA8",
	Blue:          "#89B4FA",
	Magenta:       "#F5C2E7",
	Cyan:          "#94E2D5",

	Balance:    "#89B4FA",
	Projection: "#89B4FA",
	ZeroLine:   "#F38BA8",
}

// TokyoNight is a cool blue and purple palette.
var TokyoNight = Theme{
	Name: "tokyo-night",

	Background:    "#1A1B26",
	Surface:       "#24283B",
	SurfaceBright: "#414868",
	Border:        "#565F89",
	BorderAccent:  "#7AA2F7",
	TextDim:       "#565F89",
	TextMuted:     "#A9B1D6",
	TextPrimary:   "#C0CAF5",
	Accent:        "#7AA2F7",
	AccentBright:  "#A9C1FF",
	Green:         "#9ECE6A",
	GreenBright:   "#B9E87A",
	Orange:        "#FF9E64",
	Red:           "#F7768E",
	Blue:          "#7AA2F7",
	Magenta:       "#BB9AF7",
	Cyan:          "#7DCFFF",

	Balance:    "#7AA2F7",
	Projection: "#7AA2F7",
	ZeroLine:   "#F7768E",
}

// Terminal sticks to the 16 ANSI colors so it works anywhere.
var Terminal = Theme{
	Name: "terminal",

	Background:    "0",
	Surface:       "0",
	SurfaceBright: "8",
	Border:        "8",
	BorderAccent:  "6",
	TextDim:       "8",
	TextMuted:     "7",
	TextPrimary:   "15",
	Accent:        "6",
	AccentBright:  "14",
	Green:         "2",
	GreenBright:   "10",
	Orange:        "3",
	Red:           "1",
	Blue:          "4",
	Magenta:       "5",
	Cyan:          "6",

	Balance:    "4",
	Projection: "6",
	ZeroLine:   "1",
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the available theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Status returns the color for a runway status.
func (t Theme) Status(s model.RunwayStatus) lipgloss.Color {
	switch s {
	case model.StatusGrowing:
		return t.GreenBright
	case model.StatusBreakeven:
		return t.Blue
	case model.StatusDepleting:
		return t.Orange
	case model.StatusDepleted:
		return t.Red
	default:
		return t.Magenta
	}
}

// Signed returns green for positive amounts, red for negative, muted for zero.
func (t Theme) Signed(v float64) lipgloss.Color {
	switch {
	case v > 0:
		return t.Green
	case v < 0:
		return t.Red
	default:
		return t.TextMuted
	}
}
