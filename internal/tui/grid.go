package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/tui/theme"
)

var (
	historyColumns = []string{"Month", "Opening", "Closing"}
	productColumns = []string{"Name", "TP", "LT"}
)

// gridState tracks cursor and in-place editing for an editable table.
type gridState struct {
	row, col int
	cols     int
	editing  bool
	input    textinput.Model
}

func (g *gridState) clamp(rows int) {
	g.row = max(0, min(g.row, rows-1))
	g.col = max(0, min(g.col, g.cols-1))
}

func (g *gridState) move(dRow, dCol int) {
	g.row += dRow
	g.col += dCol
}

func (a *App) activeGrid() *gridState {
	switch a.activeTab {
	case tabHistory:
		return &a.history
	case tabProducts:
		return &a.products
	}
	return nil
}

func (a *App) activeRows() int {
	if a.activeTab == tabProducts {
		return len(a.ds.Products)
	}
	return len(a.ds.History)
}

// updateGridKey handles navigation and row actions on the History and
// Products tabs. ok is false when the key is not a grid binding.
func (a App) updateGridKey(key string) (tea.Model, tea.Cmd, bool) {
	g := a.activeGrid()
	rows := a.activeRows()

	switch key {
	case "j", "down":
		g.move(1, 0)
	case "k", "up":
		g.move(-1, 0)
	case "l", "right":
		g.move(0, 1)
	case "left":
		g.move(0, -1)
	case "g":
		g.row = 0
	case "G":
		g.row = rows - 1
	case "enter":
		if rows == 0 {
			return a, nil, true
		}
		cmd := a.startCellEdit()
		return a, cmd, true
	case "a":
		if a.activeTab == tabProducts {
			cmd := a.openProductForm()
			return a, cmd, true
		}
		a.addHistoryRow()
		a.recompute()
		return a, nil, true
	case "d":
		if rows == 0 {
			return a, nil, true
		}
		a.deleteRow(g.row)
		a.recompute()
		return a, nil, true
	default:
		return a, nil, false
	}
	g.clamp(rows)
	return a, nil, true
}

func (a *App) startCellEdit() tea.Cmd {
	g := a.activeGrid()

	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 16
	ti.SetValue(a.cellValue(g.row, g.col))
	ti.CursorEnd()
	ti.Focus()

	g.input = ti
	g.editing = true
	return ti.Cursor.BlinkCmd()
}

func (a App) updateGridInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := a.activeGrid()

	switch msg.String() {
	case "enter":
		if err := a.commitCell(g.row, g.col, g.input.Value()); err != nil {
			a.flash(err.Error(), true)
			return a, nil
		}
		g.editing = false
		a.dirty = true
		a.recompute()
		a.flash("", false)
		return a, nil
	case "esc":
		g.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	g.input, cmd = g.input.Update(msg)
	return a, cmd
}

// cellValue returns the raw editable text of a cell.
func (a App) cellValue(row, col int) string {
	if a.activeTab == tabProducts {
		p := a.ds.Products[row]
		switch col {
		case 0:
			return p.Name
		case 1:
			return rawFloat(p.Throughput)
		default:
			return rawFloat(p.LeadTime)
		}
	}

	h := a.ds.History[row]
	switch col {
	case 0:
		return h.Month
	case 1:
		return rawFloat(h.OpeningBalance)
	default:
		return rawFloat(h.ClosingBalance)
	}
}

// commitCell writes an edited value back to the table. An empty numeric
// value clears the cell, which excludes the row from computation.
func (a *App) commitCell(row, col int, raw string) error {
	raw = strings.TrimSpace(raw)

	if col == 0 {
		if a.activeTab == tabProducts {
			a.ds.Products[row].Name = raw
		} else {
			a.ds.History[row].Month = raw
		}
		return nil
	}

	v, err := parseAmount(raw)
	if err != nil {
		return err
	}

	if a.activeTab == tabProducts {
		p := &a.ds.Products[row]
		if col == 1 {
			p.Throughput = v
		} else {
			p.LeadTime = v
		}
		return nil
	}

	h := &a.ds.History[row]
	if col == 1 {
		h.OpeningBalance = v
	} else {
		h.ClosingBalance = v
	}
	return nil
}

// parseAmount accepts plain or comma-grouped numbers. Empty input is nil.
func parseAmount(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	return &v, nil
}

func rawFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// addHistoryRow appends the month after the last row, opening where the
// last row closed.
func (a *App) addHistoryRow() {
	row := model.MonthlyBalance{}
	if n := len(a.ds.History); n > 0 {
		last := a.ds.History[n-1]
		row.Month = nextMonth(last.Month)
		if last.ClosingBalance != nil {
			row.OpeningBalance = model.Float(*last.ClosingBalance)
		}
	}
	a.ds.History = append(a.ds.History, row)
	a.history.row = len(a.ds.History) - 1
	a.history.col = 2
	a.dirty = true
}

// nextMonth returns the YYYY-MM label after month, or "" when month is not
// in that form.
func nextMonth(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 1, 0).Format("2006-01")
}

func (a *App) deleteRow(row int) {
	if a.activeTab == tabProducts {
		a.ds.Products = append(a.ds.Products[:row], a.ds.Products[row+1:]...)
	} else {
		a.ds.History = append(a.ds.History[:row], a.ds.History[row+1:]...)
	}
	a.dirty = true
}

// gridColumn describes one rendered table column. Editable columns come
// first and map to cursor columns.
type gridColumn struct {
	title string
	width int
	right bool
}

// renderGrid draws a table with a highlighted cursor row and cell. cells
// holds preformatted text; invalid rows render dimmed.
func renderGrid(g gridState, cols []gridColumn, cells [][]string, invalid []bool, offset, height int) string {
	t := theme.Active

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright)
	cursorStyle := lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	space := lipgloss.NewStyle().Background(t.Surface)

	fit := func(s string, c gridColumn) string {
		s = truncStr(s, c.width)
		if c.right {
			return strings.Repeat(" ", c.width-lipgloss.Width(s)) + s
		}
		return s + strings.Repeat(" ", c.width-lipgloss.Width(s))
	}

	var b strings.Builder
	b.WriteString(space.Render("  "))
	for i, c := range cols {
		if i > 0 {
			b.WriteString(space.Render(" "))
		}
		b.WriteString(headerStyle.Render(fit(c.title, c)))
	}

	if len(cells) == 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("  no rows: press a to add one"))
		return b.String()
	}

	end := min(len(cells), offset+height)
	for r := offset; r < end; r++ {
		b.WriteString("\n")
		selected := r == g.row

		base := cellStyle
		if invalid[r] {
			base = dimStyle
		}
		if selected {
			base = rowStyle
			b.WriteString(markerStyle.Render("▸ "))
		} else {
			b.WriteString(space.Render("  "))
		}

		for i, c := range cols {
			if i > 0 {
				if selected {
					b.WriteString(rowStyle.Render(" "))
				} else {
					b.WriteString(space.Render(" "))
				}
			}
			if selected && i == g.col {
				if g.editing {
					b.WriteString(g.input.View())
					continue
				}
				b.WriteString(cursorStyle.Render(fit(cells[r][i], c)))
				continue
			}
			b.WriteString(base.Render(fit(cells[r][i], c)))
		}
	}
	return b.String()
}

// gridOffset scrolls so the cursor row stays visible.
func gridOffset(cursor, rows, height int) int {
	if height <= 0 || rows <= height {
		return 0
	}
	return max(0, min(cursor-height/2, rows-height))
}
