package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/runway/internal/tui/theme"
)

func TestLineChart_RowWidths(t *testing.T) {
	series := []Series{
		{Name: "closing", Values: []float64{800, 700, 650}, Color: theme.Active.Accent, Glyph: '●'},
		{Name: "projected", Values: []float64{math.NaN(), 650, -20}, Color: theme.Active.Projection, Glyph: '◆'},
	}
	out := LineChart(series, []string{"2024-01", "2024-02", "2024-03"}, 40, 8)

	lines := strings.Split(out, "\n")
	if len(lines) != 9 {
		t.Fatalf("lines = %d, want 8 plot rows + x labels", len(lines))
	}
	for i, l := range lines[:8] {
		if w := lipgloss.Width(l); w != 40 {
			t.Errorf("row %d width = %d, want 40", i, w)
		}
	}
	if !strings.Contains(out, "─") {
		t.Error("zero line missing")
	}
	if !strings.Contains(lines[8], "2024-01") {
		t.Errorf("x labels = %q", lines[8])
	}
}

func TestLineChart_Empty(t *testing.T) {
	if got := LineChart(nil, nil, 40, 8); got != "" {
		t.Fatalf("empty chart = %q", got)
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0:     "0",
		500:   "500",
		2000:  "2k",
		1500:  "1.5k",
		-3000: "-3k",
		2e6:   "2M",
	}
	for v, want := range tests {
		if got := formatChartLabel(v); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestTabBar_HitTesting(t *testing.T) {
	if TabAtX(0) != -1 {
		t.Error("leading space hit a tab")
	}
	if TabAtX(1) != 0 {
		t.Error("x=1 should be Overview")
	}

	overview := TabVisualWidth(Tabs[0])
	gapX := 1 + overview
	if TabAtX(gapX) != -1 {
		t.Errorf("gap at x=%d hit a tab", gapX)
	}
	if TabAtX(gapX+len(tabGap)) != 1 {
		t.Errorf("x=%d should be History", gapX+len(tabGap))
	}
}

func TestTabBar_WidthMatchesHitboxes(t *testing.T) {
	want := 1
	for i, tab := range Tabs {
		want += TabVisualWidth(tab)
		if i < len(Tabs)-1 {
			want += len(tabGap)
		}
	}
	for active := range Tabs {
		if got := lipgloss.Width(RenderTabBar(active, 0)); got != want {
			t.Errorf("active=%d: tab bar width = %d, want %d", active, got, want)
		}
	}
	if got := lipgloss.Width(RenderTabBar(0, 100)); got != 100 {
		t.Errorf("padded tab bar width = %d, want 100", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if TabIdxByKey('x') != len(Tabs)-1 {
		t.Error("x should open Settings")
	}
	if TabIdxByKey('z') != -1 {
		t.Error("z matched a tab")
	}
}

func TestSliderFraction(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0, -50, 50, 0.5},
		{-80, -50, 50, 0},
		{200, -50, 100, 1},
		{5, 10, 10, 0},
	}
	for _, tt := range tests {
		if got := SliderFraction(tt.v, tt.lo, tt.hi); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("SliderFraction(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestStatusBar_Width(t *testing.T) {
	got := RenderStatusBar(60, "[?]help  [q]uit", "exported", false)
	if w := lipgloss.Width(got); w != 60 {
		t.Fatalf("status bar width = %d, want 60", w)
	}
	if !strings.Contains(got, "exported") {
		t.Fatal("message missing")
	}
}
