package cmd

import (
	"testing"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
)

func TestSweepCellText(t *testing.T) {
	months := 6.5
	tests := []struct {
		cell   pipeline.SweepCell
		metric string
		want   string
	}{
		{pipeline.SweepCell{Status: model.StatusDepleting, SurvivalMonths: &months}, "months", "6.5"},
		{pipeline.SweepCell{Status: model.StatusGrowing}, "months", "growing"},
		{pipeline.SweepCell{Status: model.StatusBreakeven}, "months", "even"},
		{pipeline.SweepCell{Status: model.StatusDepleted}, "months", "0"},
		{pipeline.SweepCell{Status: model.StatusUnprojectable}, "months", "n/a"},
		{pipeline.SweepCell{NetMonthlyChange: -100}, "net", "-100"},
	}
	for _, tt := range tests {
		if got := sweepCellText(tt.cell, tt.metric); got != tt.want {
			t.Errorf("sweepCellText(%+v, %q) = %q, want %q", tt.cell, tt.metric, got, tt.want)
		}
	}
}

func TestLoadInputsSample(t *testing.T) {
	t.Setenv("RUNWAY_INPUT", "")
	appCfg.General.Input = ""
	flagQuiet = true
	t.Cleanup(func() { flagQuiet = false })

	in, err := loadInputs()
	if err != nil {
		t.Fatalf("loadInputs: %v", err)
	}
	if in.path != "" {
		t.Errorf("path = %q, want sample", in.path)
	}
	if len(in.ds.History) != 3 || len(in.ds.Products) != 2 {
		t.Errorf("sample = %d months, %d products", len(in.ds.History), len(in.ds.Products))
	}
	if got := in.compute().MonthlyCashGenerated; got != 900 {
		t.Errorf("MonthlyCashGenerated = %v, want 900", got)
	}
}
