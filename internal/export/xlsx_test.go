package export

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
	"github.com/theirongolddev/runway/internal/store"
)

func sampleOutputs(params model.SimulationParams) model.Outputs {
	in := model.Inputs{
		Dataset: model.Dataset{
			History: []model.MonthlyBalance{
				model.NewMonth("2024-01", 1000, 800),
				model.NewMonth("2024-02", 800, 700),
				model.NewMonth("2024-03", 700, 650.125),
			},
			Products: []model.Product{
				model.NewProduct("A", 500, 30),
				model.NewProduct("B", 1000, 60),
				model.NewProduct("broken", 10, 0),
			},
		},
		Params: params,
	}
	return pipeline.Compute(in, pipeline.DefaultOptions())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	out := sampleOutputs(model.SimulationParams{})

	var buf bytes.Buffer
	if err := Write(&buf, out, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got.History) != len(out.Trend.Rows) {
		t.Fatalf("history rows = %d, want %d", len(got.History), len(out.Trend.Rows))
	}
	for i, want := range out.Trend.Rows {
		g := got.History[i]
		if g.Month != want.Month {
			t.Errorf("row %d month = %q, want %q", i, g.Month, want.Month)
		}
		pairs := [][2]float64{
			{g.OpeningBalance, want.OpeningBalance},
			{g.ClosingBalance, want.ClosingBalance},
			{g.MonthlyOutflow, want.MonthlyOutflow},
			{g.MonthlyCashGenerated, want.MonthlyCashGenerated},
			{g.MonthlyNetChange, want.MonthlyNetChange},
			{g.ProjectedNextBalance, want.ProjectedNextBalance},
		}
		for j, p := range pairs {
			if math.Abs(p[0]-p[1]) > 1e-9 {
				t.Errorf("row %d column %s = %v, want %v", i, HistoryColumns[j+1], p[0], p[1])
			}
		}
	}

	if len(got.Products) != 2 {
		t.Fatalf("product rows = %d, want 2 valid products", len(got.Products))
	}
	if got.Products[1].Name != "B" || got.Products[1].TP() != 1000 || got.Products[1].LT() != 60 {
		t.Errorf("product 1 = %+v", got.Products[1])
	}
}

func TestWorkbook_SheetsAndHeaders(t *testing.T) {
	f, err := Workbook(TablesOf(sampleOutputs(model.SimulationParams{}), Options{}))
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetHistory || sheets[1] != SheetProducts {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(SheetHistory)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows[0]) != len(HistoryColumns) {
		t.Fatalf("history header = %v", rows[0])
	}
	for i, h := range HistoryColumns {
		if rows[0][i] != h {
			t.Errorf("history header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}
	if len(rows) != 4 {
		t.Errorf("history sheet rows = %d, want header + 3", len(rows))
	}
}

func TestWrite_AdjustedProducts(t *testing.T) {
	out := sampleOutputs(model.SimulationParams{TPRate: 10, LTRate: 50})

	var buf bytes.Buffer
	if err := Write(&buf, out, Options{Adjusted: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(got.Products))
	}
	if got.Products[0].LT() != 15 || math.Abs(got.Products[0].TP()-550) > 1e-9 {
		t.Fatalf("adjusted product = %v/%v, want 550/15", got.Products[0].TP(), got.Products[0].LT())
	}
}

func TestWriteFile_AndDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cash-runway.xlsx")
	if err := WriteFile(path, sampleOutputs(model.SimulationParams{}), Options{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tables, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	ds := tables.Dataset()
	if len(ds.History) != 3 || !ds.History[2].Complete() || *ds.History[2].ClosingBalance != 650.125 {
		t.Fatalf("dataset history = %+v", ds.History)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestWriteFile_BadDirLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.xlsx")
	if err := WriteFile(path, sampleOutputs(model.SimulationParams{}), Options{}); err == nil {
		t.Fatal("WriteFile succeeded into a missing directory")
	}
}

func TestRead_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	_, err := Read(&buf)
	if !errors.Is(err, ErrMissingSheet) {
		t.Fatalf("err = %v, want ErrMissingSheet", err)
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path, format, want string
	}{
		{"cash-runway.xlsx", "", FormatXLSX},
		{"runs.db", "", FormatSQLite},
		{"runs.sqlite", "", FormatSQLite},
		{"out", "", FormatXLSX},
		{"out.xlsx", "sqlite", FormatSQLite},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path, tt.format)
		if err != nil || got != tt.want {
			t.Errorf("FormatFor(%q, %q) = %q, %v; want %q", tt.path, tt.format, got, err, tt.want)
		}
	}
	if _, err := FormatFor("x", "csv"); err == nil {
		t.Error("FormatFor accepted csv")
	}
}

func TestSave_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	out := sampleOutputs(model.SimulationParams{TPRate: 5})

	id, err := Save(Target{Path: path, Policy: model.PolicyPooledWeighted, Units: model.DefaultUnits()}, out)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty run ID for sqlite")
	}

	archive, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = archive.Close() }()

	run, err := archive.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if len(run.History) != 3 || len(run.Products) != 2 || run.Params.TPRate != 5 {
		t.Fatalf("run = %+v", run)
	}
}

func TestSave_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cash-runway.xlsx")
	id, err := Save(Target{Path: path}, sampleOutputs(model.SimulationParams{}))
	if err != nil || id != "" {
		t.Fatalf("Save = %q, %v", id, err)
	}
	if _, err := ReadFile(path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
}

func TestWrite_RejectsOverlongProductName(t *testing.T) {
	out := sampleOutputs(model.SimulationParams{})
	out.Valid[0].Name = strings.Repeat("x", 40000)

	var buf bytes.Buffer
	err := Write(&buf, out, Options{})
	if !errors.Is(err, ErrCellTooLong) {
		t.Fatalf("Write error = %v, want ErrCellTooLong", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for a rejected workbook", buf.Len())
	}

	out.Valid[0].Name = strings.Repeat("製", maxCellChars)
	if err := Write(&buf, out, Options{}); err != nil {
		t.Fatalf("Write at the cell limit: %v", err)
	}
}

func TestTablesDataset_DoesNotAlias(t *testing.T) {
	tables := Tables{Products: []model.Product{model.NewProduct("A", 500, 30)}}
	ds := tables.Dataset()

	*ds.Products[0].Throughput = 999
	if got := *tables.Products[0].Throughput; got != 500 {
		t.Fatalf("editing the dataset changed the workbook tables: TP = %v", got)
	}
}

func TestListAndDeleteRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	target := Target{Path: path, Policy: model.PolicyPooledWeighted, Units: model.DefaultUnits()}

	first, err := Save(target, sampleOutputs(model.SimulationParams{}))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Save(target, sampleOutputs(model.SimulationParams{TPRate: 10}))
	if err != nil {
		t.Fatal(err)
	}

	runs, err := ListRuns(path)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Fatalf("listed %v, want %s and %s", ids, first, second)
	}

	remaining, err := DeleteRun(path, first)
	if err != nil || remaining != 1 {
		t.Fatalf("DeleteRun = %d, %v; want 1, nil", remaining, err)
	}
	if _, err := DeleteRun(path, first); !errors.Is(err, store.ErrRunNotFound) {
		t.Fatalf("DeleteRun twice err = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_MissingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.db")
	if _, err := ListRuns(path); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("ListRuns err = %v, want ErrNoArchive", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ListRuns created the archive file")
	}
}
