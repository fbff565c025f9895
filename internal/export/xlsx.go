// Package export writes computed runway tables to spreadsheet workbooks and
// reads them back.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/runway/internal/model"
)

// Sheet names. Spreadsheet sheet names cannot contain "/".
const (
	SheetHistory  = "monthly history"
	SheetProducts = "product TP_LT"
)

// HistoryColumns is the header row of the history sheet.
var HistoryColumns = []string{
	"month",
	"openingBalance",
	"closingBalance",
	"monthlyOutflow",
	"monthlyCashGenerated",
	"monthlyNetChange",
	"projectedNextBalance",
}

// ProductColumns is the header row of the product sheet.
var ProductColumns = []string{"name", "throughput", "leadTime"}

// ErrMissingSheet is returned by Read when a workbook lacks one of the two sheets.
var ErrMissingSheet = errors.New("export: missing sheet")

// ErrCellTooLong is returned for text longer than a spreadsheet cell holds.
// Spreadsheet applications would otherwise truncate it silently.
var ErrCellTooLong = errors.New("export: text exceeds 32767 characters")

const maxCellChars = 32767

func checkCellText(kind, s string) error {
	if n := utf8.RuneCountInString(s); n > maxCellChars {
		return fmt.Errorf("%w: %s of %d characters", ErrCellTooLong, kind, n)
	}
	return nil
}

// Options controls which product rows are written.
type Options struct {
	// Adjusted writes the products after the sensitivity adjustment
	// instead of the valid input products.
	Adjusted bool
}

// Tables is the content of a runway workbook.
type Tables struct {
	History  []model.TrendRow
	Products []model.Product
}

// Dataset rebuilds the editable input tables from a workbook.
func (t Tables) Dataset() model.Dataset {
	ds := model.Dataset{Products: t.Products}.Clone()
	ds.History = make([]model.MonthlyBalance, len(t.History))
	for i, r := range t.History {
		ds.History[i] = model.NewMonth(r.Month, r.OpeningBalance, r.ClosingBalance)
	}
	return ds
}

// TablesOf selects the rows a workbook for out would contain.
func TablesOf(out model.Outputs, opts Options) Tables {
	products := out.Valid
	if opts.Adjusted {
		products = out.Adjusted
	}
	return Tables{History: out.Trend.Rows, Products: products}
}

// Workbook builds the two-sheet workbook in memory. The caller closes it.
func Workbook(t Tables) (*excelize.File, error) {
	for _, r := range t.History {
		if err := checkCellText("month label", r.Month); err != nil {
			return nil, err
		}
	}
	for _, p := range t.Products {
		if err := checkCellText("product name", p.Name); err != nil {
			return nil, err
		}
	}

	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: %w", err)
	}
	if _, err := f.NewSheet(SheetProducts); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: %w", err)
	}

	rows := make([][]interface{}, 0, len(t.History))
	for _, r := range t.History {
		rows = append(rows, []interface{}{
			r.Month,
			r.OpeningBalance,
			r.ClosingBalance,
			r.MonthlyOutflow,
			r.MonthlyCashGenerated,
			r.MonthlyNetChange,
			r.ProjectedNextBalance,
		})
	}
	if err := writeSheet(f, SheetHistory, HistoryColumns, rows, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, p := range t.Products {
		rows = append(rows, []interface{}{p.Name, cellFloat(p.Throughput), cellFloat(p.LeadTime)})
	}
	if err := writeSheet(f, SheetProducts, ProductColumns, rows, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("export: writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("export: styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: writing %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// cellFloat leaves missing values as blank cells.
func cellFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Write streams the workbook for out to w.
func Write(w io.Writer, out model.Outputs, opts Options) error {
	f, err := Workbook(TablesOf(out, opts))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook for out to path. A failed write leaves no
// partial file behind.
func WriteFile(path string, out model.Outputs, opts Options) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runway-*.xlsx")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()

	if err := Write(tmp, out, opts); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: %w", err)
	}
	_ = os.Chmod(tmpName, 0o644)
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Read parses a workbook written by Write. Columns are located by header
// name, so reordered or extra columns are tolerated.
func Read(r io.Reader) (Tables, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Tables{}, fmt.Errorf("export: opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var t Tables

	history, err := sheetRows(f, SheetHistory, HistoryColumns)
	if err != nil {
		return Tables{}, err
	}
	for i, rec := range history {
		row := model.TrendRow{Month: rec["month"]}
		num := []*float64{
			&row.OpeningBalance,
			&row.ClosingBalance,
			&row.MonthlyOutflow,
			&row.MonthlyCashGenerated,
			&row.MonthlyNetChange,
			&row.ProjectedNextBalance,
		}
		for j, col := range HistoryColumns[1:] {
			v, err := parseCell(rec[col])
			if err != nil {
				return Tables{}, fmt.Errorf("export: %s row %d %s: %w", SheetHistory, i+1, col, err)
			}
			if v != nil {
				*num[j] = *v
			}
		}
		t.History = append(t.History, row)
	}

	products, err := sheetRows(f, SheetProducts, ProductColumns)
	if err != nil {
		return Tables{}, err
	}
	for i, rec := range products {
		p := model.Product{Name: rec["name"]}
		if p.Throughput, err = parseCell(rec["throughput"]); err != nil {
			return Tables{}, fmt.Errorf("export: %s row %d throughput: %w", SheetProducts, i+1, err)
		}
		if p.LeadTime, err = parseCell(rec["leadTime"]); err != nil {
			return Tables{}, fmt.Errorf("export: %s row %d leadTime: %w", SheetProducts, i+1, err)
		}
		t.Products = append(t.Products, p)
	}

	return t, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// sheetRows returns every data row of sheet keyed by header name.
func sheetRows(f *excelize.File, sheet string, want []string) ([]map[string]string, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingSheet, sheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("export: reading %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("export: %s has no header row", sheet)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range want {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("export: %s missing column %q", sheet, name)
		}
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(map[string]string, len(want))
		for _, name := range want {
			if i := cols[name]; i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseCell(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
