// Package model defines domain types for runway balances, products and results.
package model

import "math"

// MonthlyBalance is one row of the monthly cash-balance history.
// Rows are kept in insertion order, which is chronological order.
type MonthlyBalance struct {
	Month          string   `json:"month" yaml:"month" toml:"month"`
	OpeningBalance *float64 `json:"openingBalance" yaml:"openingBalance" toml:"openingBalance"`
	ClosingBalance *float64 `json:"closingBalance" yaml:"closingBalance" toml:"closingBalance"`
}

// Complete reports whether the row has a month label and both balances.
func (m MonthlyBalance) Complete() bool {
	return m.Month != "" && finite(m.OpeningBalance) && finite(m.ClosingBalance)
}

// Product is one row of the per-product throughput / lead-time table.
type Product struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Throughput *float64 `json:"throughput" yaml:"throughput" toml:"throughput"` // TP, currency per cycle
	LeadTime   *float64 `json:"leadTime" yaml:"leadTime" toml:"leadTime"`       // LT, days per cycle
}

// Valid reports whether the product can take part in aggregation:
// every field present and a strictly positive lead time.
func (p Product) Valid() bool {
	return p.Name != "" && finite(p.Throughput) && finite(p.LeadTime) && *p.LeadTime > 0
}

// TP returns the throughput, or 0 when missing.
func (p Product) TP() float64 {
	if p.Throughput == nil {
		return 0
	}
	return *p.Throughput
}

// LT returns the lead time, or 0 when missing.
func (p Product) LT() float64 {
	if p.LeadTime == nil {
		return 0
	}
	return *p.LeadTime
}

// Dataset holds the two editable input tables.
type Dataset struct {
	History  []MonthlyBalance `json:"history" yaml:"history" toml:"history"`
	Products []Product        `json:"products" yaml:"products" toml:"products"`
}

// Clone returns a deep copy so callers can edit rows without aliasing.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		History:  make([]MonthlyBalance, len(d.History)),
		Products: make([]Product, len(d.Products)),
	}
	for i, h := range d.History {
		out.History[i] = MonthlyBalance{
			Month:          h.Month,
			OpeningBalance: copyFloat(h.OpeningBalance),
			ClosingBalance: copyFloat(h.ClosingBalance),
		}
	}
	for i, p := range d.Products {
		out.Products[i] = Product{
			Name:       p.Name,
			Throughput: copyFloat(p.Throughput),
			LeadTime:   copyFloat(p.LeadTime),
		}
	}
	return out
}

// Float returns a pointer to v, for building rows in code and tests.
func Float(v float64) *float64 {
	return &v
}

// NewProduct builds a fully populated product row.
func NewProduct(name string, tp, lt float64) Product {
	return Product{Name: name, Throughput: Float(tp), LeadTime: Float(lt)}
}

// NewMonth builds a fully populated history row.
func NewMonth(month string, opening, closing float64) MonthlyBalance {
	return MonthlyBalance{Month: month, OpeningBalance: Float(opening), ClosingBalance: Float(closing)}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
