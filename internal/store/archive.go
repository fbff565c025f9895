// Package store writes computed runway runs to a standalone SQLite file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/runway/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one exported computation: its settings, headline result and the
// two tables.
type Run struct {
	ID               string
	CreatedAt        time.Time
	Policy           model.Policy
	Units            model.Units
	Params           model.SimulationParams
	AdjustedProducts bool

	Productivity     float64
	MonthlyCash      float64
	NetMonthlyChange float64
	SurvivalMonths   *float64
	Status           model.RunwayStatus
	Message          string

	History  []model.TrendRow
	Products []model.Product
}

// NewRun captures out as a run with a fresh ID. With adjusted set, the
// product table holds the simulated products instead of the valid inputs.
func NewRun(out model.Outputs, policy model.Policy, units model.Units, adjusted bool) Run {
	products := out.Valid
	if adjusted {
		products = out.Adjusted
	}
	s := out.Sensitivity
	return Run{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
		Policy:           policy,
		Units:            units,
		Params:           s.Params,
		AdjustedProducts: adjusted,
		Productivity:     out.Productivity.AggregateProductivity,
		MonthlyCash:      out.MonthlyCashGenerated,
		NetMonthlyChange: s.NetMonthlyChange,
		SurvivalMonths:   s.SurvivalMonths,
		Status:           s.Status,
		Message:          s.Message,
		History:          out.Trend.Rows,
		Products:         products,
	}
}

// Archive is a SQLite file of runs.
type Archive struct {
	db *sql.DB
}

// Open opens or creates the archive database at the given path.
func Open(dbPath string) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun stores a run and both of its tables in one transaction.
func (a *Archive) SaveRun(r Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	adjusted := 0
	if r.AdjustedProducts {
		adjusted = 1
	}
	status, _ := r.Status.MarshalText()

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, created_at, policy, days_per_month, currency, tp_rate, lt_rate,
		 cash_injection, adjusted_products, productivity, monthly_cash,
		 net_monthly_change, survival_months, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Policy.String(), r.Units.DaysPerMonth,
		r.Units.Currency, r.Params.TPRate, r.Params.LTRate, r.Params.CashInjection, adjusted,
		r.Productivity, r.MonthlyCash, r.NetMonthlyChange, nullFloat(r.SurvivalMonths),
		string(status), r.Message,
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	// Replace any earlier rows for this run
	for _, table := range []string{"monthly_history", "products"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", r.ID); err != nil {
			return err
		}
	}

	for i, h := range r.History {
		_, err = tx.Exec(`INSERT INTO monthly_history
			(run_id, seq, month, opening_balance, closing_balance, monthly_outflow,
			 monthly_cash, monthly_net_change, projected_balance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, h.Month, h.OpeningBalance, h.ClosingBalance, h.MonthlyOutflow,
			h.MonthlyCashGenerated, h.MonthlyNetChange, h.ProjectedNextBalance,
		)
		if err != nil {
			return fmt.Errorf("saving history row %d: %w", i+1, err)
		}
	}

	for i, p := range r.Products {
		_, err = tx.Exec(`INSERT INTO products (run_id, seq, name, throughput, lead_time)
			VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, p.Name, nullFloat(p.Throughput), nullFloat(p.LeadTime),
		)
		if err != nil {
			return fmt.Errorf("saving product row %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// LoadRun reads one run with its tables.
func (a *Archive) LoadRun(id string) (Run, error) {
	var r Run
	var created, policy, status string
	var currency, message sql.NullString
	var survival, productivity, monthly, net sql.NullFloat64
	var adjusted int

	err := a.db.QueryRow(`SELECT
		run_id, created_at, policy, days_per_month, currency, tp_rate, lt_rate,
		cash_injection, adjusted_products, productivity, monthly_cash,
		net_monthly_change, survival_months, status, message
		FROM runs WHERE run_id = ?`, id).Scan(
		&r.ID, &created, &policy, &r.Units.DaysPerMonth, &currency, &r.Params.TPRate, &r.Params.LTRate,
		&r.Params.CashInjection, &adjusted, &productivity, &monthly,
		&net, &survival, &status, &message,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	if r.Policy, err = model.ParsePolicy(policy); err != nil {
		return Run{}, err
	}
	if err := r.Status.UnmarshalText([]byte(status)); err != nil {
		return Run{}, err
	}
	r.Units.Currency = currency.String
	r.Message = message.String
	r.AdjustedProducts = adjusted != 0
	r.Productivity = productivity.Float64
	r.MonthlyCash = monthly.Float64
	r.NetMonthlyChange = net.Float64
	if survival.Valid {
		v := survival.Float64
		r.SurvivalMonths = &v
	}

	if r.History, err = a.loadHistory(id); err != nil {
		return Run{}, err
	}
	if r.Products, err = a.loadProducts(id); err != nil {
		return Run{}, err
	}
	return r, nil
}

func (a *Archive) loadHistory(id string) ([]model.TrendRow, error) {
	rows, err := a.db.Query(`SELECT
		month, opening_balance, closing_balance, monthly_outflow,
		monthly_cash, monthly_net_change, projected_balance
		FROM monthly_history WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	history := []model.TrendRow{}
	for rows.Next() {
		var h model.TrendRow
		if err := rows.Scan(&h.Month, &h.OpeningBalance, &h.ClosingBalance, &h.MonthlyOutflow,
			&h.MonthlyCashGenerated, &h.MonthlyNetChange, &h.ProjectedNextBalance); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (a *Archive) loadProducts(id string) ([]model.Product, error) {
	rows, err := a.db.Query(`SELECT name, throughput, lead_time
		FROM products WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		var tp, lt sql.NullFloat64
		if err := rows.Scan(&p.Name, &tp, &lt); err != nil {
			return nil, err
		}
		p.Throughput = floatPtr(tp)
		p.LeadTime = floatPtr(lt)
		products = append(products, p)
	}
	return products, rows.Err()
}

// RunIDs lists run IDs, newest first.
func (a *Archive) RunIDs() ([]string, error) {
	rows, err := a.db.Query("SELECT run_id FROM runs ORDER BY created_at DESC, run_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRun removes a run and its tables. An unknown ID is ErrRunNotFound.
func (a *Archive) DeleteRun(id string) error {
	res, err := a.db.Exec("DELETE FROM runs WHERE run_id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RunCount returns the number of stored runs.
func (a *Archive) RunCount() (int, error) {
	var count int
	err := a.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
