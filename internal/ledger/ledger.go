// Package ledger aggregates income and cost records into the filtered views,
// totals and balances shown on the summary page and in exports.
//
// Every function is pure: inputs are never modified and results are new
// slices. The only implicit input is the reference time passed by the
// caller, which decides what "current month" means.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Scope restricts a filter to the current calendar month or to all time.
type Scope int

const (
	ScopeCurrentMonth Scope = iota
	ScopeAllTime
)

func (s Scope) String() string {
	if s == ScopeAllTime {
		return "all-time"
	}
	return "current-month"
}

// FilterConfig describes which records a summary shows. An empty Category
// and zero Start/End mean the bound is absent.
type FilterConfig struct {
	Category string
	Start    core.Date
	End      core.Date
	Scope    Scope
}

// Totals are the derived sums for one filtered view.
type Totals struct {
	Income      decimal.Decimal
	Cost        decimal.Decimal
	Balance     decimal.Decimal
	GrossProfit decimal.Decimal
}

// MonthPartition splits a collection into the reference month and the month before it.
type MonthPartition struct {
	Current  []core.Record
	Previous []core.Record
}

// Rollover is the two-month balance: current month plus the month before.
type Rollover struct {
	Current     decimal.Decimal
	Previous    decimal.Decimal
	Accumulated decimal.Decimal
}

// Summary is everything the summary view and the PDF export render.
type Summary struct {
	Filter      FilterConfig
	GeneratedAt time.Time
	Incomes     []core.Record
	Costs       []core.Record
	Totals      Totals
	Rollover    Rollover
}

// matchesBounds applies the category and date range parts of the filter.
func (f FilterConfig) matchesBounds(r core.Record) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if !f.Start.IsEmpty() && r.Date.Compare(f.Start) < 0 {
		return false
	}
	if !f.End.IsEmpty() && r.Date.Compare(f.End) > 0 {
		return false
	}
	return true
}

// Matches reports whether r passes the filter when evaluated at now.
func (f FilterConfig) Matches(r core.Record, now time.Time) bool {
	if !f.matchesBounds(r) {
		return false
	}
	if f.Scope == ScopeAllTime {
		return true
	}
	return r.Date.InMonth(now.Year(), now.Month())
}

// Filter returns the records passing cfg, in their original order.
func Filter(records []core.Record, cfg FilterConfig, now time.Time) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if cfg.Matches(r, now) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeTotals sums already filtered collections. Gross profit is gross
// income minus variable cost within the same view.
func ComputeTotals(incomes, costs []core.Record) Totals {
	income := core.Sum(incomes)
	cost := core.Sum(costs)
	gross := core.SumCategory(incomes, core.CategoryGrossIncome).
		Sub(core.SumCategory(costs, core.CategoryVariableCost))
	return Totals{
		Income:      income,
		Cost:        cost,
		Balance:     income.Sub(cost),
		GrossProfit: gross,
	}
}

// PreviousMonth returns the calendar month before (year, month), rolling
// January back to December of the prior year.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// PartitionByMonth picks out the records of ref's month and of the month before.
func PartitionByMonth(records []core.Record, ref time.Time) MonthPartition {
	year, month := ref.Year(), ref.Month()
	prevYear, prevMonth := PreviousMonth(year, month)

	var p MonthPartition
	for _, r := range records {
		switch {
		case r.Date.InMonth(year, month):
			p.Current = append(p.Current, r)
		case r.Date.InMonth(prevYear, prevMonth):
			p.Previous = append(p.Previous, r)
		}
	}
	return p
}

// ComputeRollover returns the current and previous month balances and their
// sum. Category and date bounds of cfg apply; its scope does not. The look
// back is exactly one month.
func ComputeRollover(incomes, costs []core.Record, cfg FilterConfig, ref time.Time) Rollover {
	bounds := cfg
	bounds.Scope = ScopeAllTime
	inc := PartitionByMonth(Filter(incomes, bounds, ref), ref)
	cst := PartitionByMonth(Filter(costs, bounds, ref), ref)

	current := core.Sum(inc.Current).Sub(core.Sum(cst.Current))
	previous := core.Sum(inc.Previous).Sub(core.Sum(cst.Previous))
	return Rollover{
		Current:     current,
		Previous:    previous,
		Accumulated: current.Add(previous),
	}
}

// Summarize builds the full summary view for the given collections.
func Summarize(incomes, costs []core.Record, cfg FilterConfig, now time.Time) Summary {
	fi := Filter(incomes, cfg, now)
	fc := Filter(costs, cfg, now)
	return Summary{
		Filter:      cfg,
		GeneratedAt: now,
		Incomes:     fi,
		Costs:       fc,
		Totals:      ComputeTotals(fi, fc),
		Rollover:    ComputeRollover(incomes, costs, cfg, now),
	}
}
