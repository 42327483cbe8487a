package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func rec(id, date, category string, amount int64) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{ID: id, Date: d, Category: category, Description: id, Amount: decimal.NewFromInt(amount)}
}

func ids(records []core.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), append([]interface{}{"want %d got %s", want, got}, msgAndArgs...)...)
}

var march2024 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

func TestFilter_IsOrderedSubsequenceMatchingPredicate(t *testing.T) {
	records := []core.Record{
		rec("a", "2024-03-01", core.CategoryFixedCost, 10),
		rec("b", "2024-02-28", core.CategoryVariableCost, 20),
		rec("c", "2024-03-20", core.CategoryVariableCost, 30),
		rec("d", "2023-03-20", core.CategoryFixedCost, 40),
		rec("e", "2024-03-31", core.CategoryFixedCost, 50),
	}
	configs := []FilterConfig{
		{},
		{Scope: ScopeAllTime},
		{Category: core.CategoryFixedCost, Scope: ScopeAllTime},
		{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 20), Scope: ScopeAllTime},
		{Category: core.CategoryVariableCost},
		{Category: "nope", Scope: ScopeAllTime},
	}
	for _, cfg := range configs {
		got := Filter(records, cfg, march2024)

		// every element satisfies the predicate, and every passing record is present in order
		var want []string
		for _, r := range records {
			if cfg.Matches(r, march2024) {
				want = append(want, r.ID)
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, ids(got), "cfg %+v", cfg)
	}
}

func TestFilter_Bounds(t *testing.T) {
	records := []core.Record{
		rec("before", "2024-02-29", core.CategoryFixedCost, 1),
		rec("start", "2024-03-01", core.CategoryFixedCost, 1),
		rec("end", "2024-03-10", core.CategoryFixedCost, 1),
		rec("after", "2024-03-11", core.CategoryFixedCost, 1),
	}
	cfg := FilterConfig{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 10), Scope: ScopeAllTime}
	assert.Equal(t, []string{"start", "end"}, ids(Filter(records, cfg, march2024)))

	cfg = FilterConfig{Start: core.NewDate(2024, 3, 1), Scope: ScopeAllTime}
	assert.Equal(t, []string{"start", "end", "after"}, ids(Filter(records, cfg, march2024)))

	cfg = FilterConfig{End: core.NewDate(2024, 3, 1), Scope: ScopeAllTime}
	assert.Equal(t, []string{"before", "start"}, ids(Filter(records, cfg, march2024)))
}

func TestFilter_CurrentMonthScopeUsesReferenceTime(t *testing.T) {
	records := []core.Record{
		rec("feb", "2024-02-15", core.CategoryFixedCost, 1),
		rec("mar", "2024-03-15", core.CategoryFixedCost, 1),
		rec("mar-last-year", "2023-03-15", core.CategoryFixedCost, 1),
	}
	assert.Equal(t, []string{"mar"}, ids(Filter(records, FilterConfig{}, march2024)))

	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, []string{"feb"}, ids(Filter(records, FilterConfig{}, feb)))
}

func TestFilter_EmptyConfigAllTimeReturnsEverything(t *testing.T) {
	records := []core.Record{
		rec("z", "2020-01-01", "x", 1),
		rec("a", "2024-03-01", "y", 2),
		rec("m", "1999-12-31", "", 3),
	}
	got := Filter(records, FilterConfig{Scope: ScopeAllTime}, march2024)
	assert.Equal(t, records, got)

	// input untouched, result is a separate slice
	got[0].ID = "changed"
	assert.Equal(t, "z", records[0].ID)
}

func TestComputeTotals_EmptyIsZero(t *testing.T) {
	cfg := FilterConfig{Category: "missing", Scope: ScopeAllTime}
	incomes := []core.Record{rec("i", "2024-03-05", core.CategoryGrossIncome, 1000)}
	totals := ComputeTotals(Filter(incomes, cfg, march2024), Filter(nil, cfg, march2024))

	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Cost.IsZero())
	assert.True(t, totals.Balance.IsZero())
	assert.True(t, totals.GrossProfit.IsZero())
}

func TestComputeTotals_Scenario(t *testing.T) {
	incomes := []core.Record{rec("i1", "2024-03-05", core.CategoryGrossIncome, 1000)}
	costs := []core.Record{rec("c1", "2024-03-10", core.CategoryVariableCost, 200)}
	cfg := FilterConfig{Scope: ScopeAllTime}

	totals := ComputeTotals(Filter(incomes, cfg, time.Now()), Filter(costs, cfg, time.Now()))
	assertAmount(t, 1000, totals.Income)
	assertAmount(t, 200, totals.Cost)
	assertAmount(t, 800, totals.Balance)
	assertAmount(t, 800, totals.GrossProfit)
}

func TestComputeTotals_GrossProfitIgnoresOtherCategories(t *testing.T) {
	incomes := []core.Record{
		rec("g", "2024-03-05", core.CategoryGrossIncome, 1000),
		rec("n", "2024-03-05", core.CategoryNetIncome, 500),
	}
	costs := []core.Record{
		rec("v", "2024-03-10", core.CategoryVariableCost, 200),
		rec("f", "2024-03-10", core.CategoryFixedCost, 300),
	}
	totals := ComputeTotals(incomes, costs)
	assertAmount(t, 1500, totals.Income)
	assertAmount(t, 500, totals.Cost)
	assertAmount(t, 1000, totals.Balance)
	assertAmount(t, 800, totals.GrossProfit)
}

func TestCategoryFilterScenario(t *testing.T) {
	costs := []core.Record{
		rec("fixed", "2024-03-01", core.CategoryFixedCost, 700),
		rec("variable", "2024-03-02", core.CategoryVariableCost, 90),
	}
	cfg := FilterConfig{Category: core.CategoryFixedCost, Scope: ScopeAllTime}
	filtered := Filter(costs, cfg, march2024)

	require.Len(t, filtered, 1)
	assert.Equal(t, "fixed", filtered[0].ID)
	assertAmount(t, 700, ComputeTotals(nil, filtered).Cost)
}

func TestPreviousMonth(t *testing.T) {
	cases := []struct {
		year      int
		month     time.Month
		wantYear  int
		wantMonth time.Month
	}{
		{2024, time.January, 2023, time.December},
		{2024, time.March, 2024, time.February},
		{2024, time.December, 2024, time.November},
	}
	for _, tc := range cases {
		y, m := PreviousMonth(tc.year, tc.month)
		assert.Equal(t, tc.wantYear, y)
		assert.Equal(t, tc.wantMonth, m)
	}
}

func TestPartitionByMonth_RollsOverYearBoundary(t *testing.T) {
	records := []core.Record{
		rec("dec-prev", "2023-12-31", "x", 1),
		rec("jan", "2024-01-10", "x", 1),
		rec("dec-same-year", "2024-12-01", "x", 1),
		rec("nov-prev", "2023-11-30", "x", 1),
	}
	ref := time.Date(2024, 1, 20, 0, 0, 0, 0, time.Local)
	p := PartitionByMonth(records, ref)

	assert.Equal(t, []string{"jan"}, ids(p.Current))
	assert.Equal(t, []string{"dec-prev"}, ids(p.Previous))
}

func TestComputeRollover(t *testing.T) {
	incomes := []core.Record{
		rec("i-feb", "2024-02-10", core.CategoryGrossIncome, 500),
		rec("i-mar", "2024-03-10", core.CategoryGrossIncome, 1000),
		rec("i-jan", "2024-01-10", core.CategoryGrossIncome, 9999),
	}
	costs := []core.Record{
		rec("c-feb", "2024-02-11", core.CategoryFixedCost, 100),
		rec("c-mar", "2024-03-11", core.CategoryVariableCost, 300),
	}

	r := ComputeRollover(incomes, costs, FilterConfig{}, march2024)
	assertAmount(t, 700, r.Current)
	assertAmount(t, 400, r.Previous)
	assertAmount(t, 1100, r.Accumulated, "january never contributes")

	// category bounds apply to both months
	r = ComputeRollover(incomes, costs, FilterConfig{Category: core.CategoryFixedCost}, march2024)
	assertAmount(t, 0, r.Current)
	assertAmount(t, -100, r.Previous)
	assertAmount(t, -100, r.Accumulated)
}

func TestSummarize(t *testing.T) {
	incomes := []core.Record{
		rec("i-feb", "2024-02-10", core.CategoryGrossIncome, 500),
		rec("i-mar", "2024-03-10", core.CategoryGrossIncome, 1000),
	}
	costs := []core.Record{rec("c-mar", "2024-03-11", core.CategoryVariableCost, 300)}

	s := Summarize(incomes, costs, FilterConfig{}, march2024)
	assert.Equal(t, []string{"i-mar"}, ids(s.Incomes))
	assert.Equal(t, []string{"c-mar"}, ids(s.Costs))
	assertAmount(t, 700, s.Totals.Balance)
	assertAmount(t, 700, s.Totals.GrossProfit)
	assertAmount(t, 1200, s.Rollover.Accumulated)
	assert.Equal(t, march2024, s.GeneratedAt)

	all := Summarize(incomes, costs, FilterConfig{Scope: ScopeAllTime}, march2024)
	assertAmount(t, 1200, all.Totals.Balance)
	assertAmount(t, 1200, all.Rollover.Accumulated)
}
