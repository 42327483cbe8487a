package http

import (
	"html/template"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

var templateFuncs = template.FuncMap{
	"money":         func(d decimal.Decimal) string { return core.FormatAmount(d) },
	"categoryLabel": categoryLabel,
	"kindLabel":     func(k core.Kind) string { return kindLabel(k) },
	"isNegative":    func(d decimal.Decimal) bool { return d.IsNegative() },
	"withCurrent":   withCurrent,
}

// withCurrent returns options with current appended when it is not one of
// them, so an edit form can keep a category outside the canonical set.
func withCurrent(options []string, current string) []string {
	if current == "" {
		return options
	}
	for _, o := range options {
		if o == current {
			return options
		}
	}
	return append(append([]string{}, options...), current)
}

type homeView struct {
	Title string
}

type recordFormView struct {
	Title      string
	Kind       core.Kind
	Action     string
	Categories []string
	Today      string
}

// recordTable is one collection as rendered in the summary panel.
type recordTable struct {
	Kind       core.Kind
	Title      string
	Records    []core.Record
	Total      decimal.Decimal
	Categories []string
}

type summaryView struct {
	Title      string
	Filter     ledger.FilterConfig
	PanelURL   template.URL
	ExportURL  template.URL
	All        bool
	Categories []string
	Incomes    recordTable
	Costs      recordTable
	Totals     ledger.Totals
	Rollover   ledger.Rollover
	Generated  string
}

func newSummaryView(sum ledger.Summary, categories []string) summaryView {
	return summaryView{
		Title:      "Resumen",
		Filter:     sum.Filter,
		PanelURL:   withQuery("/ui/summary", sum.Filter),
		ExportURL:  withQuery("/summary/export.pdf", sum.Filter),
		All:        sum.Filter.Scope == ledger.ScopeAllTime,
		Categories: categories,
		Incomes: recordTable{
			Kind:       core.KindIncome,
			Title:      "Ingresos",
			Records:    sum.Incomes,
			Total:      sum.Totals.Income,
			Categories: core.KindIncome.Categories(),
		},
		Costs: recordTable{
			Kind:       core.KindCost,
			Title:      "Costos",
			Records:    sum.Costs,
			Total:      sum.Totals.Cost,
			Categories: core.KindCost.Categories(),
		},
		Totals:    sum.Totals,
		Rollover:  sum.Rollover,
		Generated: sum.GeneratedAt.Format("02/01/2006 15:04"),
	}
}

// withQuery appends the encoded filter to path. The result only holds
// url.Values-encoded parameters, so it is safe as a URL.
func withQuery(path string, cfg ledger.FilterConfig) template.URL {
	q := FilterQuery(cfg).Encode()
	if q == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + q)
}
