// Package export renders a summary as a printable A4 PDF.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// DefaultDateLayout matches the short es-ES date used in file names.
const DefaultDateLayout = "2/1/2006"

const (
	pageMargin = 15.0
	rowHeight  = 7.0
)

var recordColumns = []struct {
	title string
	width float64
	align string
}{
	{"Fecha", 28, "L"},
	{"Tipo", 35, "L"},
	{"Descripción", 87, "L"},
	{"Monto", 30, "R"},
}

// FileName returns the download name for an export made at now.
func FileName(now time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	date := strings.ReplaceAll(now.Format(layout), "/", "-")
	return fmt.Sprintf("Resumen_Financiero_%s.pdf", date)
}

// RenderPDF writes sum to w.
func RenderPDF(w io.Writer, sum ledger.Summary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("Resumen Financiero", true)
	pdf.SetCreator("finanzas", true)
	pdf.SetCreationDate(sum.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Resumen General"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(filterLine(sum)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	recordTable(pdf, tr, "Ingresos", sum.Incomes)
	recordTable(pdf, tr, "Costos", sum.Costs)
	totalsTable(pdf, tr, sum)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func filterLine(sum ledger.Summary) string {
	f := sum.Filter
	parts := []string{"Generado " + sum.GeneratedAt.Format("02/01/2006 15:04")}
	if f.Scope == ledger.ScopeAllTime {
		parts = append(parts, "todos los meses")
	} else {
		parts = append(parts, "mes actual")
	}
	if f.Category != "" {
		parts = append(parts, "tipo: "+f.Category)
	}
	if !f.Start.IsEmpty() {
		parts = append(parts, "desde "+f.Start.String())
	}
	if !f.End.IsEmpty() {
		parts = append(parts, "hasta "+f.End.String())
	}
	return strings.Join(parts, " · ")
}

func sectionTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
}

func recordTable(pdf *fpdf.Fpdf, tr func(string) string, title string, records []core.Record) {
	sectionTitle(pdf, tr, title)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range recordColumns {
		pdf.CellFormat(c.width, rowHeight, tr(c.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(records) == 0 {
		pdf.CellFormat(tableWidth(), rowHeight, tr("Sin registros"), "1", 1, "C", false, 0, "")
		pdf.Ln(4)
		return
	}
	for _, r := range records {
		cells := []string{r.Date.String(), r.Category, truncate(r.Description, 48), core.FormatAmount(r.Amount)}
		for i, c := range recordColumns {
			pdf.CellFormat(c.width, rowHeight, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func totalsTable(pdf *fpdf.Fpdf, tr func(string) string, sum ledger.Summary) {
	sectionTitle(pdf, tr, "Totales")
	rows := [][2]string{
		{"Ingresos", core.FormatAmount(sum.Totals.Income)},
		{"Costos", core.FormatAmount(sum.Totals.Cost)},
		{"Saldo", core.FormatAmount(sum.Totals.Balance)},
		{"Beneficio bruto", core.FormatAmount(sum.Totals.GrossProfit)},
		{"Saldo mes anterior", core.FormatAmount(sum.Rollover.Previous)},
		{"Saldo mes actual", core.FormatAmount(sum.Rollover.Current)},
		{"Saldo acumulado", core.FormatAmount(sum.Rollover.Accumulated)},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(60, rowHeight, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(40, rowHeight, row[1], "1", 1, "R", false, 0, "")
	}
}

func tableWidth() float64 {
	var w float64
	for _, c := range recordColumns {
		w += c.width
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
