package http

import (
	"bytes"
	"net/http"
	"sort"
	"strconv"

	"finanzas/internal/core"
	"finanzas/internal/export"
	applog "finanzas/internal/log"
)

func (s *Server) handleSummaryPage(w http.ResponseWriter, r *http.Request) {
	s.serveSummary(w, r, "summary_page")
}

// handleSummaryPanel renders only the panel, for htmx reloads.
func (s *Server) handleSummaryPanel(w http.ResponseWriter, r *http.Request) {
	s.serveSummary(w, r, "summary_panel")
}

func (s *Server) serveSummary(w http.ResponseWriter, r *http.Request, tmpl string) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	cfg, err := ParseFilter(r.URL.Query())
	if err != nil {
		UnprocessableEntityError("Filtro inválido: fecha con formato AAAA-MM-DD").Write(w)
		return
	}
	sum := s.ledger.Summary(r.Context(), cfg)
	s.render(w, r, tmpl, newSummaryView(sum, s.categoryOptions(cfg.Category)))
}

// categoryOptions lists the canonical categories followed by every other
// category found in the stored records, plus the selected one.
func (s *Server) categoryOptions(selected string) []string {
	seen := map[string]bool{}
	out := allCategories()
	for _, c := range out {
		seen[c] = true
	}
	var extra []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			extra = append(extra, c)
		}
	}
	for _, kind := range []core.Kind{core.KindIncome, core.KindCost} {
		for _, rec := range s.ledger.Records(kind) {
			add(rec.Category)
		}
	}
	add(selected)
	sort.Strings(extra)
	return append(out, extra...)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	cfg, err := ParseFilter(r.URL.Query())
	if err != nil {
		UnprocessableEntityError("Filtro inválido: fecha con formato AAAA-MM-DD").Write(w)
		return
	}

	sum := s.ledger.Summary(ctx, cfg)
	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, sum); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "PDF export failed",
			applog.NewFields().
				WithComponent(applog.ComponentExport).
				WithOperation(applog.OpExport).
				WithError(err).
				ToSlice()...)
		InternalServerError("No se pudo generar el PDF").Write(w)
		return
	}

	name := export.FileName(s.now(), s.exportLayout)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
