package http

import (
	"net/http"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "home", homeView{Title: "Finanzas"})
}

// recordsHandler serves the form for kind on GET and creates a record on POST.
func (s *Server) recordsHandler(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.render(w, r, "record_form", recordFormView{
				Title:      "Agregar " + lowerLabel(kind),
				Kind:       kind,
				Action:     "/" + kind.StorageKey(),
				Categories: kind.Categories(),
				Today:      s.now().Format(core.DateLayout),
			})
		case http.MethodPost:
			s.handleCreateRecord(w, r, kind)
		default:
			MethodNotAllowedError("GET, POST").Write(w)
		}
	}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	rec, err := ParseRecordForm(p.Values(), s.now())
	if err != nil {
		s.writeError(w, r, err, applog.OpCreate, kind, "")
		return
	}

	saved, err := s.ledger.CreateRecord(ctx, kind, rec)
	if err != nil {
		s.writeError(w, r, err, applog.OpCreate, kind, "")
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Record created",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpCreate).
			WithRecord(kind.String(), saved.ID).
			ToSlice()...)

	SuccessResponse(createdMessage(kind)).
		TriggerLedgerChanged(kind).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	kind, id, ok := s.recordRef(w, r, p, applog.OpUpdate)
	if !ok {
		return
	}
	rec, err := ParseRecordForm(p.Values(), s.now())
	if err != nil {
		s.writeError(w, r, err, applog.OpUpdate, kind, id)
		return
	}
	if _, err := s.ledger.UpdateRecord(ctx, kind, id, rec); err != nil {
		s.writeError(w, r, err, applog.OpUpdate, kind, id)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Record updated",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpUpdate).
			WithRecord(kind.String(), id).
			ToSlice()...)

	SuccessResponse(updatedMessage(kind)).
		TriggerLedgerChanged(kind).
		Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}

	kind, id, ok := s.recordRef(w, r, p, applog.OpDelete)
	if !ok {
		return
	}
	if err := s.ledger.DeleteRecord(ctx, kind, id); err != nil {
		s.writeError(w, r, err, applog.OpDelete, kind, id)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Record deleted",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpDelete).
			WithRecord(kind.String(), id).
			ToSlice()...)

	SuccessResponse(deletedMessage(kind)).
		TriggerLedgerChanged(kind).
		Write(w)
}

// recordRef reads kind and id. On failure it writes the error response and
// returns ok=false.
func (s *Server) recordRef(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, op string) (core.Kind, string, bool) {
	kind, err := core.ParseKind(p.Get("kind"))
	if err != nil {
		s.writeError(w, r, err, op, "", "")
		return "", "", false
	}
	id := p.Get("id")
	if id == "" {
		BadRequestError("Falta el identificador del registro").Write(w)
		return "", "", false
	}
	return kind, id, true
}

// writeError logs a failed operation and answers with an error fragment and
// notification.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string, kind core.Kind, id string) {
	ctx := r.Context()
	status, msg := errorStatus(err)
	fields := applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithOperation(op).
		WithRecord(kind.String(), id).
		WithError(err).
		ToSlice()
	if status >= http.StatusInternalServerError {
		applog.FromContext(ctx).ErrorContext(ctx, "Record operation failed", fields...)
	} else {
		applog.FromContext(ctx).WarnContext(ctx, "Record operation rejected", fields...)
	}
	ErrorResponse(status, msg).Write(w)
}

func lowerLabel(kind core.Kind) string {
	if kind == core.KindIncome {
		return "ingreso"
	}
	return "costo"
}
