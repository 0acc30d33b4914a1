// Package http provides http transport for report jobs
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"consultmail/internal/modkit/httpkit"
	perr "consultmail/internal/platform/errors"
	"consultmail/internal/services/reports/domain"
)

// Register mounts the report job endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.SubmitInput](r, "/jobs", h.submit)
	httpkit.Get(r, "/jobs", h.list)
	httpkit.Get(r, "/jobs/{id}", h.status)

	// streaming and download endpoints manage the writer themselves and
	// live outside the JSON envelope
	r.Get("/jobs/{id}/events", h.events)
	r.Get("/jobs/{id}/tail", h.tail)
	r.Get("/jobs/{id}/report", h.report)
}

type handlers struct{ svc domain.ServicePort }

// errStreamingUnsupported is returned when the writer cannot flush
var errStreamingUnsupported = perr.Unavailablef("streaming unsupported by this connection")

func (h *handlers) submit(r *stdhttp.Request, in domain.SubmitInput) (any, error) {
	id, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return domain.SubmitOutput{ID: id}, nil
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return domain.ListOutput{Jobs: h.svc.List(r.Context())}, nil
}

func (h *handlers) status(r *stdhttp.Request) (any, error) {
	return h.svc.Status(r.Context(), chi.URLParam(r, "id"))
}

// report serves the finished workbook as an attachment
func (h *handlers) report(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	name, data, err := h.svc.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpkit.RespondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}
