// Package handler exposes the admission registry's administrative HTTP
// endpoints. Mount Register behind the admin role guard.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/service"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/httputil"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Service defines the registry operations the handler depends on.
type Service interface {
	Add(ctx context.Context, input service.RecordInput) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
	Remove(ctx context.Context, number id.AdmissionNumber) error
	Release(ctx context.Context, number id.AdmissionNumber, actorID string) error
	BulkAdd(ctx context.Context, inputs []service.RecordInput, actorID string) (*service.ImportReport, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admissions", h.HandleList)
	r.Post("/admissions", h.HandleAdd)
	r.Post("/admissions/import", h.HandleImport)
	r.Delete("/admissions/{number}", h.HandleRemove)
	r.Post("/admissions/{number}/release", h.HandleRelease)
}

type importRequest struct {
	Records []service.RecordInput `json:"records"`
}

// HandleAdd handles POST /admin/admissions.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[service.RecordInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Add(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admission record added",
		"request_id", requestID,
		"admission_number", record.Number,
	)
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleImport handles POST /admin/admissions/import.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[importRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.BulkAdd(ctx, req.Records, requestcontext.PrincipalID(ctx).String())
	if err != nil {
		h.logger.ErrorContext(ctx, "admission import failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleList handles GET /admin/admissions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

// HandleRemove handles DELETE /admin/admissions/{number}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := id.ParseAdmissionNumber(chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Remove(ctx, number); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admission record removed",
		"request_id", requestcontext.RequestID(ctx),
		"admission_number", number,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRelease handles POST /admin/admissions/{number}/release.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	number, err := id.ParseAdmissionNumber(chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID := requestcontext.PrincipalID(ctx).String()
	if err := h.service.Release(ctx, number, actorID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admission claim released",
		"request_id", requestcontext.RequestID(ctx),
		"admission_number", number,
		"actor_id", actorID,
	)
	w.WriteHeader(http.StatusNoContent)
}
