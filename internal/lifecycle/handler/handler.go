// Package handler exposes the lifecycle admin endpoints: the manual sweep
// trigger and the deadline extension.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/service"
	principalmodels "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/httputil"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler depends on.
type Service interface {
	Sweep(ctx context.Context) (*service.SweepReport, error)
	Extend(ctx context.Context, principalID id.PrincipalID, days int) (*principalmodels.Principal, error)
	AuditTrail(ctx context.Context, principalID id.PrincipalID) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts lifecycle endpoints on the admin router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/lifecycle/sweep", h.HandleSweep)
	r.Post("/principals/{id}/extend-deadline", h.HandleExtend)
	r.Get("/principals/{id}/audit", h.HandleAuditTrail)
}

type extendRequest struct {
	Days int `json:"days"`
}

func (r *extendRequest) Validate() error {
	if r.Days <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "days must be positive")
	}
	return nil
}

// HandleSweep handles POST /admin/lifecycle/sweep.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.service.Sweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleExtend handles POST /admin/principals/{id}/extend-deadline.
func (h *Handler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, err := id.ParsePrincipalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[extendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	principal, err := h.service.Extend(ctx, principalID, req.Days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification deadline extended",
		"request_id", requestID,
		"principal_id", principalID,
		"days", req.Days,
	)
	httputil.WriteJSON(w, http.StatusOK, principal)
}

// HandleAuditTrail handles GET /admin/principals/{id}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, err := id.ParsePrincipalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.AuditTrail(ctx, principalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
