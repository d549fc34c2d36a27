// Package handler wires the verification workflow endpoints. Register
// mounts the authenticated principal surface; RegisterAdmin mounts the
// review queue behind the admin role guard.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/evidence"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/service"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/httputil"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Service defines the workflow operations the handler depends on.
type Service interface {
	ValidateAdmission(ctx context.Context, number, claimedName string, claimedYear int) (*models.ValidationResult, error)
	Submit(ctx context.Context, in service.SubmitInput) (*models.Request, error)
	SendOTP(ctx context.Context, principalID id.PrincipalID) error
	ConfirmOTP(ctx context.Context, principalID id.PrincipalID, code string) error
	Decide(ctx context.Context, requestID id.RequestID, outcome service.Decision, reason string) (*models.Request, error)
	ListPending(ctx context.Context) ([]*models.Request, error)
}

type Handler struct {
	service  Service
	evidence evidence.Store
	logger   *slog.Logger
}

func New(svc Service, evidenceStore evidence.Store, logger *slog.Logger) *Handler {
	return &Handler{service: svc, evidence: evidenceStore, logger: logger}
}

// Register mounts the authenticated verification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/validate-admission", h.HandleValidateAdmission)
	r.Post("/verification/evidence", h.HandleUploadEvidence)
	r.Post("/verification/submit", h.HandleSubmit)
	r.Post("/verification/otp/send", h.HandleSendOTP)
	r.Post("/verification/otp/confirm", h.HandleConfirmOTP)
}

// RegisterAdmin mounts the review endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/verification/pending", h.HandlePending)
	r.Post("/verification/{id}/decide", h.HandleDecide)
}

type validateRequest struct {
	AdmissionNumber string `json:"admission_number"`
	FullName        string `json:"full_name"`
	GraduationYear  int    `json:"graduation_year"`
}

func (r *validateRequest) Validate() error {
	if r.AdmissionNumber == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "admission_number is required")
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name is required")
	}
	return nil
}

type submitRequest struct {
	Method            string            `json:"method"`
	EvidenceURL       string            `json:"evidence_url,omitempty"`
	AdmissionNumber   string            `json:"admission_number,omitempty"`
	OnboardingAnswers map[string]string `json:"onboarding_answers,omitempty"`
}

type confirmOTPRequest struct {
	Code string `json:"code"`
}

type decideRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// HandleValidateAdmission handles POST /verification/validate-admission.
func (h *Handler) HandleValidateAdmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[validateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ValidateAdmission(ctx, req.AdmissionNumber, req.FullName, req.GraduationYear)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// maxEvidenceBytes caps uploaded documents at 5 MiB.
const maxEvidenceBytes = 5 << 20

// HandleUploadEvidence handles POST /verification/evidence. The raw document
// goes to the evidence store; the returned URL is what Submit expects.
func (h *Handler) HandleUploadEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principalID := requestcontext.PrincipalID(ctx)

	body := http.MaxBytesReader(w, r.Body, maxEvidenceBytes)
	url, err := h.evidence.Put(ctx, principalID, r.Header.Get("Content-Type"), body)
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "could not store evidence"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"evidence_url": url})
}

// HandleSubmit handles POST /verification/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	principalID := requestcontext.PrincipalID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	method, err := id.ParseVerificationMethod(req.Method)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in := service.SubmitInput{
		PrincipalID:       principalID,
		Method:            method,
		EvidenceURL:       req.EvidenceURL,
		OnboardingAnswers: req.OnboardingAnswers,
	}
	if req.AdmissionNumber != "" {
		number, err := id.ParseAdmissionNumber(req.AdmissionNumber)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		in.AdmissionNumber = number
	}

	created, err := h.service.Submit(ctx, in)
	if err != nil {
		h.logger.WarnContext(ctx, "verification submit failed",
			"request_id", requestID,
			"principal_id", principalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleSendOTP handles POST /verification/otp/send.
func (h *Handler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.SendOTP(ctx, requestcontext.PrincipalID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleConfirmOTP handles POST /verification/otp/confirm.
func (h *Handler) HandleConfirmOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[confirmOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ConfirmOTP(ctx, requestcontext.PrincipalID(ctx), req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// HandlePending handles GET /admin/verification/pending.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.service.ListPending(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": pending})
}

// HandleDecide handles POST /admin/verification/{id}/decide.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reviewID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[decideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	outcome, err := service.ParseDecision(req.Outcome)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	decided, err := h.service.Decide(ctx, reviewID, outcome, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "verification decide failed",
			"request_id", requestID,
			"verification_request_id", reviewID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, decided)
}
