// Package handler exposes signup, login, and the authenticated /me surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/models"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/service"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	dErrors "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain-errors"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/httputil"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Service defines the account operations the handler depends on.
type Service interface {
	Signup(ctx context.Context, in service.SignupInput) (*models.Principal, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Get(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
	Capabilities(ctx context.Context, principalID id.PrincipalID) (models.Capabilities, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts the unauthenticated endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignup)
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated /me endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Get("/me/capabilities", h.HandleCapabilities)
}

type signupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *signupRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup handles POST /auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[signupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	principal, err := h.service.Signup(ctx, service.SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, principal)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleMe handles GET /me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := h.service.Get(ctx, requestcontext.PrincipalID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, principal)
}

// HandleCapabilities handles GET /me/capabilities.
func (h *Handler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caps, err := h.service.Capabilities(ctx, requestcontext.PrincipalID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, caps)
}
