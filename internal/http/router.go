// Package httpapi assembles the HTTP surface: middleware chain, route groups,
// and operational endpoints. Feature handlers register their own routes; this
// package only decides who may reach them.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	admissionhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/handler"
	lifecyclehandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/handler"
	principalhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/handler"
	verificationhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/handler"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/httputil"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/middleware/auth"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/middleware/metadata"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/middleware/request"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/middleware/requesttime"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Tokens       auth.TokenValidator
	Principal    *principalhandler.Handler
	Verification *verificationhandler.Handler
	Admission    *admissionhandler.Handler
	Lifecycle    *lifecyclehandler.Handler
}

// NewRouter builds the full route tree.
//
// Three trust tiers:
//   - public: signup and login
//   - authenticated: anything a signed-in principal may do
//   - admin: review queues, admission registry management, lifecycle controls
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(accessLog(deps.Logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Principal.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Tokens, deps.Logger))

		deps.Principal.Register(r)
		deps.Verification.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(id.RoleAdmin, deps.Logger))

			deps.Verification.RegisterAdmin(r)
			deps.Admission.Register(r)
			deps.Lifecycle.Register(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLog emits one structured line per request once the response is
// written.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", metadata.ClientIP(ctx),
				"user_agent", metadata.UserAgent(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
		})
	}
}
