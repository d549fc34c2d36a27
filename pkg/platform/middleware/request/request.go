// Package request provides middleware that assigns every request a
// correlation ID. The ID flows through requestcontext into service logs and
// audit events, and is echoed back to the client for support tickets.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/requestcontext"
)

// HeaderRequestID is the header checked for an inbound ID and set on every
// response.
const HeaderRequestID = "X-Request-ID"

// Middleware injects a request ID into the context, reusing the caller's
// X-Request-ID when present so IDs stay stable across gateway hops.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
