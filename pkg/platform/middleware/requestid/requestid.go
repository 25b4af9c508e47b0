// Package requestid copies the router-assigned request ID into the request
// context, so services and log lines reference it through requestcontext
// without importing the router's middleware.
package requestid

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"caseflow/pkg/requestcontext"
)

// Middleware bridges the chi request ID into the request context. Mount after
// chi's RequestID middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
