package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/logging"
)

// StaffAuthenticator resolves Basic credentials to a principal.
type StaffAuthenticator interface {
	Authenticate(ctx context.Context, name, pin string) (application.Principal, error)
}

// RequireStaff authenticates every request with HTTP Basic credentials made
// of a staff name and PIN.
func RequireStaff(authenticator StaffAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, pin, ok := r.BasicAuth()
			if !ok || name == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="civisos"`)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingCredentials)
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), name, pin)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="civisos"`)
				responder.handleServiceError(r.Context(), w, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := logging.FromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With("staff", principal.StaffName))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger to the context and logs the
// start and completion of every request. The chi request id is used when the
// RequestID middleware runs first.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id any = middleware.GetReqID(r.Context())
			if id == "" {
				id = counter.Add(1)
			}
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
