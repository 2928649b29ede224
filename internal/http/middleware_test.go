package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/logging"
)

type authenticatorFunc func(ctx context.Context, name, pin string) (application.Principal, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, name, pin string) (application.Principal, error) {
	return f(ctx, name, pin)
}

func TestRequireStaff(t *testing.T) {
	t.Parallel()

	authenticator := authenticatorFunc(func(_ context.Context, name, pin string) (application.Principal, error) {
		switch {
		case name == "bob" && pin == "1234":
			return application.Principal{StaffName: "bob", Role: application.RoleStaff}, nil
		case name == "gone":
			return application.Principal{}, application.ErrAccountDisabled
		default:
			return application.Principal{}, application.ErrInvalidCredentials
		}
	})

	tests := []struct {
		name       string
		user, pin  string
		basic      bool
		wantStatus int
	}{
		{name: "missing credentials", wantStatus: http.StatusUnauthorized},
		{name: "wrong pin", user: "bob", pin: "0000", basic: true, wantStatus: http.StatusUnauthorized},
		{name: "disabled account", user: "gone", pin: "1234", basic: true, wantStatus: http.StatusUnauthorized},
		{name: "valid staff", user: "bob", pin: "1234", basic: true, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen application.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireStaff(authenticator, slog.New(slog.DiscardHandler))(next)

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.basic {
				req.SetBasicAuth(tc.user, tc.pin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="civisos"`, rec.Header().Get("WWW-Authenticate"))
				assert.Empty(t, seen.StaffName)
				return
			}
			assert.Equal(t, "bob", seen.StaffName)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var fromCtx *slog.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	handler := middleware.RequestID(RequestLogger(base)(next))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, fromCtx)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var started, completed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &started))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &completed))
	assert.Equal(t, "request started", started["msg"])
	assert.Equal(t, "req-42", started["request_id"])
	assert.Equal(t, "/healthz", started["path"])
	assert.Equal(t, "request completed", completed["msg"])
	assert.EqualValues(t, http.StatusTeapot, completed["status"])
}

func TestRequestLoggerFallsBackToCounter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(buf.String(), "\n", 2)[0]), &entry))
	assert.EqualValues(t, 1, entry["request_id"])
}
