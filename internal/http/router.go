package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Authenticator StaffAuthenticator
	Parking       *ParkingHandler
	Facility      *FacilityHandler
	Deposits      *DepositHandler
	Devices       *DeviceHandler
	Fees          *FeeHandler
	Imports       *ImportHandler
	Staff         *StaffHandler
	Logger        *slog.Logger
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		newResponder(logger).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Authenticator != nil {
			api.Use(RequireStaff(cfg.Authenticator, logger))
		}

		if cfg.Staff != nil {
			api.Get("/me", cfg.Staff.Me)
			api.Route("/staff", func(sr chi.Router) {
				sr.Get("/", cfg.Staff.List)
				sr.Post("/", cfg.Staff.Create)
				sr.Put("/{name}/disabled", cfg.Staff.SetDisabled)
			})
		}

		if cfg.Parking != nil {
			api.Route("/parking", func(pr chi.Router) {
				pr.Get("/spaces", cfg.Parking.List)
				pr.Get("/stats", cfg.Parking.Stats)
				pr.Post("/spaces/{id}/assign", cfg.Parking.Assign)
				pr.Post("/spaces/{id}/release", cfg.Parking.Release)
				pr.Put("/spaces/{id}/status", cfg.Parking.SetStatus)
			})
		}

		if cfg.Facility != nil {
			api.Route("/facility", func(fr chi.Router) {
				fr.Get("/stats", cfg.Facility.Stats)
				fr.Get("/bookings", cfg.Facility.List)
				fr.Post("/bookings", cfg.Facility.Create)
				fr.Put("/bookings/{id}/payment", cfg.Facility.SetPayment)
				fr.Post("/bookings/{id}/{action:approve|reject|cancel|complete}", cfg.Facility.Transition)
				fr.Delete("/bookings/{id}", cfg.Facility.Delete)
			})
		}

		if cfg.Deposits != nil {
			api.Route("/deposits", func(dr chi.Router) {
				dr.Get("/", cfg.Deposits.List)
				dr.Post("/", cfg.Deposits.Create)
				dr.Get("/{id}", cfg.Deposits.Get)
				dr.Put("/{id}", cfg.Deposits.Edit)
				dr.Post("/{id}/{action:add|subtract|retrieve|revert}", cfg.Deposits.Action)
			})
		}

		if cfg.Devices != nil {
			api.Route("/devices", func(dr chi.Router) {
				dr.Get("/", cfg.Devices.List)
				dr.Get("/events", cfg.Devices.Events)
				dr.Post("/events/{id}/process", cfg.Devices.ProcessEvent)
				dr.Post("/{id}/data", cfg.Devices.RecordData)
			})
		}

		if cfg.Fees != nil {
			api.Route("/fees", func(fr chi.Router) {
				fr.Get("/units", cfg.Fees.Units)
				fr.Post("/units/{id}/calculate", cfg.Fees.Calculate)
				fr.Put("/units/{id}/payment", cfg.Fees.SetPayment)
				fr.Put("/configs", cfg.Fees.ReplaceConfigs)
				fr.Post("/recalculate", cfg.Fees.Recalculate)
			})
		}

		if cfg.Imports != nil {
			api.Post("/imports/{kind}/validate", cfg.Imports.Validate)
		}
	})

	var handler http.Handler = r
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
