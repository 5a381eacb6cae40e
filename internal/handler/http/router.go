package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	// Logger receives request logs; it should use httplog.SchemaECS attribute names.
	Logger *slog.Logger
}

type Handlers struct {
	Attendance   AttendanceHandler
	Payroll      PayrollHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/notifications", h.Notification.List)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Post("/punch", h.Attendance.Punch)
					r.Get("/me", h.Attendance.GetMyAttendance)
				})

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", h.Attendance.List)
					r.Post("/absent", h.Attendance.MarkAbsent)
					r.Route("/employees/{employeeId}", func(r chi.Router) {
						r.Get("/daily", h.Attendance.GetDaily)
						r.Put("/punches", h.Attendance.UpsertPunch)
					})
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(middleware.RequireEmployee).Get("/me/slips", h.Payroll.ListMySlips)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)

					r.Route("/slips", func(r chi.Router) {
						r.Get("/", h.Payroll.ListSlips)
						r.Post("/", h.Payroll.GenerateSlip)
						r.Post("/preview", h.Payroll.PreviewSlip)
						r.Post("/bulk", h.Payroll.GenerateBulk)
						r.Route("/{id}", func(r chi.Router) {
							r.Get("/", h.Payroll.GetSlip)
							r.Delete("/", h.Payroll.DeleteSlip)
							r.Post("/finalize", h.Payroll.FinalizeSlip)
							r.Post("/pay", h.Payroll.MarkPaid)
						})
					})

					r.Route("/employees/{employeeId}", func(r chi.Router) {
						r.Get("/slips/{year}/{month}", h.Payroll.GetSlipByEmployeePeriod)
						r.Get("/salary-structure", h.Payroll.GetSalaryStructure)
						r.Put("/salary-structure", h.Payroll.UpdateSalaryStructure)
					})
				})
			})
		})
	})
	return r
}
