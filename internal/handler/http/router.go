package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	incidentHandler IncidentHandler,
	leaveHandler LeaveHandler,
	payrollHandler PayrollHandler,
	maintenanceHandler MaintenanceHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/attendance", func(r chi.Router) {
			r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/checkin", attendanceHandler.CheckIn)
			r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/checkout", attendanceHandler.CheckOut)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
				r.Get("/logs", attendanceHandler.List)
				r.Get("/logs/{id}", attendanceHandler.Get)
				r.Get("/monthly/{employeeID}", attendanceHandler.GetMonthlySummary)
				r.Get("/lifetime/{employeeID}", attendanceHandler.GetLifetimeAggregate)
			})

			r.With(middleware.RequirePermission(user.PermissionAttendanceReclassify)).Patch("/logs/{id}/status", attendanceHandler.Reclassify)
		})

		r.Route("/incidents/{kind}", func(r chi.Router) {
			r.With(middleware.RequirePermission(user.PermissionIncidentJustify)).Post("/justification", incidentHandler.SubmitJustification)
			r.With(middleware.RequirePermission(user.PermissionIncidentReview)).Patch("/{id}/review", incidentHandler.Review)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
				r.Get("/", incidentHandler.List)
				r.Get("/stats", incidentHandler.Stats)
				r.Get("/{id}", incidentHandler.Get)
			})
		})

		r.Route("/leaves", func(r chi.Router) {
			r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/", leaveHandler.Submit)
			r.With(middleware.RequirePermission(user.PermissionLeaveApprove)).Patch("/{id}/decision", leaveHandler.Decide)
			r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/on-leave", leaveHandler.ListOnLeave)
			r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/on-leave/{employeeID}", leaveHandler.IsOnLeave)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionPayrollView))
			r.Get("/deductions/{employeeID}", payrollHandler.CalculateDeduction)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionMaintenanceRun))
			r.Get("/runs", maintenanceHandler.ListRuns)
			r.Post("/{job}", maintenanceHandler.Run)
		})
	})

	return r
}
