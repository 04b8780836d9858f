package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type MaintenanceHandler interface {
	Run(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
}

type maintenanceHandlerImpl struct {
	runner maintenance.Runner
}

func NewMaintenanceHandler(runner maintenance.Runner) MaintenanceHandler {
	return &maintenanceHandlerImpl{runner: runner}
}

// Run implements MaintenanceHandler.
func (h *maintenanceHandlerImpl) Run(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	principal, _ := middleware.PrincipalFromContext(r.Context())
	slog.Info("Maintenance job triggered manually", "job", job, "user_id", principal.UserID)

	result, err := h.runner.RunJob(r.Context(), job)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.AlreadyProcessed {
		response.SuccessWithMessage(w, "Job already ran for this period", result)
		return
	}
	response.SuccessWithMessage(w, "Job completed", result)
}

// ListRuns implements MaintenanceHandler.
func (h *maintenanceHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.runner.ListRecent(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, runs)
}
