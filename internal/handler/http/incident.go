package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// IncidentHandler serves both incident kinds; {kind} is late or half_day.
type IncidentHandler interface {
	SubmitJustification(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type incidentHandlerImpl struct {
	incidentService incident.IncidentService
}

func NewIncidentHandler(incidentService incident.IncidentService) IncidentHandler {
	return &incidentHandlerImpl{incidentService: incidentService}
}

func kindParam(r *http.Request) (incident.Kind, error) {
	kind := incident.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return "", incident.ErrInvalidKind
	}
	return kind, nil
}

// SubmitJustification implements IncidentHandler.
func (h *incidentHandlerImpl) SubmitJustification(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req incident.SubmitJustificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Kind = kind

	employeeID, err := actingEmployee(r, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.incidentService.SubmitJustification(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Justification submitted", result)
}

// Review implements IncidentHandler.
func (h *incidentHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req incident.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())
	req.Kind = kind
	req.ID = chi.URLParam(r, "id")
	req.ReviewerID = principal.UserID

	result, err := h.incidentService.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Incident reviewed", result)
}

func (h *incidentHandlerImpl) filter(r *http.Request) (incident.IncidentFilter, error) {
	kind, err := kindParam(r)
	if err != nil {
		return incident.IncidentFilter{}, err
	}

	query := r.URL.Query()
	filter := incident.IncidentFilter{Kind: kind}
	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if stage := query.Get("stage"); stage != "" {
		filter.Stage = &stage
	}
	if month := query.Get("month"); month != "" {
		filter.Month = &month
	}
	filter.Page, filter.Limit = pagination(r)

	principal, _ := middleware.PrincipalFromContext(r.Context())
	if !principal.IsReviewer() {
		if principal.EmployeeID == nil {
			return incident.IncidentFilter{}, user.ErrNotOwnRecord
		}
		filter.EmployeeID = principal.EmployeeID
	}
	return filter, nil
}

// List implements IncidentHandler.
func (h *incidentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.incidentService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Incidents, response.PageMeta(result.Page, result.Limit, result.TotalCount, result.TotalPages))
}

// Get implements IncidentHandler.
func (h *incidentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.incidentService.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())
	if !principal.ActsFor(result.EmployeeID) {
		response.HandleError(w, user.ErrNotOwnRecord)
		return
	}

	response.Success(w, result)
}

// Stats implements IncidentHandler.
func (h *incidentHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.incidentService.Stats(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
