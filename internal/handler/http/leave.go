package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	ListOnLeave(w http.ResponseWriter, r *http.Request)
	IsOnLeave(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// Submit implements LeaveHandler.
func (h *leaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req leave.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, err := actingEmployee(r, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.leaveService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave submitted", result)
}

// Decide implements LeaveHandler.
func (h *leaveHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req leave.DecideLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())
	req.ID = chi.URLParam(r, "id")
	req.ReviewerID = principal.UserID

	result, err := h.leaveService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave "+string(result.Status), result)
}

// ListOnLeave implements LeaveHandler.
func (h *leaveHandlerImpl) ListOnLeave(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaveService.ListOnLeave(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// IsOnLeave implements LeaveHandler.
func (h *leaveHandlerImpl) IsOnLeave(w http.ResponseWriter, r *http.Request) {
	employeeID, err := actingEmployee(r, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	date := r.URL.Query().Get("date")
	onLeave, err := h.leaveService.IsOnLeave(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"employee_id": employeeID,
		"date":        date,
		"on_leave":    onLeave,
	})
}
