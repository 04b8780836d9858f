package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Reclassify(w http.ResponseWriter, r *http.Request)
	GetMonthlySummary(w http.ResponseWriter, r *http.Request)
	GetLifetimeAggregate(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode check-in request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, err := actingEmployee(r, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode check-out request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, err := actingEmployee(r, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := attendance.DailyRecordFilter{}

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	filter.Page, filter.Limit = pagination(r)

	// Employees only ever see their own days.
	principal, _ := middleware.PrincipalFromContext(r.Context())
	if !user.HasPermission(principal.Role, user.PermissionAttendanceViewAll) {
		if principal.EmployeeID == nil {
			response.HandleError(w, user.ErrNotOwnRecord)
			return
		}
		filter.EmployeeID = principal.EmployeeID
	}

	result, err := h.attendanceService.ListRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, response.PageMeta(result.Page, result.Limit, result.TotalCount, result.TotalPages))
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.GetRecord(r.Context(), id)
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

// Reclassify implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reclassify(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReclassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())
	req.RecordID = chi.URLParam(r, "id")
	req.ReviewerID = principal.UserID

	result, err := h.attendanceService.Reclassify(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance status updated", result)
}

// GetMonthlySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	employeeID, err := actingEmployee(r, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetMonthlySummary(r.Context(), employeeID, r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetLifetimeAggregate implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetLifetimeAggregate(w http.ResponseWriter, r *http.Request) {
	employeeID, err := actingEmployee(r, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetLifetimeAggregate(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// actingEmployee resolves whose records a request touches. An empty id means
// the caller's own employee; anyone other than a reviewer may only name themselves.
func actingEmployee(r *http.Request, employeeID string) (string, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return "", user.ErrInvalidToken
	}
	if employeeID == "" && principal.EmployeeID != nil {
		employeeID = *principal.EmployeeID
	}
	if employeeID != "" && !principal.ActsFor(employeeID) {
		return "", user.ErrNotOwnRecord
	}
	return employeeID, nil
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	return page, limit
}
