package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	CalculateDeduction(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	deductionService payroll.DeductionService
}

func NewPayrollHandler(deductionService payroll.DeductionService) PayrollHandler {
	return &payrollHandlerImpl{deductionService: deductionService}
}

// CalculateDeduction implements PayrollHandler. ?persist=true stores the breakdown.
func (h *payrollHandlerImpl) CalculateDeduction(w http.ResponseWriter, r *http.Request) {
	persist, _ := strconv.ParseBool(r.URL.Query().Get("persist"))

	result, err := h.deductionService.CalculateDeduction(r.Context(), payroll.CalculateDeductionRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Month:      r.URL.Query().Get("month"),
		Persist:    persist,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
