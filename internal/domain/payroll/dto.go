package payroll

import (
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type CalculateDeductionRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      string `json:"month"` // YYYY-MM
	// Persist stores the breakdown in the deduction log.
	Persist bool `json:"persist"`
}

func (r *CalculateDeductionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidMonth(r.Month); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DeductionResponse struct {
	EmployeeID string             `json:"employee_id"`
	Month      string             `json:"month"`
	Breakdown  DeductionBreakdown `json:"breakdown"`
	LogID      *string            `json:"log_id,omitempty"`
}

// MonthlyRunResult summarizes a payroll run over all active employees.
type MonthlyRunResult struct {
	Month     string `json:"month"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}
