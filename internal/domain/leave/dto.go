package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// MaxLeaveDays bounds a single leave record.
const MaxLeaveDays = 60

type SubmitLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`   // YYYY-MM-DD
	Reason     string `json:"reason"`
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date cannot be before start_date",
			})
		} else if int(end.Sub(start).Hours()/24)+1 > MaxLeaveDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "leave cannot exceed " + validator.Itoa(MaxLeaveDays) + " days",
			})
		}
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DecideLeaveRequest struct {
	ID              string  `json:"-"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	ReviewerID      string  `json:"-"`
}

func (r *DecideLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "leave id is required",
		})
	}

	if Status(r.Status) != StatusApproved && Status(r.Status) != StatusRejected {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: Approved, Rejected",
		})
	}

	if validator.IsEmpty(r.ReviewerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewer_id",
			Message: "reviewer is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LeaveResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       int     `json:"total_days"`
	Reason          string  `json:"reason"`
	Status          Status  `json:"status"`
	ReviewerID      *string `json:"reviewer_id,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func ToResponse(l LeaveRecord) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID,
		EmployeeID:      l.EmployeeID,
		StartDate:       l.StartDate.Format("2006-01-02"),
		EndDate:         l.EndDate.Format("2006-01-02"),
		TotalDays:       len(l.Days()),
		Reason:          l.Reason,
		Status:          l.Status,
		ReviewerID:      l.ReviewerID,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
	if l.ReviewedAt != nil {
		s := l.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}
