package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// CHECK-IN / CHECK-OUT
// ========================================

type CheckInRequest struct {
	EmployeeID  string `json:"employee_id"`
	Date        string `json:"date"`          // YYYY-MM-DD
	CheckInTime string `json:"check_in_time"` // HH:MM, HH:MM:SS or RFC3339
	Mode        string `json:"mode,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.CheckInTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in_time",
			Message: "check_in_time is required",
		})
	}

	if r.Mode == "" {
		r.Mode = string(ModeOnsite)
	}
	r.Mode = strings.ToLower(r.Mode)
	if !Mode(r.Mode).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "mode",
			Message: "mode must be one of: onsite, remote",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// LateDetails describes how far past the shift start the check-in was.
type LateDetails struct {
	ScheduledTimeIn string  `json:"scheduled_time_in"`
	ActualTimeIn    string  `json:"actual_time_in"`
	MinutesLate     int     `json:"minutes_late"`
	IncidentID      *string `json:"incident_id,omitempty"`
	IncidentKind    *string `json:"incident_kind,omitempty"`
}

type CheckInResponse struct {
	RecordID           string       `json:"record_id"`
	EmployeeID         string       `json:"employee_id"`
	Date               string       `json:"date"`
	Status             Status       `json:"status"`
	Mode               Mode         `json:"mode"`
	MinutesLate        int          `json:"minutes_late"`
	LateDetails        *LateDetails `json:"late_details,omitempty"`
	BookkeepingApplied bool         `json:"bookkeeping_applied"`
}

type CheckOutRequest struct {
	EmployeeID   string `json:"employee_id"`
	Date         string `json:"date"`
	CheckOutTime string `json:"check_out_time"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.CheckOutTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_time",
			Message: "check_out_time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutResponse struct {
	RecordID         string          `json:"record_id"`
	EmployeeID       string          `json:"employee_id"`
	Date             string          `json:"date"`
	CheckInTime      string          `json:"check_in_time"`
	CheckOutTime     string          `json:"check_out_time"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
}

// ========================================
// RECORD QUERIES
// ========================================

type DailyRecordResponse struct {
	ID                 string           `json:"id"`
	EmployeeID         string           `json:"employee_id"`
	Date               string           `json:"date"`
	CheckInTime        *string          `json:"check_in_time,omitempty"`
	CheckOutTime       *string          `json:"check_out_time,omitempty"`
	Mode               Mode             `json:"mode"`
	Status             Status           `json:"status"`
	MinutesLate        int              `json:"minutes_late"`
	ScheduledStart     string           `json:"scheduled_start"`
	WorkingHours       *decimal.Decimal `json:"working_hours,omitempty"`
	BookkeepingApplied bool             `json:"bookkeeping_applied"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

func ToDailyRecordResponse(r DailyRecord) DailyRecordResponse {
	resp := DailyRecordResponse{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		Date:               r.Date.Format("2006-01-02"),
		Mode:               r.Mode,
		Status:             r.Status,
		MinutesLate:        r.MinutesLate,
		ScheduledStart:     r.ScheduledStart,
		WorkingHours:       r.WorkingHours,
		BookkeepingApplied: r.BookkeepingApplied,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.CheckIn != nil {
		s := r.CheckIn.Format(time.RFC3339)
		resp.CheckInTime = &s
	}
	if r.CheckOut != nil {
		s := r.CheckOut.Format(time.RFC3339)
		resp.CheckOutTime = &s
	}
	return resp
}

type DailyRecordFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *DailyRecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !Status(*f.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, late, half_day, absent",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RecordQuery is the parsed form of DailyRecordFilter handed to repositories.
type RecordQuery struct {
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Status     *Status
	Limit      int
	Offset     int
}

type ListDailyRecordResponse struct {
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
	Records    []DailyRecordResponse `json:"records"`
}

// ========================================
// RECLASSIFICATION
// ========================================

type ReclassifyRequest struct {
	RecordID   string `json:"-"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	ReviewerID string `json:"-"`
}

func (r *ReclassifyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "attendance id is required",
		})
	}

	if !Status(r.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, late, half_day, absent",
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

type ReclassifyResponse struct {
	Record     DailyRecordResponse `json:"record"`
	Previous   Status              `json:"previous_status"`
	Delta      CounterDelta        `json:"delta"`
	IncidentID *string             `json:"incident_id,omitempty"`
}

// ========================================
// AGGREGATES
// ========================================

type MonthlySummaryResponse struct {
	EmployeeID      string `json:"employee_id"`
	Month           string `json:"month"`
	TotalPresent    int    `json:"total_present"`
	TotalAbsent     int    `json:"total_absent"`
	TotalLateDays   int    `json:"total_late_days"`
	TotalHalfDays   int    `json:"total_half_days"`
	TotalLeaveDays  int    `json:"total_leave_days"`
	TotalRemoteDays int    `json:"total_remote_days"`
}

func ToMonthlySummaryResponse(m MonthlySummary) MonthlySummaryResponse {
	return MonthlySummaryResponse{
		EmployeeID:      m.EmployeeID,
		Month:           m.Month,
		TotalPresent:    m.TotalPresent,
		TotalAbsent:     m.TotalAbsent,
		TotalLateDays:   m.TotalLateDays,
		TotalHalfDays:   m.TotalHalfDays,
		TotalLeaveDays:  m.TotalLeaveDays,
		TotalRemoteDays: m.TotalRemoteDays,
	}
}

type LifetimeAggregateResponse struct {
	EmployeeID             string `json:"employee_id"`
	PresentDays            int    `json:"present_days"`
	AbsentDays             int    `json:"absent_days"`
	LateDays               int    `json:"late_days"`
	HalfDays               int    `json:"half_days"`
	LeaveDays              int    `json:"leave_days"`
	RemoteDays             int    `json:"remote_days"`
	LateAllowanceRemaining int    `json:"late_allowance_remaining"`
	AvailableLeaves        int    `json:"available_leaves"`
}

func ToLifetimeAggregateResponse(a LifetimeAggregate) LifetimeAggregateResponse {
	return LifetimeAggregateResponse{
		EmployeeID:             a.EmployeeID,
		PresentDays:            a.PresentDays,
		AbsentDays:             a.AbsentDays,
		LateDays:               a.LateDays,
		HalfDays:               a.HalfDays,
		LeaveDays:              a.LeaveDays,
		RemoteDays:             a.RemoteDays,
		LateAllowanceRemaining: a.LateAllowanceRemaining,
		AvailableLeaves:        a.AvailableLeaves,
	}
}
