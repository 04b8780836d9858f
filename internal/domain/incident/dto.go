package incident

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type SubmitJustificationRequest struct {
	Kind       Kind   `json:"-"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Reason     string `json:"reason"`
}

func (r *SubmitJustificationRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Kind.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of: late, half_day",
		})
	}

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

type ReviewRequest struct {
	Kind       Kind    `json:"-"`
	ID         string  `json:"-"`
	Stage      string  `json:"stage"`
	Type       *string `json:"type,omitempty"`
	ReviewerID string  `json:"-"`
	// TargetMonth selects the monthly summary a paid compensation is
	// applied to. Empty means the current month in the regional offset.
	TargetMonth *string `json:"target_month,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Kind.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of: late, half_day",
		})
	}

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "incident id is required",
		})
	}

	stage := Stage(r.Stage)
	if stage != StagePending && stage != StageCompleted {
		errs = append(errs, validator.ValidationError{
			Field:   "stage",
			Message: "stage must be one of: Pending, Completed",
		})
	}

	if r.Type != nil && !Outcome(*r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: paid, unpaid",
		})
	}

	if stage == StageCompleted && r.Type == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required when completing an incident",
		})
	}

	if validator.IsEmpty(r.ReviewerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewer_id",
			Message: "reviewer is required",
		})
	}

	if r.TargetMonth != nil {
		if _, valid := validator.IsValidMonth(*r.TargetMonth); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "target_month",
				Message: "target_month must be in YYYY-MM format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type IncidentResponse struct {
	ID              string   `json:"id"`
	Kind            Kind     `json:"kind"`
	EmployeeID      string   `json:"employee_id"`
	Date            string   `json:"date"`
	ScheduledTimeIn string   `json:"scheduled_time_in"`
	ActualTimeIn    string   `json:"actual_time_in"`
	MinutesLate     int      `json:"minutes_late"`
	Reason          *string  `json:"reason,omitempty"`
	Outcome         *Outcome `json:"type,omitempty"`
	Stage           Stage    `json:"stage"`
	ReviewerID      *string  `json:"reviewer_id,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func ToResponse(i Incident) IncidentResponse {
	return IncidentResponse{
		ID:              i.ID,
		Kind:            i.Kind,
		EmployeeID:      i.EmployeeID,
		Date:            i.Date.Format("2006-01-02"),
		ScheduledTimeIn: i.ScheduledTimeIn,
		ActualTimeIn:    i.ActualTimeIn.Format(time.RFC3339),
		MinutesLate:     i.MinutesLate,
		Reason:          i.Reason,
		Outcome:         i.Outcome,
		Stage:           i.Stage,
		ReviewerID:      i.ReviewerID,
		CreatedAt:       i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       i.UpdatedAt.Format(time.RFC3339),
	}
}

type ReviewResponse struct {
	Incident    IncidentResponse `json:"incident"`
	Compensated bool             `json:"compensated"`
	// Set only when Compensated.
	TargetMonth *string                               `json:"target_month,omitempty"`
	Delta       *attendance.CounterDelta              `json:"delta,omitempty"`
	Lifetime    *attendance.LifetimeAggregateResponse `json:"lifetime,omitempty"`
	Monthly     *attendance.MonthlySummaryResponse    `json:"monthly,omitempty"`
}

type IncidentFilter struct {
	Kind       Kind    `json:"-"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Stage      *string `json:"stage,omitempty"`
	Month      *string `json:"month,omitempty"` // YYYY-MM

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *IncidentFilter) Validate() error {
	var errs validator.ValidationErrors

	if !f.Kind.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of: late, half_day",
		})
	}

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}

	if f.Stage != nil {
		switch Stage(*f.Stage) {
		case StageCreated, StagePending, StageCompleted:
		default:
			errs = append(errs, validator.ValidationError{
				Field:   "stage",
				Message: "stage must be one of: Created, Pending, Completed",
			})
		}
	}

	if f.Month != nil {
		if _, valid := validator.IsValidMonth(*f.Month); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "month",
				Message: "month must be in YYYY-MM format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToQuery converts a validated filter into a repository query.
func (f IncidentFilter) ToQuery() Query {
	q := Query{
		EmployeeID: f.EmployeeID,
		Limit:      f.Limit,
		Offset:     (f.Page - 1) * f.Limit,
	}
	if f.Stage != nil {
		s := Stage(*f.Stage)
		q.Stage = &s
	}
	if f.Month != nil {
		if start, ok := validator.IsValidMonth(*f.Month); ok {
			end := start.AddDate(0, 1, -1)
			q.From, q.To = &start, &end
		}
	}
	return q
}

type ListIncidentResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Incidents  []IncidentResponse `json:"incidents"`
}
