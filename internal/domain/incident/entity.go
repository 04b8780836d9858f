// Package incident models reviewable late and half-day occurrences. Both
// kinds share one workflow: Created at check-in, Pending once the employee
// justifies it, Completed when a reviewer decides paid or unpaid.
package incident

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
)

type Kind string

const (
	KindLate    Kind = "late"
	KindHalfDay Kind = "half_day"
)

func (k Kind) Valid() bool {
	return k == KindLate || k == KindHalfDay
}

// KindForStatus maps a classified status to the incident it opens, if any.
// Absence is not reviewable.
func KindForStatus(s attendance.Status) (Kind, bool) {
	switch s {
	case attendance.StatusLate:
		return KindLate, true
	case attendance.StatusHalfDay:
		return KindHalfDay, true
	}
	return "", false
}

type Stage string

const (
	StageCreated   Stage = "Created"
	StagePending   Stage = "Pending"
	StageCompleted Stage = "Completed"
)

type Outcome string

const (
	OutcomePaid   Outcome = "paid"
	OutcomeUnpaid Outcome = "unpaid"
)

func (o Outcome) Valid() bool {
	return o == OutcomePaid || o == OutcomeUnpaid
}

type Incident struct {
	ID              string
	Kind            Kind
	EmployeeID      string
	Date            time.Time
	ScheduledTimeIn string
	ActualTimeIn    time.Time
	MinutesLate     int
	Reason          *string
	Outcome         *Outcome
	Stage           Stage
	ReviewerID      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OpenRequest names the classified day an incident is opened for.
type OpenRequest struct {
	Kind            Kind
	EmployeeID      string
	Date            time.Time
	ScheduledTimeIn string
	ActualTimeIn    time.Time
	MinutesLate     int
	Reason          *string
}

// New builds a freshly opened incident.
func New(kind Kind, employeeID string, date time.Time, scheduled string, actual time.Time, minutesLate int) Incident {
	return Incident{
		Kind:            kind,
		EmployeeID:      employeeID,
		Date:            date,
		ScheduledTimeIn: scheduled,
		ActualTimeIn:    actual,
		MinutesLate:     minutesLate,
		Stage:           StageCreated,
	}
}

// Compensation is the counter change a paid incident earns back.
// Late incidents also restore one unit of the monthly late allowance.
func (k Kind) Compensation() attendance.CounterDelta {
	switch k {
	case KindLate:
		return attendance.CounterDelta{Late: -1, LateAllowance: 1}
	case KindHalfDay:
		return attendance.CounterDelta{HalfDay: -1}
	}
	return attendance.CounterDelta{}
}

// Stats counts incidents of one kind by stage and outcome.
type Stats struct {
	Total     int64 `json:"total"`
	Created   int64 `json:"created"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Paid      int64 `json:"paid"`
	Unpaid    int64 `json:"unpaid"`
}
