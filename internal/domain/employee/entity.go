package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	DefaultShiftStart = "09:00"
	DefaultShiftEnd   = "17:00"
)

// Employee is the read-only view of the master employee record the
// attendance engine needs.
type Employee struct {
	ID               string
	FullName         string
	DepartmentID     *string
	ShiftStart       *string
	ShiftEnd         *string
	EmploymentStatus EmploymentStatus
	BaseSalary       *decimal.Decimal
	Bonus            *decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// Shift returns the scheduled start and end. A missing or malformed HH:MM
// value falls back to the given default.
func (e Employee) Shift(defaultStart, defaultEnd string) (start, end string) {
	start, end = defaultStart, defaultEnd
	if e.ShiftStart != nil && validator.IsValidClock(*e.ShiftStart) {
		start = *e.ShiftStart
	}
	if e.ShiftEnd != nil && validator.IsValidClock(*e.ShiftEnd) {
		end = *e.ShiftEnd
	}
	return start, end
}
