package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesAdjustment holds the figures the sales department reports for one
// employee and month. Missing figures are zero.
type SalesAdjustment struct {
	EmployeeID string
	Month      string
	Chargeback decimal.Decimal
	Refund     decimal.Decimal
	Commission decimal.Decimal
	Bonus      decimal.Decimal
}

// DeductionInput is everything the calculator needs for one employee-month.
type DeductionInput struct {
	BaseSalary           decimal.Decimal
	Bonus                decimal.Decimal
	Commission           decimal.Decimal
	Chargeback           decimal.Decimal
	Refund               decimal.Decimal
	TotalAbsentDays      int
	TotalLateDays        int
	TotalHalfDays        int
	MonthlyLateAllowance int
}

type DeductionBreakdown struct {
	PerDaySalary        decimal.Decimal `json:"per_day_salary"`
	AbsentDays          int             `json:"absent_days"`
	LateDays            int             `json:"late_days"`
	ExcessLateDays      int             `json:"excess_late_days"`
	HalfDays            int             `json:"half_days"`
	AbsentDeduction     decimal.Decimal `json:"absent_deduction"`
	LateDeduction       decimal.Decimal `json:"late_deduction"`
	HalfDayDeduction    decimal.Decimal `json:"half_day_deduction"`
	ChargebackDeduction decimal.Decimal `json:"chargeback_deduction"`
	RefundDeduction     decimal.Decimal `json:"refund_deduction"`
	TotalDeduction      decimal.Decimal `json:"total_deduction"`
	BaseSalary          decimal.Decimal `json:"base_salary"`
	Bonus               decimal.Decimal `json:"bonus"`
	Commission          decimal.Decimal `json:"commission"`
	PayableSalary       decimal.Decimal `json:"payable_salary"`
}

// DeductionLog is a persisted breakdown, one per employee and month.
type DeductionLog struct {
	ID         string
	EmployeeID string
	Month      string
	Breakdown  DeductionBreakdown
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
