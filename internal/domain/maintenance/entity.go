// Package maintenance keeps the ledger of periodic jobs, one row per job and
// period, so a job that must not repeat runs at most once per month or day.
package maintenance

import (
	"context"
	"errors"
	"time"
)

const (
	JobResetLateAllowance   = "reset_monthly_late_allowance"
	JobAccrueLeave          = "accrue_monthly_leave"
	JobMonthlyDeductions    = "calculate_monthly_deductions"
	JobReconcileBookkeeping = "reconcile_bookkeeping"
	JobMarkAbsent           = "mark_absent_employees"
	JobAutoCheckOut         = "auto_close_stale_attendances"
)

var (
	ErrPeriodAlreadyProcessed = errors.New("job already ran for this period")
	ErrRunNotFound            = errors.New("maintenance run not found")
	ErrUnknownJob             = errors.New("unknown maintenance job")
)

type Run struct {
	ID       string    `json:"id"`
	Job      string    `json:"job"`
	Period   string    `json:"period"` // YYYY-MM, or YYYY-MM-DD for daily jobs
	Affected int64     `json:"affected"`
	RanAt    time.Time `json:"ran_at"`
}

type RunRepository interface {
	// Claim inserts the ledger row for job and period. It fails with
	// ErrPeriodAlreadyProcessed when the row exists.
	Claim(ctx context.Context, job string, period string) (Run, error)
	SetAffected(ctx context.Context, id string, affected int64) error
	Get(ctx context.Context, job string, period string) (Run, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}

// Result reports what one job invocation did.
type Result struct {
	Job      string `json:"job"`
	Period   string `json:"period,omitempty"`
	Affected int64  `json:"affected"`
	// AlreadyProcessed is set when the ledger already held the period.
	AlreadyProcessed bool `json:"already_processed"`
}

// Runner triggers jobs outside their schedule. Ledger guards still apply.
type Runner interface {
	RunJob(ctx context.Context, job string) (Result, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
