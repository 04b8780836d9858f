package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailyRecordRepository stores one record per (employee, date).
type DailyRecordRepository interface {
	// CreateIfAbsent inserts rec unless a record already exists for its
	// employee and date. created is false when the insert lost to an
	// existing row; the stored row is returned either way.
	CreateIfAbsent(ctx context.Context, rec DailyRecord) (stored DailyRecord, created bool, err error)

	GetByID(ctx context.Context, id string) (DailyRecord, error)

	// LockByID and LockByEmployeeAndDate read a record and hold it for update
	// until the surrounding transaction ends.
	LockByID(ctx context.Context, id string) (DailyRecord, error)
	LockByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (DailyRecord, error)

	SetCheckOut(ctx context.Context, id string, checkOut time.Time, hours decimal.Decimal) error
	SetStatus(ctx context.Context, id string, status Status) error
	MarkBookkeepingApplied(ctx context.Context, id string) error

	// ListPendingBookkeeping returns the oldest records whose derived state was not written.
	ListPendingBookkeeping(ctx context.Context, limit int) ([]DailyRecord, error)

	// ListOpenSessions returns the date's records that were checked in but
	// never checked out.
	ListOpenSessions(ctx context.Context, date time.Time) ([]DailyRecord, error)

	List(ctx context.Context, q RecordQuery) ([]DailyRecord, int64, error)
}

// AggregateRepository maintains the lifetime and monthly counters. Every
// Apply call floors the affected counters at zero.
type AggregateRepository interface {
	EnsureLifetime(ctx context.Context, employeeID string, initialAllowance int) error
	GetLifetime(ctx context.Context, employeeID string) (LifetimeAggregate, error)
	ApplyLifetimeDelta(ctx context.Context, employeeID string, d CounterDelta) (LifetimeAggregate, error)

	EnsureMonthly(ctx context.Context, employeeID string, month string) error
	GetMonthly(ctx context.Context, employeeID string, month string) (MonthlySummary, error)
	ApplyMonthlyDelta(ctx context.Context, employeeID string, month string, d CounterDelta) (MonthlySummary, error)

	// ResetLateAllowance sets every lifetime aggregate's allowance to value.
	ResetLateAllowance(ctx context.Context, value int) (int64, error)
	// AccrueLeave adds days to the available leaves of every active employee.
	AccrueLeave(ctx context.Context, days int) (int64, error)
}
