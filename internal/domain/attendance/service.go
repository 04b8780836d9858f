package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for daily attendance
type AttendanceService interface {
	// CheckIn classifies and records the first arrival of the day
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)

	// CheckOut closes the day's record and computes hours worked
	CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResponse, error)

	GetRecord(ctx context.Context, id string) (DailyRecordResponse, error)
	ListRecords(ctx context.Context, filter DailyRecordFilter) (ListDailyRecordResponse, error)

	// Reclassify lets HR change a day's status, shifting the counters accordingly
	Reclassify(ctx context.Context, req ReclassifyRequest) (ReclassifyResponse, error)

	GetMonthlySummary(ctx context.Context, employeeID string, month string) (MonthlySummaryResponse, error)
	GetLifetimeAggregate(ctx context.Context, employeeID string) (LifetimeAggregateResponse, error)

	// MarkAbsent records an absence for a day the employee never checked in
	// and counts it. created is false when the day already had a record.
	MarkAbsent(ctx context.Context, employeeID string, date time.Time) (created bool, err error)

	// AutoCheckOut closes the day's open sessions at the scheduled shift end,
	// never later than cutoff. Returns how many were closed.
	AutoCheckOut(ctx context.Context, date time.Time, cutoff time.Time) (int, error)

	// ReconcileBookkeeping re-applies derived state for records whose
	// bookkeeping failed at check-in. Returns how many were repaired.
	ReconcileBookkeeping(ctx context.Context, limit int) (int, error)
}
