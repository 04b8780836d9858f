package leave

import (
	"context"
	"time"
)

type LeaveRepository interface {
	Create(ctx context.Context, record LeaveRecord) (LeaveRecord, error)
	GetByID(ctx context.Context, id string) (LeaveRecord, error)
	// LockByID holds the record for update until the transaction ends.
	LockByID(ctx context.Context, id string) (LeaveRecord, error)
	Update(ctx context.Context, record LeaveRecord) error
	// HasOverlap reports whether a Pending or Approved leave of the employee intersects the range.
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	// ListApprovedOn returns Approved leaves covering date.
	ListApprovedOn(ctx context.Context, date time.Time) ([]LeaveRecord, error)
}
