package leave

import "context"

type LeaveService interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error)
	// Decide approves or rejects a Pending leave. Approval credits the leave-day counters.
	Decide(ctx context.Context, req DecideLeaveRequest) (LeaveResponse, error)
	IsOnLeave(ctx context.Context, employeeID string, date string) (bool, error)
	ListOnLeave(ctx context.Context, date string) ([]LeaveResponse, error)
}
