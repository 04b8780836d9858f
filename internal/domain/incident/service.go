package incident

import (
	"context"
	"time"
)

// IncidentService runs the review workflow shared by late and half-day incidents.
type IncidentService interface {
	// Open returns the day's Created incident of the kind, inserting one if
	// there is none. Runs inside the caller's transaction.
	Open(ctx context.Context, req OpenRequest) (Incident, error)

	// Dismiss completes the day's unfinished incidents of kind as unpaid.
	// Returns how many were closed.
	Dismiss(ctx context.Context, kind Kind, employeeID string, date time.Time, reviewerID string) (int, error)

	// SubmitJustification attaches the employee's reason to the open incident and moves it to Pending.
	SubmitJustification(ctx context.Context, req SubmitJustificationRequest) (IncidentResponse, error)

	// Review records the reviewer's decision; a Completed paid incident is compensated.
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)

	Get(ctx context.Context, kind Kind, id string) (IncidentResponse, error)
	List(ctx context.Context, filter IncidentFilter) (ListIncidentResponse, error)
	Stats(ctx context.Context, filter IncidentFilter) (Stats, error)
}
