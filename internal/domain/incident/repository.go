package incident

import (
	"context"
	"time"
)

// Query filters incidents of one kind.
type Query struct {
	EmployeeID *string
	Stage      *Stage
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type IncidentRepository interface {
	Create(ctx context.Context, inc Incident) (Incident, error)
	GetByID(ctx context.Context, kind Kind, id string) (Incident, error)
	// LockByID holds the incident for update until the transaction ends.
	LockByID(ctx context.Context, kind Kind, id string) (Incident, error)
	// FindLatestCreated locks the most recent Created incident for the
	// employee and date. Returns ErrNoOpenIncident when there is none.
	FindLatestCreated(ctx context.Context, kind Kind, employeeID string, date time.Time) (Incident, error)
	Update(ctx context.Context, inc Incident) error
	List(ctx context.Context, kind Kind, q Query) ([]Incident, int64, error)
	Stats(ctx context.Context, kind Kind, q Query) (Stats, error)
}
