package leave

import "time"

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// LeaveRecord is an employee-submitted date range awaiting or past approval.
type LeaveRecord struct {
	ID              string
	EmployeeID      string
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          Status
	ReviewerID      *string
	ReviewedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Days lists every calendar day the record covers, both ends included.
func (l LeaveRecord) Days() []time.Time {
	var days []time.Time
	for d := l.StartDate; !d.After(l.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (l LeaveRecord) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
