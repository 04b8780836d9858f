package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusHalfDay, StatusAbsent:
		return true
	}
	return false
}

type Mode string

const (
	ModeOnsite Mode = "onsite"
	ModeRemote Mode = "remote"
)

func (m Mode) Valid() bool {
	return m == ModeOnsite || m == ModeRemote
}

// DailyRecord is one employee's attendance for one calendar day.
// CheckIn is written once; Status is fixed at check-in unless HR reclassifies.
type DailyRecord struct {
	ID             string
	EmployeeID     string
	Date           time.Time
	CheckIn        *time.Time
	CheckOut       *time.Time
	Mode           Mode
	Status         Status
	MinutesLate    int
	ScheduledStart string
	WorkingHours   *decimal.Decimal
	// BookkeepingApplied is false while the aggregates and incident for this
	// day still have to be written by the reconciler.
	BookkeepingApplied bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LifetimeAggregate holds never-reset counters for one employee.
type LifetimeAggregate struct {
	EmployeeID             string
	PresentDays            int
	AbsentDays             int
	LateDays               int
	HalfDays               int
	LeaveDays              int
	RemoteDays             int
	LateAllowanceRemaining int
	AvailableLeaves        int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// MonthlySummary mirrors the lifetime counters for one YYYY-MM month.
type MonthlySummary struct {
	EmployeeID      string
	Month           string
	TotalPresent    int
	TotalAbsent     int
	TotalLateDays   int
	TotalHalfDays   int
	TotalLeaveDays  int
	TotalRemoteDays int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CounterDelta is a signed change to the aggregate counters. Applying a delta
// never takes a counter below zero.
type CounterDelta struct {
	Present         int `json:"present,omitempty"`
	Absent          int `json:"absent,omitempty"`
	Late            int `json:"late,omitempty"`
	HalfDay         int `json:"half_day,omitempty"`
	Leave           int `json:"leave,omitempty"`
	Remote          int `json:"remote,omitempty"`
	LateAllowance   int `json:"late_allowance,omitempty"`
	AvailableLeaves int `json:"available_leaves,omitempty"`
}

// StatusDelta returns the day counters one classified day contributes.
// Late and half days also count as present; remote mode counts present-like
// days as remote. Late allowance consumption is not part of it.
func StatusDelta(status Status, mode Mode) CounterDelta {
	var d CounterDelta
	switch status {
	case StatusPresent:
		d.Present = 1
	case StatusLate:
		d.Present, d.Late = 1, 1
	case StatusHalfDay:
		d.Present, d.HalfDay = 1, 1
	case StatusAbsent:
		d.Absent = 1
	}
	if mode == ModeRemote && d.Present == 1 {
		d.Remote = 1
	}
	return d
}

func (d CounterDelta) Add(o CounterDelta) CounterDelta {
	return CounterDelta{
		Present:         d.Present + o.Present,
		Absent:          d.Absent + o.Absent,
		Late:            d.Late + o.Late,
		HalfDay:         d.HalfDay + o.HalfDay,
		Leave:           d.Leave + o.Leave,
		Remote:          d.Remote + o.Remote,
		LateAllowance:   d.LateAllowance + o.LateAllowance,
		AvailableLeaves: d.AvailableLeaves + o.AvailableLeaves,
	}
}

func (d CounterDelta) Negate() CounterDelta {
	return CounterDelta{
		Present:         -d.Present,
		Absent:          -d.Absent,
		Late:            -d.Late,
		HalfDay:         -d.HalfDay,
		Leave:           -d.Leave,
		Remote:          -d.Remote,
		LateAllowance:   -d.LateAllowance,
		AvailableLeaves: -d.AvailableLeaves,
	}
}

func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// Apply adds d to the lifetime counters, flooring each at zero.
func (a *LifetimeAggregate) Apply(d CounterDelta) {
	a.PresentDays = floorAdd(a.PresentDays, d.Present)
	a.AbsentDays = floorAdd(a.AbsentDays, d.Absent)
	a.LateDays = floorAdd(a.LateDays, d.Late)
	a.HalfDays = floorAdd(a.HalfDays, d.HalfDay)
	a.LeaveDays = floorAdd(a.LeaveDays, d.Leave)
	a.RemoteDays = floorAdd(a.RemoteDays, d.Remote)
	a.LateAllowanceRemaining = floorAdd(a.LateAllowanceRemaining, d.LateAllowance)
	a.AvailableLeaves = floorAdd(a.AvailableLeaves, d.AvailableLeaves)
}

// Apply adds the day counters of d to the summary, flooring each at zero.
func (m *MonthlySummary) Apply(d CounterDelta) {
	m.TotalPresent = floorAdd(m.TotalPresent, d.Present)
	m.TotalAbsent = floorAdd(m.TotalAbsent, d.Absent)
	m.TotalLateDays = floorAdd(m.TotalLateDays, d.Late)
	m.TotalHalfDays = floorAdd(m.TotalHalfDays, d.HalfDay)
	m.TotalLeaveDays = floorAdd(m.TotalLeaveDays, d.Leave)
	m.TotalRemoteDays = floorAdd(m.TotalRemoteDays, d.Remote)
}

func floorAdd(v, delta int) int {
	if v+delta < 0 {
		return 0
	}
	return v + delta
}
