package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn      = errors.New("employee has already checked in for this date")
	ErrNotCheckedIn          = errors.New("employee has not checked in for this date")
	ErrAlreadyCheckedOut     = errors.New("employee has already checked out for this date")
	ErrCheckoutBeforeCheckin = errors.New("check-out time cannot be before check-in time")

	// General errors
	ErrAttendanceNotFound        = errors.New("attendance record not found")
	ErrAttendanceSummaryNotFound = errors.New("monthly attendance summary not found")
	ErrLifetimeAggregateNotFound = errors.New("lifetime attendance aggregate not found")
	ErrStatusUnchanged           = errors.New("attendance already has this status")
)
