package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Malformed input
	case errors.Is(err, timeutil.ErrInvalidTimeFormat),
		errors.Is(err, timeutil.ErrInvalidDate),
		errors.Is(err, timeutil.ErrInvalidMonth),
		errors.Is(err, incident.ErrInvalidKind),
		errors.Is(err, payroll.ErrNegativeSalaryComponents):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, attendance.ErrCheckoutBeforeCheckin):
		UnprocessableEntity(w, "Check-out time cannot be before check-in time")

	// Auth
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrNotOwnRecord):
		Forbidden(w, err.Error())

	// Conflicts
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Employee has already checked in for this date")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Employee has already checked out for this date")
	case errors.Is(err, attendance.ErrNotCheckedIn):
		Conflict(w, "Employee has not checked in for this date")
	case errors.Is(err, attendance.ErrStatusUnchanged):
		Conflict(w, "Attendance already has this status")
	case errors.Is(err, incident.ErrNoOpenIncident):
		Conflict(w, "No open incident for this employee and date")
	case errors.Is(err, incident.ErrIncidentAlreadyCompleted):
		Conflict(w, "Incident has already been completed")
	case errors.Is(err, leave.ErrLeaveAlreadyDecided):
		Conflict(w, "Leave record has already been decided")
	case errors.Is(err, leave.ErrLeaveOverlaps):
		Conflict(w, "Leave overlaps an existing leave")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Conflict(w, "Employee is not active")
	case errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
		Conflict(w, "Employee has no base salary configured")

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAttendanceSummaryNotFound):
		NotFound(w, "Monthly attendance summary not found")
	case errors.Is(err, attendance.ErrLifetimeAggregateNotFound):
		NotFound(w, "Lifetime attendance aggregate not found")
	case errors.Is(err, incident.ErrIncidentNotFound):
		NotFound(w, "Incident not found")
	case errors.Is(err, leave.ErrLeaveRecordNotFound):
		NotFound(w, "Leave record not found")
	case errors.Is(err, payroll.ErrDeductionLogNotFound):
		NotFound(w, "Deduction log not found")
	case errors.Is(err, maintenance.ErrUnknownJob):
		NotFound(w, "Unknown maintenance job")

	case errors.Is(err, database.ErrDatabaseUnavailable):
		ServiceUnavailable(w, "Database unavailable")

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
