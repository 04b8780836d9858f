package user

type Permission string

const (
	// Attendance
	PermissionAttendanceCreate     Permission = "attendance.create"
	PermissionAttendanceViewOwn    Permission = "attendance.view_own"
	PermissionAttendanceViewAll    Permission = "attendance.view_all"
	PermissionAttendanceReclassify Permission = "attendance.reclassify"

	// Incidents
	PermissionIncidentJustify Permission = "incident.justify"
	PermissionIncidentReview  Permission = "incident.review"

	// Leave
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveApprove Permission = "leave.approve"

	// Payroll & maintenance
	PermissionPayrollView    Permission = "payroll.view"
	PermissionMaintenanceRun Permission = "maintenance.run"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceReclassify,
		PermissionIncidentJustify,
		PermissionIncidentReview,
		PermissionLeaveCreate,
		PermissionLeaveApprove,
		PermissionPayrollView,
		PermissionMaintenanceRun,
	},
	RoleHR: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceReclassify,
		PermissionIncidentJustify,
		PermissionIncidentReview,
		PermissionLeaveCreate,
		PermissionLeaveApprove,
		PermissionPayrollView,
	},
	RoleEmployee: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionIncidentJustify,
		PermissionLeaveCreate,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
