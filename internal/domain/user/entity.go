package user

type Role string

const (
	RoleEmployee Role = "employee" // Checks in, justifies own incidents, requests leave
	RoleHR       Role = "hr"       // Reviews incidents and leave, reclassifies days
	RoleAdmin    Role = "admin"    // HR plus maintenance and payroll runs
)

// Principal is the authenticated caller as carried in the access token.
type Principal struct {
	UserID     string
	EmployeeID *string
	Role       Role
}

// IsReviewer checks if the caller may decide on other employees' records
func (p Principal) IsReviewer() bool {
	return p.Role == RoleHR || p.Role == RoleAdmin
}

// ActsFor reports whether the caller may act on the given employee's own records.
func (p Principal) ActsFor(employeeID string) bool {
	if p.IsReviewer() {
		return true
	}
	return p.EmployeeID != nil && *p.EmployeeID == employeeID
}
