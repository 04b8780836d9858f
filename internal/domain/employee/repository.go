package employee

import "context"

// EmployeeRepository reads employee master data owned by another service.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
