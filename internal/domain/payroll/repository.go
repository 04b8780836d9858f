package payroll

import "context"

// SalesAdjustmentRepository reads figures owned by the sales department.
type SalesAdjustmentRepository interface {
	// GetForMonth returns ErrSalesAdjustmentNotFound when nothing was reported.
	GetForMonth(ctx context.Context, employeeID string, month string) (SalesAdjustment, error)
}

type DeductionLogRepository interface {
	// Upsert stores the breakdown, replacing an earlier one for the same employee and month.
	Upsert(ctx context.Context, log DeductionLog) (DeductionLog, error)
	GetByEmployeeMonth(ctx context.Context, employeeID string, month string) (DeductionLog, error)
}
