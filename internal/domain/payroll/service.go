package payroll

import "context"

type DeductionService interface {
	CalculateDeduction(ctx context.Context, req CalculateDeductionRequest) (DeductionResponse, error)
	// RunMonthlyDeductions calculates and logs every active employee's breakdown for month.
	RunMonthlyDeductions(ctx context.Context, month string) (MonthlyRunResult, error)
}
