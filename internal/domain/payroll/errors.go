package payroll

import "errors"

var (
	ErrEmployeeHasNoBaseSalary  = errors.New("employee has no base salary configured")
	ErrSalesAdjustmentNotFound  = errors.New("sales adjustment not found")
	ErrDeductionLogNotFound     = errors.New("deduction log not found")
	ErrNegativeSalaryComponents = errors.New("salary components cannot be negative")
)
