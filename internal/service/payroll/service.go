package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
)

type DeductionServiceImpl struct {
	employees  employee.EmployeeRepository
	policies   *company.PolicySource
	aggregates *aggregate.Updater
	sales      payroll.SalesAdjustmentRepository
	logs       payroll.DeductionLogRepository
}

// CalculateDeduction implements payroll.DeductionService.
func (s *DeductionServiceImpl) CalculateDeduction(ctx context.Context, req payroll.CalculateDeductionRequest) (payroll.DeductionResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.DeductionResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.DeductionResponse{}, err
	}
	if !emp.IsActive() {
		return payroll.DeductionResponse{}, employee.ErrEmployeeInactive
	}
	if emp.BaseSalary == nil || !emp.BaseSalary.IsPositive() {
		return payroll.DeductionResponse{}, payroll.ErrEmployeeHasNoBaseSalary
	}

	summary, err := s.aggregates.Monthly(ctx, emp.ID, req.Month)
	if err != nil {
		return payroll.DeductionResponse{}, err
	}

	adj, err := s.sales.GetForMonth(ctx, emp.ID, req.Month)
	if err != nil {
		if !errors.Is(err, payroll.ErrSalesAdjustmentNotFound) {
			return payroll.DeductionResponse{}, fmt.Errorf("failed to get sales adjustment: %w", err)
		}
		adj = payroll.SalesAdjustment{EmployeeID: emp.ID, Month: req.Month}
	}

	bonus := adj.Bonus
	if emp.Bonus != nil {
		bonus = bonus.Add(*emp.Bonus)
	}

	breakdown, err := Calculate(payroll.DeductionInput{
		BaseSalary:           *emp.BaseSalary,
		Bonus:                bonus,
		Commission:           adj.Commission,
		Chargeback:           adj.Chargeback,
		Refund:               adj.Refund,
		TotalAbsentDays:      summary.TotalAbsent,
		TotalLateDays:        summary.TotalLateDays,
		TotalHalfDays:        summary.TotalHalfDays,
		MonthlyLateAllowance: s.policies.Effective(ctx).MonthlyLateAllowance,
	})
	if err != nil {
		return payroll.DeductionResponse{}, err
	}

	resp := payroll.DeductionResponse{
		EmployeeID: emp.ID,
		Month:      req.Month,
		Breakdown:  breakdown,
	}

	if req.Persist {
		log, err := s.logs.Upsert(ctx, payroll.DeductionLog{
			EmployeeID: emp.ID,
			Month:      req.Month,
			Breakdown:  breakdown,
		})
		if err != nil {
			return payroll.DeductionResponse{}, fmt.Errorf("failed to store deduction log: %w", err)
		}
		resp.LogID = &log.ID
	}

	return resp, nil
}

// RunMonthlyDeductions implements payroll.DeductionService.
func (s *DeductionServiceImpl) RunMonthlyDeductions(ctx context.Context, month string) (payroll.MonthlyRunResult, error) {
	result := payroll.MonthlyRunResult{Month: month}

	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list active employees: %w", err)
	}

	for _, emp := range employees {
		_, err := s.CalculateDeduction(ctx, payroll.CalculateDeductionRequest{
			EmployeeID: emp.ID,
			Month:      month,
			Persist:    true,
		})
		switch {
		case err == nil:
			result.Processed++
		case errors.Is(err, attendance.ErrAttendanceSummaryNotFound),
			errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
			result.Skipped++
		default:
			result.Failed++
			slog.Error("Failed to calculate salary deduction",
				"employee_id", emp.ID,
				"month", month,
				"error", err,
			)
		}
	}

	slog.Info("Monthly deductions calculated",
		"month", month,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func NewDeductionService(
	employeeRepo employee.EmployeeRepository,
	policies *company.PolicySource,
	aggregates *aggregate.Updater,
	salesRepo payroll.SalesAdjustmentRepository,
	logRepo payroll.DeductionLogRepository,
) payroll.DeductionService {
	return &DeductionServiceImpl{
		employees:  employeeRepo,
		policies:   policies,
		aggregates: aggregates,
		sales:      salesRepo,
		logs:       logRepo,
	}
}
