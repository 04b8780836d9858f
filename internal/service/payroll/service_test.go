package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *memory.Store
	svc     *DeductionServiceImpl
	updater *aggregate.Updater
	logs    payroll.DeductionLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	updater := aggregate.NewUpdater(memory.NewAggregateRepository(store), 3)
	logs := memory.NewDeductionLogRepository(store)
	svc := NewDeductionService(
		memory.NewEmployeeRepository(store),
		company.NewPolicySource(memory.NewPolicyRepository(store)),
		updater,
		memory.NewSalesAdjustmentRepository(store),
		logs,
	).(*DeductionServiceImpl)
	return &testEnv{store: store, svc: svc, updater: updater, logs: logs}
}

func (e *testEnv) addEmployee(id string, base *decimal.Decimal) {
	e.store.PutEmployee(employee.Employee{
		ID:               id,
		EmploymentStatus: employee.EmploymentStatusActive,
		BaseSalary:       base,
	})
}

// recordMonth counts classified days in March 2025.
func (e *testEnv) recordMonth(t *testing.T, employeeID string, statuses ...attendance.Status) {
	t.Helper()
	for i, st := range statuses {
		day := time.Date(2025, 3, 3+i, 0, 0, 0, 0, time.UTC)
		_, err := e.updater.ApplyDailyStatus(context.Background(), employeeID, day, st, attendance.ModeOnsite)
		require.NoError(t, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestDeductionService_CalculateDeduction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addEmployee("emp-1", ptr(dec("30000")))
	env.recordMonth(t, "emp-1",
		attendance.StatusAbsent, attendance.StatusAbsent,
		attendance.StatusLate, attendance.StatusLate, attendance.StatusLate, attendance.StatusLate, attendance.StatusLate,
		attendance.StatusHalfDay, attendance.StatusPresent,
	)
	env.store.PutSalesAdjustment(payroll.SalesAdjustment{
		EmployeeID: "emp-1",
		Month:      "2025-03",
		Chargeback: dec("500"),
	})

	// Act
	resp, err := env.svc.CalculateDeduction(ctx, payroll.CalculateDeductionRequest{
		EmployeeID: "emp-1",
		Month:      "2025-03",
	})

	// Assert
	require.NoError(t, err)
	assert.Nil(t, resp.LogID)
	b := resp.Breakdown
	assert.Equal(t, 2, b.AbsentDays)
	assert.Equal(t, 5, b.LateDays)
	assert.Equal(t, 1, b.HalfDays)
	assert.True(t, dec("1000").Equal(b.PerDaySalary))
	assert.True(t, dec("4000").Equal(b.AbsentDeduction))
	assert.True(t, dec("1000").Equal(b.LateDeduction))
	assert.True(t, dec("500").Equal(b.HalfDayDeduction))
	assert.True(t, dec("6000").Equal(b.TotalDeduction))
	assert.True(t, dec("24000").Equal(b.PayableSalary))

	_, err = env.logs.GetByEmployeeMonth(ctx, "emp-1", "2025-03")
	assert.ErrorIs(t, err, payroll.ErrDeductionLogNotFound)
}

func TestDeductionService_CalculateDeduction_UsesPolicyAllowance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addEmployee("emp-1", ptr(dec("30000")))
	env.recordMonth(t, "emp-1", attendance.StatusLate, attendance.StatusLate)
	env.store.PutPolicy(company.Policy{
		LateThresholdMinutes:    30,
		HalfDayThresholdMinutes: 90,
		AbsentThresholdMinutes:  180,
		MonthlyLateAllowance:    0,
	})

	resp, err := env.svc.CalculateDeduction(ctx, payroll.CalculateDeductionRequest{EmployeeID: "emp-1", Month: "2025-03"})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Breakdown.ExcessLateDays)
	assert.True(t, dec("1000").Equal(resp.Breakdown.LateDeduction))
}

func TestDeductionService_CalculateDeduction_BonusAndCommission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.store.PutEmployee(employee.Employee{
		ID:               "emp-1",
		EmploymentStatus: employee.EmploymentStatusActive,
		BaseSalary:       ptr(dec("30000")),
		Bonus:            ptr(dec("1000")),
	})
	env.recordMonth(t, "emp-1", attendance.StatusPresent)
	env.store.PutSalesAdjustment(payroll.SalesAdjustment{
		EmployeeID: "emp-1",
		Month:      "2025-03",
		Bonus:      dec("500"),
		Commission: dec("2000"),
		Refund:     dec("300"),
	})

	resp, err := env.svc.CalculateDeduction(ctx, payroll.CalculateDeductionRequest{
		EmployeeID: "emp-1",
		Month:      "2025-03",
		Persist:    true,
	})

	require.NoError(t, err)
	assert.True(t, dec("1500").Equal(resp.Breakdown.Bonus))
	assert.True(t, dec("2000").Equal(resp.Breakdown.Commission))
	assert.True(t, dec("300").Equal(resp.Breakdown.TotalDeduction))
	assert.True(t, dec("33200").Equal(resp.Breakdown.PayableSalary))
	require.NotNil(t, resp.LogID)

	log, err := env.logs.GetByEmployeeMonth(ctx, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, *resp.LogID, log.ID)
}

func TestDeductionService_CalculateDeduction_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addEmployee("no-salary", nil)
	env.addEmployee("no-summary", ptr(dec("30000")))
	env.store.PutEmployee(employee.Employee{
		ID:               "terminated",
		EmploymentStatus: employee.EmploymentStatusTerminated,
		BaseSalary:       ptr(dec("30000")),
	})

	tests := []struct {
		name       string
		employeeID string
		wantErr    error
	}{
		{"unknown employee", "missing", employee.ErrEmployeeNotFound},
		{"terminated employee", "terminated", employee.ErrEmployeeInactive},
		{"no base salary", "no-salary", payroll.ErrEmployeeHasNoBaseSalary},
		{"no monthly summary", "no-summary", attendance.ErrAttendanceSummaryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CalculateDeduction(ctx, payroll.CalculateDeductionRequest{
				EmployeeID: tt.employeeID,
				Month:      "2025-03",
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDeductionService_RunMonthlyDeductions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addEmployee("emp-1", ptr(dec("30000")))
	env.addEmployee("emp-2", ptr(dec("45000")))
	env.addEmployee("emp-3", nil)
	env.addEmployee("emp-4", ptr(dec("30000")))
	env.recordMonth(t, "emp-1", attendance.StatusAbsent)
	env.recordMonth(t, "emp-2", attendance.StatusPresent)
	env.recordMonth(t, "emp-3", attendance.StatusPresent)

	// Act
	result, err := env.svc.RunMonthlyDeductions(ctx, "2025-03")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payroll.MonthlyRunResult{Month: "2025-03", Processed: 2, Skipped: 2}, result)

	log, err := env.logs.GetByEmployeeMonth(ctx, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.True(t, dec("28000").Equal(log.Breakdown.PayableSalary))

	// Re-running replaces the stored breakdown instead of duplicating it.
	_, err = env.svc.RunMonthlyDeductions(ctx, "2025-03")
	require.NoError(t, err)
	again, err := env.logs.GetByEmployeeMonth(ctx, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, log.ID, again.ID)
}
