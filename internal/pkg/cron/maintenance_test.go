package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
	attendanceservice "github.com/cmlabs-hris/hris-attendance-engine/internal/service/attendance"
	incidentservice "github.com/cmlabs-hris/hris-attendance-engine/internal/service/incident"
	leaveservice "github.com/cmlabs-hris/hris-attendance-engine/internal/service/leave"
	payrollservice "github.com/cmlabs-hris/hris-attendance-engine/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-04-01 18:10 in UTC+5.
var resetTime = time.Date(2025, 4, 1, 13, 10, 0, 0, time.UTC)

// stubAttendance counts reconcile calls and passes everything else to a real service.
type stubAttendance struct {
	attendance.AttendanceService
	repaired int
	calls    int
}

func (s *stubAttendance) ReconcileBookkeeping(context.Context, int) (int, error) {
	s.calls++
	return s.repaired, nil
}

type unhealthy struct{}

func (unhealthy) EnsureHealthy(context.Context) error {
	return errors.New("connection refused")
}

type jobsEnv struct {
	store      *memory.Store
	jobs       *MaintenanceJobs
	aggregates attendance.AggregateRepository
	records    attendance.DailyRecordRepository
	runs       maintenance.RunRepository
	updater    *aggregate.Updater
	leaves     leave.LeaveService
	attendance *stubAttendance
}

func newJobsEnv(t *testing.T, now time.Time) *jobsEnv {
	t.Helper()

	store := memory.NewStore()
	aggs := memory.NewAggregateRepository(store)
	runs := memory.NewRunRepository(store)
	records := memory.NewDailyRecordRepository(store)
	employees := memory.NewEmployeeRepository(store)
	policies := company.NewPolicySource(memory.NewPolicyRepository(store))
	updater := aggregate.NewUpdater(aggs, 3)
	normalizer := timeutil.NewNormalizer(300, "PKT", false)

	incidents := incidentservice.NewIncidentService(store, memory.NewIncidentRepository(store), updater, normalizer)
	stub := &stubAttendance{
		AttendanceService: attendanceservice.NewAttendanceService(store, records, incidents, employees, policies,
			updater, normalizer, employee.DefaultShiftStart, employee.DefaultShiftEnd),
	}
	leaves := leaveservice.NewLeaveService(store, memory.NewLeaveRepository(store), employees, updater, normalizer)
	deductions := payrollservice.NewDeductionService(
		employees,
		policies,
		updater,
		memory.NewSalesAdjustmentRepository(store),
		memory.NewDeductionLogRepository(store),
	)

	jobs := NewMaintenanceJobs(store, runs, aggs, employees, stub, leaves, deductions, store, normalizer,
		MaintenanceConfig{
			LateResetHour:      18,
			LeaveAccrualHour:   6,
			PayrollHour:        13,
			MarkAbsentHour:     3,
			AutoCheckOutHour:   5,
			PayrollEnabled:     true,
			LateAllowanceReset: 3,
			LeaveAccrualDays:   2,
		},
	)

	env := &jobsEnv{
		store:      store,
		jobs:       jobs,
		aggregates: aggs,
		records:    records,
		runs:       runs,
		updater:    updater,
		leaves:     leaves,
		attendance: stub,
	}
	env.at(now)
	return env
}

func (e *jobsEnv) at(now time.Time) {
	e.store.SetClock(func() time.Time { return now })
	e.jobs.now = func() time.Time { return now }
}

func (e *jobsEnv) addEmployee(t *testing.T, id string, status employee.EmploymentStatus, allowance int) {
	t.Helper()
	base := decimal.NewFromInt(30000)
	e.store.PutEmployee(employee.Employee{ID: id, EmploymentStatus: status, BaseSalary: &base})
	require.NoError(t, e.aggregates.EnsureLifetime(context.Background(), id, allowance))
}

func (e *jobsEnv) checkIn(t *testing.T, employeeID string, date time.Time, at time.Time) {
	t.Helper()
	_, created, err := e.records.CreateIfAbsent(context.Background(), attendance.DailyRecord{
		EmployeeID:     employeeID,
		Date:           date,
		CheckIn:        &at,
		Mode:           attendance.ModeOnsite,
		Status:         attendance.StatusPresent,
		ScheduledStart: employee.DefaultShiftStart,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func calendarDay(d int, month time.Month) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func TestMaintenanceJobs_ResetMonthlyLateAllowance_OncePerPeriod(t *testing.T) {
	ctx := context.Background()
	env := newJobsEnv(t, resetTime)
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 0)
	env.addEmployee(t, "emp-2", employee.EmploymentStatusActive, 1)

	// Act
	require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

	_, err := env.aggregates.ApplyLifetimeDelta(ctx, "emp-1", attendance.CounterDelta{LateAllowance: -1})
	require.NoError(t, err)
	require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

	// Assert
	lifetime, err := env.aggregates.GetLifetime(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, lifetime.LateAllowanceRemaining, "second tick must not reset again")

	lifetime, err = env.aggregates.GetLifetime(ctx, "emp-2")
	require.NoError(t, err)
	assert.Equal(t, 3, lifetime.LateAllowanceRemaining)

	run, err := env.runs.Get(ctx, maintenance.JobResetLateAllowance, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, int64(2), run.Affected)
}

func TestMaintenanceJobs_ResetMonthlyLateAllowance_NotDue(t *testing.T) {
	cases := map[string]time.Time{
		// 17:10 regional on April 1.
		"before the hour": time.Date(2025, 4, 1, 12, 10, 0, 0, time.UTC),
		// 00:30 regional on April 1, still March in UTC.
		"regional midnight": time.Date(2025, 3, 31, 19, 30, 0, 0, time.UTC),
	}

	for name, now := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := newJobsEnv(t, now)
			env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 0)

			// Act
			require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

			// Assert
			lifetime, err := env.aggregates.GetLifetime(ctx, "emp-1")
			require.NoError(t, err)
			assert.Equal(t, 0, lifetime.LateAllowanceRemaining)
			_, err = env.runs.Get(ctx, maintenance.JobResetLateAllowance, "2025-04")
			assert.ErrorIs(t, err, maintenance.ErrRunNotFound)
		})
	}
}

func TestMaintenanceJobs_ResetMonthlyLateAllowance_CatchesUpMissedHour(t *testing.T) {
	ctx := context.Background()
	// 17:50 regional on April 1; the next tick lands at 19:20.
	env := newJobsEnv(t, time.Date(2025, 4, 1, 12, 50, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 0)
	require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

	// Act
	env.at(time.Date(2025, 4, 1, 14, 20, 0, 0, time.UTC))
	require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

	_, err := env.aggregates.ApplyLifetimeDelta(ctx, "emp-1", attendance.CounterDelta{LateAllowance: -1})
	require.NoError(t, err)
	for _, now := range []time.Time{
		time.Date(2025, 4, 2, 13, 10, 0, 0, time.UTC),
		time.Date(2025, 4, 30, 13, 10, 0, 0, time.UTC),
	} {
		env.at(now)
		require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))
	}

	// Assert
	lifetime, err := env.aggregates.GetLifetime(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, lifetime.LateAllowanceRemaining, "later ticks in April must not reset again")

	run, err := env.runs.Get(ctx, maintenance.JobResetLateAllowance, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Affected)
}

func TestMaintenanceJobs_ResetMonthlyLateAllowance_LateInMonth(t *testing.T) {
	ctx := context.Background()
	// The service was down on the first; 10:00 regional on April 2.
	env := newJobsEnv(t, time.Date(2025, 4, 2, 5, 0, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 0)

	// Act
	require.NoError(t, env.jobs.ResetMonthlyLateAllowance(ctx))

	// Assert
	lifetime, err := env.aggregates.GetLifetime(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 3, lifetime.LateAllowanceRemaining)
}

func TestMaintenanceJobs_AccrueMonthlyLeave_ActiveOnlyOnce(t *testing.T) {
	ctx := context.Background()
	// 06:30 regional on April 1.
	env := newJobsEnv(t, time.Date(2025, 4, 1, 1, 30, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)
	env.addEmployee(t, "emp-2", employee.EmploymentStatusTerminated, 3)

	// Act
	require.NoError(t, env.jobs.AccrueMonthlyLeave(ctx))
	require.NoError(t, env.jobs.AccrueMonthlyLeave(ctx))

	// Assert
	active, err := env.aggregates.GetLifetime(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, active.AvailableLeaves)

	terminated, err := env.aggregates.GetLifetime(ctx, "emp-2")
	require.NoError(t, err)
	assert.Equal(t, 0, terminated.AvailableLeaves)
}

func TestMaintenanceJobs_RunJob_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	env := newJobsEnv(t, time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)

	first, err := env.jobs.RunJob(ctx, maintenance.JobAccrueLeave)
	require.NoError(t, err)

	// Act
	second, err := env.jobs.RunJob(ctx, maintenance.JobAccrueLeave)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2025-04", first.Period)
	assert.Equal(t, int64(1), first.Affected)
	assert.False(t, first.AlreadyProcessed)
	assert.True(t, second.AlreadyProcessed)

	runs, err := env.jobs.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestMaintenanceJobs_RunJob_MonthlyDeductions(t *testing.T) {
	ctx := context.Background()
	env := newJobsEnv(t, time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)
	env.addEmployee(t, "emp-2", employee.EmploymentStatusActive, 3)
	_, err := env.updater.ApplyDailyStatus(ctx, "emp-1", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), attendance.StatusAbsent, attendance.ModeOnsite)
	require.NoError(t, err)

	// Act
	result, err := env.jobs.RunJob(ctx, maintenance.JobMonthlyDeductions)
	require.NoError(t, err)
	again, err := env.jobs.RunJob(ctx, maintenance.JobMonthlyDeductions)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "2025-03", result.Period)
	assert.Equal(t, int64(1), result.Affected, "emp-2 has no March summary and is skipped")
	assert.True(t, again.AlreadyProcessed)

	log, err := memory.NewDeductionLogRepository(env.store).GetByEmployeeMonth(ctx, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "2000", log.Breakdown.AbsentDeduction.String())
}

func TestMaintenanceJobs_RunJob_Reconcile(t *testing.T) {
	ctx := context.Background()
	env := newJobsEnv(t, resetTime)
	env.attendance.repaired = 4

	// Act
	result, err := env.jobs.RunJob(ctx, maintenance.JobReconcileBookkeeping)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Affected)
	assert.Equal(t, 1, env.attendance.calls)
	assert.Empty(t, result.Period)
}

func TestMaintenanceJobs_RunJob_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown job", func(t *testing.T) {
		env := newJobsEnv(t, resetTime)

		// Act
		_, err := env.jobs.RunJob(ctx, "vacuum")

		// Assert
		assert.ErrorIs(t, err, maintenance.ErrUnknownJob)
	})

	t.Run("unhealthy database skips the job", func(t *testing.T) {
		env := newJobsEnv(t, resetTime)
		env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 0)
		env.jobs.health = unhealthy{}

		// Act
		err := env.jobs.ResetMonthlyLateAllowance(ctx)

		// Assert
		require.Error(t, err)
		_, err = env.runs.Get(ctx, maintenance.JobResetLateAllowance, "2025-04")
		assert.ErrorIs(t, err, maintenance.ErrRunNotFound)
		lifetime, err := env.aggregates.GetLifetime(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, 0, lifetime.LateAllowanceRemaining)
	})
}

func TestMaintenanceJobs_RegisterJobs(t *testing.T) {
	env := newJobsEnv(t, resetTime)
	scheduler := NewScheduler()

	// Act
	env.jobs.RegisterJobs(scheduler, time.Hour)

	// Assert
	assert.Equal(t, []string{
		maintenance.JobResetLateAllowance,
		maintenance.JobAccrueLeave,
		maintenance.JobMonthlyDeductions,
		maintenance.JobAutoCheckOut,
		maintenance.JobMarkAbsent,
		maintenance.JobReconcileBookkeeping,
	}, scheduler.Names())
}

func TestMaintenanceJobs_MarkAbsentEmployees(t *testing.T) {
	ctx := context.Background()
	// 05:10 regional on April 2.
	env := newJobsEnv(t, time.Date(2025, 4, 2, 0, 10, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)
	env.addEmployee(t, "emp-2", employee.EmploymentStatusActive, 3)
	env.addEmployee(t, "emp-3", employee.EmploymentStatusActive, 3)
	env.addEmployee(t, "emp-4", employee.EmploymentStatusTerminated, 3)
	env.checkIn(t, "emp-2", calendarDay(1, time.April), time.Date(2025, 4, 1, 9, 0, 0, 0, env.jobs.normalizer.Region()))

	submitted, err := env.leaves.Submit(ctx, leave.SubmitLeaveRequest{
		EmployeeID: "emp-3",
		StartDate:  "2025-03-30",
		EndDate:    "2025-04-01",
		Reason:     "family event",
	})
	require.NoError(t, err)
	_, err = env.leaves.Decide(ctx, leave.DecideLeaveRequest{
		ID:         submitted.ID,
		Status:     string(leave.StatusApproved),
		ReviewerID: "hr-1",
	})
	require.NoError(t, err)

	// Act
	require.NoError(t, env.jobs.MarkAbsentEmployees(ctx))
	require.NoError(t, env.jobs.MarkAbsentEmployees(ctx))

	// Assert
	march, err := env.updater.Monthly(ctx, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 2, march.TotalAbsent, "March 30 and 31 are caught up")
	april, err := env.updater.Monthly(ctx, "emp-1", "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 1, april.TotalAbsent)

	checkedIn, err := env.records.LockByEmployeeAndDate(ctx, "emp-2", calendarDay(1, time.April))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, checkedIn.Status)

	for _, id := range []string{"emp-3", "emp-4"} {
		_, err := env.records.LockByEmployeeAndDate(ctx, id, calendarDay(1, time.April))
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound, id)
	}
	leaveMonth, err := env.updater.Monthly(ctx, "emp-3", "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 1, leaveMonth.TotalLeaveDays)
	assert.Equal(t, 0, leaveMonth.TotalAbsent)

	run, err := env.runs.Get(ctx, maintenance.JobMarkAbsent, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Affected)
	run, err = env.runs.Get(ctx, maintenance.JobMarkAbsent, "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, int64(2), run.Affected)

	again, err := env.jobs.RunJob(ctx, maintenance.JobMarkAbsent)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", again.Period)
	assert.True(t, again.AlreadyProcessed)
}

func TestMaintenanceJobs_MarkAbsentEmployees_BeforeTheHour(t *testing.T) {
	ctx := context.Background()
	// 02:30 regional on April 2.
	env := newJobsEnv(t, time.Date(2025, 4, 1, 21, 30, 0, 0, time.UTC))
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)

	// Act
	require.NoError(t, env.jobs.MarkAbsentEmployees(ctx))

	// Assert
	_, err := env.records.LockByEmployeeAndDate(ctx, "emp-1", calendarDay(1, time.April))
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound, "April 1 waits for 03:00")

	earlier, err := env.records.LockByEmployeeAndDate(ctx, "emp-1", calendarDay(31, time.March))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, earlier.Status)
	assert.True(t, earlier.BookkeepingApplied)
}

func TestMaintenanceJobs_AutoCloseStaleAttendances(t *testing.T) {
	ctx := context.Background()
	// 05:30 regional on April 2.
	env := newJobsEnv(t, time.Date(2025, 4, 2, 0, 30, 0, 0, time.UTC))
	region := env.jobs.normalizer.Region()
	env.addEmployee(t, "emp-1", employee.EmploymentStatusActive, 3)
	env.checkIn(t, "emp-1", calendarDay(1, time.April), time.Date(2025, 4, 1, 9, 0, 0, 0, region))

	// Act
	require.NoError(t, env.jobs.AutoCloseStaleAttendances(ctx))

	// Assert
	rec, err := env.records.LockByEmployeeAndDate(ctx, "emp-1", calendarDay(1, time.April))
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	assert.True(t, rec.CheckOut.Equal(time.Date(2025, 4, 1, 17, 0, 0, 0, region)))
	require.NotNil(t, rec.WorkingHours)
	assert.Equal(t, "8", rec.WorkingHours.String())

	run, err := env.runs.Get(ctx, maintenance.JobAutoCheckOut, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Affected)

	again, err := env.jobs.RunJob(ctx, maintenance.JobAutoCheckOut)
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
}
