package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
)

const (
	defaultReconcileBatch = 200

	// dailyCatchUp is how many past days a daily job revisits when its
	// ledger row is missing, so a short outage does not skip a day.
	dailyCatchUp = 3
)

type MaintenanceConfig struct {
	LateResetHour      int
	LeaveAccrualHour   int
	PayrollHour        int
	MarkAbsentHour     int
	AutoCheckOutHour   int
	PayrollEnabled     bool
	LateAllowanceReset int
	LeaveAccrualDays   int
	ReconcileBatch     int
}

// MaintenanceJobs owns the monthly counter jobs, the payroll run, the daily
// absence and auto check-out jobs and the bookkeeping reconciler. Periodic
// jobs write a ledger row per period, so they take effect once per month (or
// day) no matter how often they tick. A job is due from its regional hour
// until the end of its period, which lets a missed tick catch up.
type MaintenanceJobs struct {
	tx         database.Transactor
	runs       maintenance.RunRepository
	aggregates attendance.AggregateRepository
	employees  employee.EmployeeRepository
	attendance attendance.AttendanceService
	leaves     leave.LeaveService
	payroll    payroll.DeductionService
	health     database.HealthChecker
	normalizer *timeutil.Normalizer
	cfg        MaintenanceConfig
	now        func() time.Time
}

func NewMaintenanceJobs(
	tx database.Transactor,
	runRepo maintenance.RunRepository,
	aggregateRepo attendance.AggregateRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceService attendance.AttendanceService,
	leaveService leave.LeaveService,
	deductionService payroll.DeductionService,
	health database.HealthChecker,
	normalizer *timeutil.Normalizer,
	cfg MaintenanceConfig,
) *MaintenanceJobs {
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	return &MaintenanceJobs{
		tx:         tx,
		runs:       runRepo,
		aggregates: aggregateRepo,
		employees:  employeeRepo,
		attendance: attendanceService,
		leaves:     leaveService,
		payroll:    deductionService,
		health:     health,
		normalizer: normalizer,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (j *MaintenanceJobs) RegisterJobs(scheduler *Scheduler, tick time.Duration) {
	scheduler.AddJob(maintenance.JobResetLateAllowance, tick, j.ResetMonthlyLateAllowance)
	scheduler.AddJob(maintenance.JobAccrueLeave, tick, j.AccrueMonthlyLeave)
	if j.cfg.PayrollEnabled {
		scheduler.AddJob(maintenance.JobMonthlyDeductions, tick, j.CalculateMonthlyDeductions)
	}
	scheduler.AddJob(maintenance.JobAutoCheckOut, tick, j.AutoCloseStaleAttendances)
	scheduler.AddJob(maintenance.JobMarkAbsent, tick, j.MarkAbsentEmployees)
	scheduler.AddJob(maintenance.JobReconcileBookkeeping, time.Hour, j.ReconcileBookkeeping)
}

// ResetMonthlyLateAllowance is due from the first day of the month at the configured regional hour.
func (j *MaintenanceJobs) ResetMonthlyLateAllowance(ctx context.Context) error {
	return j.runScheduled(ctx, maintenance.JobResetLateAllowance)
}

// AccrueMonthlyLeave is due from the first day of the month at the configured regional hour.
func (j *MaintenanceJobs) AccrueMonthlyLeave(ctx context.Context) error {
	return j.runScheduled(ctx, maintenance.JobAccrueLeave)
}

// CalculateMonthlyDeductions closes payroll for the previous month.
func (j *MaintenanceJobs) CalculateMonthlyDeductions(ctx context.Context) error {
	return j.runScheduled(ctx, maintenance.JobMonthlyDeductions)
}

// AutoCloseStaleAttendances checks out yesterday's sessions that were never closed.
func (j *MaintenanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	return j.runScheduled(ctx, maintenance.JobAutoCheckOut)
}

// MarkAbsentEmployees records yesterday's absences for active employees
// without a record or an approved leave.
func (j *MaintenanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	return j.runScheduled(ctx, maintenance.JobMarkAbsent)
}

func (j *MaintenanceJobs) ReconcileBookkeeping(ctx context.Context) error {
	_, err := j.RunJob(ctx, maintenance.JobReconcileBookkeeping)
	return err
}

// RunJob implements maintenance.Runner. It ignores the schedule hour but
// keeps the per-period ledger guard.
func (j *MaintenanceJobs) RunJob(ctx context.Context, job string) (maintenance.Result, error) {
	if job == maintenance.JobReconcileBookkeeping {
		if err := j.checkHealth(ctx, job); err != nil {
			return maintenance.Result{}, err
		}
		n, err := j.attendance.ReconcileBookkeeping(ctx, j.cfg.ReconcileBatch)
		if err != nil {
			return maintenance.Result{}, fmt.Errorf("failed to reconcile bookkeeping: %w", err)
		}
		if n > 0 {
			slog.Info("Bookkeeping reconciled", "records", n)
		}
		return maintenance.Result{Job: job, Affected: int64(n)}, nil
	}

	periods, _, err := j.window(job, j.now())
	if err != nil {
		return maintenance.Result{}, err
	}
	return j.run(ctx, job, periods[len(periods)-1])
}

// ListRecent implements maintenance.Runner.
func (j *MaintenanceJobs) ListRecent(ctx context.Context, limit int) ([]maintenance.Run, error) {
	return j.runs.ListRecent(ctx, limit)
}

// window returns the periods a job may still owe at now, oldest first, and
// the regional instant from which the current one is due.
func (j *MaintenanceJobs) window(job string, now time.Time) ([]string, time.Time, error) {
	local := now.In(j.normalizer.Region())
	monthStart := func(hour int) time.Time {
		return time.Date(local.Year(), local.Month(), 1, hour, 0, 0, 0, local.Location())
	}
	dayStart := func(hour int) time.Time {
		return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, local.Location())
	}
	pastDays := func() []string {
		today := j.normalizer.Today(now)
		days := make([]string, 0, dailyCatchUp)
		for back := dailyCatchUp; back >= 1; back-- {
			days = append(days, today.AddDate(0, 0, -back).Format(timeutil.DateLayout))
		}
		return days
	}

	switch job {
	case maintenance.JobResetLateAllowance:
		return []string{j.normalizer.CurrentMonth(now)}, monthStart(j.cfg.LateResetHour), nil
	case maintenance.JobAccrueLeave:
		return []string{j.normalizer.CurrentMonth(now)}, monthStart(j.cfg.LeaveAccrualHour), nil
	case maintenance.JobMonthlyDeductions:
		return []string{j.normalizer.PreviousMonth(now)}, monthStart(j.cfg.PayrollHour), nil
	case maintenance.JobMarkAbsent:
		return pastDays(), dayStart(j.cfg.MarkAbsentHour), nil
	case maintenance.JobAutoCheckOut:
		return pastDays(), dayStart(j.cfg.AutoCheckOutHour), nil
	}
	return nil, time.Time{}, maintenance.ErrUnknownJob
}

// runScheduled runs every period of job that is due and not yet in the ledger.
func (j *MaintenanceJobs) runScheduled(ctx context.Context, job string) error {
	now := j.now()
	periods, dueAt, err := j.window(job, now)
	if err != nil {
		return err
	}
	if now.Before(dueAt) {
		// Only the current period waits for its hour; earlier days are owed already.
		periods = periods[:len(periods)-1]
	}

	for _, period := range periods {
		done, err := j.recorded(ctx, job, period)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if _, err := j.run(ctx, job, period); err != nil {
			return err
		}
	}
	return nil
}

func (j *MaintenanceJobs) recorded(ctx context.Context, job, period string) (bool, error) {
	_, err := j.runs.Get(ctx, job, period)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, maintenance.ErrRunNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to read %s ledger: %w", job, err)
}

func (j *MaintenanceJobs) run(ctx context.Context, job, period string) (maintenance.Result, error) {
	if err := j.checkHealth(ctx, job); err != nil {
		return maintenance.Result{}, err
	}

	switch job {
	case maintenance.JobResetLateAllowance:
		return j.runLedgered(ctx, job, period, func(ctx context.Context) (int64, error) {
			return j.aggregates.ResetLateAllowance(ctx, j.cfg.LateAllowanceReset)
		})
	case maintenance.JobAccrueLeave:
		return j.runLedgered(ctx, job, period, func(ctx context.Context) (int64, error) {
			return j.aggregates.AccrueLeave(ctx, j.cfg.LeaveAccrualDays)
		})
	case maintenance.JobMonthlyDeductions:
		return j.runThenRecord(ctx, job, period, j.monthlyDeductions)
	case maintenance.JobMarkAbsent:
		return j.runThenRecord(ctx, job, period, j.markAbsent)
	case maintenance.JobAutoCheckOut:
		return j.runThenRecord(ctx, job, period, j.autoCheckOut)
	}
	return maintenance.Result{}, maintenance.ErrUnknownJob
}

func (j *MaintenanceJobs) runLedgered(ctx context.Context, job, period string, fn func(ctx context.Context) (int64, error)) (maintenance.Result, error) {
	result := maintenance.Result{Job: job, Period: period}

	err := j.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := j.runs.Claim(txCtx, job, period)
		if err != nil {
			return err
		}
		affected, err := fn(txCtx)
		if err != nil {
			return err
		}
		result.Affected = affected
		return j.runs.SetAffected(txCtx, run.ID, affected)
	})
	if errors.Is(err, maintenance.ErrPeriodAlreadyProcessed) {
		slog.Info("Maintenance job already ran for period", "job", job, "period", period)
		result.AlreadyProcessed = true
		return result, nil
	}
	if err != nil {
		return maintenance.Result{}, fmt.Errorf("failed to run %s for %s: %w", job, period, err)
	}

	slog.Info("Maintenance job completed", "job", job, "period", period, "affected", result.Affected)
	return result, nil
}

// runThenRecord does per-employee work outside the ledger transaction so one
// failing employee does not undo the rest, then claims the period. The work
// must be safe to repeat.
func (j *MaintenanceJobs) runThenRecord(ctx context.Context, job, period string, fn func(ctx context.Context, period string) (int64, error)) (maintenance.Result, error) {
	done, err := j.recorded(ctx, job, period)
	if err != nil {
		return maintenance.Result{}, err
	}
	if done {
		slog.Info("Maintenance job already ran for period", "job", job, "period", period)
		return maintenance.Result{Job: job, Period: period, AlreadyProcessed: true}, nil
	}

	affected, err := fn(ctx, period)
	if err != nil {
		return maintenance.Result{}, fmt.Errorf("failed to run %s for %s: %w", job, period, err)
	}

	return j.runLedgered(ctx, job, period, func(context.Context) (int64, error) {
		return affected, nil
	})
}

func (j *MaintenanceJobs) monthlyDeductions(ctx context.Context, period string) (int64, error) {
	summary, err := j.payroll.RunMonthlyDeductions(ctx, period)
	if err != nil {
		return 0, err
	}
	if summary.Failed > 0 {
		slog.Warn("Monthly deductions finished with failures",
			"period", period,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	}
	return int64(summary.Processed), nil
}

// markAbsent skips employees on approved leave; their leave days were
// counted when the leave was approved.
func (j *MaintenanceJobs) markAbsent(ctx context.Context, period string) (int64, error) {
	day, err := j.normalizer.ParseDate(period)
	if err != nil {
		return 0, err
	}
	employees, err := j.employees.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	var marked, onLeave, failed int
	for _, emp := range employees {
		away, err := j.leaves.IsOnLeave(ctx, emp.ID, period)
		if err != nil {
			slog.Error("Failed to check leave", "employee_id", emp.ID, "date", period, "error", err)
			failed++
			continue
		}
		if away {
			onLeave++
			continue
		}

		created, err := j.attendance.MarkAbsent(ctx, emp.ID, day)
		if err != nil {
			slog.Error("Failed to mark employee absent", "employee_id", emp.ID, "date", period, "error", err)
			failed++
			continue
		}
		if created {
			marked++
		}
	}

	slog.Info("Marked absent employees", "date", period, "absent", marked, "on_leave", onLeave, "failed", failed)
	return int64(marked), nil
}

// autoCheckOut closes the day's sessions no later than the job's hour on the following day.
func (j *MaintenanceJobs) autoCheckOut(ctx context.Context, period string) (int64, error) {
	day, err := j.normalizer.ParseDate(period)
	if err != nil {
		return 0, err
	}
	cutoff, err := j.normalizer.Normalize(day.AddDate(0, 0, 1), fmt.Sprintf("%02d:00", j.cfg.AutoCheckOutHour))
	if err != nil {
		return 0, err
	}

	closed, err := j.attendance.AutoCheckOut(ctx, day, cutoff.Storage)
	if err != nil {
		return 0, err
	}
	slog.Info("Auto-closed stale attendances", "date", period, "count", closed)
	return int64(closed), nil
}

func (j *MaintenanceJobs) checkHealth(ctx context.Context, job string) error {
	if j.health == nil {
		return nil
	}
	if err := j.health.EnsureHealthy(ctx); err != nil {
		slog.Error("Skipping maintenance job, database unhealthy", "job", job, "error", err)
		return fmt.Errorf("skipped %s: %w", job, err)
	}
	return nil
}

var _ maintenance.Runner = (*MaintenanceJobs)(nil)
