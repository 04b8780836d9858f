// Package aggregate keeps the lifetime and monthly attendance counters in step.
package aggregate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
)

type Updater struct {
	repo             attendance.AggregateRepository
	initialAllowance int
	failures         atomic.Int64
}

// NewUpdater creates an updater; lifetime rows created lazily start with
// initialAllowance late arrivals excused.
func NewUpdater(repo attendance.AggregateRepository, initialAllowance int) *Updater {
	return &Updater{repo: repo, initialAllowance: initialAllowance}
}

// DailyDelta is the change one classified day makes. A late day also
// consumes one unit of the monthly late allowance.
func DailyDelta(status attendance.Status, mode attendance.Mode) attendance.CounterDelta {
	d := attendance.StatusDelta(status, mode)
	if status == attendance.StatusLate {
		d.LateAllowance = -1
	}
	return d
}

// ApplyDailyStatus counts one classified day against the lifetime row and the
// summary of the day's month, creating either row if needed.
func (u *Updater) ApplyDailyStatus(ctx context.Context, employeeID string, date time.Time, status attendance.Status, mode attendance.Mode) (attendance.CounterDelta, error) {
	d := DailyDelta(status, mode)
	if _, _, err := u.Apply(ctx, employeeID, timeutil.MonthOf(date), d); err != nil {
		return attendance.CounterDelta{}, err
	}
	return d, nil
}

// Apply adds d to the employee's lifetime row and to the summary of month.
// Counters are floored at zero by the repository.
func (u *Updater) Apply(ctx context.Context, employeeID string, month string, d attendance.CounterDelta) (attendance.LifetimeAggregate, attendance.MonthlySummary, error) {
	if err := u.repo.EnsureLifetime(ctx, employeeID, u.initialAllowance); err != nil {
		return attendance.LifetimeAggregate{}, attendance.MonthlySummary{}, fmt.Errorf("failed to ensure lifetime aggregate: %w", err)
	}
	if err := u.repo.EnsureMonthly(ctx, employeeID, month); err != nil {
		return attendance.LifetimeAggregate{}, attendance.MonthlySummary{}, fmt.Errorf("failed to ensure monthly summary: %w", err)
	}

	lifetime, err := u.repo.ApplyLifetimeDelta(ctx, employeeID, d)
	if err != nil {
		return attendance.LifetimeAggregate{}, attendance.MonthlySummary{}, fmt.Errorf("failed to update lifetime aggregate: %w", err)
	}
	monthly, err := u.repo.ApplyMonthlyDelta(ctx, employeeID, month, d)
	if err != nil {
		return attendance.LifetimeAggregate{}, attendance.MonthlySummary{}, fmt.Errorf("failed to update monthly summary: %w", err)
	}
	return lifetime, monthly, nil
}

// Reclassify moves one day from one status to another. Allowance is untouched.
func (u *Updater) Reclassify(ctx context.Context, employeeID string, date time.Time, mode attendance.Mode, from, to attendance.Status) (attendance.CounterDelta, error) {
	d := attendance.StatusDelta(to, mode).Add(attendance.StatusDelta(from, mode).Negate())
	if d.IsZero() {
		return d, nil
	}
	if _, _, err := u.Apply(ctx, employeeID, timeutil.MonthOf(date), d); err != nil {
		return attendance.CounterDelta{}, err
	}
	return d, nil
}

// ApplyLeaveDays counts approved leave days, grouped by month.
func (u *Updater) ApplyLeaveDays(ctx context.Context, employeeID string, days []time.Time) error {
	perMonth := make(map[string]int)
	var months []string
	for _, day := range days {
		m := timeutil.MonthOf(day)
		if perMonth[m] == 0 {
			months = append(months, m)
		}
		perMonth[m]++
	}
	for _, m := range months {
		if _, _, err := u.Apply(ctx, employeeID, m, attendance.CounterDelta{Leave: perMonth[m]}); err != nil {
			return err
		}
	}
	return nil
}

// RecordFailure counts a bookkeeping step that was skipped and left for reconciliation.
func (u *Updater) RecordFailure() {
	u.failures.Add(1)
}

// Failures returns how many bookkeeping steps failed since start.
func (u *Updater) Failures() int64 {
	return u.failures.Load()
}

// Lifetime returns the employee's lifetime counters.
func (u *Updater) Lifetime(ctx context.Context, employeeID string) (attendance.LifetimeAggregate, error) {
	return u.repo.GetLifetime(ctx, employeeID)
}

// Monthly returns the employee's summary for month.
func (u *Updater) Monthly(ctx context.Context, employeeID string, month string) (attendance.MonthlySummary, error) {
	return u.repo.GetMonthly(ctx, employeeID, month)
}
