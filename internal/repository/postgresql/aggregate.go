package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const lifetimeColumns = `
	employee_id, present_days, absent_days, late_days, half_days, leave_days, remote_days,
	monthly_late_allowance_remaining, available_leaves, created_at, updated_at`

const monthlyColumns = `
	employee_id, month, total_present, total_absent, total_late_days, total_half_days,
	total_leave_days, total_remote_days, created_at, updated_at`

type aggregateRepository struct {
	db *database.DB
}

func NewAggregateRepository(db *database.DB) attendance.AggregateRepository {
	return &aggregateRepository{db: db}
}

func scanLifetime(row pgx.Row) (attendance.LifetimeAggregate, error) {
	var a attendance.LifetimeAggregate
	err := row.Scan(
		&a.EmployeeID, &a.PresentDays, &a.AbsentDays, &a.LateDays, &a.HalfDays, &a.LeaveDays, &a.RemoteDays,
		&a.LateAllowanceRemaining, &a.AvailableLeaves, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func scanMonthly(row pgx.Row) (attendance.MonthlySummary, error) {
	var m attendance.MonthlySummary
	err := row.Scan(
		&m.EmployeeID, &m.Month, &m.TotalPresent, &m.TotalAbsent, &m.TotalLateDays, &m.TotalHalfDays,
		&m.TotalLeaveDays, &m.TotalRemoteDays, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// EnsureLifetime implements attendance.AggregateRepository.
func (r *aggregateRepository) EnsureLifetime(ctx context.Context, employeeID string, initialAllowance int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_aggregates (employee_id, monthly_late_allowance_remaining)
		VALUES ($1, $2)
		ON CONFLICT (employee_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, employeeID, initialAllowance); err != nil {
		return fmt.Errorf("failed to ensure lifetime aggregate: %w", err)
	}
	return nil
}

// GetLifetime implements attendance.AggregateRepository.
func (r *aggregateRepository) GetLifetime(ctx context.Context, employeeID string) (attendance.LifetimeAggregate, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanLifetime(q.QueryRow(ctx, `SELECT`+lifetimeColumns+` FROM attendance_aggregates WHERE employee_id = $1`, employeeID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.LifetimeAggregate{}, attendance.ErrLifetimeAggregateNotFound
		}
		return attendance.LifetimeAggregate{}, fmt.Errorf("failed to get lifetime aggregate: %w", err)
	}
	return a, nil
}

// ApplyLifetimeDelta implements attendance.AggregateRepository.
func (r *aggregateRepository) ApplyLifetimeDelta(ctx context.Context, employeeID string, d attendance.CounterDelta) (attendance.LifetimeAggregate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_aggregates SET
			present_days = GREATEST(0, present_days + $2),
			absent_days = GREATEST(0, absent_days + $3),
			late_days = GREATEST(0, late_days + $4),
			half_days = GREATEST(0, half_days + $5),
			leave_days = GREATEST(0, leave_days + $6),
			remote_days = GREATEST(0, remote_days + $7),
			monthly_late_allowance_remaining = GREATEST(0, monthly_late_allowance_remaining + $8),
			available_leaves = GREATEST(0, available_leaves + $9),
			updated_at = NOW()
		WHERE employee_id = $1
		RETURNING` + lifetimeColumns

	a, err := scanLifetime(q.QueryRow(ctx, query,
		employeeID, d.Present, d.Absent, d.Late, d.HalfDay, d.Leave, d.Remote, d.LateAllowance, d.AvailableLeaves,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.LifetimeAggregate{}, attendance.ErrLifetimeAggregateNotFound
		}
		return attendance.LifetimeAggregate{}, fmt.Errorf("failed to apply lifetime delta: %w", err)
	}
	return a, nil
}

// EnsureMonthly implements attendance.AggregateRepository.
func (r *aggregateRepository) EnsureMonthly(ctx context.Context, employeeID string, month string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO monthly_attendance_summaries (employee_id, month)
		VALUES ($1, $2)
		ON CONFLICT (employee_id, month) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, employeeID, month); err != nil {
		return fmt.Errorf("failed to ensure monthly summary: %w", err)
	}
	return nil
}

// GetMonthly implements attendance.AggregateRepository.
func (r *aggregateRepository) GetMonthly(ctx context.Context, employeeID string, month string) (attendance.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + monthlyColumns + ` FROM monthly_attendance_summaries WHERE employee_id = $1 AND month = $2`
	m, err := scanMonthly(q.QueryRow(ctx, query, employeeID, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.MonthlySummary{}, attendance.ErrAttendanceSummaryNotFound
		}
		return attendance.MonthlySummary{}, fmt.Errorf("failed to get monthly summary: %w", err)
	}
	return m, nil
}

// ApplyMonthlyDelta implements attendance.AggregateRepository.
func (r *aggregateRepository) ApplyMonthlyDelta(ctx context.Context, employeeID string, month string, d attendance.CounterDelta) (attendance.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE monthly_attendance_summaries SET
			total_present = GREATEST(0, total_present + $3),
			total_absent = GREATEST(0, total_absent + $4),
			total_late_days = GREATEST(0, total_late_days + $5),
			total_half_days = GREATEST(0, total_half_days + $6),
			total_leave_days = GREATEST(0, total_leave_days + $7),
			total_remote_days = GREATEST(0, total_remote_days + $8),
			updated_at = NOW()
		WHERE employee_id = $1 AND month = $2
		RETURNING` + monthlyColumns

	m, err := scanMonthly(q.QueryRow(ctx, query,
		employeeID, month, d.Present, d.Absent, d.Late, d.HalfDay, d.Leave, d.Remote,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.MonthlySummary{}, attendance.ErrAttendanceSummaryNotFound
		}
		return attendance.MonthlySummary{}, fmt.Errorf("failed to apply monthly delta: %w", err)
	}
	return m, nil
}

// ResetLateAllowance implements attendance.AggregateRepository.
func (r *aggregateRepository) ResetLateAllowance(ctx context.Context, value int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE attendance_aggregates SET monthly_late_allowance_remaining = $1, updated_at = NOW()`, value)
	if err != nil {
		return 0, fmt.Errorf("failed to reset late allowance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AccrueLeave implements attendance.AggregateRepository.
func (r *aggregateRepository) AccrueLeave(ctx context.Context, days int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_aggregates a
		SET available_leaves = a.available_leaves + $1, updated_at = NOW()
		FROM employees e
		WHERE e.id = a.employee_id AND e.employment_status = 'active'
	`
	tag, err := q.Exec(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to accrue leave: %w", err)
	}
	return tag.RowsAffected(), nil
}
