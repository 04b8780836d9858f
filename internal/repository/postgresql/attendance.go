package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const dailyRecordColumns = `
	id, employee_id, date, check_in, check_out, mode, status, minutes_late,
	scheduled_start, working_hours, bookkeeping_applied, created_at, updated_at`

type dailyRecordRepository struct {
	db *database.DB
}

func NewDailyRecordRepository(db *database.DB) attendance.DailyRecordRepository {
	return &dailyRecordRepository{db: db}
}

func scanDailyRecord(row pgx.Row) (attendance.DailyRecord, error) {
	var rec attendance.DailyRecord
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Mode, &rec.Status, &rec.MinutesLate,
		&rec.ScheduledStart, &rec.WorkingHours, &rec.BookkeepingApplied, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// CreateIfAbsent implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) CreateIfAbsent(ctx context.Context, rec attendance.DailyRecord) (attendance.DailyRecord, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_logs (
			employee_id, date, check_in, mode, status, minutes_late, scheduled_start, bookkeeping_applied
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING` + dailyRecordColumns

	stored, err := scanDailyRecord(q.QueryRow(ctx, query,
		rec.EmployeeID, rec.Date, rec.CheckIn, rec.Mode, rec.Status, rec.MinutesLate, rec.ScheduledStart,
	))
	if err == nil {
		return stored, true, nil
	}
	if err != pgx.ErrNoRows {
		return attendance.DailyRecord{}, false, fmt.Errorf("failed to create attendance record: %w", err)
	}

	// Lost the race: another row exists for this day.
	existing, err := r.getByEmployeeAndDate(ctx, q, rec.EmployeeID, rec.Date, false)
	if err != nil {
		return attendance.DailyRecord{}, false, err
	}
	return existing, false, nil
}

// GetByID implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) GetByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	return r.getByID(ctx, id, false)
}

// LockByID implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) LockByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	return r.getByID(ctx, id, true)
}

// LockByEmployeeAndDate implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) LockByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyRecord, error) {
	return r.getByEmployeeAndDate(ctx, GetQuerier(ctx, r.db), employeeID, date, true)
}

func (r *dailyRecordRepository) getByID(ctx context.Context, id string, lock bool) (attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + dailyRecordColumns + ` FROM attendance_logs WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	rec, err := scanDailyRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.DailyRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.DailyRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

func (r *dailyRecordRepository) getByEmployeeAndDate(ctx context.Context, q database.Querier, employeeID string, date time.Time, lock bool) (attendance.DailyRecord, error) {
	query := `SELECT` + dailyRecordColumns + ` FROM attendance_logs WHERE employee_id = $1 AND date = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	rec, err := scanDailyRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.DailyRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.DailyRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

func (r *dailyRecordRepository) exec(ctx context.Context, action string, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// SetCheckOut implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) SetCheckOut(ctx context.Context, id string, checkOut time.Time, hours decimal.Decimal) error {
	return r.exec(ctx, "set check-out",
		`UPDATE attendance_logs SET check_out = $2, working_hours = $3, updated_at = NOW() WHERE id = $1`,
		id, checkOut, hours,
	)
}

// SetStatus implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) SetStatus(ctx context.Context, id string, status attendance.Status) error {
	return r.exec(ctx, "set attendance status",
		`UPDATE attendance_logs SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
}

// MarkBookkeepingApplied implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) MarkBookkeepingApplied(ctx context.Context, id string) error {
	return r.exec(ctx, "mark bookkeeping applied",
		`UPDATE attendance_logs SET bookkeeping_applied = TRUE, updated_at = NOW() WHERE id = $1`,
		id,
	)
}

// ListPendingBookkeeping implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) ListPendingBookkeeping(ctx context.Context, limit int) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + dailyRecordColumns + `
		FROM attendance_logs
		WHERE bookkeeping_applied = FALSE
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending attendance records: %w", err)
	}
	defer rows.Close()

	return collectDailyRecords(rows)
}

// ListOpenSessions implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) ListOpenSessions(ctx context.Context, date time.Time) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + dailyRecordColumns + `
		FROM attendance_logs
		WHERE date = $1 AND check_in IS NOT NULL AND check_out IS NULL
		ORDER BY employee_id ASC`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance sessions: %w", err)
	}
	defer rows.Close()

	return collectDailyRecords(rows)
}

// List implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) List(ctx context.Context, rq attendance.RecordQuery) ([]attendance.DailyRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if rq.EmployeeID != nil {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *rq.EmployeeID)
		argIdx++
	}
	if rq.From != nil {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *rq.From)
		argIdx++
	}
	if rq.To != nil {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *rq.To)
		argIdx++
	}
	if rq.Status != nil {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *rq.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_logs WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT%s
		FROM attendance_logs
		WHERE %s
		ORDER BY date DESC, employee_id ASC
		LIMIT NULLIF($%d, 0) OFFSET $%d`, dailyRecordColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, rq.Limit, rq.Offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records, err := collectDailyRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func collectDailyRecords(rows pgx.Rows) ([]attendance.DailyRecord, error) {
	var records []attendance.DailyRecord
	for rows.Next() {
		rec, err := scanDailyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}
