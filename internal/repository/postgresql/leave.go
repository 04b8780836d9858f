package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveColumns = `
	id, employee_id, start_date, end_date, reason, status,
	reviewer_id, reviewed_at, rejection_reason, created_at, updated_at`

type leaveRepository struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepository{db: db}
}

func scanLeave(row pgx.Row) (leave.LeaveRecord, error) {
	var l leave.LeaveRecord
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Reason, &l.Status,
		&l.ReviewerID, &l.ReviewedAt, &l.RejectionReason, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// Create implements leave.LeaveRepository.
func (r *leaveRepository) Create(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_records (employee_id, start_date, end_date, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.StartDate, record.EndDate, record.Reason, record.Status,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to create leave record: %w", err)
	}
	return record, nil
}

// GetByID implements leave.LeaveRepository.
func (r *leaveRepository) GetByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	return r.getByID(ctx, id, false)
}

// LockByID implements leave.LeaveRepository.
func (r *leaveRepository) LockByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	return r.getByID(ctx, id, true)
}

func (r *leaveRepository) getByID(ctx context.Context, id string, lock bool) (leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveColumns + ` FROM leave_records WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	l, err := scanLeave(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
		}
		return leave.LeaveRecord{}, fmt.Errorf("failed to get leave record: %w", err)
	}
	return l, nil
}

// Update implements leave.LeaveRepository.
func (r *leaveRepository) Update(ctx context.Context, record leave.LeaveRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_records
		SET status = $2, reviewer_id = $3, reviewed_at = $4, rejection_reason = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, record.ID, record.Status, record.ReviewerID, record.ReviewedAt, record.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update leave record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRecordNotFound
	}
	return nil
}

// HasOverlap implements leave.LeaveRepository.
func (r *leaveRepository) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_records
			WHERE employee_id = $1
			  AND status <> 'Rejected'
			  AND start_date <= $3
			  AND end_date >= $2
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

// ListApprovedOn implements leave.LeaveRepository.
func (r *leaveRepository) ListApprovedOn(ctx context.Context, date time.Time) ([]leave.LeaveRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveColumns + `
		FROM leave_records
		WHERE status = 'Approved' AND start_date <= $1 AND end_date >= $1
		ORDER BY employee_id`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	defer rows.Close()

	var records []leave.LeaveRecord
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave record: %w", err)
		}
		records = append(records, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave records: %w", err)
	}
	return records, nil
}
