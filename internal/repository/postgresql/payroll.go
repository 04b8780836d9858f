package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salesAdjustmentRepository struct {
	db *database.DB
}

func NewSalesAdjustmentRepository(db *database.DB) payroll.SalesAdjustmentRepository {
	return &salesAdjustmentRepository{db: db}
}

// GetForMonth implements payroll.SalesAdjustmentRepository.
func (r *salesAdjustmentRepository) GetForMonth(ctx context.Context, employeeID string, month string) (payroll.SalesAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, month, chargeback, refund, commission, bonus
		FROM sales_adjustments
		WHERE employee_id = $1 AND month = $2
	`

	var adj payroll.SalesAdjustment
	err := q.QueryRow(ctx, query, employeeID, month).Scan(
		&adj.EmployeeID, &adj.Month, &adj.Chargeback, &adj.Refund, &adj.Commission, &adj.Bonus,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalesAdjustment{}, payroll.ErrSalesAdjustmentNotFound
		}
		return payroll.SalesAdjustment{}, fmt.Errorf("failed to get sales adjustment: %w", err)
	}
	return adj, nil
}

type deductionLogRepository struct {
	db *database.DB
}

func NewDeductionLogRepository(db *database.DB) payroll.DeductionLogRepository {
	return &deductionLogRepository{db: db}
}

// Upsert implements payroll.DeductionLogRepository.
func (r *deductionLogRepository) Upsert(ctx context.Context, log payroll.DeductionLog) (payroll.DeductionLog, error) {
	q := GetQuerier(ctx, r.db)

	breakdownJSON, err := json.Marshal(log.Breakdown)
	if err != nil {
		return payroll.DeductionLog{}, fmt.Errorf("failed to encode deduction breakdown: %w", err)
	}

	query := `
		INSERT INTO salary_deduction_logs (employee_id, month, breakdown)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, month)
		DO UPDATE SET breakdown = EXCLUDED.breakdown, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if err := q.QueryRow(ctx, query, log.EmployeeID, log.Month, breakdownJSON).Scan(
		&log.ID, &log.CreatedAt, &log.UpdatedAt,
	); err != nil {
		return payroll.DeductionLog{}, fmt.Errorf("failed to upsert deduction log: %w", err)
	}
	return log, nil
}

// GetByEmployeeMonth implements payroll.DeductionLogRepository.
func (r *deductionLogRepository) GetByEmployeeMonth(ctx context.Context, employeeID string, month string) (payroll.DeductionLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, month, breakdown, created_at, updated_at
		FROM salary_deduction_logs
		WHERE employee_id = $1 AND month = $2
	`

	var (
		log            payroll.DeductionLog
		breakdownBytes []byte
	)
	err := q.QueryRow(ctx, query, employeeID, month).Scan(
		&log.ID, &log.EmployeeID, &log.Month, &breakdownBytes, &log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.DeductionLog{}, payroll.ErrDeductionLogNotFound
		}
		return payroll.DeductionLog{}, fmt.Errorf("failed to get deduction log: %w", err)
	}
	if err := json.Unmarshal(breakdownBytes, &log.Breakdown); err != nil {
		return payroll.DeductionLog{}, fmt.Errorf("failed to decode deduction breakdown: %w", err)
	}
	return log, nil
}
