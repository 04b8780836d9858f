package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
)

type salesAdjustmentRepository struct {
	s *Store
}

func NewSalesAdjustmentRepository(s *Store) payroll.SalesAdjustmentRepository {
	return &salesAdjustmentRepository{s: s}
}

func (r *salesAdjustmentRepository) GetForMonth(_ context.Context, employeeID string, month string) (payroll.SalesAdjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.data.sales[monthKey(employeeID, month)]
	if !ok {
		return payroll.SalesAdjustment{}, payroll.ErrSalesAdjustmentNotFound
	}
	return a, nil
}

type deductionLogRepository struct {
	s *Store
}

func NewDeductionLogRepository(s *Store) payroll.DeductionLogRepository {
	return &deductionLogRepository{s: s}
}

func (r *deductionLogRepository) Upsert(ctx context.Context, log payroll.DeductionLog) (payroll.DeductionLog, error) {
	defer r.s.lock(ctx)()

	key := monthKey(log.EmployeeID, log.Month)
	now := r.s.now()
	if existing, ok := r.s.data.deductionLogs[key]; ok {
		log.ID, log.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		log.ID, log.CreatedAt = r.s.newID(), now
	}
	log.UpdatedAt = now
	r.s.data.deductionLogs[key] = log
	return log, nil
}

func (r *deductionLogRepository) GetByEmployeeMonth(_ context.Context, employeeID string, month string) (payroll.DeductionLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	log, ok := r.s.data.deductionLogs[monthKey(employeeID, month)]
	if !ok {
		return payroll.DeductionLog{}, payroll.ErrDeductionLogNotFound
	}
	return log, nil
}
