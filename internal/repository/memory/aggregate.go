package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
)

type aggregateRepository struct {
	s *Store
}

func NewAggregateRepository(s *Store) attendance.AggregateRepository {
	return &aggregateRepository{s: s}
}

func (r *aggregateRepository) EnsureLifetime(ctx context.Context, employeeID string, initialAllowance int) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.lifetime[employeeID]; ok {
		return nil
	}
	now := r.s.now()
	r.s.data.lifetime[employeeID] = attendance.LifetimeAggregate{
		EmployeeID:             employeeID,
		LateAllowanceRemaining: initialAllowance,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	return nil
}

func (r *aggregateRepository) GetLifetime(_ context.Context, employeeID string) (attendance.LifetimeAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.data.lifetime[employeeID]
	if !ok {
		return attendance.LifetimeAggregate{}, attendance.ErrLifetimeAggregateNotFound
	}
	return a, nil
}

func (r *aggregateRepository) ApplyLifetimeDelta(ctx context.Context, employeeID string, d attendance.CounterDelta) (attendance.LifetimeAggregate, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.data.lifetime[employeeID]
	if !ok {
		return attendance.LifetimeAggregate{}, attendance.ErrLifetimeAggregateNotFound
	}
	a.Apply(d)
	a.UpdatedAt = r.s.now()
	r.s.data.lifetime[employeeID] = a
	return a, nil
}

func (r *aggregateRepository) EnsureMonthly(ctx context.Context, employeeID string, month string) error {
	defer r.s.lock(ctx)()
	key := monthKey(employeeID, month)
	if _, ok := r.s.data.monthly[key]; ok {
		return nil
	}
	now := r.s.now()
	r.s.data.monthly[key] = attendance.MonthlySummary{
		EmployeeID: employeeID,
		Month:      month,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (r *aggregateRepository) GetMonthly(_ context.Context, employeeID string, month string) (attendance.MonthlySummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.data.monthly[monthKey(employeeID, month)]
	if !ok {
		return attendance.MonthlySummary{}, attendance.ErrAttendanceSummaryNotFound
	}
	return m, nil
}

func (r *aggregateRepository) ApplyMonthlyDelta(ctx context.Context, employeeID string, month string, d attendance.CounterDelta) (attendance.MonthlySummary, error) {
	defer r.s.lock(ctx)()
	key := monthKey(employeeID, month)
	m, ok := r.s.data.monthly[key]
	if !ok {
		return attendance.MonthlySummary{}, attendance.ErrAttendanceSummaryNotFound
	}
	m.Apply(d)
	m.UpdatedAt = r.s.now()
	r.s.data.monthly[key] = m
	return m, nil
}

func (r *aggregateRepository) ResetLateAllowance(ctx context.Context, value int) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for id, a := range r.s.data.lifetime {
		a.LateAllowanceRemaining = value
		a.UpdatedAt = now
		r.s.data.lifetime[id] = a
		n++
	}
	return n, nil
}

func (r *aggregateRepository) AccrueLeave(ctx context.Context, days int) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for id, a := range r.s.data.lifetime {
		emp, ok := r.s.data.employees[id]
		if !ok || !emp.IsActive() {
			continue
		}
		a.AvailableLeaves += days
		a.UpdatedAt = now
		r.s.data.lifetime[id] = a
		n++
	}
	return n, nil
}
