package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) ListActive(_ context.Context) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var active []employee.Employee
	for _, e := range r.s.data.employees {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

type policyRepository struct {
	s *Store
}

func NewPolicyRepository(s *Store) company.PolicyRepository {
	return &policyRepository{s: s}
}

func (r *policyRepository) Get(_ context.Context) (company.Policy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.data.policy == nil {
		return company.Policy{}, company.ErrPolicyNotFound
	}
	return *r.s.data.policy, nil
}
