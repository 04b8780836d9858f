package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
)

type leaveRepository struct {
	s *Store
}

func NewLeaveRepository(s *Store) leave.LeaveRepository {
	return &leaveRepository{s: s}
}

func (r *leaveRepository) Create(ctx context.Context, record leave.LeaveRecord) (leave.LeaveRecord, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	record.ID = r.s.newID()
	record.CreatedAt, record.UpdatedAt = now, now
	r.s.data.leaves[record.ID] = record
	return record, nil
}

func (r *leaveRepository) GetByID(_ context.Context, id string) (leave.LeaveRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.data.leaves[id]
	if !ok {
		return leave.LeaveRecord{}, leave.ErrLeaveRecordNotFound
	}
	return l, nil
}

func (r *leaveRepository) LockByID(ctx context.Context, id string) (leave.LeaveRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *leaveRepository) Update(ctx context.Context, record leave.LeaveRecord) error {
	defer r.s.lock(ctx)()
	existing, ok := r.s.data.leaves[record.ID]
	if !ok {
		return leave.ErrLeaveRecordNotFound
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = r.s.now()
	r.s.data.leaves[record.ID] = record
	return nil
}

func (r *leaveRepository) HasOverlap(_ context.Context, employeeID string, start, end time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.data.leaves {
		if l.EmployeeID != employeeID || l.Status == leave.StatusRejected {
			continue
		}
		if !l.StartDate.After(end) && !l.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *leaveRepository) ListApprovedOn(_ context.Context, date time.Time) ([]leave.LeaveRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []leave.LeaveRecord
	for _, l := range r.s.data.leaves {
		if l.Status == leave.StatusApproved && l.Covers(date) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}
