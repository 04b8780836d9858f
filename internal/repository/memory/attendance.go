package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

type dailyRecordRepository struct {
	s *Store
}

func NewDailyRecordRepository(s *Store) attendance.DailyRecordRepository {
	return &dailyRecordRepository{s: s}
}

func (r *dailyRecordRepository) CreateIfAbsent(ctx context.Context, rec attendance.DailyRecord) (attendance.DailyRecord, bool, error) {
	defer r.s.lock(ctx)()

	key := dayKey(rec.EmployeeID, rec.Date)
	if id, ok := r.s.data.recordByDay[key]; ok {
		return r.s.data.records[id], false, nil
	}

	now := r.s.now()
	rec.ID = r.s.newID()
	rec.BookkeepingApplied = false
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.s.data.records[rec.ID] = rec
	r.s.data.recordByDay[key] = rec.ID
	return rec, true, nil
}

func (r *dailyRecordRepository) GetByID(_ context.Context, id string) (attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.data.records[id]
	if !ok {
		return attendance.DailyRecord{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (r *dailyRecordRepository) LockByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *dailyRecordRepository) LockByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.data.recordByDay[dayKey(employeeID, date)]
	if !ok {
		return attendance.DailyRecord{}, attendance.ErrAttendanceNotFound
	}
	return r.s.data.records[id], nil
}

func (r *dailyRecordRepository) update(ctx context.Context, id string, fn func(rec *attendance.DailyRecord)) error {
	defer r.s.lock(ctx)()
	rec, ok := r.s.data.records[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	fn(&rec)
	rec.UpdatedAt = r.s.now()
	r.s.data.records[id] = rec
	return nil
}

func (r *dailyRecordRepository) SetCheckOut(ctx context.Context, id string, checkOut time.Time, hours decimal.Decimal) error {
	return r.update(ctx, id, func(rec *attendance.DailyRecord) {
		rec.CheckOut = &checkOut
		rec.WorkingHours = &hours
	})
}

func (r *dailyRecordRepository) SetStatus(ctx context.Context, id string, status attendance.Status) error {
	return r.update(ctx, id, func(rec *attendance.DailyRecord) {
		rec.Status = status
	})
}

func (r *dailyRecordRepository) MarkBookkeepingApplied(ctx context.Context, id string) error {
	return r.update(ctx, id, func(rec *attendance.DailyRecord) {
		rec.BookkeepingApplied = true
	})
}

func (r *dailyRecordRepository) ListPendingBookkeeping(_ context.Context, limit int) ([]attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var pending []attendance.DailyRecord
	for _, rec := range r.s.data.records {
		if !rec.BookkeepingApplied {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *dailyRecordRepository) ListOpenSessions(_ context.Context, date time.Time) ([]attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var open []attendance.DailyRecord
	for _, rec := range r.s.data.records {
		if rec.Date.Equal(date) && rec.CheckIn != nil && rec.CheckOut == nil {
			open = append(open, rec)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].EmployeeID < open[j].EmployeeID
	})
	return open, nil
}

func (r *dailyRecordRepository) List(_ context.Context, q attendance.RecordQuery) ([]attendance.DailyRecord, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []attendance.DailyRecord
	for _, rec := range r.s.data.records {
		if q.EmployeeID != nil && rec.EmployeeID != *q.EmployeeID {
			continue
		}
		if q.From != nil && rec.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.Date.After(*q.To) {
			continue
		}
		if q.Status != nil && rec.Status != *q.Status {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].EmployeeID < matched[j].EmployeeID
		}
		return matched[i].Date.After(matched[j].Date)
	})

	return paginate(matched, q.Offset, q.Limit), int64(len(matched)), nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
