package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
)

type runRepository struct {
	s *Store
}

func NewRunRepository(s *Store) maintenance.RunRepository {
	return &runRepository{s: s}
}

func (r *runRepository) Claim(ctx context.Context, job string, period string) (maintenance.Run, error) {
	defer r.s.lock(ctx)()
	key := job + "|" + period
	if _, ok := r.s.data.runs[key]; ok {
		return maintenance.Run{}, maintenance.ErrPeriodAlreadyProcessed
	}
	run := maintenance.Run{
		ID:     r.s.newID(),
		Job:    job,
		Period: period,
		RanAt:  r.s.now(),
	}
	r.s.data.runs[key] = run
	return run, nil
}

func (r *runRepository) SetAffected(ctx context.Context, id string, affected int64) error {
	defer r.s.lock(ctx)()
	for key, run := range r.s.data.runs {
		if run.ID == id {
			run.Affected = affected
			r.s.data.runs[key] = run
			return nil
		}
	}
	return maintenance.ErrRunNotFound
}

func (r *runRepository) Get(_ context.Context, job string, period string) (maintenance.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	run, ok := r.s.data.runs[job+"|"+period]
	if !ok {
		return maintenance.Run{}, maintenance.ErrRunNotFound
	}
	return run, nil
}

func (r *runRepository) ListRecent(_ context.Context, limit int) ([]maintenance.Run, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	runs := make([]maintenance.Run, 0, len(r.s.data.runs))
	for _, run := range r.s.data.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].RanAt.After(runs[j].RanAt) })
	return paginate(runs, 0, limit), nil
}
