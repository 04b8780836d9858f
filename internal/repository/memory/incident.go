package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
)

type incidentRepository struct {
	s *Store
}

func NewIncidentRepository(s *Store) incident.IncidentRepository {
	return &incidentRepository{s: s}
}

func (r *incidentRepository) Create(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	defer r.s.lock(ctx)()

	now := r.s.now()
	inc.ID = r.s.newID()
	inc.CreatedAt, inc.UpdatedAt = now, now
	r.s.data.seq++
	r.s.data.incidents[inc.ID] = inc
	r.s.data.incidentSeq[inc.ID] = r.s.data.seq
	return inc, nil
}

func (r *incidentRepository) GetByID(_ context.Context, kind incident.Kind, id string) (incident.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inc, ok := r.s.data.incidents[id]
	if !ok || inc.Kind != kind {
		return incident.Incident{}, incident.ErrIncidentNotFound
	}
	return inc, nil
}

func (r *incidentRepository) LockByID(ctx context.Context, kind incident.Kind, id string) (incident.Incident, error) {
	return r.GetByID(ctx, kind, id)
}

func (r *incidentRepository) FindLatestCreated(_ context.Context, kind incident.Kind, employeeID string, date time.Time) (incident.Incident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var (
		found   incident.Incident
		bestSeq int64 = -1
	)
	for id, inc := range r.s.data.incidents {
		if inc.Kind != kind || inc.EmployeeID != employeeID || inc.Stage != incident.StageCreated {
			continue
		}
		if !inc.Date.Equal(date) {
			continue
		}
		if seq := r.s.data.incidentSeq[id]; seq > bestSeq {
			found, bestSeq = inc, seq
		}
	}
	if bestSeq < 0 {
		return incident.Incident{}, incident.ErrNoOpenIncident
	}
	return found, nil
}

func (r *incidentRepository) Update(ctx context.Context, inc incident.Incident) error {
	defer r.s.lock(ctx)()
	existing, ok := r.s.data.incidents[inc.ID]
	if !ok || existing.Kind != inc.Kind {
		return incident.ErrIncidentNotFound
	}
	inc.CreatedAt = existing.CreatedAt
	inc.UpdatedAt = r.s.now()
	r.s.data.incidents[inc.ID] = inc
	return nil
}

func (r *incidentRepository) matching(kind incident.Kind, q incident.Query) []incident.Incident {
	var matched []incident.Incident
	for _, inc := range r.s.data.incidents {
		if inc.Kind != kind {
			continue
		}
		if q.EmployeeID != nil && inc.EmployeeID != *q.EmployeeID {
			continue
		}
		if q.Stage != nil && inc.Stage != *q.Stage {
			continue
		}
		if q.From != nil && inc.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && inc.Date.After(*q.To) {
			continue
		}
		matched = append(matched, inc)
	}
	return matched
}

func (r *incidentRepository) List(_ context.Context, kind incident.Kind, q incident.Query) ([]incident.Incident, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.matching(kind, q)
	sort.Slice(matched, func(i, j int) bool {
		return r.s.data.incidentSeq[matched[i].ID] > r.s.data.incidentSeq[matched[j].ID]
	})
	return paginate(matched, q.Offset, q.Limit), int64(len(matched)), nil
}

func (r *incidentRepository) Stats(_ context.Context, kind incident.Kind, q incident.Query) (incident.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st incident.Stats
	for _, inc := range r.matching(kind, q) {
		st.Total++
		switch inc.Stage {
		case incident.StageCreated:
			st.Created++
		case incident.StagePending:
			st.Pending++
		case incident.StageCompleted:
			st.Completed++
		}
		if inc.Outcome != nil {
			switch *inc.Outcome {
			case incident.OutcomePaid:
				st.Paid++
			case incident.OutcomeUnpaid:
				st.Unpaid++
			}
		}
	}
	return st, nil
}
