package incident

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
)

type IncidentServiceImpl struct {
	tx         database.Transactor
	incidents  incident.IncidentRepository
	aggregates *aggregate.Updater
	normalizer *timeutil.Normalizer
	now        func() time.Time
}

// Open implements incident.IncidentService.
func (s *IncidentServiceImpl) Open(ctx context.Context, req incident.OpenRequest) (incident.Incident, error) {
	if !req.Kind.Valid() {
		return incident.Incident{}, incident.ErrInvalidKind
	}

	existing, err := s.incidents.FindLatestCreated(ctx, req.Kind, req.EmployeeID, req.Date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, incident.ErrNoOpenIncident) {
		return incident.Incident{}, fmt.Errorf("failed to look up open %s incident: %w", req.Kind, err)
	}

	inc := incident.New(req.Kind, req.EmployeeID, req.Date, req.ScheduledTimeIn, req.ActualTimeIn, req.MinutesLate)
	inc.Reason = req.Reason
	created, err := s.incidents.Create(ctx, inc)
	if err != nil {
		return incident.Incident{}, fmt.Errorf("failed to open %s incident: %w", req.Kind, err)
	}
	return created, nil
}

// Dismiss implements incident.IncidentService.
func (s *IncidentServiceImpl) Dismiss(ctx context.Context, kind incident.Kind, employeeID string, date time.Time, reviewerID string) (int, error) {
	if !kind.Valid() {
		return 0, incident.ErrInvalidKind
	}

	open, _, err := s.incidents.List(ctx, kind, incident.Query{EmployeeID: &employeeID, From: &date, To: &date})
	if err != nil {
		return 0, fmt.Errorf("failed to list %s incidents: %w", kind, err)
	}

	closed := 0
	for _, candidate := range open {
		if candidate.Stage == incident.StageCompleted {
			continue
		}
		inc, err := s.incidents.LockByID(ctx, kind, candidate.ID)
		if err != nil {
			return closed, err
		}
		if inc.Stage == incident.StageCompleted {
			continue
		}

		unpaid := incident.OutcomeUnpaid
		reviewer := reviewerID
		inc.Stage = incident.StageCompleted
		inc.Outcome = &unpaid
		inc.ReviewerID = &reviewer
		if err := s.incidents.Update(ctx, inc); err != nil {
			return closed, fmt.Errorf("failed to dismiss %s incident: %w", kind, err)
		}
		closed++
	}
	return closed, nil
}

// SubmitJustification implements incident.IncidentService.
func (s *IncidentServiceImpl) SubmitJustification(ctx context.Context, req incident.SubmitJustificationRequest) (incident.IncidentResponse, error) {
	if err := req.Validate(); err != nil {
		return incident.IncidentResponse{}, err
	}

	date, err := s.normalizer.ParseDate(req.Date)
	if err != nil {
		return incident.IncidentResponse{}, err
	}

	var updated incident.Incident
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		inc, err := s.incidents.FindLatestCreated(txCtx, req.Kind, req.EmployeeID, date)
		if err != nil {
			return err
		}

		reason := req.Reason
		inc.Reason = &reason
		inc.Stage = incident.StagePending
		if err := s.incidents.Update(txCtx, inc); err != nil {
			return fmt.Errorf("failed to update %s incident: %w", req.Kind, err)
		}

		updated, err = s.incidents.GetByID(txCtx, req.Kind, inc.ID)
		return err
	})
	if err != nil {
		return incident.IncidentResponse{}, err
	}

	return incident.ToResponse(updated), nil
}

// Review implements incident.IncidentService.
func (s *IncidentServiceImpl) Review(ctx context.Context, req incident.ReviewRequest) (incident.ReviewResponse, error) {
	if err := req.Validate(); err != nil {
		return incident.ReviewResponse{}, err
	}

	targetMonth := s.normalizer.CurrentMonth(s.now())
	if req.TargetMonth != nil {
		m, err := s.normalizer.ParseMonth(*req.TargetMonth)
		if err != nil {
			return incident.ReviewResponse{}, err
		}
		targetMonth = m
	}

	var resp incident.ReviewResponse
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		inc, err := s.incidents.LockByID(txCtx, req.Kind, req.ID)
		if err != nil {
			return err
		}
		if inc.Stage == incident.StageCompleted {
			return incident.ErrIncidentAlreadyCompleted
		}

		inc.Stage = incident.Stage(req.Stage)
		reviewer := req.ReviewerID
		inc.ReviewerID = &reviewer
		if req.Type != nil {
			outcome := incident.Outcome(*req.Type)
			inc.Outcome = &outcome
		}
		if err := s.incidents.Update(txCtx, inc); err != nil {
			return fmt.Errorf("failed to update %s incident: %w", req.Kind, err)
		}

		if inc.Stage == incident.StageCompleted && inc.Outcome != nil && *inc.Outcome == incident.OutcomePaid {
			delta := inc.Kind.Compensation()
			lifetime, monthly, err := s.aggregates.Apply(txCtx, inc.EmployeeID, targetMonth, delta)
			if err != nil {
				return fmt.Errorf("failed to compensate %s incident: %w", req.Kind, err)
			}

			lr := attendance.ToLifetimeAggregateResponse(lifetime)
			mr := attendance.ToMonthlySummaryResponse(monthly)
			resp.Compensated = true
			resp.TargetMonth = &targetMonth
			resp.Delta = &delta
			resp.Lifetime = &lr
			resp.Monthly = &mr
		}

		updated, err := s.incidents.GetByID(txCtx, req.Kind, inc.ID)
		if err != nil {
			return err
		}
		resp.Incident = incident.ToResponse(updated)
		return nil
	})
	if err != nil {
		return incident.ReviewResponse{}, err
	}

	slog.Info("Incident reviewed",
		"kind", req.Kind,
		"incident_id", req.ID,
		"stage", req.Stage,
		"reviewer_id", req.ReviewerID,
		"compensated", resp.Compensated,
	)
	return resp, nil
}

// Get implements incident.IncidentService.
func (s *IncidentServiceImpl) Get(ctx context.Context, kind incident.Kind, id string) (incident.IncidentResponse, error) {
	if !kind.Valid() {
		return incident.IncidentResponse{}, incident.ErrInvalidKind
	}
	inc, err := s.incidents.GetByID(ctx, kind, id)
	if err != nil {
		return incident.IncidentResponse{}, err
	}
	return incident.ToResponse(inc), nil
}

// List implements incident.IncidentService.
func (s *IncidentServiceImpl) List(ctx context.Context, filter incident.IncidentFilter) (incident.ListIncidentResponse, error) {
	if err := filter.Validate(); err != nil {
		return incident.ListIncidentResponse{}, err
	}

	incidents, total, err := s.incidents.List(ctx, filter.Kind, filter.ToQuery())
	if err != nil {
		return incident.ListIncidentResponse{}, fmt.Errorf("failed to list %s incidents: %w", filter.Kind, err)
	}

	resp := incident.ListIncidentResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Incidents:  make([]incident.IncidentResponse, 0, len(incidents)),
	}
	for _, inc := range incidents {
		resp.Incidents = append(resp.Incidents, incident.ToResponse(inc))
	}
	return resp, nil
}

// Stats implements incident.IncidentService.
func (s *IncidentServiceImpl) Stats(ctx context.Context, filter incident.IncidentFilter) (incident.Stats, error) {
	if err := filter.Validate(); err != nil {
		return incident.Stats{}, err
	}
	q := filter.ToQuery()
	q.Limit, q.Offset = 0, 0
	return s.incidents.Stats(ctx, filter.Kind, q)
}

func NewIncidentService(
	tx database.Transactor,
	incidentRepo incident.IncidentRepository,
	aggregates *aggregate.Updater,
	normalizer *timeutil.Normalizer,
) incident.IncidentService {
	return &IncidentServiceImpl{
		tx:         tx,
		incidents:  incidentRepo,
		aggregates: aggregates,
		normalizer: normalizer,
		now:        time.Now,
	}
}
