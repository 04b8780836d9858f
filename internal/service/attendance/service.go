package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
	"github.com/shopspring/decimal"
)

// maxListRange bounds how far back a record listing reaches when no start date is given.
const maxListRange = 3

type AttendanceServiceImpl struct {
	tx         database.Transactor
	records    attendance.DailyRecordRepository
	incidents  incident.IncidentService
	employees  employee.EmployeeRepository
	policies   *company.PolicySource
	aggregates *aggregate.Updater
	normalizer *timeutil.Normalizer

	defaultShiftStart string
	defaultShiftEnd   string
	now               func() time.Time
}

func timePtrToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.CheckInResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckInResponse{}, err
	}

	date, err := s.normalizer.ParseDate(req.Date)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}
	if !emp.IsActive() {
		return attendance.CheckInResponse{}, employee.ErrEmployeeInactive
	}

	instants, err := s.normalizer.Normalize(date, req.CheckInTime)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	shiftStart, _ := emp.Shift(s.defaultShiftStart, s.defaultShiftEnd)
	scheduled, err := s.normalizer.ShiftStart(date, shiftStart)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	policy := s.policies.Effective(ctx)
	c := Classify(scheduled, instants.Comparison, policy)

	checkIn := instants.Storage
	rec := attendance.DailyRecord{
		EmployeeID:     emp.ID,
		Date:           date,
		CheckIn:        &checkIn,
		Mode:           attendance.Mode(req.Mode),
		Status:         c.Status,
		MinutesLate:    c.MinutesLate,
		ScheduledStart: shiftStart,
	}

	var opened *incident.Incident
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		stored, created, err := s.records.CreateIfAbsent(txCtx, rec)
		if err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		if !created {
			return attendance.ErrAlreadyCheckedIn
		}
		rec = stored
		opened, rec.BookkeepingApplied = s.applyOrDefer(txCtx, rec)
		return nil
	})
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	resp := attendance.CheckInResponse{
		RecordID:           rec.ID,
		EmployeeID:         rec.EmployeeID,
		Date:               req.Date,
		Status:             rec.Status,
		Mode:               rec.Mode,
		MinutesLate:        rec.MinutesLate,
		BookkeepingApplied: rec.BookkeepingApplied,
	}
	if c.IncidentRequired {
		details := &attendance.LateDetails{
			ScheduledTimeIn: shiftStart,
			ActualTimeIn:    timeutil.FormatClock(checkIn),
			MinutesLate:     c.MinutesLate,
		}
		if opened != nil {
			id, kind := opened.ID, string(opened.Kind)
			details.IncidentID, details.IncidentKind = &id, &kind
		}
		resp.LateDetails = details
	}

	return resp, nil
}

// applyOrDefer writes the record's derived state in a savepoint. Losing it
// must not lose the record; the reconciler picks it up later.
func (s *AttendanceServiceImpl) applyOrDefer(ctx context.Context, rec attendance.DailyRecord) (*incident.Incident, bool) {
	var opened *incident.Incident
	err := s.tx.WithinTransaction(ctx, func(bkCtx context.Context) error {
		inc, err := s.applyBookkeeping(bkCtx, rec)
		opened = inc
		return err
	})
	if err != nil {
		s.aggregates.RecordFailure()
		slog.Error("Attendance bookkeeping failed, left for reconciliation",
			"record_id", rec.ID,
			"employee_id", rec.EmployeeID,
			"date", rec.Date.Format(timeutil.DateLayout),
			"error", err,
		)
		return nil, false
	}
	return opened, true
}

// applyBookkeeping counts the record's day and opens its incident, then
// flags the record as applied. It runs inside the caller's transaction.
func (s *AttendanceServiceImpl) applyBookkeeping(ctx context.Context, rec attendance.DailyRecord) (*incident.Incident, error) {
	if _, err := s.aggregates.ApplyDailyStatus(ctx, rec.EmployeeID, rec.Date, rec.Status, rec.Mode); err != nil {
		return nil, err
	}

	var opened *incident.Incident
	if kind, ok := incident.KindForStatus(rec.Status); ok && rec.CheckIn != nil {
		inc, err := s.incidents.Open(ctx, openRequest(kind, rec, nil))
		if err != nil {
			return nil, err
		}
		opened = &inc
	}

	if err := s.records.MarkBookkeepingApplied(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("failed to mark bookkeeping applied: %w", err)
	}
	return opened, nil
}

func openRequest(kind incident.Kind, rec attendance.DailyRecord, reason *string) incident.OpenRequest {
	return incident.OpenRequest{
		Kind:            kind,
		EmployeeID:      rec.EmployeeID,
		Date:            rec.Date,
		ScheduledTimeIn: rec.ScheduledStart,
		ActualTimeIn:    *rec.CheckIn,
		MinutesLate:     rec.MinutesLate,
		Reason:          reason,
	}
}

func workedHours(checkIn, checkOut time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(checkOut.Sub(checkIn) / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2)
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.CheckOutResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckOutResponse{}, err
	}

	date, err := s.normalizer.ParseDate(req.Date)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	instants, err := s.normalizer.Normalize(date, req.CheckOutTime)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}
	checkOut := instants.Storage

	var (
		rec   attendance.DailyRecord
		hours decimal.Decimal
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err = s.records.LockByEmployeeAndDate(txCtx, req.EmployeeID, date)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return fmt.Errorf("failed to get attendance record: %w", err)
		}
		if rec.CheckIn == nil {
			return attendance.ErrNotCheckedIn
		}
		if rec.CheckOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}
		if checkOut.Before(*rec.CheckIn) {
			return attendance.ErrCheckoutBeforeCheckin
		}

		hours = workedHours(*rec.CheckIn, checkOut)

		if err := s.records.SetCheckOut(txCtx, rec.ID, checkOut, hours); err != nil {
			return fmt.Errorf("failed to record check-out: %w", err)
		}
		rec.CheckOut = &checkOut
		return nil
	})
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	return attendance.CheckOutResponse{
		RecordID:         rec.ID,
		EmployeeID:       rec.EmployeeID,
		Date:             req.Date,
		CheckInTime:      timePtrToString(rec.CheckIn),
		CheckOutTime:     timePtrToString(rec.CheckOut),
		TotalHoursWorked: hours,
	}, nil
}

// GetRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.DailyRecordResponse, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return attendance.DailyRecordResponse{}, err
	}
	return attendance.ToDailyRecordResponse(rec), nil
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.DailyRecordFilter) (attendance.ListDailyRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListDailyRecordResponse{}, err
	}

	q := attendance.RecordQuery{
		EmployeeID: filter.EmployeeID,
		Limit:      filter.Limit,
		Offset:     (filter.Page - 1) * filter.Limit,
	}

	to := s.normalizer.Today(s.now())
	if filter.EndDate != nil && *filter.EndDate != "" {
		d, err := s.normalizer.ParseDate(*filter.EndDate)
		if err != nil {
			return attendance.ListDailyRecordResponse{}, err
		}
		to = d
	}
	from := to.AddDate(0, -maxListRange, 0)
	if filter.StartDate != nil && *filter.StartDate != "" {
		d, err := s.normalizer.ParseDate(*filter.StartDate)
		if err != nil {
			return attendance.ListDailyRecordResponse{}, err
		}
		from = d
	}
	q.From, q.To = &from, &to

	if filter.Status != nil {
		st := attendance.Status(*filter.Status)
		q.Status = &st
	}

	records, total, err := s.records.List(ctx, q)
	if err != nil {
		return attendance.ListDailyRecordResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	resp := attendance.ListDailyRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Records:    make([]attendance.DailyRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, attendance.ToDailyRecordResponse(r))
	}
	return resp, nil
}

// Reclassify implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Reclassify(ctx context.Context, req attendance.ReclassifyRequest) (attendance.ReclassifyResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ReclassifyResponse{}, err
	}
	to := attendance.Status(req.Status)

	var resp attendance.ReclassifyResponse
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err := s.records.LockByID(txCtx, req.RecordID)
		if err != nil {
			return err
		}
		if rec.Status == to {
			return attendance.ErrStatusUnchanged
		}
		from := rec.Status

		if err := s.records.SetStatus(txCtx, rec.ID, to); err != nil {
			return fmt.Errorf("failed to update attendance status: %w", err)
		}
		rec.Status = to

		// The old status's incidents no longer describe the day.
		if kind, ok := incident.KindForStatus(from); ok {
			if newKind, _ := incident.KindForStatus(to); newKind != kind {
				if _, err := s.incidents.Dismiss(txCtx, kind, rec.EmployeeID, rec.Date, req.ReviewerID); err != nil {
					return err
				}
			}
		}

		// Unapplied records are counted with their new status by the reconciler.
		var delta attendance.CounterDelta
		if rec.BookkeepingApplied {
			delta, err = s.aggregates.Reclassify(txCtx, rec.EmployeeID, rec.Date, rec.Mode, from, to)
			if err != nil {
				return err
			}

			if kind, ok := incident.KindForStatus(to); ok && rec.CheckIn != nil {
				var reason *string
				if req.Reason != "" {
					reason = &req.Reason
				}
				inc, err := s.incidents.Open(txCtx, openRequest(kind, rec, reason))
				if err != nil {
					return err
				}
				resp.IncidentID = &inc.ID
			}
		}

		updated, err := s.records.GetByID(txCtx, rec.ID)
		if err != nil {
			return err
		}
		resp.Record = attendance.ToDailyRecordResponse(updated)
		resp.Previous = from
		resp.Delta = delta
		return nil
	})
	if err != nil {
		return attendance.ReclassifyResponse{}, err
	}

	slog.Info("Attendance reclassified",
		"record_id", req.RecordID,
		"from", resp.Previous,
		"to", to,
		"reviewer_id", req.ReviewerID,
		"reason", req.Reason,
	)
	return resp, nil
}

// GetMonthlySummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMonthlySummary(ctx context.Context, employeeID string, month string) (attendance.MonthlySummaryResponse, error) {
	m, err := s.normalizer.ParseMonth(month)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}
	summary, err := s.aggregates.Monthly(ctx, employeeID, m)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}
	return attendance.ToMonthlySummaryResponse(summary), nil
}

// GetLifetimeAggregate implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetLifetimeAggregate(ctx context.Context, employeeID string) (attendance.LifetimeAggregateResponse, error) {
	agg, err := s.aggregates.Lifetime(ctx, employeeID)
	if err != nil {
		return attendance.LifetimeAggregateResponse{}, err
	}
	return attendance.ToLifetimeAggregateResponse(agg), nil
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return false, err
	}
	shiftStart, _ := emp.Shift(s.defaultShiftStart, s.defaultShiftEnd)

	created := false
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		stored, ok, err := s.records.CreateIfAbsent(txCtx, attendance.DailyRecord{
			EmployeeID:     emp.ID,
			Date:           date,
			Mode:           attendance.ModeOnsite,
			Status:         attendance.StatusAbsent,
			ScheduledStart: shiftStart,
		})
		if err != nil {
			return fmt.Errorf("failed to create absence record: %w", err)
		}
		if !ok {
			return nil
		}
		created = true
		s.applyOrDefer(txCtx, stored)
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// AutoCheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) AutoCheckOut(ctx context.Context, date time.Time, cutoff time.Time) (int, error) {
	open, err := s.records.ListOpenSessions(ctx, date)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, candidate := range open {
		checkOut, err := s.scheduledCheckOut(ctx, candidate)
		if err != nil {
			slog.Error("Failed to compute auto check-out", "record_id", candidate.ID, "error", err)
			continue
		}
		if checkOut.After(cutoff) {
			checkOut = cutoff
		}

		updated := false
		err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			rec, err := s.records.LockByID(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			if rec.CheckIn == nil || rec.CheckOut != nil {
				return nil
			}
			out := checkOut
			if out.Before(*rec.CheckIn) {
				out = *rec.CheckIn
			}
			if err := s.records.SetCheckOut(txCtx, rec.ID, out, workedHours(*rec.CheckIn, out)); err != nil {
				return fmt.Errorf("failed to record check-out: %w", err)
			}
			updated = true
			return nil
		})
		if err != nil {
			slog.Error("Failed to auto check-out", "record_id", candidate.ID, "employee_id", candidate.EmployeeID, "error", err)
			continue
		}
		if updated {
			closed++
		}
	}
	return closed, nil
}

// scheduledCheckOut is the shift end on the record's date, on the next day
// when the shift crosses midnight.
func (s *AttendanceServiceImpl) scheduledCheckOut(ctx context.Context, rec attendance.DailyRecord) (time.Time, error) {
	start, end := s.defaultShiftStart, s.defaultShiftEnd
	if emp, err := s.employees.GetByID(ctx, rec.EmployeeID); err == nil {
		start, end = emp.Shift(s.defaultShiftStart, s.defaultShiftEnd)
	}

	startAt, err := s.normalizer.Normalize(rec.Date, start)
	if err != nil {
		return time.Time{}, err
	}
	endAt, err := s.normalizer.Normalize(rec.Date, end)
	if err != nil {
		return time.Time{}, err
	}
	if !endAt.Storage.After(startAt.Storage) {
		return endAt.Storage.AddDate(0, 0, 1), nil
	}
	return endAt.Storage, nil
}

// ReconcileBookkeeping implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ReconcileBookkeeping(ctx context.Context, limit int) (int, error) {
	pending, err := s.records.ListPendingBookkeeping(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending bookkeeping: %w", err)
	}

	repaired := 0
	for _, p := range pending {
		err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			rec, err := s.records.LockByID(txCtx, p.ID)
			if err != nil {
				return err
			}
			if rec.BookkeepingApplied {
				return nil
			}
			_, err = s.applyBookkeeping(txCtx, rec)
			return err
		})
		if err != nil {
			slog.Error("Failed to reconcile attendance bookkeeping", "record_id", p.ID, "error", err)
			continue
		}
		repaired++
	}
	return repaired, nil
}

func NewAttendanceService(
	tx database.Transactor,
	recordRepo attendance.DailyRecordRepository,
	incidentService incident.IncidentService,
	employeeRepo employee.EmployeeRepository,
	policies *company.PolicySource,
	aggregates *aggregate.Updater,
	normalizer *timeutil.Normalizer,
	defaultShiftStart, defaultShiftEnd string,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                tx,
		records:           recordRepo,
		incidents:         incidentService,
		employees:         employeeRepo,
		policies:          policies,
		aggregates:        aggregates,
		normalizer:        normalizer,
		defaultShiftStart: defaultShiftStart,
		defaultShiftEnd:   defaultShiftEnd,
		now:               time.Now,
	}
}
